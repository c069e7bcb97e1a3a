package services

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fintrack/backend/internal/config"
	"github.com/fintrack/backend/internal/database"
	"github.com/fintrack/backend/internal/middleware"
	"github.com/fintrack/backend/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthService struct {
	db         *sql.DB
	redis      *redis.Client
	validator  *ValidationHelper
	logger     *zap.Logger
	jwt        config.JWTConfig
	bcryptCost int
	now        func() time.Time
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"owner@example.com"` // User email
	Password string `json:"password" validate:"required" example:"password123"`          // User password
}

// RegisterRequest creates a business and its owner account
// @Description Registration request structure
type RegisterRequest struct {
	BusinessName string `json:"businessName" validate:"required,max=200" example:"Acme Trading"`     // Business name
	Currency     string `json:"currency,omitempty" validate:"omitempty,len=3" example:"USD"`         // ISO currency code
	Name         string `json:"name" validate:"required,min=2,max=200" example:"Jane Doe"`           // Owner name
	Email        string `json:"email" validate:"required,email,max=255" example:"owner@example.com"` // Owner email
	Password     string `json:"password" validate:"required,min=8,max=72" example:"password123"`     // Owner password
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
	User  models.User `json:"user"`                                                    // User information
}

func NewAuthService(db *sql.DB, redisClient *redis.Client, jwtCfg config.JWTConfig, bcryptCost int, logger *zap.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		db:         db,
		redis:      redisClient,
		validator:  NewValidationHelper(),
		logger:     logger.Named("auth"),
		jwt:        jwtCfg,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
}

// Register handles business and owner registration
// @Summary Register a business
// @Description Create a business and its owner user, returning a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 201 {object} AuthResponse "Registration successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 409 {object} ErrorResponse "Email already exists"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	currency := strings.ToUpper(req.Currency)
	if currency == "" {
		currency = "USD"
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
		return
	}

	user := models.User{Name: req.Name, Email: email, Role: "owner"}
	err = database.WithTx(r.Context(), s.db, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(r.Context(),
			`INSERT INTO businesses (name, currency) VALUES ($1, $2) RETURNING id`,
			req.BusinessName, currency,
		).Scan(&user.BusinessID); err != nil {
			return err
		}

		return tx.QueryRowContext(r.Context(), `
			INSERT INTO users (business_id, name, email, password_hash, role)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at`,
			user.BusinessID, user.Name, user.Email, string(hashed), user.Role,
		).Scan(&user.ID, &user.CreatedAt)
	})
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			SendErrorResponse(w, "Email already exists", http.StatusConflict, nil)
			return
		}
		s.logger.Error("registration failed", zap.String("email", email), zap.Error(err))
		SendErrorResponse(w, "Failed to create user", http.StatusInternalServerError, nil)
		return
	}

	token, err := s.GenerateToken(user.ID, user.BusinessID)
	if err != nil {
		s.logger.Error("token generation failed", zap.Int64("user_id", user.ID), zap.Error(err))
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	s.logger.Info("business registered", zap.Int64("business_id", user.BusinessID), zap.Int64("user_id", user.ID))
	WriteJSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login handles user authentication
// @Summary Login user
// @Description Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {object} ErrorResponse "Invalid request"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
		return
	}
	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := s.db.QueryRowContext(r.Context(),
		`SELECT id, business_id, name, email, password_hash, role, created_at FROM users WHERE email = $1`,
		email,
	).Scan(&user.ID, &user.BusinessID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logger.Error("user lookup failed", zap.Error(err))
		}
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("invalid password", zap.Int64("user_id", user.ID))
		SendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	token, err := s.GenerateToken(user.ID, user.BusinessID)
	if err != nil {
		s.logger.Error("token generation failed", zap.Int64("user_id", user.ID), zap.Error(err))
		SendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	WriteJSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Logout handles user logout
// @Summary Logout user
// @Description Revoke the bearer token until it expires
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	if token, ok := middleware.BearerToken(r); ok && s.redis != nil {
		if err := s.revoke(r.Context(), token); err != nil {
			s.logger.Warn("failed to blacklist token", zap.Error(err))
		}
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "Logout successful"})
}

// revoke blacklists token for the rest of its lifetime.
func (s *AuthService) revoke(ctx context.Context, token string) error {
	ttl := time.Duration(s.jwt.ExpiryHours) * time.Hour

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil && claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(s.now())
	}
	if ttl <= 0 {
		return nil
	}
	return s.redis.Set(ctx, middleware.BlacklistKey(token), "1", ttl).Err()
}

// Me returns the authenticated user
// @Summary Current user
// @Description Get the authenticated user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.User
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /auth/me [get]
func (s *AuthService) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var user models.User
	err := s.db.QueryRowContext(r.Context(),
		`SELECT id, business_id, name, email, role, created_at FROM users WHERE id = $1`,
		userID,
	).Scan(&user.ID, &user.BusinessID, &user.Name, &user.Email, &user.Role, &user.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		SendErrorResponse(w, "User not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		s.logger.Error("failed to fetch user", zap.Int64("user_id", userID), zap.Error(err))
		SendErrorResponse(w, "Failed to fetch user details", http.StatusInternalServerError, nil)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// Claims is the token payload shared with the auth middleware.
type Claims = middleware.Claims

// GenerateToken issues an HS256 token for the user and business.
func (s *AuthService) GenerateToken(userID, businessID int64) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:     userID,
		BusinessID: businessID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.jwt.ExpiryHours) * time.Hour)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwt.SecretKey))
}
