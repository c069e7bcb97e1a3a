package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

type contextKey string

const (
	userIDKey     contextKey = "userID"
	businessIDKey contextKey = "businessID"
)

// Claims is the JWT payload issued at login.
type Claims struct {
	UserID     int64 `json:"user_id"`
	BusinessID int64 `json:"business_id"`
	jwt.RegisteredClaims
}

type Authenticator struct {
	secret []byte
	redis  *redis.Client
	logger *zap.Logger
}

// NewAuthenticator verifies HS256 tokens signed with secret. rdb may be nil,
// in which case revoked tokens are not checked.
func NewAuthenticator(secret string, rdb *redis.Client, logger *zap.Logger) *Authenticator {
	return &Authenticator{secret: []byte(secret), redis: rdb, logger: logger}
}

// BlacklistKey is the Redis key marking a revoked token.
func BlacklistKey(token string) string {
	return fmt.Sprintf("blacklist:%s", token)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func (a *Authenticator) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 || claims.BusinessID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Middleware rejects requests without a valid, unrevoked bearer token and
// stores the caller's user and business ids in the request context.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			writeUnauthorized(w, "Authorization header required")
			return
		}

		token, ok := BearerToken(r)
		if !ok {
			writeUnauthorized(w, "Invalid authorization header format")
			return
		}

		claims, err := a.ParseToken(token)
		if err != nil {
			a.logger.Debug("token rejected", zap.Error(err))
			writeUnauthorized(w, "Invalid token")
			return
		}

		if a.redis != nil {
			n, err := a.redis.Exists(r.Context(), BlacklistKey(token)).Result()
			switch {
			case err != nil:
				a.logger.Warn("token blacklist lookup failed", zap.Error(err))
			case n > 0:
				writeUnauthorized(w, "Token has been revoked")
				return
			}
		}

		ctx := WithIdentity(r.Context(), claims.UserID, claims.BusinessID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeError(w, http.StatusUnauthorized, message)
}

// WithIdentity returns ctx carrying the authenticated user and business.
func WithIdentity(ctx context.Context, userID, businessID int64) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, businessIDKey, businessID)
}

func UserIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok && id > 0
}

func BusinessIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(businessIDKey).(int64)
	return id, ok && id > 0
}
