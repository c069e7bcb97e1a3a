package services

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/fintrack/backend/internal/config"
	"github.com/fintrack/backend/internal/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redismock/v8"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var testJWT = config.JWTConfig{SecretKey: "test-secret", ExpiryHours: 24}

func newTestAuth(t *testing.T, rdb *redis.Client) (*AuthService, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc := NewAuthService(db, rdb, testJWT, bcrypt.MinCost, zap.NewNop())
	now := time.Now().Truncate(time.Second)
	svc.now = func() time.Time { return now }
	return svc, mock
}

func TestAuthService_Register(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		service, mock := newTestAuth(t, nil)

		req := RegisterRequest{
			BusinessName: "Acme Trading",
			Name:         "Jane Doe",
			Email:        "Owner@Example.com",
			Password:     "password123",
		}

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO businesses").
			WithArgs("Acme Trading", "USD").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
		mock.ExpectQuery("INSERT INTO users").
			WithArgs(int64(3), "Jane Doe", "owner@example.com", sqlmock.AnyArg(), "owner").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(9), time.Now()))
		mock.ExpectCommit()

		body, _ := json.Marshal(req)
		r := httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body))
		w := httptest.NewRecorder()

		service.Register(w, r)

		assert.Equal(t, http.StatusCreated, w.Code)
		var response AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "owner@example.com", response.User.Email)
		assert.Equal(t, int64(3), response.User.BusinessID)

		claims, err := middleware.NewAuthenticator(testJWT.SecretKey, nil, zap.NewNop()).ParseToken(response.Token)
		require.NoError(t, err)
		assert.Equal(t, int64(9), claims.UserID)
		assert.Equal(t, int64(3), claims.BusinessID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		service, mock := newTestAuth(t, nil)

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO businesses").WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))
		mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})
		mock.ExpectRollback()

		body, _ := json.Marshal(RegisterRequest{BusinessName: "Acme", Name: "Jane", Email: "a@b.com", Password: "password123"})
		w := httptest.NewRecorder()
		service.Register(w, httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid request body", func(t *testing.T) {
		service, _ := newTestAuth(t, nil)

		w := httptest.NewRecorder()
		service.Register(w, httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer([]byte("invalid"))))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("short password", func(t *testing.T) {
		service, _ := newTestAuth(t, nil)

		body, _ := json.Marshal(RegisterRequest{BusinessName: "Acme", Name: "Jane", Email: "a@b.com", Password: "short"})
		w := httptest.NewRecorder()
		service.Register(w, httptest.NewRequest("POST", "/auth/register", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		require.Len(t, response.Errors, 1)
		assert.Equal(t, "password", response.Errors[0].Field)
	})
}

func TestAuthService_Login(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	require.NoError(t, err)

	userColumns := []string{"id", "business_id", "name", "email", "password_hash", "role", "created_at"}

	t.Run("successful login", func(t *testing.T) {
		service, mock := newTestAuth(t, nil)

		mock.ExpectQuery("SELECT id, business_id, name, email, password_hash, role, created_at FROM users").
			WithArgs("owner@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(int64(9), int64(3), "Jane Doe", "owner@example.com", string(hashed), "owner", time.Now()))

		body, _ := json.Marshal(LoginRequest{Email: "owner@example.com", Password: "password123"})
		w := httptest.NewRecorder()
		service.Login(w, httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusOK, w.Code)
		var response AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.NotEmpty(t, response.Token)
		assert.NotContains(t, w.Body.String(), "password_hash")
	})

	t.Run("wrong password", func(t *testing.T) {
		service, mock := newTestAuth(t, nil)

		mock.ExpectQuery("FROM users WHERE email").
			WillReturnRows(sqlmock.NewRows(userColumns).
				AddRow(int64(9), int64(3), "Jane Doe", "owner@example.com", string(hashed), "owner", time.Now()))

		body, _ := json.Marshal(LoginRequest{Email: "owner@example.com", Password: "wrongpassword"})
		w := httptest.NewRecorder()
		service.Login(w, httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("user not found", func(t *testing.T) {
		service, mock := newTestAuth(t, nil)

		mock.ExpectQuery("FROM users WHERE email").
			WithArgs("nonexistent@example.com").
			WillReturnRows(sqlmock.NewRows(userColumns))

		body, _ := json.Marshal(LoginRequest{Email: "nonexistent@example.com", Password: "password123"})
		w := httptest.NewRecorder()
		service.Login(w, httptest.NewRequest("POST", "/auth/login", bytes.NewBuffer(body)))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestAuthService_Logout(t *testing.T) {
	rdb, rmock := redismock.NewClientMock()
	service, _ := newTestAuth(t, rdb)

	token, err := service.GenerateToken(9, 3)
	require.NoError(t, err)

	rmock.ExpectSet(middleware.BlacklistKey(token), "1", 24*time.Hour).SetVal("OK")

	r := httptest.NewRequest("POST", "/auth/logout", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()

	service.Logout(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestAuthService_LogoutWithoutRedis(t *testing.T) {
	service, _ := newTestAuth(t, nil)

	r := httptest.NewRequest("POST", "/auth/logout", nil)
	r.Header.Set("Authorization", "Bearer whatever")
	w := httptest.NewRecorder()

	service.Logout(w, r)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Logout successful")
}

func TestAuthService_Me(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		service, mock := newTestAuth(t, nil)

		mock.ExpectQuery("FROM users WHERE id").
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "business_id", "name", "email", "role", "created_at"}).
				AddRow(int64(9), int64(3), "Jane Doe", "owner@example.com", "owner", time.Now()))

		r := httptest.NewRequest("GET", "/auth/me", nil)
		r = r.WithContext(middleware.WithIdentity(r.Context(), 9, 3))
		w := httptest.NewRecorder()

		service.Me(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"email":"owner@example.com"`)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no identity", func(t *testing.T) {
		service, _ := newTestAuth(t, nil)

		w := httptest.NewRecorder()
		service.Me(w, httptest.NewRequest("GET", "/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestGenerateToken(t *testing.T) {
	service, _ := newTestAuth(t, nil)

	token, err := service.GenerateToken(123, 7)
	require.NoError(t, err)

	claims, err := middleware.NewAuthenticator("test-secret", nil, zap.NewNop()).ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, int64(123), claims.UserID)
	assert.Equal(t, int64(7), claims.BusinessID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), claims.ExpiresAt.Time, time.Minute)

	_, err = middleware.NewAuthenticator("other-secret", nil, zap.NewNop()).ParseToken(token)
	assert.Error(t, err)
}
