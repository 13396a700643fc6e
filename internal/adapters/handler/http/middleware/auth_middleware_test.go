package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/lucagrillo/habitgrid/internal/core/domain"
	"github.com/lucagrillo/habitgrid/internal/core/services"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func protectedRouter(tokens *services.TokenService) *gin.Engine {
	router := gin.New()
	router.Use(AuthMiddleware(tokens))
	router.GET("/whoami", func(c *gin.Context) {
		userID, ok := GetUserID(c)
		if !ok {
			c.String(http.StatusInternalServerError, "no user in context")
			return
		}
		c.String(http.StatusOK, userID)
	})
	return router
}

func callWhoami(router *gin.Engine, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	const (
		secret = "middleware-test-secret"
		issuer = "habitgrid-test"
	)

	t.Run("valid token reaches the handler", func(t *testing.T) {
		repo := new(MockUserRepo)
		repo.On("GetByID", mock.Anything, "user-42").Return(&domain.User{ID: "user-42"}, nil)
		tokens := services.NewTokenService(secret, issuer, time.Hour, repo)

		token, err := tokens.GenerateToken("user-42")
		assert.NoError(t, err)

		w := callWhoami(protectedRouter(tokens), "Bearer "+token)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user-42", w.Body.String())
	})

	t.Run("missing header", func(t *testing.T) {
		tokens := services.NewTokenService(secret, issuer, time.Hour, new(MockUserRepo))

		w := callWhoami(protectedRouter(tokens), "")

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "authorization header required")
	})

	t.Run("malformed headers", func(t *testing.T) {
		tokens := services.NewTokenService(secret, issuer, time.Hour, new(MockUserRepo))
		router := protectedRouter(tokens)

		for _, header := range []string{
			"Bearer",
			"Bearer ",
			"Bearer12345",
			"Basic dXNlcjpwYXNz",
		} {
			w := callWhoami(router, header)
			assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q should be rejected", header)
		}
	})

	t.Run("token signed with another secret", func(t *testing.T) {
		repo := new(MockUserRepo)
		tokens := services.NewTokenService(secret, issuer, time.Hour, repo)
		forger := services.NewTokenService("not-the-secret", issuer, time.Hour, repo)

		forged, err := forger.GenerateToken("intruder")
		assert.NoError(t, err)

		w := callWhoami(protectedRouter(tokens), "Bearer "+forged)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid or expired token")
	})

	t.Run("expired token", func(t *testing.T) {
		tokens := services.NewTokenService(secret, issuer, -time.Minute, new(MockUserRepo))

		stale, err := tokens.GenerateToken("user-42")
		assert.NoError(t, err)

		w := callWhoami(protectedRouter(tokens), "Bearer "+stale)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "invalid or expired token")
	})
}
