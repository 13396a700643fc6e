package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lucagrillo/habitgrid/internal/core/domain"
)

type mockUserStore struct {
	mock.Mock
}

func (m *mockUserStore) Create(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserStore) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserStore) Update(ctx context.Context, user *domain.User) error {
	return m.Called(ctx, user).Error(0)
}

func TestTokenService(t *testing.T) {
	const (
		secret = "unit-test-signing-secret"
		issuer = "habitgrid-test"
		userID = "e7c48f3a-user"
	)

	newService := func(store *mockUserStore) *TokenService {
		return NewTokenService(secret, issuer, time.Hour, store)
	}

	t.Run("roundtrip returns the subject", func(t *testing.T) {
		store := new(mockUserStore)
		store.On("GetByID", mock.Anything, userID).Return(&domain.User{ID: userID}, nil)
		svc := newService(store)

		token, err := svc.GenerateToken(userID)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		subject, err := svc.ValidateToken(token)
		assert.NoError(t, err)
		assert.Equal(t, userID, subject)
		store.AssertExpectations(t)
	})

	t.Run("token of a deleted user is rejected", func(t *testing.T) {
		store := new(mockUserStore)
		store.On("GetByID", mock.Anything, userID).Return(nil, errors.New("user not found"))
		svc := newService(store)

		token, err := svc.GenerateToken(userID)
		require.NoError(t, err)

		subject, err := svc.ValidateToken(token)
		assert.ErrorContains(t, err, "user no longer exists")
		assert.Empty(t, subject)
		store.AssertExpectations(t)
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		store := new(mockUserStore)
		svc := NewTokenService(secret, issuer, -time.Second, store)

		token, err := svc.GenerateToken(userID)
		require.NoError(t, err)

		subject, err := svc.ValidateToken(token)
		assert.ErrorContains(t, err, "token is expired")
		assert.Empty(t, subject)
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		store := new(mockUserStore)
		forger := NewTokenService("some-other-secret", issuer, time.Hour, store)
		token, err := forger.GenerateToken(userID)
		require.NoError(t, err)

		subject, err := newService(store).ValidateToken(token)
		assert.ErrorContains(t, err, "invalid token")
		assert.Empty(t, subject)
	})

	t.Run("foreign issuer is rejected", func(t *testing.T) {
		store := new(mockUserStore)
		other := NewTokenService(secret, "some-other-api", time.Hour, store)
		token, err := other.GenerateToken(userID)
		require.NoError(t, err)

		subject, err := newService(store).ValidateToken(token)
		assert.ErrorContains(t, err, "invalid issuer")
		assert.Empty(t, subject)
	})

	t.Run("alg none is rejected", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).
			SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		subject, err := newService(new(mockUserStore)).ValidateToken(unsigned)
		assert.ErrorContains(t, err, "invalid token")
		assert.Empty(t, subject)
	})

	t.Run("garbage input is rejected", func(t *testing.T) {
		subject, err := newService(new(mockUserStore)).ValidateToken("not.a.jwt")
		assert.ErrorContains(t, err, "invalid token")
		assert.Empty(t, subject)
	})
}
