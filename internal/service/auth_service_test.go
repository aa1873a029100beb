package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/participium/participium-api/internal/models"
	appErrors "github.com/participium/participium-api/pkg/errors"
)

type userStoreStub struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func newUserStoreStub(users ...*models.User) *userStoreStub {
	s := &userStoreStub{byEmail: map[string]*models.User{}, byID: map[string]*models.User{}}
	for _, u := range users {
		s.byEmail[u.Email] = u
		s.byID[u.ID] = u
	}
	return s
}

func (s *userStoreStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	user, ok := s.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *userStoreStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (s *userStoreStub) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "u-new"
	}
	s.byEmail[user.Email] = user
	s.byID[user.ID] = user
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{TokenSecret: "test-secret", TokenExpiry: time.Hour, Issuer: "participium-test"}
}

func TestRegisterCreatesCitizen(t *testing.T) {
	store := newUserStoreStub()
	svc := NewAuthService(store, nil, nil, testAuthConfig())

	info, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "anna@example.com",
		Password:  "supersecret",
		FirstName: "Anna",
		LastName:  "Bianchi",
	})
	require.NoError(t, err)

	assert.Equal(t, models.RoleCitizen, info.Role)
	stored := store.byEmail["anna@example.com"]
	require.NotNil(t, stored)
	assert.NotEqual(t, "supersecret", stored.PasswordHash)
	assert.True(t, stored.Active)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := newUserStoreStub(&models.User{ID: "u1", Email: "anna@example.com"})
	svc := NewAuthService(store, nil, nil, testAuthConfig())

	_, err := svc.Register(context.Background(), models.RegisterRequest{
		Email:     "anna@example.com",
		Password:  "supersecret",
		FirstName: "Anna",
		LastName:  "Bianchi",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestLoginAndValidateTokenRoundTrip(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	store := newUserStoreStub(&models.User{
		ID:           "u1",
		Email:        "anna@example.com",
		PasswordHash: string(hash),
		FirstName:    "Anna",
		LastName:     "Bianchi",
		Role:         models.RolePROfficer,
		Active:       true,
	})
	svc := NewAuthService(store, nil, nil, testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "anna@example.com", Password: "supersecret"})
	require.NoError(t, err)
	require.NotEmpty(t, res.AccessToken)
	assert.Equal(t, models.RolePROfficer, res.User.Role)

	claims, err := svc.ValidateToken(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RolePROfficer, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	store := newUserStoreStub(&models.User{
		ID:           "u1",
		Email:        "anna@example.com",
		PasswordHash: string(hash),
		Active:       true,
	})
	svc := NewAuthService(store, nil, nil, testAuthConfig())

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "anna@example.com", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("supersecret"), bcrypt.MinCost)
	require.NoError(t, err)

	store := newUserStoreStub(&models.User{
		ID:           "u1",
		Email:        "anna@example.com",
		PasswordHash: string(hash),
		Active:       false,
	})
	svc := NewAuthService(store, nil, nil, testAuthConfig())

	_, err = svc.Login(context.Background(), models.LoginRequest{Email: "anna@example.com", Password: "supersecret"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenGarbage(t *testing.T) {
	svc := NewAuthService(newUserStoreStub(), nil, nil, testAuthConfig())

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
