package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/opencenters/catalog-api/internal/models"
	"github.com/opencenters/catalog-api/internal/store"
	appErrors "github.com/opencenters/catalog-api/pkg/errors"
)

func seedUsers(t *testing.T, st *store.MemStore, users ...models.User) {
	t.Helper()
	raw, err := json.Marshal(models.UserDirectory{Users: users})
	require.NoError(t, err)
	st.SeedText(store.UsersFile, string(raw))
}

func hashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthFixture(t *testing.T) (*AuthService, *store.MemStore) {
	t.Helper()
	st := store.NewMemStore()
	seedUsers(t, st,
		models.User{ID: "u1", Name: "Uma", PasswordHash: hashPassword(t, "secret1")},
		models.User{ID: "root", Name: "Root", PasswordHash: hashPassword(t, "rootpw"), Admin: true},
	)
	svc := NewAuthService(st, nil, nil, AuthConfig{Secret: "test_secret", Expiration: time.Hour, Issuer: "catalog-api"})
	return svc, st
}

func TestAuthServiceLogin(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{UserID: "u1", Password: "secret1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "u1", resp.User.ID)
	assert.False(t, resp.User.Admin)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "Uma", claims.Name)
	assert.Equal(t, "catalog-api", claims.Issuer)
}

func TestAuthServiceLoginAdminFlag(t *testing.T) {
	svc, _ := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{UserID: "root", Password: "rootpw"})
	require.NoError(t, err)
	assert.True(t, resp.User.Admin)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.True(t, claims.Admin)
}

func TestAuthServiceLoginFailures(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{UserID: "u1", Password: "wrong"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{UserID: "ghost", Password: "whatever"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), models.LoginRequest{UserID: "u1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAuthServiceLoginWithoutUsersDocument(t *testing.T) {
	st := store.NewMemStore()
	svc := NewAuthService(st, nil, nil, AuthConfig{Secret: "test_secret", Expiration: time.Hour})

	_, err := svc.Login(context.Background(), models.LoginRequest{UserID: "u1", Password: "secret1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestAuthServiceValidateTokenRejections(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not-a-token")
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	// Token signed with a different secret.
	seededStore := store.NewMemStore()
	seedUsers(t, seededStore, models.User{ID: "u1", Name: "Uma", PasswordHash: hashPassword(t, "pw")})
	issuer := NewAuthService(seededStore, nil, nil, AuthConfig{Secret: "other_secret", Expiration: time.Hour})
	resp, err := issuer.Login(context.Background(), models.LoginRequest{UserID: "u1", Password: "pw"})
	require.NoError(t, err)

	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)

	// Expired token.
	expired := NewAuthService(seededStore, nil, nil, AuthConfig{Secret: "test_secret", Expiration: -time.Minute})
	resp, err = expired.Login(context.Background(), models.LoginRequest{UserID: "u1", Password: "pw"})
	require.NoError(t, err)
	_, err = svc.ValidateToken(resp.AccessToken)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
