package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travel-service/internal/models"
	"travel-service/internal/testutil"
)

func newAuthService(st *testutil.MemStore, kv *testutil.MemKV) *AuthService {
	return NewAuthService(st, kv, AuthOptions{
		Secret:     "test-secret",
		Issuer:     "travel-service-test",
		AccessTTL:  time.Minute,
		RefreshTTL: time.Hour,
	})
}

func register(t *testing.T, svc *AuthService, username string, role models.Role) *models.User {
	t.Helper()
	u, err := svc.Register(context.Background(), &RegisterRequest{
		Username: username,
		Password: "correct horse",
		Email:    username + "@Example.com",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func TestRegisterRoles(t *testing.T) {
	svc := newAuthService(testutil.NewMemStore(), testutil.NewMemKV())

	u := register(t, svc, "hanna", models.RoleHost)
	assert.Equal(t, models.RoleHost, u.Role)
	assert.Equal(t, "hanna@example.com", u.Email)
	assert.NotEqual(t, "correct horse", u.PasswordHash)

	_, err := svc.Register(context.Background(), &RegisterRequest{
		Username: "root", Password: "correct horse", Email: "root@example.com", Role: models.RoleAdmin,
	})
	var v *ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "role")

	_, err = svc.Register(context.Background(), &RegisterRequest{
		Username: "hanna", Password: "correct horse", Email: "other@example.com", Role: models.RoleGuest,
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestObtainTokenAndAuthenticate(t *testing.T) {
	svc := newAuthService(testutil.NewMemStore(), testutil.NewMemKV())
	u := register(t, svc, "abebe", models.RoleGuest)

	pair, err := svc.ObtainToken(context.Background(), &TokenRequest{Username: "abebe", Password: "correct horse"})
	require.NoError(t, err)

	id, err := svc.Authenticate(pair.Access)
	require.NoError(t, err)
	assert.True(t, id.Authenticated)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, models.RoleGuest, id.Role)

	_, err = svc.Authenticate(pair.Refresh)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.Authenticate("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.ObtainToken(context.Background(), &TokenRequest{Username: "abebe", Password: "wrong"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.ObtainToken(context.Background(), &TokenRequest{Username: "nobody", Password: "x"})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenFromOtherSecretRejected(t *testing.T) {
	st := testutil.NewMemStore()
	issuer := newAuthService(st, testutil.NewMemKV())
	register(t, issuer, "abebe", models.RoleGuest)
	pair, err := issuer.ObtainToken(context.Background(), &TokenRequest{Username: "abebe", Password: "correct horse"})
	require.NoError(t, err)

	other := NewAuthService(st, testutil.NewMemKV(), AuthOptions{Secret: "another", Issuer: "travel-service-test"})
	_, err = other.Authenticate(pair.Access)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestRefreshAndBlacklist(t *testing.T) {
	svc := newAuthService(testutil.NewMemStore(), testutil.NewMemKV())
	register(t, svc, "abebe", models.RoleGuest)
	pair, err := svc.ObtainToken(context.Background(), &TokenRequest{Username: "abebe", Password: "correct horse"})
	require.NoError(t, err)

	fresh, err := svc.Refresh(context.Background(), &RefreshRequest{Refresh: pair.Refresh})
	require.NoError(t, err)
	_, err = svc.Authenticate(fresh.Access)
	require.NoError(t, err)

	// Refresh tokens are not rotated: the same one keeps working until it
	// is blacklisted or expires.
	_, err = svc.Refresh(context.Background(), &RefreshRequest{Refresh: pair.Refresh})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), &RefreshRequest{Refresh: pair.Access})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	require.NoError(t, svc.Blacklist(context.Background(), &RefreshRequest{Refresh: pair.Refresh}))
	_, err = svc.Refresh(context.Background(), &RefreshRequest{Refresh: pair.Refresh})
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
