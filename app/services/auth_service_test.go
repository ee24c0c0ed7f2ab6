package services

import (
	"context"
	"testing"
	"time"

	"github.com/shashiranjanraj/stockroom/pkg/apperr"
	"github.com/shashiranjanraj/stockroom/pkg/auth"
	"github.com/shashiranjanraj/stockroom/pkg/rbac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(newRepos(t), auth.NewSigner("test-secret", 30*time.Minute), 7*24*time.Hour)
}

func TestRegisterHashesAndRejectsDuplicates(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "secret1", Role: rbac.Seller})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "secret1", user.Password)
	assert.True(t, auth.CheckPassword(user.Password, "secret1"))

	_, err = svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "other12", Role: rbac.Admin})
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestValidate(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "secret1", Role: rbac.Admin})
	require.NoError(t, err)

	user, err := svc.Validate(ctx, "a@b.co", "secret1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, rbac.Admin, user.Role)

	user, err = svc.Validate(ctx, "a@b.co", "wrong")
	require.NoError(t, err)
	assert.Nil(t, user)

	user, err = svc.Validate(ctx, "nobody@b.co", "secret1")
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestLoginIssuesVerifiableAccessToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "secret1", Role: rbac.Seller})
	require.NoError(t, err)

	pair, err := svc.Login(ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.signer.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, rbac.Seller, claims.Role)
	assert.Equal(t, "a@b.co", claims.Email)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()
	user, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "secret1", Role: rbac.Seller})
	require.NoError(t, err)
	first, err := svc.Login(ctx, user)
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	again, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, again, "a consumed token must not refresh twice")

	third, err := svc.Refresh(ctx, second.RefreshToken)
	require.NoError(t, err)
	assert.NotNil(t, third)
}

func TestRefreshUnknownAndExpired(t *testing.T) {
	svc := newAuthService(t)
	ctx := context.Background()

	pair, err := svc.Refresh(ctx, "does-not-exist")
	require.NoError(t, err)
	assert.Nil(t, pair)

	user, err := svc.Register(ctx, RegisterInput{Email: "a@b.co", Password: "secret1", Role: rbac.Seller})
	require.NoError(t, err)
	issued, err := svc.Login(ctx, user)
	require.NoError(t, err)

	svc.WithClock(func() time.Time { return time.Now().Add(8 * 24 * time.Hour) })
	pair, err = svc.Refresh(ctx, issued.RefreshToken)
	require.NoError(t, err)
	assert.Nil(t, pair)

	n, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
