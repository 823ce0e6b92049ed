package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/cryptox"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
	"github.com/dmitrijs2005/lexbridge/internal/server/config"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

func newUserService(t *testing.T) (*UserService, *fakeDB) {
	t.Helper()
	fdb := newFakeDB()
	cfg := &config.Config{
		SecretKey:                    "k",
		AccessTokenValidityDuration:  time.Hour,
		RefreshTokenValidityDuration: 2 * time.Hour,
	}
	return NewUserService(newTxDB(t), &fakeRepoManager{fdb}, cfg, logging.Discard()), fdb
}

func TestRegister_Success(t *testing.T) {
	s, fdb := newUserService(t)

	user, pair, err := s.Register(context.Background(), RegisterInput{UserName: "alice01", Phone: "555", Password: "Secret123"})
	require.NoError(t, err)

	assert.Equal(t, common.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "Secret123", user.PasswordHash)
	assert.NotEmpty(t, pair.AccessToken)
	assert.EqualValues(t, 3600, pair.ExpiresIn)

	stored, ok := fdb.tokens[cryptox.HashToken(pair.RefreshToken)]
	require.True(t, ok, "refresh token stored by hash")
	assert.Equal(t, user.ID, stored.UserID)

	p, err := s.Authenticate(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, p.UserID)
	assert.Equal(t, common.RoleUser, p.Role)
}

func TestRegister_Validation(t *testing.T) {
	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"short username", RegisterInput{UserName: "bob", Password: "Secret123"}},
		{"long username", RegisterInput{UserName: string(make([]byte, 51)), Password: "Secret123"}},
		{"short password", RegisterInput{UserName: "alice01", Password: "Ab1"}},
		{"no upper case", RegisterInput{UserName: "alice01", Password: "secret123"}},
		{"admin role", RegisterInput{UserName: "alice01", Password: "Secret123", Role: common.RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newUserService(t)
			_, _, err := s.Register(context.Background(), tt.in)
			assert.ErrorIs(t, err, common.ErrorValidation)
		})
	}
}

func TestRegister_Professional(t *testing.T) {
	s, _ := newUserService(t)
	user, _, err := s.Register(context.Background(), RegisterInput{UserName: "lawyer1", Password: "Secret123", Role: common.RoleProfessional})
	require.NoError(t, err)
	assert.Equal(t, common.RoleProfessional, user.Role)
	assert.False(t, user.IsVerified)
}

func TestRegister_Duplicate(t *testing.T) {
	s, _ := newUserService(t)
	ctx := context.Background()
	_, _, err := s.Register(ctx, RegisterInput{UserName: "alice01", Password: "Secret123"})
	require.NoError(t, err)

	_, _, err = s.Register(ctx, RegisterInput{UserName: "alice01", Password: "Secret123"})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	assert.Contains(t, err.Error(), "username is taken")
}

func TestLogin(t *testing.T) {
	s, fdb := newUserService(t)
	ctx := context.Background()
	user, _, err := s.Register(ctx, RegisterInput{UserName: "alice01", Password: "Secret123"})
	require.NoError(t, err)

	t.Run("ok", func(t *testing.T) {
		got, pair, err := s.Login(ctx, "alice01", "Secret123")
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.NotEmpty(t, pair.RefreshToken)
		assert.NotNil(t, fdb.users[user.ID].LastLoginAt)
	})
	t.Run("wrong password", func(t *testing.T) {
		_, _, err := s.Login(ctx, "alice01", "Wrong1234")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})
	t.Run("unknown user", func(t *testing.T) {
		_, _, err := s.Login(ctx, "nobody1", "Secret123")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
	})
	t.Run("inactive", func(t *testing.T) {
		fdb.users[user.ID].IsActive = false
		defer func() { fdb.users[user.ID].IsActive = true }()
		_, _, err := s.Login(ctx, "alice01", "Secret123")
		assert.ErrorIs(t, err, common.ErrorInactive)
	})
}

func TestRefreshToken_Rotates(t *testing.T) {
	s, fdb := newUserService(t)
	ctx := context.Background()
	_, first, err := s.Register(ctx, RegisterInput{UserName: "alice01", Password: "Secret123"})
	require.NoError(t, err)

	second, err := s.RefreshToken(ctx, first.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)
	assert.Len(t, fdb.tokens, 1)

	_, err = s.RefreshToken(ctx, first.RefreshToken)
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}

func TestRefreshToken_Expired(t *testing.T) {
	s, fdb := newUserService(t)
	u := fdb.addUser("alice01", common.RoleUser)
	fdb.tokens[cryptox.HashToken("old")] = &models.RefreshToken{UserID: u.ID, Expires: time.Now().Add(-time.Minute)}

	_, err := s.RefreshToken(context.Background(), "old")
	assert.ErrorIs(t, err, common.ErrRefreshTokenExpired)
}

func TestRefreshToken_InactiveUser(t *testing.T) {
	s, fdb := newUserService(t)
	u := fdb.addUser("alice01", common.RoleUser)
	u.IsActive = false
	fdb.tokens[cryptox.HashToken("tok")] = &models.RefreshToken{UserID: u.ID, Expires: time.Now().Add(time.Hour)}

	_, err := s.RefreshToken(context.Background(), "tok")
	assert.ErrorIs(t, err, common.ErrorInactive)
}

func TestLogout(t *testing.T) {
	s, fdb := newUserService(t)
	ctx := context.Background()
	_, pair, err := s.Register(ctx, RegisterInput{UserName: "alice01", Password: "Secret123"})
	require.NoError(t, err)

	require.NoError(t, s.Logout(ctx, pair.RefreshToken))
	assert.Empty(t, fdb.tokens)
	require.NoError(t, s.Logout(ctx, "unknown"))
}

func TestChangePassword(t *testing.T) {
	s, fdb := newUserService(t)
	ctx := context.Background()
	user, pair, err := s.Register(ctx, RegisterInput{UserName: "alice01", Password: "Secret123"})
	require.NoError(t, err)

	t.Run("wrong current password", func(t *testing.T) {
		err := s.ChangePassword(ctx, user.ID, "Wrong1234", "Better456")
		assert.ErrorIs(t, err, common.ErrorValidation)
		assert.Contains(t, err.Error(), "current password is incorrect")
	})
	t.Run("same password", func(t *testing.T) {
		assert.ErrorIs(t, s.ChangePassword(ctx, user.ID, "Secret123", "Secret123"), common.ErrorValidation)
	})
	t.Run("weak password", func(t *testing.T) {
		assert.ErrorIs(t, s.ChangePassword(ctx, user.ID, "Secret123", "short"), common.ErrorValidation)
	})
	t.Run("ok", func(t *testing.T) {
		require.NoError(t, s.ChangePassword(ctx, user.ID, "Secret123", "Better456"))

		_, _, err := s.Login(ctx, "alice01", "Secret123")
		assert.ErrorIs(t, err, common.ErrorUnauthorized)
		_, _, err = s.Login(ctx, "alice01", "Better456")
		require.NoError(t, err)
		assert.Contains(t, fdb.tokens, cryptox.HashToken(pair.RefreshToken))
	})
}

func TestAuthenticate_Invalid(t *testing.T) {
	s, _ := newUserService(t)
	_, err := s.Authenticate("garbage")
	assert.ErrorIs(t, err, common.ErrInvalidToken)
}
