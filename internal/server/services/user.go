// Package services contains server-side business logic. This file implements
// UserService, which handles registration, login, and issuing/refreshing JWTs
// plus server-stored refresh tokens.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/cryptox"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/config"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/repomanager"
)

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// RegisterInput is the registration form.
type RegisterInput struct {
	UserName string
	Phone    string
	Password string
	Role     string
}

// UserService provides authentication-related operations:
// - Register: create users
// - Login: verify credentials and mint tokens
// - RefreshToken: rotate refresh tokens and mint new access tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	log                          logging.Logger
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		log:                          log,
	}
}

// Register creates an account and logs it in. Only the user and
// professional roles can be chosen; professionals stay unverified until an
// administrator approves their verification request.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, *TokenPair, error) {
	in.UserName = strings.TrimSpace(in.UserName)
	if n := utf8.RuneCountInString(in.UserName); n < 5 || n > 50 {
		return nil, nil, fmt.Errorf("%w: username must be 5-50 characters", common.ErrorValidation)
	}
	if err := cryptox.ValidatePassword(in.Password); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	switch in.Role {
	case "":
		in.Role = common.RoleUser
	case common.RoleUser, common.RoleProfessional:
	default:
		return nil, nil, fmt.Errorf("%w: role must be user or professional", common.ErrorValidation)
	}

	hash, err := cryptox.HashPassword(in.Password)
	if err != nil {
		return nil, nil, common.ErrorInternal
	}

	var (
		user *models.User
		pair *TokenPair
	)
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		user, err = s.repomanager.Users(tx).Create(ctx, &models.User{
			UserName:     in.UserName,
			Phone:        in.Phone,
			PasswordHash: hash,
			Role:         in.Role,
			IsActive:     true,
		})
		if err != nil {
			return err
		}
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, nil, fmt.Errorf("%w: username is taken", common.ErrorAlreadyExists)
		}
		return nil, nil, err
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID, "role", user.Role)
	return user, pair, nil
}

// Login verifies the password and, on success, returns a new TokenPair.
// Unknown users and wrong passwords are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, userName, password string) (*models.User, *TokenPair, error) {
	user, err := s.repomanager.Users(s.db).GetByUserName(ctx, strings.TrimSpace(userName))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, common.ErrorUnauthorized
		}
		return nil, nil, common.ErrorInternal
	}
	if err := cryptox.CheckPassword(user.PasswordHash, password); err != nil {
		return nil, nil, common.ErrorUnauthorized
	}
	if !user.IsActive {
		return nil, nil, common.ErrorInactive
	}

	var pair *TokenPair
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).TouchLastLogin(ctx, user.ID); err != nil {
			return err
		}
		var err error
		pair, err = s.generateTokenPair(ctx, user, tx)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Expired tokens yield ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	hash := cryptox.HashToken(refreshToken)

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, hash)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(time.Now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.repomanager.Users(s.db).GetByID(ctx, token.UserID)
	if err != nil {
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if !user.IsActive {
		return nil, common.ErrorInactive
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, hash); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, user, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// Logout forgets the refresh token. Unknown tokens are not an error.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	return s.repomanager.RefreshTokens(s.db).Delete(ctx, cryptox.HashToken(refreshToken))
}

// ChangePassword replaces the caller's password once the current one checks
// out. Existing sessions stay signed in.
func (s *UserService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := cryptox.CheckPassword(user.PasswordHash, oldPassword); err != nil {
		return fmt.Errorf("%w: current password is incorrect", common.ErrorValidation)
	}
	if oldPassword == newPassword {
		return fmt.Errorf("%w: new password must differ from the current one", common.ErrorValidation)
	}
	if err := cryptox.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}
	if err := s.repomanager.Users(s.db).UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	s.log.Info(ctx, "password changed", "user_id", userID)
	return nil
}

func (s *UserService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// Authenticate verifies an access token.
func (s *UserService) Authenticate(accessToken string) (auth.Principal, error) {
	return auth.ParseToken(accessToken, s.jwtSecret)
}

// --- helpers below ---

func (s *UserService) generateTokenPair(ctx context.Context, user *models.User, tx dbx.DBTX) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Role, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, user.ID, cryptox.HashToken(refresh), s.refreshTokenValidityDuration); err != nil {
		return nil, common.ErrorInternal
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTokenValidityDuration.Seconds()),
	}, nil
}
