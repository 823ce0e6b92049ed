package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/cryptox"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/cases"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/users"
)

// PlatformStats feeds the admin dashboard.
type PlatformStats struct {
	Users                models.UserStats
	Cases                models.CaseStats
	PendingVerifications int
}

type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewAdminService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *AdminService {
	return &AdminService{db: db, repomanager: m, log: log}
}

func (s *AdminService) Stats(ctx context.Context) (*PlatformStats, error) {
	us, err := s.repomanager.Users(s.db).Stats(ctx)
	if err != nil {
		return nil, err
	}
	cs, err := s.repomanager.Cases(s.db).Stats(ctx, "")
	if err != nil {
		return nil, err
	}
	pending, err := s.repomanager.Verifications(s.db).List(ctx, models.VerificationPending)
	if err != nil {
		return nil, err
	}
	return &PlatformStats{Users: *us, Cases: *cs, PendingVerifications: len(pending)}, nil
}

func (s *AdminService) Users(ctx context.Context, f users.ListFilter) ([]*models.User, error) {
	switch f.Role {
	case "", common.RoleUser, common.RoleProfessional, common.RoleAdmin:
	default:
		return nil, validation("unknown role %q", f.Role)
	}
	return s.repomanager.Users(s.db).List(ctx, f)
}

// SetActive activates or deactivates an account. Deactivation also drops
// every refresh token of the user so existing sessions cannot be renewed.
func (s *AdminService) SetActive(ctx context.Context, admin auth.Principal, userID string, active bool) error {
	if !active && userID == admin.UserID {
		return validation("you cannot deactivate your own account")
	}
	action := "activate_user"
	if !active {
		action = "deactivate_user"
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).SetActive(ctx, userID, active); err != nil {
			return err
		}
		if !active {
			if err := s.repomanager.RefreshTokens(tx).DeleteForUser(ctx, userID); err != nil {
				return err
			}
		}
		return writeAdminLog(ctx, s.repomanager, tx, admin, action, "users", userID, nil)
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "user activation changed", "user_id", userID, "active", active, "admin_id", admin.UserID)
	return nil
}

// ResetPassword sets a new password for a user who lost theirs and signs
// them out everywhere.
func (s *AdminService) ResetPassword(ctx context.Context, admin auth.Principal, userID, newPassword string) error {
	if err := cryptox.ValidatePassword(newPassword); err != nil {
		return validation("%v", err)
	}
	hash, err := cryptox.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, userID, hash); err != nil {
			return err
		}
		if err := s.repomanager.RefreshTokens(tx).DeleteForUser(ctx, userID); err != nil {
			return err
		}
		return writeAdminLog(ctx, s.repomanager, tx, admin, "reset_password", "users", userID, nil)
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "password reset", "user_id", userID, "admin_id", admin.UserID)
	return nil
}

// Sessions lists a user's signed-in sessions, one per live refresh token.
func (s *AdminService) Sessions(ctx context.Context, userID string) ([]*models.RefreshToken, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.repomanager.RefreshTokens(s.db).ListForUser(ctx, userID)
}

// RevokeSession signs one session out. The access token it already holds
// stays valid until it expires.
func (s *AdminService) RevokeSession(ctx context.Context, admin auth.Principal, sessionID string) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		t, err := s.repomanager.RefreshTokens(tx).DeleteByID(ctx, sessionID)
		if err != nil {
			return err
		}
		return writeAdminLog(ctx, s.repomanager, tx, admin, "revoke_session", "refresh_tokens", sessionID,
			map[string]any{"user_id": t.UserID})
	})
}

// RevokeAllSessions signs a user out everywhere and reports how many
// sessions were dropped.
func (s *AdminService) RevokeAllSessions(ctx context.Context, admin auth.Principal, userID string) (int, error) {
	if _, err := s.repomanager.Users(s.db).GetByID(ctx, userID); err != nil {
		return 0, err
	}
	var n int
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		live, err := s.repomanager.RefreshTokens(tx).ListForUser(ctx, userID)
		if err != nil {
			return err
		}
		n = len(live)
		if err := s.repomanager.RefreshTokens(tx).DeleteForUser(ctx, userID); err != nil {
			return err
		}
		return writeAdminLog(ctx, s.repomanager, tx, admin, "revoke_all_sessions", "users", userID,
			map[string]any{"revoked": n})
	})
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "sessions revoked", "user_id", userID, "count", n, "admin_id", admin.UserID)
	return n, nil
}

// CleanupSessions purges expired refresh tokens.
func (s *AdminService) CleanupSessions(ctx context.Context) (int64, error) {
	n, err := s.repomanager.RefreshTokens(s.db).DeleteExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "expired sessions purged", "count", n)
	return n, nil
}

func (s *AdminService) Cases(ctx context.Context, f cases.ListFilter) ([]*models.Case, error) {
	return s.repomanager.Cases(s.db).ListAll(ctx, f)
}

func (s *AdminService) Logs(ctx context.Context, limit int) ([]*models.AdminLog, error) {
	return s.repomanager.AdminLogs(s.db).List(ctx, limit)
}

func (s *AdminService) Professionals(ctx context.Context, verifiedOnly bool) ([]*models.Professional, error) {
	return s.repomanager.Professionals(s.db).List(ctx, verifiedOnly)
}

// SetProfessionalVerified toggles a professional's verification. Revoking
// also marks their approved verification request as revoked.
func (s *AdminService) SetProfessionalVerified(ctx context.Context, admin auth.Principal, userID string, verified bool) error {
	action := "verify_professional"
	if !verified {
		action = "unverify_professional"
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Professionals(tx).SetVerified(ctx, userID, verified); err != nil {
			return err
		}
		if !verified {
			req, err := s.repomanager.Verifications(tx).LatestForUser(ctx, userID)
			switch {
			case err == nil && req.Status == models.VerificationApproved:
				if err := s.repomanager.Verifications(tx).Review(ctx, req.ID, models.VerificationApproved,
					models.VerificationRevoked, admin.UserID, "verification revoked"); err != nil {
					return err
				}
			case err != nil && !errors.Is(err, common.ErrorNotFound):
				return err
			}
		}
		return writeAdminLog(ctx, s.repomanager, tx, admin, action, "professionals", userID, nil)
	})
	if err != nil {
		return err
	}
	s.log.Info(ctx, "professional verification changed", "user_id", userID, "verified", verified)
	return nil
}
