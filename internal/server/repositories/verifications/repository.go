// Package verifications stores professional verification requests.
package verifications

import (
	"context"

	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, v *models.VerificationRequest) (*models.VerificationRequest, error)
	GetByID(ctx context.Context, id string) (*models.VerificationRequest, error)
	// LatestForUser returns the newest request of a user or common.ErrorNotFound.
	LatestForUser(ctx context.Context, userID string) (*models.VerificationRequest, error)
	// List filters by status; empty status lists everything.
	List(ctx context.Context, status string) ([]*models.VerificationRequest, error)
	// Review moves a request from status `from` to `to`; common.ErrorConflict
	// when the request is no longer in `from`.
	Review(ctx context.Context, id, from, to, adminID, notes string) error
}
