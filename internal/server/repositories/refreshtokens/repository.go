// Package refreshtokens declares the repository contract for refresh tokens.
// Tokens are addressed by their SHA-256 hash, never by plaintext.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

type Repository interface {
	// Create stores tokenHash for userID with an expiry of now+validity.
	Create(ctx context.Context, userID string, tokenHash string, validity time.Duration) error

	// Find returns common.ErrorNotFound when the hash is unknown.
	Find(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete is idempotent.
	Delete(ctx context.Context, tokenHash string) error

	// ListForUser returns the user's unexpired tokens, newest first. Each
	// one stands for a signed-in session.
	ListForUser(ctx context.Context, userID string) ([]*models.RefreshToken, error)

	// DeleteByID revokes a single session. Unknown ids yield
	// common.ErrorNotFound.
	DeleteByID(ctx context.Context, id string) (*models.RefreshToken, error)

	// DeleteExpired purges expired tokens and reports how many were removed.
	DeleteExpired(ctx context.Context) (int64, error)

	// DeleteForUser revokes every token of a user (logout everywhere, deactivation).
	DeleteForUser(ctx context.Context, userID string) error
}
