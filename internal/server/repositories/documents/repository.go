// Package documents declares the repository contract for stored-object
// metadata: uploads, generated documents and verification attachments.
package documents

import (
	"context"

	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

// ListFilter narrows ListByUser. Zero values mean "any".
type ListFilter struct {
	DocumentType string
	CaseID       string
	SessionID    string
	Limit        int
}

type Repository interface {
	Create(ctx context.Context, d *models.Document) (*models.Document, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	ListBySession(ctx context.Context, sessionID string) ([]*models.Document, error)
	ListByVerification(ctx context.Context, verificationID string) ([]*models.Document, error)
	ListByCase(ctx context.Context, caseID string) ([]*models.Document, error)
	// ListByUser returns the user's own documents, newest first.
	ListByUser(ctx context.Context, userID string, f ListFilter) ([]*models.Document, error)
	// Delete removes the row; unknown ids yield common.ErrorNotFound.
	Delete(ctx context.Context, id string) error
	// AttachSessionToCase links every document of a session to caseID.
	AttachSessionToCase(ctx context.Context, sessionID, caseID string) error
}
