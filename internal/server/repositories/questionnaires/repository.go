// Package questionnaires persists questionnaire sessions and their final
// submissions. Engine state is stored as an opaque JSONB document.
package questionnaires

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

// ErrStaleSession reports an update against a session that changed (or
// vanished) since it was read.
var ErrStaleSession = fmt.Errorf("%w: session was modified concurrently", common.ErrorConflict)

type Repository interface {
	CreateSession(ctx context.Context, s *models.QuestionnaireSession) (*models.QuestionnaireSession, error)
	GetSession(ctx context.Context, id string) (*models.QuestionnaireSession, error)
	// UpdateSession writes status, finalization, state, case link and
	// completion time, and bumps last_activity_at. It applies only when
	// s.Version still matches the stored row; on success s.Version is
	// advanced, otherwise ErrStaleSession is returned.
	UpdateSession(ctx context.Context, s *models.QuestionnaireSession) error
	ListIncomplete(ctx context.Context, userID string) ([]*models.QuestionnaireSession, error)
	// DeleteSession removes an unfinalized session.
	DeleteSession(ctx context.Context, id string) error

	CreateSubmission(ctx context.Context, s *models.QuestionnaireSubmission) (*models.QuestionnaireSubmission, error)
	GetSubmissionBySession(ctx context.Context, sessionID string) (*models.QuestionnaireSubmission, error)
}
