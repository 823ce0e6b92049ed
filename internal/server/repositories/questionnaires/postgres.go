package questionnaires

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
)

const sessionColumns = `id, user_id, case_id, questionnaire_type, status, is_finalized, state,
	started_at, completed_at, expires_at, last_activity_at, version`

const submissionColumns = `id, session_id, user_id, case_id, questionnaire_type, title, responses, summaries, submitted_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func scanSession(s dbx.Scanner) (*models.QuestionnaireSession, error) {
	qs := &models.QuestionnaireSession{}
	var (
		caseID      sql.NullString
		state       []byte
		completedAt sql.NullTime
	)
	if err := s.Scan(&qs.ID, &qs.UserID, &caseID, &qs.QuestionnaireType, &qs.Status, &qs.IsFinalized, &state,
		&qs.StartedAt, &completedAt, &qs.ExpiresAt, &qs.LastActivityAt, &qs.Version); err != nil {
		return nil, err
	}
	qs.CaseID = dbx.StringPtr(caseID)
	qs.State = state
	qs.CompletedAt = dbx.TimePtr(completedAt)
	return qs, nil
}

func (r *PostgresRepository) CreateSession(ctx context.Context, s *models.QuestionnaireSession) (*models.QuestionnaireSession, error) {
	query := `
		INSERT INTO questionnaire_sessions (user_id, case_id, questionnaire_type, status, state, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, started_at, last_activity_at
	`
	err := r.db.QueryRowContext(ctx, query, s.UserID, s.CaseID, s.QuestionnaireType, s.Status,
		dbx.JSONOrEmpty(s.State, "{}"), s.ExpiresAt).Scan(&s.ID, &s.StartedAt, &s.LastActivityAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetSession(ctx context.Context, id string) (*models.QuestionnaireSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM questionnaire_sessions WHERE id = $1`

	s, err := scanSession(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) UpdateSession(ctx context.Context, s *models.QuestionnaireSession) error {
	query := `
		UPDATE questionnaire_sessions
		SET status = $2, is_finalized = $3, state = $4, case_id = $5, completed_at = $6, last_activity_at = NOW(),
			version = version + 1
		WHERE id = $1 AND version = $7
	`
	res, err := r.db.ExecContext(ctx, query, s.ID, s.Status, s.IsFinalized, dbx.JSONOrEmpty(s.State, "{}"),
		s.CaseID, s.CompletedAt, s.Version)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if err := dbx.RowsAffectedOrNotFound(res, ErrStaleSession); err != nil {
		return err
	}
	s.Version++
	return nil
}

func (r *PostgresRepository) ListIncomplete(ctx context.Context, userID string) ([]*models.QuestionnaireSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM questionnaire_sessions
		WHERE user_id = $1 AND status = 'in_progress' AND NOT is_finalized AND expires_at > NOW()
		ORDER BY last_activity_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.QuestionnaireSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) DeleteSession(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM questionnaire_sessions WHERE id = $1 AND NOT is_finalized`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return dbx.RowsAffectedOrNotFound(res, common.ErrorNotFound)
}

func (r *PostgresRepository) CreateSubmission(ctx context.Context, s *models.QuestionnaireSubmission) (*models.QuestionnaireSubmission, error) {
	query := `
		INSERT INTO questionnaire_submissions (session_id, user_id, case_id, questionnaire_type, title, responses, summaries)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, submitted_at
	`
	err := r.db.QueryRowContext(ctx, query, s.SessionID, s.UserID, s.CaseID, s.QuestionnaireType, s.Title,
		dbx.JSONOrEmpty(s.Responses, "{}"), dbx.JSONOrEmpty(s.Summaries, "{}")).Scan(&s.ID, &s.SubmittedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) GetSubmissionBySession(ctx context.Context, sessionID string) (*models.QuestionnaireSubmission, error) {
	query := `SELECT ` + submissionColumns + ` FROM questionnaire_submissions
		WHERE session_id = $1 ORDER BY submitted_at DESC LIMIT 1`

	s := &models.QuestionnaireSubmission{}
	var (
		caseID               sql.NullString
		responses, summaries []byte
	)
	err := r.db.QueryRowContext(ctx, query, sessionID).Scan(&s.ID, &s.SessionID, &s.UserID, &caseID,
		&s.QuestionnaireType, &s.Title, &responses, &summaries, &s.SubmittedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	s.CaseID = dbx.StringPtr(caseID)
	s.Responses = responses
	s.Summaries = summaries
	return s, nil
}
