package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/repomanager"
)

// CaseInput is the new-case form.
type CaseInput struct {
	Title       string
	Description string
	Category    string
	Priority    string
	Budget      float64
}

// CaseUpdate carries the fields to change; nil leaves a field as it is.
type CaseUpdate struct {
	Title       *string
	Description *string
	Category    *string
	Priority    *string
	Budget      *float64
}

func (u CaseUpdate) apply(c *models.Case) CaseInput {
	in := CaseInput{Title: c.Title, Description: c.Description, Category: c.Category, Priority: c.Priority, Budget: c.Budget}
	if u.Title != nil {
		in.Title = *u.Title
	}
	if u.Description != nil {
		in.Description = *u.Description
	}
	if u.Category != nil {
		in.Category = *u.Category
	}
	if u.Priority != nil {
		in.Priority = *u.Priority
	}
	if u.Budget != nil {
		in.Budget = *u.Budget
	}
	return in
}

// CaseService covers the client side of the case lifecycle: creating,
// viewing, cancelling and rating cases.
type CaseService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewCaseService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *CaseService {
	return &CaseService{db: db, repomanager: m, log: log}
}

func (s *CaseService) Create(ctx context.Context, p auth.Principal, in CaseInput) (*models.Case, error) {
	if err := requireRole(p, common.RoleUser); err != nil {
		return nil, err
	}
	c, err := newCase(p.UserID, in)
	if err != nil {
		return nil, err
	}
	c, err = s.repomanager.Cases(s.db).Create(ctx, c)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "case created", "case_id", c.ID, "user_id", p.UserID)
	return c, nil
}

// newCase validates in and builds a pending case owned by userID.
func newCase(userID string, in CaseInput) (*models.Case, error) {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return nil, validation("title is required")
	}
	if len(in.Title) > 200 {
		return nil, validation("title is too long")
	}
	if in.Priority == "" {
		in.Priority = models.PriorityMedium
	}
	if !models.ValidPriority(in.Priority) {
		return nil, validation("unknown priority %q", in.Priority)
	}
	if in.Budget < 0 {
		return nil, validation("budget cannot be negative")
	}
	if in.Category == "" {
		in.Category = "general"
	}
	return &models.Case{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Category:    in.Category,
		Priority:    in.Priority,
		Budget:      in.Budget,
	}, nil
}

func (s *CaseService) ListMine(ctx context.Context, p auth.Principal) ([]*models.Case, error) {
	return s.repomanager.Cases(s.db).ListByUser(ctx, p.UserID)
}

// Get returns a case visible to p: its owner, its professional, an admin,
// or any verified professional while the case waits in the pool.
func (s *CaseService) Get(ctx context.Context, p auth.Principal, id string) (*models.Case, error) {
	c, err := s.repomanager.Cases(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caseVisibleTo(p, c) {
		return nil, forbidden("not your case")
	}
	return c, nil
}

func caseVisibleTo(p auth.Principal, c *models.Case) bool {
	switch {
	case p.Role == common.RoleAdmin, c.UserID == p.UserID:
		return true
	case assignedTo(p, c):
		return true
	case p.Role == common.RoleProfessional && c.Status == models.CaseStatusPending && c.ProfessionalID == nil:
		return true
	}
	return false
}

func assignedTo(p auth.Principal, c *models.Case) bool {
	return c.ProfessionalID != nil && *c.ProfessionalID == p.UserID
}

// Update rewrites a pending case. Only its owner may edit it, and only until
// a professional takes it.
func (s *CaseService) Update(ctx context.Context, p auth.Principal, id string, u CaseUpdate) (*models.Case, error) {
	repo := s.repomanager.Cases(s.db)
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != p.UserID {
		return nil, forbidden("only the owner can update a case")
	}
	if c.Status != models.CaseStatusPending {
		return nil, conflict("a %s case cannot be updated", c.Status)
	}
	upd, err := newCase(p.UserID, u.apply(c))
	if err != nil {
		return nil, err
	}
	upd.ID = id
	if err := repo.Update(ctx, upd); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, conflict("case was taken before the update")
		}
		return nil, err
	}
	s.log.Info(ctx, "case updated", "case_id", id)
	return repo.GetByID(ctx, id)
}

// Cancel is allowed to the owner while the case is pending or accepted.
func (s *CaseService) Cancel(ctx context.Context, p auth.Principal, id string) (*models.Case, error) {
	repo := s.repomanager.Cases(s.db)
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != p.UserID {
		return nil, forbidden("only the owner can cancel a case")
	}
	if c.Status != models.CaseStatusPending && c.Status != models.CaseStatusAccepted {
		return nil, conflict("a %s case cannot be cancelled", c.Status)
	}
	if err := repo.Cancel(ctx, id, p.UserID); err != nil {
		return nil, err
	}
	s.log.Info(ctx, "case cancelled", "case_id", id)
	return repo.GetByID(ctx, id)
}

// Rate stores the owner's rating of a completed case once and refreshes the
// professional's aggregate rating.
func (s *CaseService) Rate(ctx context.Context, p auth.Principal, id string, rating int, review string) (*models.Case, error) {
	if rating < 1 || rating > 5 {
		return nil, validation("rating must be between 1 and 5")
	}
	c, err := s.repomanager.Cases(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != p.UserID {
		return nil, forbidden("only the owner can rate a case")
	}
	if c.Status != models.CaseStatusCompleted {
		return nil, conflict("only completed cases can be rated")
	}
	if c.Rating != nil {
		return nil, conflict("case is already rated")
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Cases(tx).Rate(ctx, id, p.UserID, rating, review); err != nil {
			return err
		}
		if c.ProfessionalID != nil {
			return s.repomanager.Professionals(tx).RefreshCaseStats(ctx, *c.ProfessionalID)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, conflict("case is already rated")
		}
		return nil, err
	}
	return s.repomanager.Cases(s.db).GetByID(ctx, id)
}

// Stats counts p's own cases.
func (s *CaseService) Stats(ctx context.Context, p auth.Principal) (*models.CaseStats, error) {
	return s.repomanager.Cases(s.db).Stats(ctx, p.UserID)
}
