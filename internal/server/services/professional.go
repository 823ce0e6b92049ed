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

// VerificationStatus tells a professional where their verification stands.
type VerificationStatus struct {
	IsVerified    bool
	HasProfile    bool
	RequestStatus string
	RequestID     string
	AdminNotes    string
}

// ProfileUpdate holds the self-editable profile fields.
type ProfileUpdate struct {
	LawFirmName       string
	SpecialtyAreas    []string
	YearsOfExperience int
	Bio               string
	ConsultationFee   float64
}

// ProfessionalDashboard is the professional's overview.
type ProfessionalDashboard struct {
	IsVerified bool
	Stats      models.ProfessionalStats
	Earnings   float64
}

// ProfessionalService covers the professional side: profile, case pool and
// working a case through to completion.
type ProfessionalService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	log         logging.Logger
}

func NewProfessionalService(db *sql.DB, m repomanager.RepositoryManager, log logging.Logger) *ProfessionalService {
	return &ProfessionalService{db: db, repomanager: m, log: log}
}

func (s *ProfessionalService) VerificationStatus(ctx context.Context, p auth.Principal) (*VerificationStatus, error) {
	out := &VerificationStatus{RequestStatus: "none"}

	prof, err := s.repomanager.Professionals(s.db).GetByUserID(ctx, p.UserID)
	switch {
	case err == nil:
		out.HasProfile = true
		out.IsVerified = prof.IsVerified
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	req, err := s.repomanager.Verifications(s.db).LatestForUser(ctx, p.UserID)
	switch {
	case err == nil:
		out.RequestStatus = req.Status
		out.RequestID = req.ID
		out.AdminNotes = req.AdminNotes
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}
	return out, nil
}

func (s *ProfessionalService) Profile(ctx context.Context, p auth.Principal) (*models.Professional, error) {
	return s.repomanager.Professionals(s.db).GetByUserID(ctx, p.UserID)
}

// PublicProfile returns a verified professional's profile.
func (s *ProfessionalService) PublicProfile(ctx context.Context, userID string) (*models.Professional, error) {
	prof, err := s.repomanager.Professionals(s.db).GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !prof.IsVerified {
		return nil, common.ErrorNotFound
	}
	return prof, nil
}

func (s *ProfessionalService) UpdateProfile(ctx context.Context, p auth.Principal, in ProfileUpdate) (*models.Professional, error) {
	if in.YearsOfExperience < 0 || in.YearsOfExperience > 80 {
		return nil, validation("years of experience must be between 0 and 80")
	}
	if in.ConsultationFee < 0 {
		return nil, validation("consultation fee cannot be negative")
	}
	repo := s.repomanager.Professionals(s.db)
	prof, err := repo.GetByUserID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	prof.LawFirmName = strings.TrimSpace(in.LawFirmName)
	prof.SpecialtyAreas = in.SpecialtyAreas
	prof.YearsOfExperience = in.YearsOfExperience
	prof.Bio = in.Bio
	prof.ConsultationFee = in.ConsultationFee
	if err := repo.UpdateProfile(ctx, prof); err != nil {
		return nil, err
	}
	return prof, nil
}

// Dashboard returns zeros for professionals that are not verified yet.
func (s *ProfessionalService) Dashboard(ctx context.Context, p auth.Principal) (*ProfessionalDashboard, error) {
	verified, err := s.isVerified(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if !verified {
		return &ProfessionalDashboard{}, nil
	}
	stats, err := s.repomanager.Cases(s.db).ProfessionalStats(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	cases, err := s.repomanager.Cases(s.db).ListByProfessional(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	var earnings float64
	for _, c := range cases {
		if c.Status == models.CaseStatusCompleted {
			earnings += c.Budget
		}
	}
	return &ProfessionalDashboard{IsVerified: true, Stats: *stats, Earnings: earnings}, nil
}

// MyCases lists the cases assigned to p. Unverified professionals get an
// empty list.
func (s *ProfessionalService) MyCases(ctx context.Context, p auth.Principal) ([]*models.Case, bool, error) {
	verified, err := s.isVerified(ctx, p.UserID)
	if err != nil || !verified {
		return nil, false, err
	}
	cases, err := s.repomanager.Cases(s.db).ListByProfessional(ctx, p.UserID)
	return cases, true, err
}

// Pool lists pending unassigned cases, most urgent first.
func (s *ProfessionalService) Pool(ctx context.Context, p auth.Principal) ([]*models.Case, error) {
	if err := s.requireVerified(ctx, p); err != nil {
		return nil, err
	}
	return s.repomanager.Cases(s.db).ListPool(ctx)
}

func (s *ProfessionalService) Accept(ctx context.Context, p auth.Principal, caseID string) (*models.Case, error) {
	if err := s.requireVerified(ctx, p); err != nil {
		return nil, err
	}
	repo := s.repomanager.Cases(s.db)
	c, err := repo.GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CaseStatusPending || c.ProfessionalID != nil {
		return nil, conflict("case is no longer available")
	}
	if err := repo.Accept(ctx, caseID, p.UserID); err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, conflict("case is no longer available")
		}
		return nil, err
	}
	s.log.Info(ctx, "case accepted", "case_id", caseID, "professional_id", p.UserID)
	return repo.GetByID(ctx, caseID)
}

func (s *ProfessionalService) Start(ctx context.Context, p auth.Principal, caseID string) (*models.Case, error) {
	repo := s.repomanager.Cases(s.db)
	c, err := s.assigned(ctx, p, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CaseStatusAccepted {
		return nil, conflict("only accepted cases can be started")
	}
	if err := repo.Start(ctx, caseID, p.UserID); err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, caseID)
}

// Complete closes a case and refreshes the professional's handled count.
func (s *ProfessionalService) Complete(ctx context.Context, p auth.Principal, caseID string) (*models.Case, error) {
	c, err := s.assigned(ctx, p, caseID)
	if err != nil {
		return nil, err
	}
	if c.Status != models.CaseStatusAccepted && c.Status != models.CaseStatusInProgress {
		return nil, conflict("a %s case cannot be completed", c.Status)
	}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Cases(tx).Complete(ctx, caseID, p.UserID); err != nil {
			return err
		}
		return s.repomanager.Professionals(tx).RefreshCaseStats(ctx, p.UserID)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "case completed", "case_id", caseID, "professional_id", p.UserID)
	return s.repomanager.Cases(s.db).GetByID(ctx, caseID)
}

func (s *ProfessionalService) assigned(ctx context.Context, p auth.Principal, caseID string) (*models.Case, error) {
	c, err := s.repomanager.Cases(s.db).GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if c.ProfessionalID == nil || *c.ProfessionalID != p.UserID {
		return nil, forbidden("case is not assigned to you")
	}
	return c, nil
}

func (s *ProfessionalService) isVerified(ctx context.Context, userID string) (bool, error) {
	prof, err := s.repomanager.Professionals(s.db).GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, err
	}
	return prof.IsVerified, nil
}

func (s *ProfessionalService) requireVerified(ctx context.Context, p auth.Principal) error {
	ok, err := s.isVerified(ctx, p.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return forbidden("professional is not verified")
	}
	return nil
}
