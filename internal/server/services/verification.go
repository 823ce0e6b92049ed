package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lexbridge/internal/server/storage"
)

// DocumentLinkTTL is how long presigned download links stay valid.
const DocumentLinkTTL = time.Hour

var allowedUploadTypes = map[string]bool{
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// VerificationInput is the professional verification form. Files are the
// supporting documents (licence scan, ID).
type VerificationInput struct {
	FullName          string
	LicenseNumber     string
	LawFirmName       string
	SpecialtyAreas    []string
	YearsOfExperience int
	Bio               string
	Files             []filex.LocalFile
}

// LinkedDocument is a stored document with a temporary download link.
type LinkedDocument struct {
	*models.Document
	DownloadURL string
}

// VerificationDetail is a request together with its documents.
type VerificationDetail struct {
	Request   *models.VerificationRequest
	Documents []LinkedDocument
}

type VerificationService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	log         logging.Logger
}

func NewVerificationService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, log logging.Logger) *VerificationService {
	return &VerificationService{db: db, repomanager: m, store: store, log: log}
}

// Submit files a verification request. A professional can have one pending
// request at a time, and none once approved.
func (s *VerificationService) Submit(ctx context.Context, p auth.Principal, in VerificationInput) (*VerificationDetail, error) {
	if err := requireRole(p, common.RoleProfessional); err != nil {
		return nil, err
	}
	in.FullName = strings.TrimSpace(in.FullName)
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	if in.FullName == "" || in.LicenseNumber == "" {
		return nil, validation("full name and license number are required")
	}
	if in.YearsOfExperience < 0 {
		return nil, validation("years of experience cannot be negative")
	}
	if len(in.Files) == 0 {
		return nil, validation("at least one document is required")
	}
	for i := range in.Files {
		if err := checkUpload(&in.Files[i]); err != nil {
			return nil, err
		}
	}

	latest, err := s.repomanager.Verifications(s.db).LatestForUser(ctx, p.UserID)
	switch {
	case err == nil && latest.Status == models.VerificationPending:
		return nil, conflict("a verification request is already pending")
	case err == nil && latest.Status == models.VerificationApproved:
		return nil, conflict("already verified")
	case err != nil && !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	out := &VerificationDetail{}
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		req, err := s.repomanager.Verifications(tx).Create(ctx, &models.VerificationRequest{
			UserID:            p.UserID,
			FullName:          in.FullName,
			LicenseNumber:     in.LicenseNumber,
			LawFirmName:       in.LawFirmName,
			SpecialtyAreas:    in.SpecialtyAreas,
			YearsOfExperience: in.YearsOfExperience,
			Bio:               in.Bio,
		})
		if err != nil {
			return err
		}
		out.Request = req

		for _, f := range in.Files {
			key := storage.NewKey("verification", p.UserID, f.Name)
			if err := s.store.Put(ctx, key, f.ContentType, f.Data); err != nil {
				return err
			}
			doc, err := s.repomanager.Documents(tx).Create(ctx, &models.Document{
				UserID:         p.UserID,
				VerificationID: &req.ID,
				DocumentType:   models.DocumentVerification,
				FileName:       f.Name,
				StorageKey:     key,
				Size:           int64(len(f.Data)),
				MimeType:       f.ContentType,
			})
			if err != nil {
				return err
			}
			out.Documents = append(out.Documents, LinkedDocument{Document: doc})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "verification requested", "request_id", out.Request.ID, "user_id", p.UserID, "documents", len(out.Documents))
	return out, nil
}

// MyRequest returns the caller's latest request.
func (s *VerificationService) MyRequest(ctx context.Context, p auth.Principal) (*VerificationDetail, error) {
	req, err := s.repomanager.Verifications(s.db).LatestForUser(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, req)
}

func (s *VerificationService) List(ctx context.Context, status string) ([]*models.VerificationRequest, error) {
	switch status {
	case "", models.VerificationPending, models.VerificationApproved, models.VerificationRejected, models.VerificationRevoked:
	default:
		return nil, validation("unknown status %q", status)
	}
	return s.repomanager.Verifications(s.db).List(ctx, status)
}

func (s *VerificationService) Get(ctx context.Context, id string) (*VerificationDetail, error) {
	req, err := s.repomanager.Verifications(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, req)
}

// Approve marks the request approved, creates or refreshes the verified
// professional profile, promotes the user and writes an admin log entry.
func (s *VerificationService) Approve(ctx context.Context, admin auth.Principal, id, notes string) (*models.VerificationRequest, error) {
	req, err := s.repomanager.Verifications(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Verifications(tx).Review(ctx, id, models.VerificationPending,
			models.VerificationApproved, admin.UserID, notes); err != nil {
			return err
		}
		if err := s.repomanager.Professionals(tx).Upsert(ctx, &models.Professional{
			UserID:            req.UserID,
			FullName:          req.FullName,
			LicenseNumber:     req.LicenseNumber,
			LawFirmName:       req.LawFirmName,
			SpecialtyAreas:    req.SpecialtyAreas,
			YearsOfExperience: req.YearsOfExperience,
			Bio:               req.Bio,
		}); err != nil {
			return err
		}
		if err := s.repomanager.Users(tx).PromoteToProfessional(ctx, req.UserID); err != nil {
			return err
		}
		return writeAdminLog(ctx, s.repomanager, tx, admin, "approve_verification", "verification_requests", id,
			map[string]any{"user_id": req.UserID, "notes": notes})
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, conflict("request is not pending")
		}
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, conflict("license number belongs to another professional")
		}
		return nil, err
	}

	s.log.Info(ctx, "verification approved", "request_id", id, "admin_id", admin.UserID)
	return s.repomanager.Verifications(s.db).GetByID(ctx, id)
}

// Reject requires a reason so the professional knows what to fix.
func (s *VerificationService) Reject(ctx context.Context, admin auth.Principal, id, notes string) (*models.VerificationRequest, error) {
	if strings.TrimSpace(notes) == "" {
		return nil, validation("a rejection reason is required")
	}
	if _, err := s.repomanager.Verifications(s.db).GetByID(ctx, id); err != nil {
		return nil, err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Verifications(tx).Review(ctx, id, models.VerificationPending,
			models.VerificationRejected, admin.UserID, notes); err != nil {
			return err
		}
		return writeAdminLog(ctx, s.repomanager, tx, admin, "reject_verification", "verification_requests", id,
			map[string]any{"notes": notes})
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, conflict("request is not pending")
		}
		return nil, err
	}

	s.log.Info(ctx, "verification rejected", "request_id", id, "admin_id", admin.UserID)
	return s.repomanager.Verifications(s.db).GetByID(ctx, id)
}

func (s *VerificationService) detail(ctx context.Context, req *models.VerificationRequest) (*VerificationDetail, error) {
	docs, err := s.repomanager.Documents(s.db).ListByVerification(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	out := &VerificationDetail{Request: req}
	for _, d := range docs {
		url, err := s.store.PresignGet(ctx, d.StorageKey, DocumentLinkTTL)
		if err != nil {
			s.log.Warn(ctx, "presign failed", "document_id", d.ID, "error", err)
		}
		out.Documents = append(out.Documents, LinkedDocument{Document: d, DownloadURL: url})
	}
	return out, nil
}

// checkUpload sniffs a missing content type and enforces the size and type
// limits shared by every upload endpoint.
func checkUpload(f *filex.LocalFile) error {
	if len(f.Data) == 0 {
		return validation("%s is empty", f.Name)
	}
	if int64(len(f.Data)) > common.MaxUploadSize {
		return validation("%s exceeds the 10 MB limit", f.Name)
	}
	if f.ContentType == "" || f.ContentType == "application/octet-stream" {
		f.ContentType = http.DetectContentType(f.Data)
	}
	if i := strings.IndexByte(f.ContentType, ';'); i >= 0 {
		f.ContentType = strings.TrimSpace(f.ContentType[:i])
	}
	if !allowedUploadTypes[f.ContentType] {
		return validation("file type %s is not allowed", f.ContentType)
	}
	return nil
}

func writeAdminLog(ctx context.Context, m repomanager.RepositoryManager, tx dbx.DBTX, admin auth.Principal,
	action, table, targetID string, details map[string]any) error {
	raw, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return m.AdminLogs(tx).Create(ctx, &models.AdminLog{
		AdminID:     admin.UserID,
		Action:      action,
		TargetTable: table,
		TargetID:    targetID,
		Details:     raw,
	})
}
