package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/documents"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lexbridge/internal/server/storage"
)

const maxDocumentList = 200

// DocumentService serves stored files: a user's own documents and the
// attachments shared on a case.
type DocumentService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       storage.ObjectStore
	log         logging.Logger
}

func NewDocumentService(db *sql.DB, m repomanager.RepositoryManager, store storage.ObjectStore, log logging.Logger) *DocumentService {
	return &DocumentService{db: db, repomanager: m, store: store, log: log}
}

// Mine lists documents the caller uploaded or generated.
func (s *DocumentService) Mine(ctx context.Context, p auth.Principal, f documents.ListFilter) ([]*models.Document, error) {
	switch f.DocumentType {
	case "", models.DocumentUploadEvidence, models.DocumentGenerated, models.DocumentVerification,
		models.DocumentQuestionnaireAttachment, models.DocumentCaseAttachment:
	default:
		return nil, validation("unknown document type %q", f.DocumentType)
	}
	if f.Limit < 0 {
		return nil, validation("limit cannot be negative")
	}
	if f.Limit > maxDocumentList {
		f.Limit = maxDocumentList
	}
	return s.repomanager.Documents(s.db).ListByUser(ctx, p.UserID, f)
}

// Download returns one of the caller's documents with its content. Other
// users' documents look missing.
func (s *DocumentService) Download(ctx context.Context, p auth.Principal, id string) (*models.Document, []byte, error) {
	d, err := s.repomanager.Documents(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if d.UserID != p.UserID {
		return nil, nil, common.ErrorNotFound
	}
	body, err := s.store.Get(ctx, d.StorageKey)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, nil, err
		}
		s.log.Error(ctx, "document content unavailable", "document_id", id, "error", err)
		return nil, nil, common.ErrorInternal
	}
	return d, body, nil
}

// CaseDocuments lists every document linked to a case, including evidence
// carried over from the questionnaire that opened it.
func (s *DocumentService) CaseDocuments(ctx context.Context, p auth.Principal, caseID string) ([]LinkedDocument, error) {
	c, err := s.repomanager.Cases(s.db).GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if !caseVisibleTo(p, c) {
		return nil, forbidden("not your case")
	}
	docs, err := s.repomanager.Documents(s.db).ListByCase(ctx, caseID)
	if err != nil {
		return nil, err
	}
	out := make([]LinkedDocument, 0, len(docs))
	for _, d := range docs {
		url, err := s.store.PresignGet(ctx, d.StorageKey, DocumentLinkTTL)
		if err != nil {
			s.log.Warn(ctx, "presign failed", "document_id", d.ID, "error", err)
		}
		out = append(out, LinkedDocument{Document: d, DownloadURL: url})
	}
	return out, nil
}

// Attach stores a file on a case. The owner, the assigned professional and
// admins may attach.
func (s *DocumentService) Attach(ctx context.Context, p auth.Principal, caseID string, f filex.LocalFile) (*LinkedDocument, error) {
	c, err := s.repomanager.Cases(s.db).GetByID(ctx, caseID)
	if err != nil {
		return nil, err
	}
	if p.Role != common.RoleAdmin && c.UserID != p.UserID && !assignedTo(p, c) {
		return nil, forbidden("only the case parties can attach documents")
	}
	if err := checkUpload(&f); err != nil {
		return nil, err
	}

	key := storage.NewKey("cases", p.UserID, f.Name)
	if err := s.store.Put(ctx, key, f.ContentType, f.Data); err != nil {
		return nil, err
	}
	d, err := s.repomanager.Documents(s.db).Create(ctx, &models.Document{
		UserID:       p.UserID,
		CaseID:       &caseID,
		DocumentType: models.DocumentCaseAttachment,
		FileName:     f.Name,
		StorageKey:   key,
		Size:         int64(len(f.Data)),
		MimeType:     f.ContentType,
	})
	if err != nil {
		s.dropObject(ctx, key)
		return nil, err
	}

	url, err := s.store.PresignGet(ctx, key, DocumentLinkTTL)
	if err != nil {
		s.log.Warn(ctx, "presign failed", "document_id", d.ID, "error", err)
	}
	s.log.Info(ctx, "case document attached", "case_id", caseID, "document_id", d.ID, "user_id", p.UserID)
	return &LinkedDocument{Document: d, DownloadURL: url}, nil
}

// Detach removes a case attachment. Its uploader, the case owner and admins
// may remove it; questionnaire evidence stays with the case.
func (s *DocumentService) Detach(ctx context.Context, p auth.Principal, caseID, docID string) error {
	d, err := s.repomanager.Documents(s.db).GetByID(ctx, docID)
	if err != nil {
		return err
	}
	if d.CaseID == nil || *d.CaseID != caseID {
		return common.ErrorNotFound
	}
	c, err := s.repomanager.Cases(s.db).GetByID(ctx, caseID)
	if err != nil {
		return err
	}
	if p.Role != common.RoleAdmin && d.UserID != p.UserID && c.UserID != p.UserID {
		return forbidden("only the uploader or the case owner can remove a document")
	}
	if d.DocumentType != models.DocumentCaseAttachment {
		return conflict("only case attachments can be removed")
	}
	if err := s.repomanager.Documents(s.db).Delete(ctx, docID); err != nil {
		return err
	}
	s.dropObject(ctx, d.StorageKey)
	s.log.Info(ctx, "case document removed", "case_id", caseID, "document_id", docID, "user_id", p.UserID)
	return nil
}

// dropObject removes an object whose row is gone. A failure only leaves an
// orphan behind.
func (s *DocumentService) dropObject(ctx context.Context, key string) {
	if err := s.store.Delete(ctx, key); err != nil {
		s.log.Warn(ctx, "object not removed", "key", key, "error", err)
	}
}
