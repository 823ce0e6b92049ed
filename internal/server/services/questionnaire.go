package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/dbx"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/questionnaire"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/questionnaires"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/lexbridge/internal/server/storage"
)

// SessionTTL is how long an unfinished questionnaire session stays resumable.
const SessionTTL = 24 * time.Hour

// maxSessionWrites bounds how often a change is re-applied after another
// request updated the same session first.
const maxSessionWrites = 3

// SessionStep is the response to every step-advancing call.
type SessionStep struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	*questionnaire.Step
}

// SessionStatus is a compact view of a session.
type SessionStatus struct {
	Success           bool                   `json:"success"`
	SessionID         string                 `json:"session_id"`
	QuestionnaireType int                    `json:"questionnaire_type"`
	Status            string                 `json:"status"`
	IsFinalized       bool                   `json:"is_finalized"`
	CurrentPart       int                    `json:"current_part"`
	Progress          questionnaire.Progress `json:"progress"`
	PartInfo          questionnaire.PartInfo `json:"part_info"`
	AnsweredCount     int                    `json:"answered_count"`
	Summaries         []string               `json:"summaries"`
	StartedAt         time.Time              `json:"started_at"`
	LastActivityAt    time.Time              `json:"last_activity_at"`
	ExpiresAt         time.Time              `json:"expires_at"`
}

// AnswerInput is one submitted answer.
type AnswerInput struct {
	SessionID  string
	QuestionID string
	Value      any
	File       *questionnaire.FileRef
}

// EvidenceFile is a session's evidence entry with a temporary download link.
type EvidenceFile struct {
	questionnaire.Evidence
	DownloadURL string `json:"download_url,omitempty"`
}

// UploadResult describes a stored evidence file.
type UploadResult struct {
	Success        bool       `json:"success"`
	FileID         string     `json:"file_id"`
	DocumentID     string     `json:"document_id"`
	FileName       string     `json:"filename"`
	ContentType    string     `json:"content_type"`
	Size           int64      `json:"size"`
	EvidenceNumber string     `json:"evidence_number"`
	OCRResult      *OCRResult `json:"ocr_result,omitempty"`
}

// OCRResult is what OCR found in an uploaded image.
type OCRResult struct {
	Text         string            `json:"text"`
	Confidence   float64           `json:"confidence"`
	DocumentKind string            `json:"document_kind"`
	Fields       map[string]string `json:"fields"`
}

// FinalizeInput controls what finalization produces besides the submission.
type FinalizeInput struct {
	SessionID         string
	CreateCase        bool
	CaseTitle         string
	CasePriority      string
	SelectedTemplates []string
}

// CaseRef is the short form of a case created from a session.
type CaseRef struct {
	CaseID string `json:"case_uuid"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

// DocumentResult reports one document generation attempt.
type DocumentResult struct {
	Success      bool   `json:"success"`
	TemplateCode string `json:"template_code"`
	DocumentID   string `json:"document_id,omitempty"`
	FileName     string `json:"filename,omitempty"`
	DownloadURL  string `json:"download_url,omitempty"`
	FilledFields int    `json:"filled_fields"`
	PreviewOnly  bool   `json:"preview_only"`
	Preview      string `json:"preview,omitempty"`
	Message      string `json:"message"`
}

type FinalizeResult struct {
	Success            bool                             `json:"success"`
	SessionID          string                           `json:"session_id"`
	SubmissionID       string                           `json:"submission_id"`
	AnswersSaved       bool                             `json:"answers_saved"`
	AnswersCount       int                              `json:"answers_count"`
	Summaries          map[string]questionnaire.Summary `json:"summaries"`
	Case               *CaseRef                         `json:"case,omitempty"`
	GeneratedDocuments []DocumentResult                 `json:"generated_documents"`
}

// UploadedFile lists a document attached to a session.
type UploadedFile struct {
	DocumentID  string    `json:"document_id"`
	FileName    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Type        string    `json:"document_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// CompletionData is everything the completion view needs.
type CompletionData struct {
	Success              bool                              `json:"success"`
	SessionID            string                            `json:"session_id"`
	Status               string                            `json:"status"`
	IsFinalized          bool                              `json:"is_finalized"`
	QuestionnaireType    int                               `json:"questionnaire_type"`
	Answers              map[string]any                    `json:"answers"`
	Summaries            map[string]questionnaire.Summary  `json:"summaries"`
	ShouldCreateCase     bool                              `json:"should_create_case"`
	CaseID               string                            `json:"case_uuid,omitempty"`
	RecommendedTemplates []questionnaire.DocumentTemplate  `json:"recommended_templates"`
	EvidenceList         []questionnaire.Evidence          `json:"evidence_list"`
	UploadedFiles        []UploadedFile                    `json:"uploaded_files"`
	GeneratedDocuments   []questionnaire.GeneratedDocument `json:"generated_documents"`
	StartedAt            time.Time                         `json:"started_at"`
	CompletedAt          *time.Time                        `json:"completed_at"`
}

// QuestionnaireService persists engine sessions and handles the side
// effects around them: evidence upload with OCR, finalization into a
// submission and a case, and document generation.
type QuestionnaireService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	engine      *questionnaire.Engine
	filler      *questionnaire.Filler
	store       storage.ObjectStore
	ocr         questionnaire.Recognizer
	log         logging.Logger
	now         func() time.Time
}

// NewQuestionnaireService wires the service. A nil ocr disables text
// recognition of uploaded images.
func NewQuestionnaireService(db *sql.DB, m repomanager.RepositoryManager, engine *questionnaire.Engine,
	filler *questionnaire.Filler, store storage.ObjectStore, ocr questionnaire.Recognizer, log logging.Logger) *QuestionnaireService {
	return &QuestionnaireService{
		db:          db,
		repomanager: m,
		engine:      engine,
		filler:      filler,
		store:       store,
		ocr:         ocr,
		log:         log,
		now:         time.Now,
	}
}

func (s *QuestionnaireService) Start(ctx context.Context, p auth.Principal, typ int) (*SessionStep, error) {
	st, step, err := s.engine.Start(typ)
	if err != nil {
		return nil, engineError(err)
	}
	raw, err := st.Encode()
	if err != nil {
		return nil, err
	}
	sess, err := s.repomanager.Questionnaires(s.db).CreateSession(ctx, &models.QuestionnaireSession{
		UserID:            p.UserID,
		QuestionnaireType: typ,
		Status:            models.SessionInProgress,
		State:             raw,
		ExpiresAt:         s.now().Add(SessionTTL),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "questionnaire started", "session_id", sess.ID, "type", typ)
	return &SessionStep{Success: true, SessionID: sess.ID, Step: step}, nil
}

func (s *QuestionnaireService) Answer(ctx context.Context, p auth.Principal, in AnswerInput) (*SessionStep, error) {
	return s.advance(ctx, p, in.SessionID, func(st *questionnaire.State) (*questionnaire.Step, error) {
		return s.engine.Answer(ctx, st, in.QuestionID, in.Value, in.File)
	})
}

func (s *QuestionnaireService) ValidateSummary(ctx context.Context, p auth.Principal, sessionID string, approved bool, feedback string) (*SessionStep, error) {
	return s.advance(ctx, p, sessionID, func(st *questionnaire.State) (*questionnaire.Step, error) {
		return s.engine.ValidateSummary(ctx, st, approved, feedback)
	})
}

func (s *QuestionnaireService) GoBack(ctx context.Context, p auth.Principal, sessionID, targetQuestionID string) (*SessionStep, error) {
	return s.advance(ctx, p, sessionID, func(st *questionnaire.State) (*questionnaire.Step, error) {
		return s.engine.GoBack(st, targetQuestionID)
	})
}

// Resume reports the current step with all answers. Completed sessions
// report status completed so the client can move to the completion view.
func (s *QuestionnaireService) Resume(ctx context.Context, p auth.Principal, sessionID string) (*SessionStep, error) {
	sess, st, err := s.load(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	step, err := s.engine.Resume(st)
	if err != nil {
		return nil, engineError(err)
	}
	return &SessionStep{Success: true, SessionID: sess.ID, Step: step}, nil
}

// UploadedFile looks up evidence by the file id handed out on upload.
func (s *QuestionnaireService) UploadedFile(ctx context.Context, p auth.Principal, sessionID, fileID string) (*EvidenceFile, error) {
	_, st, err := s.load(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	i := slices.IndexFunc(st.Evidence, func(ev questionnaire.Evidence) bool { return ev.FileID == fileID })
	if i < 0 {
		return nil, common.ErrorNotFound
	}
	out := &EvidenceFile{Evidence: st.Evidence[i]}

	d, err := s.repomanager.Documents(s.db).GetByID(ctx, out.DocumentID)
	if err != nil {
		s.log.Warn(ctx, "evidence document missing", "session_id", sessionID, "file_id", fileID, "error", err)
		return out, nil
	}
	if out.DownloadURL, err = s.store.PresignGet(ctx, d.StorageKey, DocumentLinkTTL); err != nil {
		s.log.Warn(ctx, "presign failed", "document_id", d.ID, "error", err)
	}
	return out, nil
}

func (s *QuestionnaireService) Status(ctx context.Context, p auth.Principal, sessionID string) (*SessionStatus, error) {
	sess, st, err := s.load(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	return s.status(sess, st)
}

// ListIncomplete lists the caller's resumable sessions.
func (s *QuestionnaireService) ListIncomplete(ctx context.Context, p auth.Principal) ([]*SessionStatus, error) {
	sessions, err := s.repomanager.Questionnaires(s.db).ListIncomplete(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	out := make([]*SessionStatus, 0, len(sessions))
	for _, sess := range sessions {
		st, err := questionnaire.DecodeState(sess.State)
		if err != nil {
			s.log.Warn(ctx, "skipping session with unreadable state", "session_id", sess.ID, "error", err)
			continue
		}
		info, err := s.status(sess, st)
		if err != nil {
			s.log.Warn(ctx, "skipping session", "session_id", sess.ID, "error", err)
			continue
		}
		out = append(out, info)
	}
	return out, nil
}

// Delete removes a session unless it has been finalized.
func (s *QuestionnaireService) Delete(ctx context.Context, p auth.Principal, sessionID string) error {
	sess, _, err := s.load(ctx, p, sessionID)
	if err != nil {
		return err
	}
	if sess.IsFinalized {
		return validation("cannot delete finalized session")
	}
	if err := s.repomanager.Questionnaires(s.db).DeleteSession(ctx, sess.ID); err != nil {
		return err
	}
	s.log.Info(ctx, "questionnaire deleted", "session_id", sess.ID)
	return nil
}

// Upload stores an evidence file for a question, runs OCR on images and
// records the file in the session's evidence list.
func (s *QuestionnaireService) Upload(ctx context.Context, p auth.Principal, sessionID, questionID string, f filex.LocalFile) (*UploadResult, error) {
	sess, st, err := s.loadActive(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	if err := checkUpload(&f); err != nil {
		return nil, err
	}
	tpl, err := s.engine.Template(st.Type)
	if err != nil {
		return nil, engineError(err)
	}
	if questionID != "" && tpl.IndexOf(questionID) < 0 {
		return nil, validation("question %s not found", questionID)
	}

	suffix, err := common.MakeRandHexString(4)
	if err != nil {
		return nil, common.ErrorInternal
	}
	evidenceSuffix, err := common.MakeRandHexString(4)
	if err != nil {
		return nil, common.ErrorInternal
	}
	fileID := fmt.Sprintf("%s_%s_%s", sess.ID, questionID, suffix)

	key := storage.NewKey("evidence", p.UserID, f.Name)
	if err := s.store.Put(ctx, key, f.ContentType, f.Data); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}

	var ocr *OCRResult
	if s.ocr != nil && strings.HasPrefix(f.ContentType, "image/") {
		res, err := s.ocr.Recognize(ctx, f.Data)
		if err != nil {
			s.log.Warn(ctx, "ocr failed", "session_id", sess.ID, "error", err)
		} else {
			parsed := questionnaire.ParseText(res.Text)
			ocr = &OCRResult{Text: res.Text, Confidence: res.Confidence, DocumentKind: parsed.Kind, Fields: parsed.Fields}
		}
	}

	ev := questionnaire.Evidence{
		FileID:         fileID,
		EvidenceNumber: "EV-" + strings.ToUpper(evidenceSuffix),
		QuestionID:     questionID,
		FileName:       f.Name,
		ContentType:    f.ContentType,
		Size:           int64(len(f.Data)),
		UploadedAt:     s.now().UTC(),
	}
	if ocr != nil {
		ev.Kind = ocr.DocumentKind
		ev.Fields = ocr.Fields
	}

	var doc *models.Document
	err = s.mutate(ctx, p, sess.ID, true, func(ctx context.Context, tx dbx.DBTX, sess *models.QuestionnaireSession, st *questionnaire.State) error {
		d := &models.Document{
			UserID:       p.UserID,
			CaseID:       sess.CaseID,
			SessionID:    &sess.ID,
			DocumentType: models.DocumentQuestionnaireAttachment,
			FileName:     f.Name,
			StorageKey:   key,
			Size:         int64(len(f.Data)),
			MimeType:     f.ContentType,
		}
		if ocr != nil {
			d.OCRText = ocr.Text
		}
		var err error
		if doc, err = s.repomanager.Documents(tx).Create(ctx, d); err != nil {
			return err
		}
		ev.DocumentID = doc.ID
		st.AddEvidence(ev)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info(ctx, "evidence uploaded", "session_id", sess.ID, "file_id", fileID, "size", doc.Size)
	return &UploadResult{
		Success:        true,
		FileID:         fileID,
		DocumentID:     doc.ID,
		FileName:       f.Name,
		ContentType:    f.ContentType,
		Size:           doc.Size,
		EvidenceNumber: ev.EvidenceNumber,
		OCRResult:      ocr,
	}, nil
}

// Finalize records the submission of a completed session, creates a case
// when asked to (or when the answers ask for a lawyer) and generates the
// selected documents. A session can be finalized once.
func (s *QuestionnaireService) Finalize(ctx context.Context, p auth.Principal, in FinalizeInput) (*FinalizeResult, error) {
	if in.CasePriority == "" {
		in.CasePriority = models.PriorityMedium
	}
	if !models.ValidPriority(in.CasePriority) {
		return nil, validation("unknown priority %q", in.CasePriority)
	}

	var (
		out  *FinalizeResult
		sess *models.QuestionnaireSession
		st   *questionnaire.State
		tpl  *questionnaire.Template
	)
	err := s.mutate(ctx, p, in.SessionID, false, func(ctx context.Context, tx dbx.DBTX, cur *models.QuestionnaireSession, cst *questionnaire.State) error {
		if cur.IsFinalized {
			return validation("session already finalized")
		}
		if cst.Status != questionnaire.StatusCompleted {
			return validation("questionnaire is not completed")
		}
		t, err := s.engine.Template(cst.Type)
		if err != nil {
			return engineError(err)
		}
		responses, err := json.Marshal(cst.Answers)
		if err != nil {
			return err
		}
		summaries, err := json.Marshal(cst.Summaries)
		if err != nil {
			return err
		}

		res := &FinalizeResult{
			Success:      true,
			SessionID:    cur.ID,
			AnswersSaved: true,
			AnswersCount: len(cst.Answers),
			Summaries:    cst.Summaries,
		}
		if (in.CreateCase || cst.ShouldCreateCase) && cur.CaseID == nil {
			c, err := s.createCase(ctx, tx, p, cur, cst, t, in.CaseTitle, in.CasePriority)
			if err != nil {
				return err
			}
			res.Case = &CaseRef{CaseID: c.ID, Title: c.Title, Status: c.Status}
		}

		sub, err := s.repomanager.Questionnaires(tx).CreateSubmission(ctx, &models.QuestionnaireSubmission{
			SessionID:         cur.ID,
			UserID:            cur.UserID,
			CaseID:            cur.CaseID,
			QuestionnaireType: cur.QuestionnaireType,
			Title:             t.Title,
			Responses:         responses,
			Summaries:         summaries,
		})
		if errors.Is(err, common.ErrorAlreadyExists) {
			return validation("session already finalized")
		}
		if err != nil {
			return err
		}
		res.SubmissionID = sub.ID

		cur.IsFinalized = true
		out, sess, st, tpl = res, cur, cst, t
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.GeneratedDocuments = []DocumentResult{}
	var generated []questionnaire.GeneratedDocument
	for _, code := range in.SelectedTemplates {
		res, rec, err := s.generate(ctx, p, sess, st, tpl, code)
		if err != nil {
			s.log.Warn(ctx, "document generation failed", "session_id", sess.ID, "template", code, "error", err)
			out.GeneratedDocuments = append(out.GeneratedDocuments, DocumentResult{TemplateCode: code, Message: err.Error()})
			continue
		}
		out.GeneratedDocuments = append(out.GeneratedDocuments, *res)
		generated = append(generated, rec)
	}
	if err := s.recordDocuments(ctx, p, sess.ID, generated); err != nil {
		return nil, err
	}

	s.log.Info(ctx, "questionnaire finalized", "session_id", sess.ID, "submission_id", out.SubmissionID,
		"case_created", out.Case != nil, "documents", len(out.GeneratedDocuments))
	return out, nil
}

// CreateCase turns a completed session into a case outside finalization.
func (s *QuestionnaireService) CreateCase(ctx context.Context, p auth.Principal, sessionID, title, priority string) (*CaseRef, error) {
	if priority == "" {
		priority = models.PriorityMedium
	}

	var ref *CaseRef
	err := s.mutate(ctx, p, sessionID, false, func(ctx context.Context, tx dbx.DBTX, sess *models.QuestionnaireSession, st *questionnaire.State) error {
		if sess.CaseID != nil {
			return validation("case already created for this session")
		}
		if st.Status != questionnaire.StatusCompleted {
			return validation("questionnaire is not completed")
		}
		tpl, err := s.engine.Template(st.Type)
		if err != nil {
			return engineError(err)
		}
		c, err := s.createCase(ctx, tx, p, sess, st, tpl, title, priority)
		if err != nil {
			return err
		}
		ref = &CaseRef{CaseID: c.ID, Title: c.Title, Status: c.Status}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

func (s *QuestionnaireService) CompletionData(ctx context.Context, p auth.Principal, sessionID string) (*CompletionData, error) {
	sess, st, err := s.load(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repomanager.Documents(s.db).ListBySession(ctx, sess.ID)
	if err != nil {
		return nil, err
	}

	out := &CompletionData{
		Success:              true,
		SessionID:            sess.ID,
		Status:               st.Status,
		IsFinalized:          sess.IsFinalized,
		QuestionnaireType:    sess.QuestionnaireType,
		Answers:              st.AnswerValues(),
		Summaries:            st.Summaries,
		ShouldCreateCase:     st.ShouldCreateCase,
		RecommendedTemplates: s.filler.Recommended(st.Type),
		EvidenceList:         st.Evidence,
		UploadedFiles:        make([]UploadedFile, 0, len(docs)),
		GeneratedDocuments:   st.Documents,
		StartedAt:            sess.StartedAt,
		CompletedAt:          sess.CompletedAt,
	}
	if sess.CaseID != nil {
		out.CaseID = *sess.CaseID
	}
	if out.EvidenceList == nil {
		out.EvidenceList = []questionnaire.Evidence{}
	}
	for _, d := range docs {
		out.UploadedFiles = append(out.UploadedFiles, UploadedFile{
			DocumentID: d.ID, FileName: d.FileName, ContentType: d.MimeType,
			Size: d.Size, Type: d.DocumentType, UploadedAt: d.UploadedAt,
		})
	}
	return out, nil
}

// GenerateDocument fills a template from the session's answers. With
// previewOnly the text is returned without being stored.
func (s *QuestionnaireService) GenerateDocument(ctx context.Context, p auth.Principal, sessionID, code string, previewOnly bool) (*DocumentResult, error) {
	sess, st, err := s.load(ctx, p, sessionID)
	if err != nil {
		return nil, err
	}
	if code == "" {
		code = questionnaire.DefaultDocumentCode
	}
	tpl, err := s.engine.Template(st.Type)
	if err != nil {
		return nil, engineError(err)
	}

	if previewOnly {
		doc, err := s.filler.Fill(code, questionnaire.FillData(tpl, st), s.now())
		if err != nil {
			return nil, engineError(err)
		}
		return &DocumentResult{
			Success:      true,
			TemplateCode: code,
			FileName:     doc.FileName,
			FilledFields: doc.FilledFields,
			PreviewOnly:  true,
			Preview:      string(doc.Content),
			Message:      "preview generated",
		}, nil
	}

	res, rec, err := s.generate(ctx, p, sess, st, tpl, code)
	if err != nil {
		return nil, err
	}
	if err := s.recordDocuments(ctx, p, sess.ID, []questionnaire.GeneratedDocument{rec}); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *QuestionnaireService) advance(ctx context.Context, p auth.Principal, sessionID string,
	fn func(*questionnaire.State) (*questionnaire.Step, error)) (*SessionStep, error) {
	var step *questionnaire.Step
	err := s.mutate(ctx, p, sessionID, true, func(_ context.Context, _ dbx.DBTX, _ *models.QuestionnaireSession, st *questionnaire.State) error {
		var err error
		if step, err = fn(st); err != nil {
			return engineError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &SessionStep{Success: true, SessionID: sessionID, Step: step}, nil
}

// mutate reads the session, lets fn change it and saves it in one
// transaction. When another request saved the session in between, the
// transaction is rolled back and fn runs again on the fresh copy.
func (s *QuestionnaireService) mutate(ctx context.Context, p auth.Principal, sessionID string, active bool,
	fn func(ctx context.Context, tx dbx.DBTX, sess *models.QuestionnaireSession, st *questionnaire.State) error) error {
	var err error
	for attempt := 1; attempt <= maxSessionWrites; attempt++ {
		var (
			sess *models.QuestionnaireSession
			st   *questionnaire.State
		)
		if active {
			sess, st, err = s.loadActive(ctx, p, sessionID)
		} else {
			sess, st, err = s.load(ctx, p, sessionID)
		}
		if err != nil {
			return err
		}
		err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			if err := fn(ctx, tx, sess, st); err != nil {
				return err
			}
			return s.save(ctx, tx, sess, st)
		})
		if !errors.Is(err, questionnaires.ErrStaleSession) {
			return err
		}
		s.log.Debug(ctx, "session changed concurrently, retrying", "session_id", sessionID, "attempt", attempt)
	}
	return err
}

// recordDocuments appends generated documents to the session's state.
func (s *QuestionnaireService) recordDocuments(ctx context.Context, p auth.Principal, sessionID string, docs []questionnaire.GeneratedDocument) error {
	if len(docs) == 0 {
		return nil
	}
	return s.mutate(ctx, p, sessionID, false, func(_ context.Context, _ dbx.DBTX, _ *models.QuestionnaireSession, st *questionnaire.State) error {
		st.Documents = append(st.Documents, docs...)
		return nil
	})
}

// load fetches a session owned by p. Sessions of other users are reported
// as not found.
func (s *QuestionnaireService) load(ctx context.Context, p auth.Principal, id string) (*models.QuestionnaireSession, *questionnaire.State, error) {
	sess, err := s.repomanager.Questionnaires(s.db).GetSession(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sess.UserID != p.UserID && p.Role != common.RoleAdmin {
		return nil, nil, common.ErrorNotFound
	}
	st, err := questionnaire.DecodeState(sess.State)
	if err != nil {
		return nil, nil, err
	}
	return sess, st, nil
}

// loadActive is load for calls that change the session.
func (s *QuestionnaireService) loadActive(ctx context.Context, p auth.Principal, id string) (*models.QuestionnaireSession, *questionnaire.State, error) {
	sess, st, err := s.load(ctx, p, id)
	if err != nil {
		return nil, nil, err
	}
	if sess.IsFinalized {
		return nil, nil, validation("session already finalized")
	}
	if sess.Status == models.SessionInProgress && s.now().After(sess.ExpiresAt) {
		return nil, nil, validation("session expired")
	}
	return sess, st, nil
}

func (s *QuestionnaireService) save(ctx context.Context, db dbx.DBTX, sess *models.QuestionnaireSession, st *questionnaire.State) error {
	raw, err := st.Encode()
	if err != nil {
		return err
	}
	sess.State = raw
	if st.Status == questionnaire.StatusCompleted {
		sess.Status = models.SessionCompleted
		if sess.CompletedAt == nil {
			now := s.now().UTC()
			sess.CompletedAt = &now
		}
	} else {
		sess.Status = models.SessionInProgress
		sess.CompletedAt = nil
	}
	return s.repomanager.Questionnaires(db).UpdateSession(ctx, sess)
}

func (s *QuestionnaireService) status(sess *models.QuestionnaireSession, st *questionnaire.State) (*SessionStatus, error) {
	progress, part, err := s.engine.Progress(st)
	if err != nil {
		return nil, engineError(err)
	}
	keys := make([]string, 0, len(st.Summaries))
	for i := 1; i <= part.Total; i++ {
		if _, ok := st.Summaries[questionnaire.SummaryKey(i)]; ok {
			keys = append(keys, questionnaire.SummaryKey(i))
		}
	}
	return &SessionStatus{
		Success:           true,
		SessionID:         sess.ID,
		QuestionnaireType: sess.QuestionnaireType,
		Status:            st.Status,
		IsFinalized:       sess.IsFinalized,
		CurrentPart:       part.Current,
		Progress:          progress,
		PartInfo:          part,
		AnsweredCount:     len(st.Answers),
		Summaries:         keys,
		StartedAt:         sess.StartedAt,
		LastActivityAt:    sess.LastActivityAt,
		ExpiresAt:         sess.ExpiresAt,
	}, nil
}

// createCase files a pending case from the session's summaries and links
// the session and its uploads to it.
func (s *QuestionnaireService) createCase(ctx context.Context, tx dbx.DBTX, p auth.Principal, sess *models.QuestionnaireSession,
	st *questionnaire.State, tpl *questionnaire.Template, title, priority string) (*models.Case, error) {
	if strings.TrimSpace(title) == "" {
		title = fmt.Sprintf("%s - %s", tpl.Title, s.now().Format("2006-01-02"))
	}

	var parts []string
	for i := 1; i <= len(tpl.Parts); i++ {
		if sum, ok := st.Summaries[questionnaire.SummaryKey(i)]; ok && sum.Content != "" {
			parts = append(parts, sum.Content)
		}
	}
	description := strings.Join(parts, "\n\n")
	if description == "" {
		description = "Case created from the " + strings.ToLower(tpl.Title) + " questionnaire"
	}

	c, err := newCase(sess.UserID, CaseInput{
		Title:       title,
		Description: description,
		Category:    tpl.Code,
		Priority:    priority,
	})
	if err != nil {
		return nil, err
	}
	c, err = s.repomanager.Cases(tx).Create(ctx, c)
	if err != nil {
		return nil, err
	}
	if err := s.repomanager.Documents(tx).AttachSessionToCase(ctx, sess.ID, c.ID); err != nil {
		return nil, err
	}
	sess.CaseID = &c.ID
	s.log.Info(ctx, "case created from questionnaire", "case_id", c.ID, "session_id", sess.ID, "user_id", p.UserID)
	return c, nil
}

// generate fills and stores one document. The returned record is not yet
// part of the session state.
func (s *QuestionnaireService) generate(ctx context.Context, p auth.Principal, sess *models.QuestionnaireSession,
	st *questionnaire.State, tpl *questionnaire.Template, code string) (*DocumentResult, questionnaire.GeneratedDocument, error) {
	var rec questionnaire.GeneratedDocument
	filled, err := s.filler.Fill(code, questionnaire.FillData(tpl, st), s.now())
	if err != nil {
		return nil, rec, engineError(err)
	}

	key := storage.NewKey("generated", sess.UserID, filled.FileName)
	if err := s.store.Put(ctx, key, "text/plain; charset=utf-8", filled.Content); err != nil {
		return nil, rec, fmt.Errorf("store document: %w", err)
	}
	doc, err := s.repomanager.Documents(s.db).Create(ctx, &models.Document{
		UserID:       sess.UserID,
		CaseID:       sess.CaseID,
		SessionID:    &sess.ID,
		DocumentType: models.DocumentGenerated,
		FileName:     filled.FileName,
		StorageKey:   key,
		Size:         int64(len(filled.Content)),
		MimeType:     "text/plain",
	})
	if err != nil {
		return nil, rec, err
	}
	url, err := s.store.PresignGet(ctx, key, DocumentLinkTTL)
	if err != nil {
		return nil, rec, fmt.Errorf("presign document: %w", err)
	}

	rec = questionnaire.GeneratedDocument{
		TemplateCode: code,
		DocumentID:   doc.ID,
		FileName:     filled.FileName,
		FilledFields: filled.FilledFields,
	}
	s.log.Info(ctx, "document generated", "session_id", sess.ID, "template", code, "document_id", doc.ID, "user_id", p.UserID)
	return &DocumentResult{
		Success:      true,
		TemplateCode: code,
		DocumentID:   doc.ID,
		FileName:     filled.FileName,
		DownloadURL:  url,
		FilledFields: filled.FilledFields,
		Message:      fmt.Sprintf("%s generated", filled.Name),
	}, rec, nil
}

var engineErrors = []error{
	questionnaire.ErrUnknownTemplate,
	questionnaire.ErrUnknownDocument,
	questionnaire.ErrCompleted,
	questionnaire.ErrSummaryPending,
	questionnaire.ErrNoSummaryPending,
	questionnaire.ErrNotCurrentQuestion,
	questionnaire.ErrAtFirstQuestion,
	questionnaire.ErrCannotGoForward,
	questionnaire.ErrUnknownQuestion,
	questionnaire.ErrAnswerRequired,
	questionnaire.ErrInvalidAnswer,
}

// engineError classifies engine rejections as validation errors.
func engineError(err error) error {
	for _, e := range engineErrors {
		if errors.Is(err, e) {
			return fmt.Errorf("%w: %w", common.ErrorValidation, err)
		}
	}
	return err
}
