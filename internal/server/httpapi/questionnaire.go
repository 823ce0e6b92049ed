package httpapi

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
	"github.com/dmitrijs2005/lexbridge/internal/server/questionnaire"
	"github.com/dmitrijs2005/lexbridge/internal/server/services"
)

type startRequest struct {
	TemplateType int `json:"template_type"`
}

type answerRequest struct {
	SessionID  string                 `json:"session_id"`
	QuestionID string                 `json:"question_id"`
	Answer     any                    `json:"answer"`
	File       *questionnaire.FileRef `json:"file,omitempty"`
}

type validateSummaryRequest struct {
	SessionID string `json:"session_id"`
	Approved  bool   `json:"approved"`
	Feedback  string `json:"feedback"`
}

type goBackRequest struct {
	SessionID        string `json:"session_id"`
	TargetQuestionID string `json:"target_question_id"`
}

type finalizeRequest struct {
	SessionID         string   `json:"session_id"`
	CreateCase        bool     `json:"create_case"`
	CaseTitle         string   `json:"case_title"`
	CasePriority      string   `json:"case_priority"`
	SelectedTemplates []string `json:"selected_templates"`
}

type sessionCaseRequest struct {
	SessionID string `json:"session_id"`
	Title     string `json:"title"`
	Priority  string `json:"priority"`
}

type generateRequest struct {
	SessionID    string `json:"session_id"`
	TemplateCode string `json:"template_code"`
	PreviewOnly  bool   `json:"preview_only"`
}

type sessionCaseResponse struct {
	Success bool              `json:"success"`
	Case    *services.CaseRef `json:"case"`
}

type incompleteResponse struct {
	Success  bool                      `json:"success"`
	Sessions []*services.SessionStatus `json:"sessions"`
}

func (s *Server) startQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	step, err := s.svc.Questionnaires.Start(r.Context(), principalFrom(r.Context()), req.TemplateType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) answerQuestion(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSONLimit(r, &req, maxAnswerBody); err != nil {
		s.writeError(w, r, err)
		return
	}
	step, err := s.svc.Questionnaires.Answer(r.Context(), principalFrom(r.Context()), services.AnswerInput{
		SessionID:  req.SessionID,
		QuestionID: req.QuestionID,
		Value:      req.Answer,
		File:       req.File,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) validateSummary(w http.ResponseWriter, r *http.Request) {
	var req validateSummaryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	step, err := s.svc.Questionnaires.ValidateSummary(r.Context(), principalFrom(r.Context()), req.SessionID, req.Approved, req.Feedback)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) goBack(w http.ResponseWriter, r *http.Request) {
	var req goBackRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	step, err := s.svc.Questionnaires.GoBack(r.Context(), principalFrom(r.Context()), req.SessionID, req.TargetQuestionID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request) {
	step, err := s.svc.Questionnaires.Resume(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, step)
}

func (s *Server) sessionStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.svc.Questionnaires.Status(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) incompleteSessions(w http.ResponseWriter, r *http.Request) {
	list, err := s.svc.Questionnaires.ListIncomplete(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if list == nil {
		list = []*services.SessionStatus{}
	}
	writeJSON(w, http.StatusOK, incompleteResponse{Success: true, Sessions: list})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Questionnaires.Delete(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "session deleted", Success: true})
}

func (s *Server) uploadEvidence(w http.ResponseWriter, r *http.Request) {
	f, ok := s.parseSingleFile(w, r)
	if !ok {
		return
	}

	res, err := s.svc.Questionnaires.Upload(r.Context(), principalFrom(r.Context()),
		r.FormValue("session_id"), r.FormValue("question_id"), f)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// parseSingleFile reads a multipart form carrying exactly one "file" part.
// On failure it has already written the response.
func (s *Server) parseSingleFile(w http.ResponseWriter, r *http.Request) (filex.LocalFile, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, common.MaxUploadSize+maxJSONBody)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeDetail(w, http.StatusRequestEntityTooLarge, "file exceeds the 10 MiB limit")
			return filex.LocalFile{}, false
		}
		writeDetail(w, http.StatusBadRequest, "invalid multipart form")
		return filex.LocalFile{}, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File["file"]
	if len(headers) != 1 {
		writeDetail(w, http.StatusBadRequest, "exactly one file is required")
		return filex.LocalFile{}, false
	}
	f, err := readPart(headers[0])
	if err != nil {
		s.writeError(w, r, err)
		return filex.LocalFile{}, false
	}
	return f, true
}

func (s *Server) uploadedFile(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	f, err := s.svc.Questionnaires.UploadedFile(r.Context(), principalFrom(r.Context()), vars["session"], vars["file"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, f)
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request) {
	var req finalizeRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Questionnaires.Finalize(r.Context(), principalFrom(r.Context()), services.FinalizeInput{
		SessionID:         req.SessionID,
		CreateCase:        req.CreateCase,
		CaseTitle:         req.CaseTitle,
		CasePriority:      req.CasePriority,
		SelectedTemplates: req.SelectedTemplates,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) caseFromSession(w http.ResponseWriter, r *http.Request) {
	var req sessionCaseRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ref, err := s.svc.Questionnaires.CreateCase(r.Context(), principalFrom(r.Context()), req.SessionID, req.Title, req.Priority)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionCaseResponse{Success: true, Case: ref})
}

func (s *Server) completionData(w http.ResponseWriter, r *http.Request) {
	data, err := s.svc.Questionnaires.CompletionData(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) generateDocument(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Questionnaires.GenerateDocument(r.Context(), principalFrom(r.Context()), req.SessionID, req.TemplateCode, req.PreviewOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
