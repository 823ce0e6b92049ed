package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/dmitrijs2005/lexbridge/internal/common"
)

const questionnairePath = "/workflow/questionnaire"

// MaxUploadSize is the client-side ceiling checked before any upload.
const MaxUploadSize = common.MaxUploadSize

func (c *Client) StartQuestionnaire(ctx context.Context, templateType int) (*Step, error) {
	return c.step(ctx, http.MethodPost, "/start", map[string]int{"template_type": templateType})
}

func (c *Client) Answer(ctx context.Context, in AnswerInput) (*Step, error) {
	return c.step(ctx, http.MethodPost, "/answer", in)
}

// ValidateSummary approves the pending part summary or, with approved
// false, asks for it to be regenerated using feedback.
func (c *Client) ValidateSummary(ctx context.Context, sessionID string, approved bool, feedback string) (*Step, error) {
	return c.step(ctx, http.MethodPost, "/validate-summary", map[string]any{
		"session_id": sessionID,
		"approved":   approved,
		"feedback":   feedback,
	})
}

// GoBack returns to targetQuestionID, or to the previous answered question
// when targetQuestionID is empty.
func (c *Client) GoBack(ctx context.Context, sessionID, targetQuestionID string) (*Step, error) {
	return c.step(ctx, http.MethodPost, "/go-back", map[string]string{
		"session_id":         sessionID,
		"target_question_id": targetQuestionID,
	})
}

func (c *Client) Resume(ctx context.Context, sessionID string) (*Step, error) {
	return c.step(ctx, http.MethodGet, "/session/"+url.PathEscape(sessionID)+"/resume", nil)
}

func (c *Client) step(ctx context.Context, method, path string, in any) (*Step, error) {
	var out Step
	if err := c.call(ctx, method, questionnairePath+path, nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SessionStatus(ctx context.Context, sessionID string) (*SessionStatus, error) {
	var out SessionStatus
	if err := c.call(ctx, http.MethodGet, questionnairePath+"/session/"+url.PathEscape(sessionID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) IncompleteSessions(ctx context.Context) ([]SessionStatus, error) {
	var out struct {
		Sessions []SessionStatus `json:"sessions"`
	}
	if err := c.call(ctx, http.MethodGet, questionnairePath+"/sessions/incomplete", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.call(ctx, http.MethodDelete, questionnairePath+"/session/"+url.PathEscape(sessionID), nil, nil, nil)
}

// Upload sends one evidence file for questionID. Files over the 10 MiB
// ceiling fail with ErrFileTooLarge without a request being made.
func (c *Client) Upload(ctx context.Context, sessionID, questionID string, f File) (*UploadResult, error) {
	if int64(len(f.Data)) > MaxUploadSize {
		return nil, ErrFileTooLarge
	}
	fields := []formField{{"session_id", sessionID}, {"question_id", questionID}}
	var out UploadResult
	if err := c.postMultipart(ctx, questionnairePath+"/upload", fields, []formFile{{field: "file", file: f}}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Finalize(ctx context.Context, in FinalizeInput) (*FinalizeResult, error) {
	var out FinalizeResult
	if err := c.call(ctx, http.MethodPost, questionnairePath+"/finalize", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CaseFromSession(ctx context.Context, sessionID, title, priority string) (*CaseRef, error) {
	var out struct {
		Case *CaseRef `json:"case"`
	}
	in := map[string]string{"session_id": sessionID, "title": title, "priority": priority}
	if err := c.call(ctx, http.MethodPost, questionnairePath+"/create-case", nil, in, &out); err != nil {
		return nil, err
	}
	return out.Case, nil
}

func (c *Client) CompletionData(ctx context.Context, sessionID string) (*CompletionData, error) {
	var out CompletionData
	path := questionnairePath + "/session/" + url.PathEscape(sessionID) + "/completion-data"
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateDocument(ctx context.Context, sessionID, templateCode string, previewOnly bool) (*DocumentResult, error) {
	var out DocumentResult
	in := map[string]any{"session_id": sessionID, "template_code": templateCode, "preview_only": previewOnly}
	if err := c.call(ctx, http.MethodPost, questionnairePath+"/generate-document", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadedEvidence looks up one file uploaded during a session.
func (c *Client) UploadedEvidence(ctx context.Context, sessionID, fileID string) (*EvidenceFile, error) {
	var out EvidenceFile
	path := questionnairePath + "/upload/" + url.PathEscape(sessionID) + "/" + url.PathEscape(fileID)
	if err := c.call(ctx, http.MethodGet, path, nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
