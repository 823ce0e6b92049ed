package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
	"github.com/dmitrijs2005/lexbridge/internal/server/auth"
	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/questionnaire"
	"github.com/dmitrijs2005/lexbridge/internal/server/repositories/documents"
	"github.com/dmitrijs2005/lexbridge/internal/server/services"
)

func (f *fakeUsers) ChangePassword(_ context.Context, userID, oldPassword, newPassword string) error {
	if oldPassword != "Secret123" {
		return fmt.Errorf("%w: current password is incorrect", common.ErrorValidation)
	}
	f.password = userID + ":" + newPassword
	return nil
}

func (f *fakeCases) Update(_ context.Context, p auth.Principal, id string, u services.CaseUpdate) (*models.Case, error) {
	if id != "c1" {
		return nil, common.ErrorNotFound
	}
	f.updated = u
	c := &models.Case{ID: id, UserID: p.UserID, Title: "Unpaid wages", Status: models.CaseStatusPending}
	if u.Title != nil {
		c.Title = *u.Title
	}
	return c, nil
}

func (f *fakeAdmin) ResetPassword(_ context.Context, admin auth.Principal, userID, newPassword string) error {
	f.calls = append(f.calls, "reset "+userID+" by "+admin.UserID)
	return nil
}

func (f *fakeAdmin) Sessions(_ context.Context, userID string) ([]*models.RefreshToken, error) {
	if userID != "u1" {
		return nil, common.ErrorNotFound
	}
	now := time.Now()
	return []*models.RefreshToken{{ID: "t1", UserID: "u1", TokenHash: "secret-hash", CreatedAt: now, Expires: now.Add(time.Hour)}}, nil
}

func (f *fakeAdmin) RevokeSession(_ context.Context, _ auth.Principal, id string) error {
	f.calls = append(f.calls, "revoke "+id)
	return nil
}

func (f *fakeAdmin) RevokeAllSessions(_ context.Context, _ auth.Principal, userID string) (int, error) {
	f.calls = append(f.calls, "revoke-all "+userID)
	return 3, nil
}

func (f *fakeAdmin) CleanupSessions(context.Context) (int64, error) {
	return 7, nil
}

func (f *fakeQuestionnaires) UploadedFile(_ context.Context, _ auth.Principal, sessionID, fileID string) (*services.EvidenceFile, error) {
	if fileID != "f1" {
		return nil, common.ErrorNotFound
	}
	return &services.EvidenceFile{
		Evidence:    questionnaire.Evidence{FileID: fileID, FileName: "id.png", QuestionID: "q4", Size: 10},
		DownloadURL: "memory://evidence/" + sessionID,
	}, nil
}

type fakeDocuments struct {
	DocumentService
	filter   documents.ListFilter
	attached filex.LocalFile
	detached string
}

func (f *fakeDocuments) Mine(_ context.Context, _ auth.Principal, lf documents.ListFilter) ([]*models.Document, error) {
	f.filter = lf
	return []*models.Document{{ID: "d1", DocumentType: models.DocumentGenerated, FileName: "claim.txt"}}, nil
}

func (f *fakeDocuments) Download(_ context.Context, p auth.Principal, id string) (*models.Document, []byte, error) {
	if id != "d1" || p.UserID != "u1" {
		return nil, nil, common.ErrorNotFound
	}
	return &models.Document{ID: id, FileName: "起诉状 claim.txt", MimeType: "text/plain; charset=utf-8"}, []byte("claim body"), nil
}

func (f *fakeDocuments) CaseDocuments(_ context.Context, p auth.Principal, caseID string) ([]services.LinkedDocument, error) {
	if p.Role == common.RoleProfessional {
		return nil, fmt.Errorf("%w: not your case", common.ErrorForbidden)
	}
	return []services.LinkedDocument{{
		Document:    &models.Document{ID: "d2", CaseID: &caseID, DocumentType: models.DocumentCaseAttachment, FileName: "lease.pdf"},
		DownloadURL: "memory://cases/d2",
	}}, nil
}

func (f *fakeDocuments) Attach(_ context.Context, _ auth.Principal, caseID string, file filex.LocalFile) (*services.LinkedDocument, error) {
	f.attached = file
	return &services.LinkedDocument{
		Document:    &models.Document{ID: "d3", CaseID: &caseID, DocumentType: models.DocumentCaseAttachment, FileName: file.Name},
		DownloadURL: "memory://cases/d3",
	}, nil
}

func (f *fakeDocuments) Detach(_ context.Context, _ auth.Principal, caseID, docID string) error {
	if docID != "d2" {
		return fmt.Errorf("%w: only case attachments can be removed", common.ErrorConflict)
	}
	f.detached = caseID + "/" + docID
	return nil
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/api/auth/password/change", "user-token",
		changePasswordRequest{OldPassword: "wrong", NewPassword: "Better456"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "current password is incorrect", detail(t, rec))

	rec = env.do(http.MethodPost, "/api/auth/password/change", "user-token",
		changePasswordRequest{OldPassword: "Secret123", NewPassword: "Better456"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "u1:Better456", env.users.password)

	rec = env.do(http.MethodPost, "/api/auth/password/change", "", changePasswordRequest{})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpdateCase(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPut, "/api/cases/c1", "user-token", map[string]any{"title": "Unpaid overtime"})
	require.Equal(t, http.StatusOK, rec.Code)
	var c caseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, "Unpaid overtime", c.Title)

	require.NotNil(t, env.cases.updated.Title)
	assert.Nil(t, env.cases.updated.Budget, "absent fields stay nil")
	assert.Nil(t, env.cases.updated.Priority)

	rec = env.do(http.MethodPut, "/api/cases/zzz", "user-token", map[string]any{})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminSessionRoutes(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/api/admin/users/u1/sessions", "user-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/api/admin/users/u1/sessions", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret-hash")
	var sessions []sessionDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	assert.Equal(t, "t1", sessions[0].ID)

	rec = env.do(http.MethodGet, "/api/admin/users/ghost/sessions", "admin-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = env.do(http.MethodPost, "/api/admin/sessions/t1/revoke", "admin-token", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodPost, "/api/admin/users/u1/revoke-all-sessions", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var revoked revokedDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &revoked))
	assert.EqualValues(t, 3, revoked.Revoked)

	rec = env.do(http.MethodPost, "/api/admin/sessions/cleanup", "admin-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &revoked))
	assert.EqualValues(t, 7, revoked.Revoked)

	rec = env.do(http.MethodPost, "/api/admin/users/u1/reset-password", "admin-token", resetPasswordRequest{NewPassword: "Secret123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, []string{"revoke t1", "revoke-all u1", "reset u1 by a1"}, env.admin.calls)
}

func TestMyDocuments(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/api/documents/my-documents?document_type=generated&case_uuid=c1&limit=5", "user-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, documents.ListFilter{DocumentType: "generated", CaseID: "c1", Limit: 5}, env.docs.filter)

	var got []documentDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "/api/documents/download/d1", got[0].DownloadURL)

	rec = env.do(http.MethodGet, "/api/documents/my-documents?limit=-1", "user-token", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadDocument(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/api/documents/download/d1", "user-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "claim body", rec.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "10", rec.Header().Get("Content-Length"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename*=utf-8''")

	rec = env.do(http.MethodGet, "/api/documents/download/d1", "pro-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCaseDocumentRoutes(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/api/cases/c1/documents", "user-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list []documentDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "memory://cases/d2", list[0].DownloadURL)

	rec = env.do(http.MethodGet, "/api/cases/c1/documents", "pro-token", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req := multipartRequest(t, "/api/cases/c1/documents", nil, "file", map[string][]byte{"lease.pdf": []byte("%PDF-1.4")})
	req.Header.Set("Authorization", "Bearer user-token")
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "lease.pdf", env.docs.attached.Name)
	var doc documentDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &doc))
	assert.Equal(t, "d3", doc.ID)

	req = multipartRequest(t, "/api/cases/c1/documents", nil, "file", nil)
	req.Header.Set("Authorization", "Bearer user-token")
	w = httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	rec = env.do(http.MethodDelete, "/api/cases/c1/documents/d2", "user-token", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "c1/d2", env.docs.detached)

	rec = env.do(http.MethodDelete, "/api/cases/c1/documents/ev1", "user-token", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestUploadedFile(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodGet, "/api/workflow/questionnaire/upload/s1/f1", "user-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "f1", got["file_id"])
	assert.Equal(t, "id.png", got["filename"])
	assert.Equal(t, "memory://evidence/s1", got["download_url"])

	rec = env.do(http.MethodGet, "/api/workflow/questionnaire/upload/s1/nope", "user-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
