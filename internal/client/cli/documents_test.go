package cli

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lexbridge/internal/common"
)

func TestDocumentsDownload_SavesUnderServerName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	r, out := newTestRunner(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/documents/download/d1", req.URL.Path)
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Content-Disposition", `attachment; filename="claim.txt"`)
		_, _ = w.Write([]byte("claim body"))
	}))
	signIn(t, r, common.RoleUser)

	require.NoError(t, r.execute(context.Background(), []string{"documents", "download", "d1", "-o", dir}))
	data, err := os.ReadFile(filepath.Join(dir, "claim.txt"))
	require.NoError(t, err)
	assert.Equal(t, "claim body", string(data))
	assert.Contains(t, out.String(), "Saved 10 bytes")
}

func TestCasesUpdate_SendsChangedFlagsOnly(t *testing.T) {
	r, out := newTestRunner(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPut, req.Method)
		assert.Equal(t, "/api/cases/c1", req.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, map[string]any{"priority": "urgent"}, body)
		writeJSON(w, http.StatusOK, map[string]any{"case_uuid": "c1", "title": "Unpaid wages", "priority": "urgent"})
	}))
	signIn(t, r, common.RoleUser)

	require.NoError(t, r.execute(context.Background(), []string{"cases", "update", "c1", "--priority", "urgent"}))
	assert.Contains(t, out.String(), "Unpaid wages")
}

func TestCasesUpdate_NothingToSend(t *testing.T) {
	r, _ := newTestRunner(t, noRequests(t))
	signIn(t, r, common.RoleUser)

	err := r.execute(context.Background(), []string{"cases", "update", "c1"})
	assert.EqualError(t, err, "nothing to update")

	err = r.execute(context.Background(), []string{"cases", "update", "c1", "--priority", "asap"})
	assert.Error(t, err)
}

func TestCasesAttach_RequiresFile(t *testing.T) {
	r, _ := newTestRunner(t, noRequests(t))
	signIn(t, r, common.RoleProfessional)

	err := r.execute(context.Background(), []string{"cases", "attach", "c1"})
	assert.ErrorIs(t, err, errFileRequired)
}

func TestPassword_ChangesWithConfirmation(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	answers := []string{"OldSecret1", "NewSecret2", "NewSecret2"}
	readPassword = func(int) ([]byte, error) {
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}

	r, out := newTestRunner(t, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, "/api/auth/password/change", req.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, map[string]string{"old_password": "OldSecret1", "new_password": "NewSecret2"}, body)
		writeJSON(w, http.StatusOK, map[string]any{"success": true})
	}))
	signIn(t, r, common.RoleProfessional)

	require.NoError(t, r.execute(context.Background(), []string{"password"}))
	assert.Contains(t, out.String(), "Password changed.")
}

func TestPassword_MismatchSendsNothing(t *testing.T) {
	old := readPassword
	t.Cleanup(func() { readPassword = old })
	answers := []string{"OldSecret1", "NewSecret2", "typo"}
	readPassword = func(int) ([]byte, error) {
		next := answers[0]
		answers = answers[1:]
		return []byte(next), nil
	}

	r, _ := newTestRunner(t, noRequests(t))
	signIn(t, r, common.RoleUser)

	err := r.execute(context.Background(), []string{"password"})
	assert.ErrorIs(t, err, errPasswordMismatch)
}
