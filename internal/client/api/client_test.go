package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
)

type memTokens struct {
	mu              sync.Mutex
	access, refresh string
	saves           int
}

func (m *memTokens) Tokens(context.Context) (string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access, m.refresh, nil
}

func (m *memTokens) SetTokens(_ context.Context, access, refresh string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = access, refresh
	m.saves++
	return nil
}

func newTestClient(t *testing.T, h http.Handler, tokens *memTokens) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", 5*time.Second, tokens, logging.Discard())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestMe_SendsBearerToken(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer acc", r.Header.Get(common.AuthorizationHeaderName))
		writeJSON(w, http.StatusOK, map[string]any{"user_uuid": "u1", "user_name": "alice", "role": "user"})
	})
	c := newTestClient(t, mux, &memTokens{access: "acc"})

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	if diff := cmp.Diff(&User{ID: "u1", UserName: "alice", Role: "user"}, u); diff != "" {
		t.Errorf("user mismatch (-want +got):\n%s", diff)
	}
}

func TestExpiredToken_RefreshesOnceAndRetries(t *testing.T) {
	var meCalls, refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		meCalls.Add(1)
		if r.Header.Get(common.AuthorizationHeaderName) != "Bearer new-acc" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user_uuid": "u1"})
	})
	mux.HandleFunc("POST /api/auth/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "old-ref", body["refresh_token"])
		assert.Empty(t, r.Header.Get(common.AuthorizationHeaderName))
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "new-acc", "refresh_token": "new-ref"})
	})
	tokens := &memTokens{access: "old-acc", refresh: "old-ref"}
	c := newTestClient(t, mux, tokens)

	u, err := c.Me(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
	assert.Equal(t, int32(2), meCalls.Load())
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, "new-acc", tokens.access)
	assert.Equal(t, "new-ref", tokens.refresh)
}

func TestExpiredToken_ConcurrentCallsShareOneRefresh(t *testing.T) {
	var refreshCalls atomic.Int32
	authorized := func(h http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get(common.AuthorizationHeaderName) != "Bearer new-acc" {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
				return
			}
			h(w, r)
		}
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/professional/verification-status", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "pending"})
	}))
	mux.HandleFunc("GET /api/professional/stats", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	mux.HandleFunc("GET /api/cases/stats", authorized(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{})
	}))
	// The refresh token is single-use, as on the server.
	mux.HandleFunc("POST /api/auth/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["refresh_token"] != "old-ref" || refreshCalls.Add(1) > 1 {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "refresh token expired"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"access_token": "new-acc", "refresh_token": "new-ref"})
	})
	tokens := &memTokens{access: "old-acc", refresh: "old-ref"}
	c := newTestClient(t, mux, tokens)

	ctx := context.Background()
	var wg sync.WaitGroup
	var errs [3]error
	wg.Add(3)
	go func() { defer wg.Done(); _, errs[0] = c.VerificationStatus(ctx) }()
	go func() { defer wg.Done(); _, errs[1] = c.ProfessionalStats(ctx) }()
	go func() { defer wg.Done(); _, errs[2] = c.CaseStats(ctx) }()
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "call %d", i)
	}
	assert.Equal(t, int32(1), refreshCalls.Load())
	assert.Equal(t, 1, tokens.saves)
	assert.Equal(t, "new-ref", tokens.refresh)
}

func TestExpiredToken_FailedRefreshReturnsOriginalError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "token expired"})
	})
	mux.HandleFunc("POST /api/auth/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "refresh token expired"})
	})
	tokens := &memTokens{access: "a", refresh: "r"}
	c := newTestClient(t, mux, tokens)

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	require.ErrorIs(t, err, common.ErrTokenExpired)
	assert.Zero(t, tokens.saves)
}

func TestInvalidToken_DoesNotRefresh(t *testing.T) {
	var refreshCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"detail": "invalid token"})
	})
	mux.HandleFunc("POST /api/auth/token/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})
	c := newTestClient(t, mux, &memTokens{access: "a", refresh: "r"})

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, common.ErrTokenExpired)
	assert.Zero(t, refreshCalls.Load())
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		sentinel error
		detail   string
	}{
		{"not found", http.StatusNotFound, `{"detail":"case not found"}`, ErrNotFound, "case not found"},
		{"forbidden", http.StatusForbidden, `{"detail":"insufficient role"}`, ErrForbidden, "insufficient role"},
		{"no detail", http.StatusConflict, `oops`, nil, "Conflict"},
		{"structured detail", http.StatusBadRequest, `{"detail":[{"msg":"bad"}]}`, nil, `[{"msg":"bad"}]`},
		{"unavailable", http.StatusServiceUnavailable, ``, ErrUnavailable, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})
			c := newTestClient(t, h, &memTokens{})

			_, err := c.Case(context.Background(), "c1")
			require.Error(t, err)
			if tt.sentinel != nil {
				assert.ErrorIs(t, err, tt.sentinel)
			}
			if tt.detail != "" {
				var apiErr *APIError
				require.ErrorAs(t, err, &apiErr)
				assert.Equal(t, tt.status, apiErr.Status)
				assert.Equal(t, tt.detail, apiErr.Detail)
			}
		})
	}
}

func TestUnreachableServer(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url, time.Second, &memTokens{}, logging.Discard())
	err := c.Health(context.Background())
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestAdminListing_Query(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/users", r.URL.Path)
		assert.Equal(t, "professional", r.URL.Query().Get("role"))
		assert.Equal(t, "20", r.URL.Query().Get("limit"))
		assert.Empty(t, r.URL.Query().Get("offset"))
		writeJSON(w, http.StatusOK, []map[string]any{{"user_uuid": "p1"}})
	})
	c := newTestClient(t, h, &memTokens{access: "adm"})

	users, err := c.Users(context.Background(), ListOptions{Filter: "professional", Limit: 20})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "p1", users[0].ID)
}
