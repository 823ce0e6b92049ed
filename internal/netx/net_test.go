package netx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			var in map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
			_ = json.NewEncoder(w).Encode(map[string]string{"echo": in["prompt"]})
		}))
		defer ts.Close()

		var out struct{ Echo string }
		err := PostJSON(context.Background(), ts.Client(), ts.URL, map[string]string{"prompt": "hi"}, &out)
		require.NoError(t, err)
		assert.Equal(t, "hi", out.Echo)
	})

	t.Run("non-2xx", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "model not loaded", http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		err := PostJSON(context.Background(), ts.Client(), ts.URL, struct{}{}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "503")
		assert.Contains(t, err.Error(), "model not loaded")
	})

	t.Run("bad json", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("{"))
		}))
		defer ts.Close()

		var out map[string]any
		err := PostJSON(context.Background(), ts.Client(), ts.URL, struct{}{}, &out)
		assert.ErrorContains(t, err, "decode response")
	})

	t.Run("unreachable", func(t *testing.T) {
		err := PostJSON(context.Background(), http.DefaultClient, "http://127.0.0.1:1", struct{}{}, nil)
		assert.Error(t, err)
	})
}
