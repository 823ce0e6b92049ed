package questionnaire

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaSummarizer(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"  The client was rear-ended.  ","done":true}`))
	}))
	defer srv.Close()

	s := NewOllamaSummarizer(srv.URL+"/", "llama3", srv.Client())
	text, err := s.Summarize(context.Background(), SummaryRequest{
		Part:     2,
		PartName: "Accident and liability",
		Prompt:   "Summarize the accident.",
		Answers:  []QA{{QuestionID: "q11", Title: "Where?", Value: "Main St"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "The client was rear-ended.", text)

	assert.Equal(t, "llama3", got.Model)
	assert.False(t, got.Stream)
	assert.Contains(t, got.Prompt, "- Where?: Main St")
	assert.Contains(t, got.Prompt, "Summarize the accident.")
}

func TestOllamaSummarizer_Errors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"server error", http.StatusInternalServerError, "boom"},
		{"empty response", http.StatusOK, `{"response":"   ","done":true}`},
		{"bad json", http.StatusOK, `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewOllamaSummarizer(srv.URL, "m", nil).Summarize(context.Background(), SummaryRequest{Part: 1})
			assert.Error(t, err)
		})
	}
}

func TestBuildPrompt_Feedback(t *testing.T) {
	p := BuildPrompt(SummaryRequest{Part: 1, PartName: "Basic information", Feedback: "too long"})
	assert.Contains(t, p, "part 1 (Basic information)")
	assert.Contains(t, p, "feedback: too long")
}

func TestFallbackSummary(t *testing.T) {
	got := FallbackSummary(SummaryRequest{
		PartName: "Basic information",
		Answers: []QA{
			{Title: "Name", Value: "Jane"},
			{Title: "ID card", Value: nil},
		},
	})
	assert.Equal(t, "[Basic information] completed, 2 questions answered.\n\nKey information:\n- Name: Jane", got)
}
