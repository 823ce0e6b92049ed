package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/lexbridge/internal/netx"
)

// QA is one answered question handed to the summarizer.
type QA struct {
	QuestionID string
	Title      string
	Value      any
}

// SummaryRequest describes the part to summarize.
type SummaryRequest struct {
	Part     int
	PartName string
	Prompt   string
	Answers  []QA
	Feedback string
}

// Summarizer turns the answers of a part into a short text.
type Summarizer interface {
	Summarize(ctx context.Context, req SummaryRequest) (string, error)
}

var errEmptySummary = errors.New("summarizer returned an empty response")

// OllamaSummarizer calls the /api/generate endpoint of an Ollama server.
type OllamaSummarizer struct {
	baseURL string
	model   string
	client  *http.Client
}

func NewOllamaSummarizer(baseURL, model string, client *http.Client) *OllamaSummarizer {
	if client == nil {
		client = http.DefaultClient
	}
	return &OllamaSummarizer{baseURL: strings.TrimRight(baseURL, "/"), model: model, client: client}
}

type generateOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p"`
	NumPredict  int     `json:"num_predict"`
}

type generateRequest struct {
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Stream  bool            `json:"stream"`
	Options generateOptions `json:"options"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (o *OllamaSummarizer) Summarize(ctx context.Context, req SummaryRequest) (string, error) {
	in := generateRequest{
		Model:   o.model,
		Prompt:  BuildPrompt(req),
		Options: generateOptions{Temperature: 0.7, TopP: 0.9, NumPredict: 800},
	}
	var out generateResponse
	if err := netx.PostJSON(ctx, o.client, o.baseURL+"/api/generate", in, &out); err != nil {
		return "", fmt.Errorf("ollama: %w", err)
	}
	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", errEmptySummary
	}
	return text, nil
}

// BuildPrompt renders the summarization prompt for a part.
func BuildPrompt(req SummaryRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "These are the client's answers to part %d (%s) of a legal consultation questionnaire:\n\n", req.Part, req.PartName)
	for _, qa := range req.Answers {
		fmt.Fprintf(&b, "- %s: %s\n", qa.Title, FormatValue(qa.Value))
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(req.Prompt))
	if req.Feedback != "" {
		fmt.Fprintf(&b, "\n\nThe client rejected the previous summary with this feedback: %s", req.Feedback)
	}
	return b.String()
}

// FallbackSummary is used when no summarizer is configured or it fails.
func FallbackSummary(req SummaryRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] completed, %d questions answered.", req.PartName, len(req.Answers))

	var lines []string
	for _, qa := range req.Answers {
		if v := FormatValue(qa.Value); v != "" {
			lines = append(lines, fmt.Sprintf("- %s: %s", qa.Title, v))
		}
	}
	if len(lines) > 0 {
		b.WriteString("\n\nKey information:\n")
		b.WriteString(strings.Join(lines, "\n"))
	}
	return b.String()
}
