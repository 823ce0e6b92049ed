package questionnaire

import (
	"encoding/json"
	"fmt"
	"time"
)

// Session statuses reported to the client.
const (
	StatusAwaitingInput   = "awaiting_input"
	StatusAwaitingSummary = "awaiting_summary_validation"
	StatusCompleted       = "completed"
)

// FileRef links an answer to an uploaded file.
type FileRef struct {
	FileID  string `json:"file_id"`
	OCRText string `json:"ocr_text,omitempty"`
}

// Answer is a stored answer. Value is a string, a list of strings or a map.
type Answer struct {
	Value      any       `json:"value"`
	File       *FileRef  `json:"file,omitempty"`
	AnsweredAt time.Time `json:"answered_at"`
}

// Summary is the summarizer's text for one part.
type Summary struct {
	Part     int    `json:"part"`
	PartName string `json:"part_name"`
	Content  string `json:"content"`
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
}

// Evidence is an uploaded file together with what OCR found in it.
type Evidence struct {
	FileID         string            `json:"file_id"`
	DocumentID     string            `json:"document_id"`
	EvidenceNumber string            `json:"evidence_number"`
	QuestionID     string            `json:"question_id"`
	FileName       string            `json:"filename"`
	ContentType    string            `json:"content_type"`
	Size           int64             `json:"size"`
	Kind           string            `json:"document_kind,omitempty"`
	Fields         map[string]string `json:"fields,omitempty"`
	UploadedAt     time.Time         `json:"uploaded_at"`
}

// GeneratedDocument records a filled template stored for the session.
type GeneratedDocument struct {
	TemplateCode string `json:"template_code"`
	DocumentID   string `json:"document_id"`
	FileName     string `json:"filename"`
	FilledFields int    `json:"filled_fields"`
}

// State is the persisted engine state of one session.
type State struct {
	Type             int                 `json:"type"`
	Index            int                 `json:"index"`
	Status           string              `json:"status"`
	Answers          map[string]Answer   `json:"answers"`
	Summaries        map[string]Summary  `json:"summaries"`
	PendingPart      int                 `json:"pending_part,omitempty"`
	ShouldCreateCase bool                `json:"should_create_case"`
	Evidence         []Evidence          `json:"evidence,omitempty"`
	Documents        []GeneratedDocument `json:"documents,omitempty"`
}

// SummaryKey is the key of part n in State.Summaries.
func SummaryKey(part int) string {
	return fmt.Sprintf("part%d", part)
}

// DecodeState restores a state saved with Encode.
func DecodeState(raw []byte) (*State, error) {
	st := &State{}
	if err := json.Unmarshal(raw, st); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	if st.Answers == nil {
		st.Answers = map[string]Answer{}
	}
	if st.Summaries == nil {
		st.Summaries = map[string]Summary{}
	}
	return st, nil
}

// Encode serializes the state for storage.
func (s *State) Encode() ([]byte, error) {
	return json.Marshal(s)
}

// AnswerValues returns the plain answer values keyed by question id.
func (s *State) AnswerValues() map[string]any {
	out := make(map[string]any, len(s.Answers))
	for id, a := range s.Answers {
		out[id] = a.Value
	}
	return out
}

// AddEvidence appends e unless a file with the same id is already recorded.
func (s *State) AddEvidence(e Evidence) {
	for _, have := range s.Evidence {
		if have.FileID == e.FileID {
			return
		}
	}
	s.Evidence = append(s.Evidence, e)
}

// Autofill merges the fields OCR extracted from all evidence; later uploads win.
func (s *State) Autofill() map[string]string {
	out := map[string]string{}
	for _, e := range s.Evidence {
		for k, v := range e.Fields {
			out[k] = v
		}
	}
	return out
}
