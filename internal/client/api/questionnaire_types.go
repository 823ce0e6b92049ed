package api

import "time"

// Session statuses reported by the questionnaire workflow.
const (
	StatusAwaitingInput   = "awaiting_input"
	StatusAwaitingSummary = "awaiting_summary_validation"
	StatusCompleted       = "completed"
)

// Question types.
const (
	TypeRadio    = "radio"
	TypeCheckbox = "checkbox"
	TypeSelect   = "select"
	TypeText     = "text"
	TypeTextarea = "textarea"
	TypeForm     = "form"
	TypeUpload   = "upload"
	TypeMessage  = "message"
)

type FormField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

type Question struct {
	ID          string      `json:"id"`
	Type        string      `json:"type"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Required    bool        `json:"required"`
	Options     []string    `json:"options,omitempty"`
	Fields      []FormField `json:"fields,omitempty"`
	Accept      []string    `json:"accept,omitempty"`
	Part        int         `json:"part"`
}

type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type PartInfo struct {
	Current int    `json:"current"`
	Name    string `json:"name"`
	Total   int    `json:"total"`
}

type FileRef struct {
	FileID  string `json:"file_id"`
	OCRText string `json:"ocr_text,omitempty"`
}

type Answer struct {
	Value      any       `json:"value"`
	File       *FileRef  `json:"file,omitempty"`
	AnsweredAt time.Time `json:"answered_at"`
}

type Summary struct {
	Part     int    `json:"part"`
	PartName string `json:"part_name"`
	Content  string `json:"content"`
	Approved bool   `json:"approved"`
	Feedback string `json:"feedback,omitempty"`
}

// Step is one server response of the questionnaire workflow.
type Step struct {
	Success           bool               `json:"success"`
	SessionID         string             `json:"session_id,omitempty"`
	Status            string             `json:"status"`
	Type              string             `json:"type,omitempty"`
	Question          *Question          `json:"question,omitempty"`
	Summary           *Summary           `json:"summary,omitempty"`
	Progress          Progress           `json:"progress"`
	PartInfo          PartInfo           `json:"part_info"`
	CanGoBack         bool               `json:"can_go_back"`
	ShowSummary       bool               `json:"show_summary,omitempty"`
	NextPart          bool               `json:"next_part,omitempty"`
	TransitionMessage string             `json:"transition_message,omitempty"`
	PreviousAnswer    any                `json:"previous_answer,omitempty"`
	AnsweredCount     int                `json:"answered_count"`
	Answers           map[string]Answer  `json:"answers,omitempty"`
	Summaries         map[string]Summary `json:"summaries,omitempty"`
}

type AnswerInput struct {
	SessionID  string   `json:"session_id"`
	QuestionID string   `json:"question_id"`
	Answer     any      `json:"answer"`
	File       *FileRef `json:"file,omitempty"`
}

type OCRResult struct {
	Text         string            `json:"text"`
	Confidence   float64           `json:"confidence"`
	DocumentKind string            `json:"document_kind"`
	Fields       map[string]string `json:"fields"`
}

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

type SessionStatus struct {
	Success           bool      `json:"success"`
	SessionID         string    `json:"session_id"`
	QuestionnaireType int       `json:"questionnaire_type"`
	Status            string    `json:"status"`
	IsFinalized       bool      `json:"is_finalized"`
	CurrentPart       int       `json:"current_part"`
	Progress          Progress  `json:"progress"`
	PartInfo          PartInfo  `json:"part_info"`
	AnsweredCount     int       `json:"answered_count"`
	Summaries         []string  `json:"summaries"`
	StartedAt         time.Time `json:"started_at"`
	LastActivityAt    time.Time `json:"last_activity_at"`
	ExpiresAt         time.Time `json:"expires_at"`
}

type CaseRef struct {
	CaseID string `json:"case_uuid"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

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

type FinalizeInput struct {
	SessionID         string   `json:"session_id"`
	CreateCase        bool     `json:"create_case"`
	CaseTitle         string   `json:"case_title"`
	CasePriority      string   `json:"case_priority"`
	SelectedTemplates []string `json:"selected_templates"`
}

type FinalizeResult struct {
	Success            bool               `json:"success"`
	SessionID          string             `json:"session_id"`
	SubmissionID       string             `json:"submission_id"`
	AnswersSaved       bool               `json:"answers_saved"`
	AnswersCount       int                `json:"answers_count"`
	Summaries          map[string]Summary `json:"summaries"`
	Case               *CaseRef           `json:"case,omitempty"`
	GeneratedDocuments []DocumentResult   `json:"generated_documents"`
}

type DocumentTemplate struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

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

type EvidenceFile struct {
	Evidence
	DownloadURL string `json:"download_url,omitempty"`
}

type UploadedFile struct {
	DocumentID  string    `json:"document_id"`
	FileName    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Type        string    `json:"document_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type GeneratedDocument struct {
	TemplateCode string `json:"template_code"`
	DocumentID   string `json:"document_id"`
	FileName     string `json:"filename"`
	FilledFields int    `json:"filled_fields"`
}

type CompletionData struct {
	Success              bool                `json:"success"`
	SessionID            string              `json:"session_id"`
	Status               string              `json:"status"`
	IsFinalized          bool                `json:"is_finalized"`
	QuestionnaireType    int                 `json:"questionnaire_type"`
	Answers              map[string]any      `json:"answers"`
	Summaries            map[string]Summary  `json:"summaries"`
	ShouldCreateCase     bool                `json:"should_create_case"`
	CaseID               string              `json:"case_uuid,omitempty"`
	RecommendedTemplates []DocumentTemplate  `json:"recommended_templates"`
	EvidenceList         []Evidence          `json:"evidence_list"`
	UploadedFiles        []UploadedFile      `json:"uploaded_files"`
	GeneratedDocuments   []GeneratedDocument `json:"generated_documents"`
	StartedAt            time.Time           `json:"started_at"`
	CompletedAt          *time.Time          `json:"completed_at"`
}
