package models

import "time"

const (
	DocumentUploadEvidence          = "upload_evidence"
	DocumentGenerated               = "generated"
	DocumentVerification            = "verification_doc"
	DocumentQuestionnaireAttachment = "questionnaire_attachment"
	DocumentCaseAttachment          = "case_attachment"
)

// Document describes an object stored in S3 together with its owner links.
type Document struct {
	ID             string
	UserID         string
	CaseID         *string
	SessionID      *string
	VerificationID *string
	DocumentType   string
	FileName       string
	StorageKey     string
	Size           int64
	MimeType       string
	OCRText        string
	UploadedAt     time.Time
}
