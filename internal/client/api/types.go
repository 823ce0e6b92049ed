package api

import (
	"encoding/json"
	"time"
)

type User struct {
	ID          string     `json:"user_uuid"`
	UserName    string     `json:"user_name"`
	Phone       string     `json:"user_phone,omitempty"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	IsVerified  bool       `json:"is_verified"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type Token struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthResponse struct {
	Token Token `json:"token"`
	User  User  `json:"user"`
}

type Message struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

type Case struct {
	ID             string     `json:"case_uuid"`
	UserID         string     `json:"user_uuid"`
	ProfessionalID *string    `json:"professional_uuid"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Category       string     `json:"case_category"`
	Priority       string     `json:"priority"`
	Status         string     `json:"case_status"`
	Budget         float64    `json:"budget_cny"`
	Rating         *int       `json:"rating"`
	Review         string     `json:"review,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	AcceptedAt     *time.Time `json:"accepted_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

type NewCase struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"case_category"`
	Priority    string  `json:"priority"`
	Budget      float64 `json:"budget_cny"`
}

// CaseUpdate carries the fields to change; nil fields are left alone.
type CaseUpdate struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Category    *string  `json:"case_category,omitempty"`
	Priority    *string  `json:"priority,omitempty"`
	Budget      *float64 `json:"budget_cny,omitempty"`
}

type CaseStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

type Professional struct {
	UserID            string     `json:"user_uuid"`
	FullName          string     `json:"full_name"`
	LicenseNumber     string     `json:"license_number"`
	LawFirmName       string     `json:"law_firm_name"`
	SpecialtyAreas    []string   `json:"specialty_areas"`
	YearsOfExperience int        `json:"years_of_experience"`
	Bio               string     `json:"bio"`
	ConsultationFee   float64    `json:"consultation_fee"`
	AverageRating     float64    `json:"average_rating"`
	TotalCasesHandled int        `json:"total_cases_handled"`
	IsVerified        bool       `json:"is_verified"`
	VerifiedAt        *time.Time `json:"verified_at,omitempty"`
}

type ProfileUpdate struct {
	LawFirmName       string   `json:"law_firm_name"`
	SpecialtyAreas    []string `json:"specialty_areas"`
	YearsOfExperience int      `json:"years_of_experience"`
	Bio               string   `json:"bio"`
	ConsultationFee   float64  `json:"consultation_fee"`
}

type VerificationStatus struct {
	IsVerified    bool   `json:"is_verified"`
	HasProfile    bool   `json:"has_profile"`
	RequestStatus string `json:"request_status"`
	RequestID     string `json:"request_uuid,omitempty"`
	AdminNotes    string `json:"admin_notes,omitempty"`
}

type Dashboard struct {
	IsVerified    bool    `json:"is_verified"`
	Accepted      int64   `json:"accepted_cases"`
	InProgress    int64   `json:"in_progress_cases"`
	Completed     int64   `json:"completed_cases"`
	AverageRating float64 `json:"average_rating"`
	Earnings      float64 `json:"total_earnings"`
}

type ProfessionalCases struct {
	IsVerified bool   `json:"is_verified"`
	Cases      []Case `json:"cases"`
}

type Verification struct {
	ID                string     `json:"request_uuid"`
	UserID            string     `json:"user_uuid"`
	FullName          string     `json:"full_name"`
	LicenseNumber     string     `json:"license_number"`
	LawFirmName       string     `json:"law_firm_name"`
	SpecialtyAreas    []string   `json:"specialty_areas"`
	YearsOfExperience int        `json:"years_of_experience"`
	Bio               string     `json:"bio"`
	Status            string     `json:"status"`
	AdminNotes        string     `json:"admin_notes,omitempty"`
	ReviewedBy        *string    `json:"reviewed_by,omitempty"`
	ReviewedAt        *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

type Document struct {
	ID           string    `json:"document_uuid"`
	DocumentType string    `json:"document_type"`
	FileName     string    `json:"file_name"`
	Size         int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	DownloadURL  string    `json:"download_url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

// DocumentFilter narrows MyDocuments. Zero fields do not filter.
type DocumentFilter struct {
	DocumentType string
	CaseID       string
	SessionID    string
	Limit        int
}

type Session struct {
	ID        string    `json:"session_uuid"`
	UserID    string    `json:"user_uuid"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type revokeResult struct {
	Revoked int64 `json:"revoked"`
}

type VerificationDetail struct {
	Verification
	Documents []Document `json:"documents"`
}

// VerificationForm is the multipart payload of a verification request.
type VerificationForm struct {
	FullName          string
	LicenseNumber     string
	LawFirmName       string
	SpecialtyAreas    []string
	YearsOfExperience int
	Bio               string
	Files             []File
}

// File is a named in-memory upload.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

type AdminLog struct {
	ID          string          `json:"log_uuid"`
	AdminID     string          `json:"admin_uuid"`
	Action      string          `json:"action"`
	TargetTable string          `json:"target_table"`
	TargetID    string          `json:"target_uuid"`
	Details     json.RawMessage `json:"details,omitempty"`
	PerformedAt time.Time       `json:"performed_at"`
}

type UserStats struct {
	Total         int64 `json:"total"`
	Active        int64 `json:"active"`
	Professionals int64 `json:"professionals"`
	Admins        int64 `json:"admins"`
}

type PlatformStats struct {
	Users                UserStats `json:"users"`
	Cases                CaseStats `json:"cases"`
	PendingVerifications int       `json:"pending_verifications"`
}

// ListOptions pages admin listings. Zero values use server defaults.
type ListOptions struct {
	Filter string
	Limit  int
	Offset int
}
