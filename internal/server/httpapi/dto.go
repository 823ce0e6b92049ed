package httpapi

import (
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/server/models"
	"github.com/dmitrijs2005/lexbridge/internal/server/services"
)

type userDTO struct {
	ID          string     `json:"user_uuid"`
	UserName    string     `json:"user_name"`
	Phone       string     `json:"user_phone,omitempty"`
	Role        string     `json:"role"`
	IsActive    bool       `json:"is_active"`
	IsVerified  bool       `json:"is_verified"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

func toUser(u *models.User) userDTO {
	return userDTO{
		ID:          u.ID,
		UserName:    u.UserName,
		Phone:       u.Phone,
		Role:        u.Role,
		IsActive:    u.IsActive,
		IsVerified:  u.IsVerified,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
	}
}

func toUsers(us []*models.User) []userDTO {
	out := make([]userDTO, 0, len(us))
	for _, u := range us {
		out = append(out, toUser(u))
	}
	return out
}

type tokenDTO struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func toToken(p *services.TokenPair) tokenDTO {
	return tokenDTO{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "bearer",
		ExpiresIn:    p.ExpiresIn,
	}
}

type authResponse struct {
	Token tokenDTO `json:"token"`
	User  userDTO  `json:"user"`
}

type caseDTO struct {
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

func toCase(c *models.Case) caseDTO {
	return caseDTO{
		ID:             c.ID,
		UserID:         c.UserID,
		ProfessionalID: c.ProfessionalID,
		Title:          c.Title,
		Description:    c.Description,
		Category:       c.Category,
		Priority:       c.Priority,
		Status:         c.Status,
		Budget:         c.Budget,
		Rating:         c.Rating,
		Review:         c.Review,
		CreatedAt:      c.CreatedAt,
		AcceptedAt:     c.AcceptedAt,
		CompletedAt:    c.CompletedAt,
	}
}

func toCases(cs []*models.Case) []caseDTO {
	out := make([]caseDTO, 0, len(cs))
	for _, c := range cs {
		out = append(out, toCase(c))
	}
	return out
}

type caseStatsDTO struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Active    int64 `json:"active"`
	Completed int64 `json:"completed"`
	Cancelled int64 `json:"cancelled"`
}

func toCaseStats(s *models.CaseStats) caseStatsDTO {
	return caseStatsDTO{
		Total:     s.Total,
		Pending:   s.Pending,
		Active:    s.Active,
		Completed: s.Completed,
		Cancelled: s.Cancelled,
	}
}

type professionalDTO struct {
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

func toProfessional(p *models.Professional) professionalDTO {
	areas := p.SpecialtyAreas
	if areas == nil {
		areas = []string{}
	}
	return professionalDTO{
		UserID:            p.UserID,
		FullName:          p.FullName,
		LicenseNumber:     p.LicenseNumber,
		LawFirmName:       p.LawFirmName,
		SpecialtyAreas:    areas,
		YearsOfExperience: p.YearsOfExperience,
		Bio:               p.Bio,
		ConsultationFee:   p.ConsultationFee,
		AverageRating:     p.AverageRating,
		TotalCasesHandled: p.TotalCasesHandled,
		IsVerified:        p.IsVerified,
		VerifiedAt:        p.VerifiedAt,
	}
}

type verificationStatusDTO struct {
	IsVerified    bool   `json:"is_verified"`
	HasProfile    bool   `json:"has_profile"`
	RequestStatus string `json:"request_status"`
	RequestID     string `json:"request_uuid,omitempty"`
	AdminNotes    string `json:"admin_notes,omitempty"`
}

type dashboardDTO struct {
	IsVerified    bool    `json:"is_verified"`
	Accepted      int64   `json:"accepted_cases"`
	InProgress    int64   `json:"in_progress_cases"`
	Completed     int64   `json:"completed_cases"`
	AverageRating float64 `json:"average_rating"`
	Earnings      float64 `json:"total_earnings"`
}

type verificationDTO struct {
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

func toVerification(v *models.VerificationRequest) verificationDTO {
	areas := v.SpecialtyAreas
	if areas == nil {
		areas = []string{}
	}
	return verificationDTO{
		ID:                v.ID,
		UserID:            v.UserID,
		FullName:          v.FullName,
		LicenseNumber:     v.LicenseNumber,
		LawFirmName:       v.LawFirmName,
		SpecialtyAreas:    areas,
		YearsOfExperience: v.YearsOfExperience,
		Bio:               v.Bio,
		Status:            v.Status,
		AdminNotes:        v.AdminNotes,
		ReviewedBy:        v.ReviewedBy,
		ReviewedAt:        v.ReviewedAt,
		CreatedAt:         v.CreatedAt,
	}
}

type documentDTO struct {
	ID           string    `json:"document_uuid"`
	DocumentType string    `json:"document_type"`
	FileName     string    `json:"file_name"`
	Size         int64     `json:"file_size"`
	MimeType     string    `json:"mime_type"`
	DownloadURL  string    `json:"download_url"`
	UploadedAt   time.Time `json:"uploaded_at"`
}

func toDocument(d *models.Document, url string) documentDTO {
	return documentDTO{
		ID:           d.ID,
		DocumentType: d.DocumentType,
		FileName:     d.FileName,
		Size:         d.Size,
		MimeType:     d.MimeType,
		DownloadURL:  url,
		UploadedAt:   d.UploadedAt,
	}
}

func toLinkedDocuments(ds []services.LinkedDocument) []documentDTO {
	out := make([]documentDTO, 0, len(ds))
	for _, d := range ds {
		out = append(out, toDocument(d.Document, d.DownloadURL))
	}
	return out
}

type verificationDetailDTO struct {
	verificationDTO
	Documents []documentDTO `json:"documents"`
}

func toVerificationDetail(d *services.VerificationDetail) verificationDetailDTO {
	return verificationDetailDTO{verificationDTO: toVerification(d.Request), Documents: toLinkedDocuments(d.Documents)}
}

type adminLogDTO struct {
	ID          string          `json:"log_uuid"`
	AdminID     string          `json:"admin_uuid"`
	Action      string          `json:"action"`
	TargetTable string          `json:"target_table"`
	TargetID    string          `json:"target_uuid"`
	Details     json.RawMessage `json:"details,omitempty"`
	PerformedAt time.Time       `json:"performed_at"`
}

// sessionDTO is a signed-in session, backed by one refresh token.
type sessionDTO struct {
	ID        string    `json:"session_uuid"`
	UserID    string    `json:"user_uuid"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type revokedDTO struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	Revoked int64  `json:"revoked"`
}

type userStatsDTO struct {
	Total         int64 `json:"total"`
	Active        int64 `json:"active"`
	Professionals int64 `json:"professionals"`
	Admins        int64 `json:"admins"`
}

type platformStatsDTO struct {
	Users                userStatsDTO `json:"users"`
	Cases                caseStatsDTO `json:"cases"`
	PendingVerifications int          `json:"pending_verifications"`
}
