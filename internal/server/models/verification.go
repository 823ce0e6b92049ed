package models

import "time"

const (
	VerificationPending  = "pending"
	VerificationApproved = "approved"
	VerificationRejected = "rejected"
	VerificationRevoked  = "revoked"
)

type VerificationRequest struct {
	ID                string
	UserID            string
	FullName          string
	LicenseNumber     string
	LawFirmName       string
	SpecialtyAreas    []string
	YearsOfExperience int
	Bio               string
	Status            string
	AdminNotes        string
	ReviewedBy        *string
	ReviewedAt        *time.Time
	CreatedAt         time.Time
}
