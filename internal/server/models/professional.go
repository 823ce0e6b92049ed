package models

import "time"

type Professional struct {
	UserID            string
	FullName          string
	LicenseNumber     string
	LawFirmName       string
	SpecialtyAreas    []string
	YearsOfExperience int
	Bio               string
	ConsultationFee   float64
	AverageRating     float64
	TotalCasesHandled int
	IsVerified        bool
	VerifiedAt        *time.Time
	CreatedAt         time.Time
}

// ProfessionalStats summarises a professional's caseload.
type ProfessionalStats struct {
	Accepted      int64
	InProgress    int64
	Completed     int64
	AverageRating float64
}
