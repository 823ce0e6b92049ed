package models

import "time"

const (
	CaseStatusPending    = "pending"
	CaseStatusAccepted   = "accepted"
	CaseStatusInProgress = "in_progress"
	CaseStatusCompleted  = "completed"
	CaseStatusCancelled  = "cancelled"
)

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// ValidPriority reports whether p is one of the known priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

type Case struct {
	ID             string
	UserID         string
	ProfessionalID *string
	Title          string
	Description    string
	Category       string
	Priority       string
	Status         string
	Budget         float64
	Rating         *int
	Review         string
	CreatedAt      time.Time
	AcceptedAt     *time.Time
	CompletedAt    *time.Time
}

// CaseStats counts cases by status.
type CaseStats struct {
	Total     int64
	Pending   int64
	Active    int64
	Completed int64
	Cancelled int64
}
