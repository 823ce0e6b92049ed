package models

import (
	"encoding/json"
	"time"
)

const (
	SessionInProgress = "in_progress"
	SessionCompleted  = "completed"
	SessionAbandoned  = "abandoned"
)

// QuestionnaireSession persists the engine state as an opaque JSON document.
type QuestionnaireSession struct {
	ID                string
	UserID            string
	CaseID            *string
	QuestionnaireType int
	Status            string
	IsFinalized       bool
	State             json.RawMessage
	StartedAt         time.Time
	CompletedAt       *time.Time
	ExpiresAt         time.Time
	LastActivityAt    time.Time
	// Version is bumped on every update and guards against lost writes.
	Version int
}

type QuestionnaireSubmission struct {
	ID                string
	SessionID         string
	UserID            string
	CaseID            *string
	QuestionnaireType int
	Title             string
	Responses         json.RawMessage
	Summaries         json.RawMessage
	SubmittedAt       time.Time
}
