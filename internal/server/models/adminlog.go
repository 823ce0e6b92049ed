package models

import (
	"encoding/json"
	"time"
)

type AdminLog struct {
	ID          string
	AdminID     string
	Action      string
	TargetTable string
	TargetID    string
	Details     json.RawMessage
	PerformedAt time.Time
}
