package dbx

import (
	"database/sql"
	"encoding/json"
	"time"
)

// StringPtr converts a scanned nullable text column.
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// TimePtr converts a scanned nullable timestamp column.
func TimePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	t := nt.Time
	return &t
}

// IntPtr converts a scanned nullable integer column.
func IntPtr(ni sql.NullInt64) *int {
	if !ni.Valid {
		return nil
	}
	v := int(ni.Int64)
	return &v
}

// JSONStrings encodes a string list for a JSONB column; nil becomes "[]".
func JSONStrings(v []string) string {
	if v == nil {
		return "[]"
	}
	b, _ := json.Marshal(v)
	return string(b)
}

// ParseJSONStrings decodes a JSONB string list; empty input yields nil.
func ParseJSONStrings(b []byte) ([]string, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var v []string
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// JSONOrEmpty returns raw as a string for a JSONB column, substituting
// fallback when raw is empty.
func JSONOrEmpty(raw []byte, fallback string) string {
	if len(raw) == 0 {
		return fallback
	}
	return string(raw)
}
