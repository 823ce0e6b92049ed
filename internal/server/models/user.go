// Package models defines server-side data models persisted in the database.
package models

import "time"

type User struct {
	ID           string
	UserName     string
	Phone        string
	PasswordHash string
	Role         string
	IsActive     bool
	IsVerified   bool
	LastLoginAt  *time.Time
	CreatedAt    time.Time
}

// UserStats aggregates user counts for the admin dashboard.
type UserStats struct {
	Total         int64
	Active        int64
	Professionals int64
	Admins        int64
}
