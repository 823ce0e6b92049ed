package models

import "time"

// RefreshToken is stored by hash; the plaintext only ever leaves the server
// in the login and refresh responses.
type RefreshToken struct {
	ID        string
	UserID    string
	TokenHash string
	Expires   time.Time
	CreatedAt time.Time
}
