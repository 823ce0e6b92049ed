package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/lexbridge/internal/common"
)

var (
	ErrUnavailable  = errors.New("server unavailable")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrFileTooLarge = errors.New("file exceeds the 10 MiB limit")
)

// APIError is a non-2xx response. Detail is the server's "detail" field, or
// the HTTP status text when the body carried none.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

// Is maps statuses onto the package sentinels so callers can use errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrFileTooLarge:
		return e.Status == http.StatusRequestEntityTooLarge
	case common.ErrTokenExpired:
		return e.Status == http.StatusUnauthorized && e.Detail == common.ErrTokenExpired.Error()
	}
	return false
}
