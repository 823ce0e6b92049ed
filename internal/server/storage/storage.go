// Package storage keeps uploaded evidence, verification documents and
// generated documents in S3-compatible object storage.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ObjectStore is the subset of object storage the services need.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
}

// NewKey builds a date-partitioned object key under prefix, keeping the
// original file extension.
func NewKey(prefix, userID, fileName string) string {
	d := time.Now().UTC()
	ext := strings.ToLower(path.Ext(fileName))
	return fmt.Sprintf("%s/%s/%d/%02d/%02d/%s%s", prefix, userID, d.Year(), d.Month(), d.Day(), uuid.New(), ext)
}
