package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Object describes an uploaded audio file
type Object struct {
	Key         string    `json:"key"`
	Name        string    `json:"name"`
	Size        int64     `json:"size"`
	ContentType string    `json:"content_type"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

// Store keeps uploaded audio until a provider has fetched it
type Store interface {
	Put(ctx context.Context, userID int64, filename, contentType string, r io.Reader, size int64) (*Object, error)
	Locate(ctx context.Context, key string) (string, error)
	Remove(ctx context.Context, key string) error
}

// ObjectKey builds the key an upload is stored under:
// audio/<user>/<unix>-<8 hex>.<ext>
func ObjectKey(userID int64, filename string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	id := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("audio/%d/%d-%s%s", userID, now.Unix(), id, ext)
}

func contentTypeOrDefault(contentType string) string {
	if contentType == "" {
		return "application/octet-stream"
	}
	return contentType
}
