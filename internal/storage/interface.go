package storage

import (
	"context"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ObjectStorage stores opaque blobs such as payment proofs. Keys are
// slash-separated and relative.
type ObjectStorage interface {
	// PutObject writes data under key and returns the reference to persist.
	PutObject(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// GetObject reads the object previously stored under ref.
	GetObject(ctx context.Context, ref string) ([]byte, error)

	// DeleteObject removes ref. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, ref string) error
}

// PaymentProofKey builds a unique key for a payment proof upload, keeping the
// original file extension.
func PaymentProofKey(bookingID int32, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return path.Join("payment-proofs", fmt.Sprintf("%d", bookingID), uuid.New().String()+ext)
}
