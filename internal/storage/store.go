package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	// ContentTypeWAV is the only content type recordings are stored as
	ContentTypeWAV = "audio/wav"

	downloadURLExpiry = 24 * time.Hour
)

// ClipStore handles recording storage operations
type ClipStore interface {
	UploadClip(ctx context.Context, key string, data []byte) error
	GenerateDownloadURL(ctx context.Context, key string) (string, error)
	DownloadFile(ctx context.Context, key string) ([]byte, error)
	DeleteFile(ctx context.Context, key string) error
}

// Config selects and configures a ClipStore
type Config struct {
	// Driver is one of "s3", "minio" or "none"
	Driver string
	S3     S3Config
	MinIO  MinioConfig
}

// NewClipStore builds the store named by cfg.Driver. The "none" driver
// returns a nil store, which disables recording archival.
func NewClipStore(ctx context.Context, cfg Config) (ClipStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "none":
		return nil, nil
	case "s3":
		return NewS3Service(cfg.S3)
	case "minio":
		return NewMinioStore(ctx, cfg.MinIO)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// RecordingKey returns the object key a tuning's clip is archived under
func RecordingKey(sessionID, tuningID string) string {
	return fmt.Sprintf("recordings/%s/%s.wav", sessionID, tuningID)
}
