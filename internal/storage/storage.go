package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified *time.Time
}

// PutOptions conveys upload destination metadata.
type PutOptions struct {
	Bucket      string
	Key         string
	ContentType string
}

// Service stores export snapshots in remote object storage.
type Service interface {
	PutObject(ctx context.Context, body io.Reader, opts PutOptions) (string, error)
	ListObjects(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
	DeletePrefix(ctx context.Context, bucket, prefix string) error
	GetObjectURL(ctx context.Context, bucket, key string, expires time.Duration) (string, error)
}

// UserPrefix is the key prefix under which every object of one user lives.
func UserPrefix(keyPrefix string, userID int64) string {
	base := strings.Trim(keyPrefix, "/")
	if base == "" {
		return fmt.Sprintf("users/%d/", userID)
	}
	return fmt.Sprintf("%s/users/%d/", base, userID)
}

// Location renders the s3:// URI recorded on an export.
func Location(bucket, key string) string {
	return fmt.Sprintf("s3://%s/%s", bucket, strings.TrimPrefix(key, "/"))
}

// ParseLocation extracts the object key from an s3:// URI written by Location.
func ParseLocation(location, bucket string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("empty location")
	}
	trimmed := strings.TrimPrefix(location, "s3://")
	if trimmed == location {
		return "", fmt.Errorf("unsupported location %q", location)
	}
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[1] == "" {
		return "", fmt.Errorf("location %q has no object key", location)
	}
	if bucket != "" && parts[0] != bucket {
		return "", fmt.Errorf("location bucket %q does not match %q", parts[0], bucket)
	}
	return parts[1], nil
}
