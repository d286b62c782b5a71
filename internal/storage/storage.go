// Package storage saves user avatar images on local disk or in S3.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "trajectfit/internal/errors"
)

// MaxAvatarSize is the largest accepted avatar upload in bytes.
const MaxAvatarSize = 5 << 20

// allowedExtensions are the accepted avatar file extensions, lower-cased.
var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

var (
	// ErrNotImage is returned for files outside the extension allow-list.
	ErrNotImage = apperrors.NewValidationError("only image files are allowed")
	// ErrTooLarge is returned for files above MaxAvatarSize.
	ErrTooLarge = apperrors.NewValidationError("file size must not exceed 5MB")
)

const (
	KindLocal = "local"
	KindS3    = "s3"
)

// AvatarStore persists an avatar image and returns the public URL it is served from.
type AvatarStore interface {
	Save(ctx context.Context, name string, r io.Reader) (string, error)
}

// ValidateAvatar checks the upload's extension and size and returns the lower-cased extension.
func ValidateAvatar(filename string, size int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExtensions[ext] {
		return "", ErrNotImage
	}
	if size > MaxAvatarSize {
		return "", ErrTooLarge
	}
	return ext, nil
}

// AvatarObjectName builds "<userId>-<unixMillis><ext>".
func AvatarObjectName(userID uuid.UUID, ext string, now time.Time) string {
	return fmt.Sprintf("%s-%d%s", userID, now.UnixMilli(), ext)
}

// Options selects and configures an AvatarStore.
type Options struct {
	Kind string
	// Local
	Dir     string
	BaseURL string
	// S3
	Bucket    string
	Region    string
	PublicURL string
}

// New builds the store named by opts.Kind.
func New(ctx context.Context, opts Options) (AvatarStore, error) {
	switch opts.Kind {
	case "", KindLocal:
		return NewLocalStore(opts.Dir, opts.BaseURL), nil
	case KindS3:
		return NewS3Store(ctx, opts.Bucket, opts.Region, opts.PublicURL)
	default:
		return nil, fmt.Errorf("unknown avatar storage %q", opts.Kind)
	}
}
