// Package assets stores uploaded profile pictures on local disk or in an
// S3-compatible bucket.
package assets

import (
	"context"
	"errors"
)

// ErrInvalidName is returned for filenames that are not a single path element.
var ErrInvalidName = errors.New("invalid asset name")

// Store persists profile picture files by filename.
type Store interface {
	Save(ctx context.Context, filename string, data []byte) error
	Delete(ctx context.Context, filename string) error
	URL(filename string) string
	Backend() string
}

func checkName(filename string) error {
	if filename == "" || filename == "." || filename == ".." {
		return ErrInvalidName
	}
	for _, r := range filename {
		if r == '/' || r == '\\' {
			return ErrInvalidName
		}
	}
	return nil
}
