package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"celltracker/internal/metrics"
)

// DefaultURLPrefix is where the local directory is served from.
const DefaultURLPrefix = "/static/uploads/profile_pictures/"

// LocalStore keeps pictures in a directory served by the static file handler.
type LocalStore struct {
	dir       string
	urlPrefix string
}

// NewLocalStore creates the directory if needed.
// PRE: dir is writable
// POST: Returns a store rooted at dir; an empty urlPrefix selects DefaultURLPrefix
func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if urlPrefix == "" {
		urlPrefix = DefaultURLPrefix
	}
	if !strings.HasSuffix(urlPrefix, "/") {
		urlPrefix += "/"
	}
	return &LocalStore{dir: dir, urlPrefix: urlPrefix}, nil
}

// Save writes data to dir/filename.
func (s *LocalStore) Save(_ context.Context, filename string, data []byte) (err error) {
	defer func() { metrics.RecordAssetOperation(s.Backend(), "save", err) }()
	if err = checkName(filename); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, filename), data, 0o644)
}

// Delete removes dir/filename. A missing file is not an error.
func (s *LocalStore) Delete(_ context.Context, filename string) (err error) {
	defer func() { metrics.RecordAssetOperation(s.Backend(), "delete", err) }()
	if err = checkName(filename); err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.dir, filename))
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	return err
}

// URL returns the public path of filename.
func (s *LocalStore) URL(filename string) string {
	return s.urlPrefix + filename
}

// Backend names the store for logs and metrics.
func (s *LocalStore) Backend() string {
	return "local"
}
