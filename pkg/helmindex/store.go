package helmindex

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/macropower/indexstamp/pkg/indexerrors"
)

const DefaultPath = "index.yaml"

// Store loads and saves the raw bytes of an index.
type Store interface {
	Read() ([]byte, error)
	Write(data []byte) error
}

// FileStore is a [Store] for a single file on an [afero.Fs].
type FileStore struct {
	fs   afero.Fs
	path string
}

// NewFileStore returns a [FileStore] for path on fs.
func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

// NewOsFileStore returns a [FileStore] for path on the OS filesystem.
func NewOsFileStore(path string) *FileStore {
	return NewFileStore(afero.NewOsFs(), path)
}

// Path returns the path of the file.
func (s *FileStore) Path() string {
	return s.path
}

// Read returns the full contents of the file.
func (s *FileStore) Read() ([]byte, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: %w", indexerrors.ErrReadFile, indexerrors.ErrFileNotFound, err)
		}

		return nil, fmt.Errorf("%w: %w", indexerrors.ErrReadFile, err)
	}

	return data, nil
}

// Write replaces the contents of the file with data. The data is written to a
// temporary file in the same directory which is then renamed over the
// original, so readers see either the old or the new contents. The mode of an
// existing file is kept.
func (s *FileStore) Write(data []byte) error {
	perm := fs.FileMode(0o644)
	if fi, err := s.fs.Stat(s.path); err == nil {
		perm = fi.Mode().Perm()
	}

	tmp, err := afero.TempFile(s.fs, filepath.Dir(s.path), "."+filepath.Base(s.path)+".*")
	if err != nil {
		return fmt.Errorf("%w: create temporary file: %w", indexerrors.ErrWriteFile, err)
	}

	tmpName := tmp.Name()

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err == nil {
		err = s.fs.Chmod(tmpName, perm)
	}

	if err == nil {
		err = s.fs.Rename(tmpName, s.path)
	}

	if err != nil {
		_ = s.fs.Remove(tmpName) //nolint:errcheck // Best-effort cleanup.

		return fmt.Errorf("%w: %s: %w", indexerrors.ErrWriteFile, s.path, err)
	}

	return nil
}
