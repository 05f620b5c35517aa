package review

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/beelab/dancereview/internal/errors"
)

// FileRelocator moves video files between category directories.
type FileRelocator struct {
	fs afero.Fs
}

// NewFileRelocator returns a relocator operating on fs.
func NewFileRelocator(fs afero.Fs) *FileRelocator {
	return &FileRelocator{fs: fs}
}

// Relocate moves src into dstDir keeping its base name and returns the
// destination path. An existing destination is left untouched and the move
// is skipped, which makes repeated calls idempotent. A missing source is an
// error.
func (r *FileRelocator) Relocate(src, dstDir string) (string, error) {
	dst := filepath.Join(dstDir, filepath.Base(src))
	if filepath.Clean(src) == dst {
		return dst, nil
	}

	exists, err := afero.Exists(r.fs, dst)
	if err != nil {
		return "", r.wrap(err, "stat_destination", src, dst)
	}
	if exists {
		return dst, nil
	}

	if ok, err := afero.Exists(r.fs, src); err != nil || !ok {
		if err == nil {
			err = errors.NewStd("source file does not exist")
		}
		return "", r.wrap(err, "stat_source", src, dst)
	}

	if err := r.fs.Rename(src, dst); err != nil {
		return "", r.wrap(err, "rename", src, dst)
	}
	return dst, nil
}

func (r *FileRelocator) wrap(err error, op, src, dst string) error {
	return errors.New(err).
		Component("review").
		Category(errors.CategoryFileRelocation).
		Context("operation", op).
		Context("source", src).
		Context("destination", dst).
		Build()
}
