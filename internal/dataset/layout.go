package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Default names of the on-disk review directory.
const (
	DefaultDataFile    = "data.csv"
	DefaultTaggedDir   = "tagged-dances"
	DefaultUntaggedDir = "untagged-dances"
	DefaultVideoExt    = ".mp4"
)

// Layout names the files inside a review directory.
type Layout struct {
	DataFile    string
	TaggedDir   string
	UntaggedDir string
	VideoExt    string
}

// DefaultLayout returns the layout produced by the preprocessing pipeline.
func DefaultLayout() Layout {
	return Layout{
		DataFile:    DefaultDataFile,
		TaggedDir:   DefaultTaggedDir,
		UntaggedDir: DefaultUntaggedDir,
		VideoExt:    DefaultVideoExt,
	}
}

// withDefaults fills empty names from DefaultLayout.
func (l Layout) withDefaults() Layout {
	def := DefaultLayout()
	if l.DataFile == "" {
		l.DataFile = def.DataFile
	}
	if l.TaggedDir == "" {
		l.TaggedDir = def.TaggedDir
	}
	if l.UntaggedDir == "" {
		l.UntaggedDir = def.UntaggedDir
	}
	if l.VideoExt == "" {
		l.VideoExt = def.VideoExt
	}
	if !strings.HasPrefix(l.VideoExt, ".") {
		l.VideoExt = "." + l.VideoExt
	}
	return l
}

// Validate checks that the names are usable as plain path components.
func (l Layout) Validate() error {
	l = l.withDefaults()
	for _, name := range []string{l.DataFile, l.TaggedDir, l.UntaggedDir} {
		if name != filepath.Base(name) || name == "." || name == ".." {
			return fmt.Errorf("layout entry %q must be a plain file or directory name", name)
		}
	}
	if l.TaggedDir == l.UntaggedDir {
		return fmt.Errorf("tagged and untagged directories must differ, both are %q", l.TaggedDir)
	}
	return nil
}

// CategoryDir returns the directory name that holds videos of category c.
func (l Layout) CategoryDir(c Category) string {
	if c == CategoryTagged {
		return l.TaggedDir
	}
	return l.UntaggedDir
}
