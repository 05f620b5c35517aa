package dataset

import (
	"maps"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/afero"

	"github.com/beelab/dancereview/internal/errors"
)

// VideoIndex maps a record id to the path of its video file. It is built by
// scanning both category directories and is replaced on every load.
type VideoIndex struct {
	paths map[string]string
	// duplicates holds extra files found for an id that already has a video.
	duplicates []string
}

// NewVideoIndex returns an empty index.
func NewVideoIndex() *VideoIndex {
	return &VideoIndex{paths: make(map[string]string)}
}

// Lookup returns the video path for id or a not-found error.
func (vi *VideoIndex) Lookup(id string) (string, error) {
	if p, ok := vi.paths[id]; ok {
		return p, nil
	}
	return "", errors.Newf("no video found for record %s", id).
		Component("dataset").
		Category(errors.CategoryNotFound).
		Context("day_dance_id", id).
		Build()
}

// Has reports whether id has a video.
func (vi *VideoIndex) Has(id string) bool {
	_, ok := vi.paths[id]
	return ok
}

// Set points id at path, typically after a relocation.
func (vi *VideoIndex) Set(id, path string) {
	vi.paths[id] = path
}

// Len returns the number of indexed videos.
func (vi *VideoIndex) Len() int {
	return len(vi.paths)
}

// IDs returns the indexed ids in sorted order.
func (vi *VideoIndex) IDs() []string {
	return slices.Sorted(maps.Keys(vi.paths))
}

// Duplicates returns video files that were shadowed by another file with the
// same id.
func (vi *VideoIndex) Duplicates() []string {
	return slices.Clone(vi.duplicates)
}

// buildVideoIndex scans the tagged and untagged directories for video files.
// When the same id appears in both, the file in the directory matching
// preferred(id) wins and the other is kept as a duplicate.
func buildVideoIndex(fs afero.Fs, root string, layout Layout, preferred func(id string) (Category, bool)) (*VideoIndex, error) {
	found := make(map[string][]string)
	for _, c := range Categories() {
		dir := filepath.Join(root, layout.CategoryDir(c))
		entries, err := afero.ReadDir(fs, dir)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), layout.VideoExt) {
				continue
			}
			id := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
			found[id] = append(found[id], filepath.Join(dir, entry.Name()))
		}
	}

	vi := NewVideoIndex()
	for _, id := range slices.Sorted(maps.Keys(found)) {
		paths := found[id]
		chosen := 0
		if len(paths) > 1 {
			if c, ok := preferred(id); ok {
				want := layout.CategoryDir(c)
				for i, p := range paths {
					if filepath.Base(filepath.Dir(p)) == want {
						chosen = i
						break
					}
				}
			}
		}
		vi.paths[id] = paths[chosen]
		for i, p := range paths {
			if i != chosen {
				vi.duplicates = append(vi.duplicates, p)
			}
		}
	}
	return vi, nil
}
