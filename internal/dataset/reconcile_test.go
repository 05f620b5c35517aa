package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// renameMover is a minimal Relocator over an afero filesystem.
type renameMover struct {
	fs   afero.Fs
	fail map[string]bool
}

func (m *renameMover) Relocate(src, dstDir string) (string, error) {
	if m.fail[src] {
		return "", fmt.Errorf("refusing to move %s", src)
	}
	dst := filepath.Join(dstDir, filepath.Base(src))
	return dst, m.fs.Rename(src, dst)
}

func TestReconcile(t *testing.T) {
	fs := newReviewDir(t, csvOf(
		"d1,w,1,untagged,,,,waggle,",
		"d2,w,1,untagged,,0,tagged,waggle,",
		"d3,w,1,untagged,,,,waggle,",
		"d4,w,0,tagged,,,,round,",
	), []string{"d4", "stray"}, []string{"d1", "d2"})

	ds, err := Load(context.Background(), fs, testRoot, DefaultLayout())
	require.NoError(t, err)

	report := Reconcile(ds)
	assert.Equal(t, []string{"d3"}, report.Missing)
	require.Len(t, report.Misplaced, 1)
	assert.Equal(t, "d2", report.Misplaced[0].ID)
	assert.Equal(t, CategoryTagged, report.Misplaced[0].Expected)
	assert.Equal(t, []string{filepath.Join(testRoot, DefaultTaggedDir, "stray.mp4")}, report.Orphans)
	assert.False(t, report.Clean())

	result, err := Repair(context.Background(), ds, report, &renameMover{fs: fs})
	require.NoError(t, err)
	assert.Equal(t, []string{"d2"}, result.Moved)
	assert.Empty(t, result.Failed)

	path, err := ds.Videos.Lookup("d2")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(testRoot, DefaultTaggedDir, "d2.mp4"), path)
	assert.Empty(t, Reconcile(ds).Misplaced)
}

func TestRepairReportsFailures(t *testing.T) {
	fs := newReviewDir(t, csvOf("d1,w,1,untagged,,0,tagged,waggle,"), nil, []string{"d1"})
	ds, err := Load(context.Background(), fs, testRoot, DefaultLayout())
	require.NoError(t, err)

	src := filepath.Join(testRoot, DefaultUntaggedDir, "d1.mp4")
	result, err := Repair(context.Background(), ds, Reconcile(ds), &renameMover{fs: fs, fail: map[string]bool{src: true}})
	require.NoError(t, err)
	assert.Empty(t, result.Moved)
	assert.Contains(t, result.Failed, "d1")

	path, _ := ds.Videos.Lookup("d1")
	assert.Equal(t, src, path, "index untouched on failure")
}

func TestDuplicateVideosPreferEffectiveCategory(t *testing.T) {
	fs := newReviewDir(t, csvOf("d1,w,1,untagged,,0,tagged,waggle,"), []string{"d1"}, []string{"d1"})
	ds, err := Load(context.Background(), fs, testRoot, DefaultLayout())
	require.NoError(t, err)

	path, err := ds.Videos.Lookup("d1")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(testRoot, DefaultTaggedDir, "d1.mp4"), path)
	assert.Equal(t, []string{filepath.Join(testRoot, DefaultUntaggedDir, "d1.mp4")}, Reconcile(ds).Duplicates)
}

func TestSummarize(t *testing.T) {
	fs := newReviewDir(t, csvOf(
		"d1,w,1,untagged,,,,waggle,",
		"d2,w,1,untagged,,0,tagged,round,",
		"d3,w,0,tagged,,,,waggle,tremble",
	), []string{"d2"}, []string{"d1"})
	ds, err := Load(context.Background(), fs, testRoot, DefaultLayout())
	require.NoError(t, err)

	s := Summarize(ds)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, map[string]int{"tagged": 2, "untagged": 1}, s.ByCategory)
	assert.Equal(t, 1, s.CategoryCorrections)
	assert.Equal(t, 1, s.ByDanceType["waggle"])
	assert.Equal(t, 1, s.ByDanceType["round"])
	assert.Equal(t, 1, s.ByDanceType["tremble"])
	assert.Equal(t, 0, s.ByDanceType["mixed"])
	assert.Equal(t, 1, s.DanceTypeCorrections)
	assert.Equal(t, 2, s.VideosIndexed)
	assert.Equal(t, 1, s.MissingVideos)
}
