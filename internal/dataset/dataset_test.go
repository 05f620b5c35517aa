package dataset

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beelab/dancereview/internal/errors"
)

const testRoot = "/data/day1"

const header = "day_dance_id,waggle_id,category,category_label,confidence,corrected_category,corrected_category_label,dance_type,corrected_dance_type"

// newReviewDir lays out a review directory on an in-memory filesystem.
func newReviewDir(t *testing.T, csvBody string, tagged, untagged []string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll(filepath.Join(testRoot, DefaultTaggedDir), 0o755))
	require.NoError(t, fs.MkdirAll(filepath.Join(testRoot, DefaultUntaggedDir), 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(testRoot, DefaultDataFile), []byte(csvBody), 0o644))
	for _, id := range tagged {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(testRoot, DefaultTaggedDir, id+".mp4"), []byte(id), 0o644))
	}
	for _, id := range untagged {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(testRoot, DefaultUntaggedDir, id+".mp4"), []byte(id), 0o644))
	}
	return fs
}

func csvOf(rows ...string) string {
	return header + "\n" + strings.Join(rows, "\n") + "\n"
}

func TestLoad(t *testing.T) {
	fs := newReviewDir(t, csvOf(
		"d1,w1,1,untagged,0.91,,,waggle,",
		"d2,w2,1,untagged,0.55,0,tagged,round,tremble",
		"d3,w3,0,tagged,0.70,,,,",
	), []string{"d2", "d3"}, []string{"d1"})

	ds, err := Load(context.Background(), fs, testRoot, DefaultLayout())
	require.NoError(t, err)
	require.Len(t, ds.Records, 3)

	d1, ok := ds.Record("d1")
	require.True(t, ok)
	assert.Equal(t, CategoryUntagged, d1.EffectiveCategory())
	assert.False(t, d1.IsCategoryCorrected())
	assert.Equal(t, "0.91", d1.Confidence)

	d2, _ := ds.Record("d2")
	assert.Equal(t, CategoryUntagged, d2.Category)
	assert.Equal(t, CategoryTagged, d2.EffectiveCategory())
	assert.Equal(t, DanceTremble, d2.EffectiveDanceType())

	d3, _ := ds.Record("d3")
	assert.Empty(t, d3.DanceType, "empty dance type is kept as loaded")
	assert.Equal(t, DefaultDanceType, d3.EffectiveDanceType(), "empty dance type means the default")

	assert.Equal(t, 3, ds.Videos.Len())
	path, err := ds.Videos.Lookup("d2")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(testRoot, DefaultTaggedDir, "d2.mp4"), path)
}

func TestLoadErrors(t *testing.T) {
	testCases := []struct {
		name string
		csv  string
	}{
		{"empty file", ""},
		{"missing required column", "day_dance_id,category,category_label\nd1,1,untagged\n"},
		{"duplicate id", csvOf("d1,w,1,untagged,,,,waggle,", "d1,w,1,untagged,,,,waggle,")},
		{"code and label disagree", csvOf("d1,w,0,untagged,,,,waggle,")},
		{"unknown label", csvOf("d1,w,1,maybe,,,,waggle,")},
		{"correction half set", csvOf("d1,w,1,untagged,,0,,waggle,")},
		{"unknown dance type", csvOf("d1,w,1,untagged,,,,spin,")},
		{"ragged row", csvOf("d1,w,1,untagged")},
		{"empty id", csvOf(",w,1,untagged,,,,waggle,")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs := newReviewDir(t, tc.csv, nil, nil)
			ds, err := Load(context.Background(), fs, testRoot, DefaultLayout())
			require.Error(t, err)
			assert.Nil(t, ds)
			assert.True(t, errors.IsLoadError(err), "want dataset-load error, got %v", err)
		})
	}
}

func TestLoadMissingDirectories(t *testing.T) {
	t.Run("missing root", func(t *testing.T) {
		_, err := Load(context.Background(), afero.NewMemMapFs(), "/nowhere", DefaultLayout())
		assert.True(t, errors.IsLoadError(err))
	})

	t.Run("missing category dir", func(t *testing.T) {
		fs := newReviewDir(t, csvOf("d1,w,1,untagged,,,,waggle,"), nil, nil)
		require.NoError(t, fs.RemoveAll(filepath.Join(testRoot, DefaultTaggedDir)))
		_, err := Load(context.Background(), fs, testRoot, DefaultLayout())
		assert.True(t, errors.IsLoadError(err))
	})

	t.Run("missing data file", func(t *testing.T) {
		fs := newReviewDir(t, "", nil, nil)
		require.NoError(t, fs.Remove(filepath.Join(testRoot, DefaultDataFile)))
		_, err := Load(context.Background(), fs, testRoot, DefaultLayout())
		assert.True(t, errors.IsLoadError(err))
	})
}

func TestSaveRoundTripPreservesExtraColumns(t *testing.T) {
	body := "waggle_id,day_dance_id,category,category_label,dance_type,note\n" +
		"w1,d1,1,untagged,round,first\n" +
		"w2,d2,1,untagged,waggle,\"with, comma\"\n"
	fs := newReviewDir(t, body, nil, []string{"d1", "d2"})

	ds, err := Load(context.Background(), fs, testRoot, DefaultLayout())
	require.NoError(t, err)

	d1, _ := ds.Record("d1")
	d1.SetCorrectedCategory(CategoryTagged)
	d1.ApplyDanceType(DanceMixed)
	require.NoError(t, ds.Save(fs))

	raw, err := afero.ReadFile(fs, filepath.Join(testRoot, DefaultDataFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, header+",note", lines[0])
	assert.Equal(t, "d1,w1,1,untagged,,0,tagged,round,mixed,first", lines[1])
	assert.Equal(t, "d2,w2,1,untagged,,,,waggle,,\"with, comma\"", lines[2])

	reloaded, err := Load(context.Background(), fs, testRoot, DefaultLayout())
	require.NoError(t, err)
	r1, _ := reloaded.Record("d1")
	assert.Equal(t, CategoryTagged, r1.EffectiveCategory())
	assert.Equal(t, DanceMixed, r1.EffectiveDanceType())

	entries, err := afero.ReadDir(fs, testRoot)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), ".tmp", "temporary file left behind")
	}
}

func TestSaveFailureIsPersistenceError(t *testing.T) {
	fs := newReviewDir(t, csvOf("d1,w,1,untagged,,,,waggle,"), nil, []string{"d1"})
	ds, err := Load(context.Background(), fs, testRoot, DefaultLayout())
	require.NoError(t, err)

	err = ds.Save(afero.NewReadOnlyFs(fs))
	require.Error(t, err)
	assert.True(t, errors.IsPersistenceError(err))
}

func TestApplyDanceTypeClearsOnDefault(t *testing.T) {
	rec := &Record{DayDanceID: "d1", DanceType: DanceRound}

	rec.ApplyDanceType(DanceOther)
	require.NotNil(t, rec.CorrectedDanceType)
	assert.Equal(t, DanceOther, rec.EffectiveDanceType())

	rec.ApplyDanceType(DefaultDanceType)
	assert.Nil(t, rec.CorrectedDanceType)
	assert.Equal(t, DanceRound, rec.EffectiveDanceType(), "falls back to the original dance type")
}

func TestParseCategoryCode(t *testing.T) {
	for in, want := range map[string]Category{"0": CategoryTagged, "1": CategoryUntagged, "1.0": CategoryUntagged, " 0 ": CategoryTagged} {
		got, err := parseCategoryCode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "2", "0.5", "x"} {
		_, err := parseCategoryCode(in)
		assert.Error(t, err, in)
	}
}

func TestCategoryText(t *testing.T) {
	b, err := CategoryTagged.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "tagged", string(b))

	var c Category
	require.NoError(t, c.UnmarshalText([]byte("Untagged")))
	assert.Equal(t, CategoryUntagged, c)
	assert.Equal(t, CategoryTagged, c.Opposite())
}

func TestSaveKeepsPassthroughFieldsAsLoaded(t *testing.T) {
	fs := newReviewDir(t, csvOf(
		"d1, w1 ,1,untagged, 0.91 ,,,,",
		"d2,w2,1,untagged,0.5,,,round,",
	), nil, []string{"d1", "d2"})

	ds, err := Load(context.Background(), fs, testRoot, DefaultLayout())
	require.NoError(t, err)
	d1, _ := ds.Record("d1")
	assert.Equal(t, " 0.91 ", d1.Confidence)
	assert.Equal(t, " w1 ", d1.WaggleID)
	assert.Equal(t, DefaultDanceType, d1.EffectiveDanceType())

	require.NoError(t, ds.Save(fs))
	raw, err := afero.ReadFile(fs, filepath.Join(testRoot, DefaultDataFile))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "d1, w1 ,1,untagged, 0.91 ,,,,", lines[1], "empty dance type is not rewritten")
	assert.Equal(t, "d2,w2,1,untagged,0.5,,,round,", lines[2])
}
