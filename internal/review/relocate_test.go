package review

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beelab/dancereview/internal/errors"
)

func TestFileRelocator(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, fs.MkdirAll("/r/a", 0o755))
	require.NoError(t, fs.MkdirAll("/r/b", 0o755))
	require.NoError(t, afero.WriteFile(fs, "/r/a/x.mp4", []byte("x"), 0o644))
	r := NewFileRelocator(fs)

	t.Run("moves file", func(t *testing.T) {
		dst, err := r.Relocate("/r/a/x.mp4", "/r/b")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join("/r/b", "x.mp4"), dst)
		ok, _ := afero.Exists(fs, "/r/a/x.mp4")
		assert.False(t, ok)
		ok, _ = afero.Exists(fs, dst)
		assert.True(t, ok)
	})

	t.Run("same directory is a no-op", func(t *testing.T) {
		dst, err := r.Relocate("/r/b/x.mp4", "/r/b")
		require.NoError(t, err)
		assert.Equal(t, "/r/b/x.mp4", dst)
	})

	t.Run("existing destination is kept", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/r/a/x.mp4", []byte("other"), 0o644))
		dst, err := r.Relocate("/r/a/x.mp4", "/r/b")
		require.NoError(t, err)
		assert.Equal(t, "/r/b/x.mp4", dst)

		data, err := afero.ReadFile(fs, "/r/b/x.mp4")
		require.NoError(t, err)
		assert.Equal(t, "x", string(data), "destination not overwritten")
		ok, _ := afero.Exists(fs, "/r/a/x.mp4")
		assert.True(t, ok, "source left in place")
	})

	t.Run("missing source is an error", func(t *testing.T) {
		_, err := r.Relocate("/r/a/none.mp4", "/r/b")
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileRelocation))
	})

	t.Run("read-only filesystem", func(t *testing.T) {
		require.NoError(t, afero.WriteFile(fs, "/r/a/y.mp4", []byte("y"), 0o644))
		_, err := NewFileRelocator(afero.NewReadOnlyFs(fs)).Relocate("/r/a/y.mp4", "/r/b")
		require.Error(t, err)
		assert.True(t, errors.IsCategory(err, errors.CategoryFileRelocation))
	})
}
