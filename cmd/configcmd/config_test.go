package configcmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/beelab/dancereview/internal/conf"
	"github.com/beelab/dancereview/internal/errors"
)

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	settings := &conf.Settings{
		Review:    conf.ReviewSettings{Directory: "/data/day1", Rows: 3, Columns: 4, Category: "untagged"},
		WebServer: conf.WebServerSettings{Listen: "127.0.0.1:9090"},
	}

	written, err := Init(settings, path, false)
	require.NoError(t, err)
	assert.Equal(t, path, written)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got conf.Settings
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, settings.Review, got.Review)
	assert.Equal(t, "127.0.0.1:9090", got.WebServer.Listen)
}

func TestInitExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("debug: true\n"), 0o644))

	_, err := Init(&conf.Settings{}, path, false)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryConfiguration))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug: true\n", string(data), "file must be untouched without --force")

	_, err = Init(&conf.Settings{Review: conf.ReviewSettings{Rows: 1}}, path, true)
	require.NoError(t, err)
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "rows: 1")
}
