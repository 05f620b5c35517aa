package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/beelab/dancereview/internal/buildinfo"
)

func TestVersionCommand(t *testing.T) {
	root := RootCommand(buildinfo.NewContext("1.2.3", "2026-10-01"))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "dancereview 1.2.3 (built 2026-10-01)\n", out.String())
}

func TestSubcommandsRegistered(t *testing.T) {
	root := RootCommand(buildinfo.NewContext("dev", ""))
	for _, name := range []string{"serve", "summary", "reconcile", "config", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}

	for _, flag := range []string{"config", "debug", "directory", "rows", "columns", "category"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
	assert.Equal(t, "d", root.PersistentFlags().Lookup("directory").Shorthand)
}
