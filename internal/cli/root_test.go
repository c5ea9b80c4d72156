package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adspot-dev/adspot/internal/cli/commands"
	"github.com/adspot-dev/adspot/internal/database/dbtest"
)

func TestRootCmd_Version(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Equal(t, "adspot version dev\n", out.String())
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"user", "admin", "catalog", "version"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestRootCmd_PassesOptions(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd(commands.WithDB(dbtest.Open(t)), commands.WithOutput(&out))
	root.SetArgs([]string{"catalog", "ls"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "No billboards found.")
}
