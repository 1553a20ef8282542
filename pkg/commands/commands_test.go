package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	fdeploy "github.com/raffle-labs/raffle-deployments/deploy"
	"github.com/raffle-labs/raffle-deployments/pkg/logger"
)

func TestNew(t *testing.T) {
	t.Parallel()

	lggr := logger.Nop()
	cmds := New(lggr)

	require.NotNil(t, cmds)
	assert.Equal(t, lggr, cmds.lggr)
}

func TestCommands_Deploy(t *testing.T) {
	t.Parallel()

	cmds := New(logger.Nop())

	cmd, err := cmds.Deploy(fdeploy.NewRegistry())
	require.NoError(t, err)
	assert.Equal(t, "deploy", cmd.Use)

	networkFlag := cmd.Flags().Lookup("network")
	require.NotNil(t, networkFlag)
	assert.Equal(t, "n", networkFlag.Shorthand)
	assert.Nil(t, cmd.PersistentFlags().Lookup("network"), "network flag should NOT be persistent")
}

func TestCommands_Root(t *testing.T) {
	t.Parallel()

	root, err := New(logger.Nop()).Root("raffle-deploy")
	require.NoError(t, err)

	assert.Equal(t, "raffle-deploy", root.Use)
	assert.True(t, root.SilenceUsage)

	uses := make([]string, 0, len(root.Commands()))
	for _, sc := range root.Commands() {
		uses = append(uses, sc.Use)
	}
	assert.ElementsMatch(t, []string{"deploy", "config", "networks", "deployments"}, uses)
}

func TestCommands_MissingLogger(t *testing.T) {
	t.Parallel()

	_, err := New(nil).Root("raffle-deploy")
	require.ErrorContains(t, err, "missing required fields: Logger")
}
