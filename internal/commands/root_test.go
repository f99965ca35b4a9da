package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/goodvibes/internal/goodvibes"
)

func TestRegisterAll(t *testing.T) {
	flags := &Flags{}
	root := RegisterAll(&cli.Command{Name: "goodvibes", Flags: GlobalFlags(flags)}, flags, &goodvibes.App{})

	names := make(map[string]*cli.Command)
	for _, c := range root.Commands {
		names[c.Name] = c
	}
	for _, want := range []string{"import", "scan", "suggestions", "settings", "config"} {
		assert.Contains(t, names, want)
	}

	sub := func(parent string) []string {
		var out []string
		for _, c := range names[parent].Commands {
			out = append(out, c.Name)
		}
		return out
	}
	assert.Equal(t, []string{"run", "session", "queue", "status"}, sub("scan"))
	assert.Equal(t, []string{"ls", "accept", "reject", "dismiss", "prune"}, sub("suggestions"))
	assert.Equal(t, []string{"get", "set", "reset"}, sub("settings"))
	assert.Equal(t, []string{"validate"}, sub("config"))
}

func TestGlobalFlags_Defaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")

	flags := GlobalFlags(&Flags{})
	require.Len(t, flags, 4)

	byName := make(map[string]*cli.StringFlag)
	for _, f := range flags {
		sf := f.(*cli.StringFlag)
		byName[sf.Name] = sf
	}
	assert.Equal(t, "/cfg/goodvibes/config.yaml", byName["config"].Value)
	assert.Equal(t, "/data/goodvibes", byName["data-dir"].Value)
	assert.Equal(t, "info", byName["log-level"].Value)
}
