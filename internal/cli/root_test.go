package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := newRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "prizes", "cache"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}

	flag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
}

func TestRootCmd_ConfigFromEnv(t *testing.T) {
	t.Setenv("CONFIG_PATH", "/etc/contest/config.yaml")
	cmd := newRootCmd()
	assert.Equal(t, "/etc/contest/config.yaml", cmd.PersistentFlags().Lookup("config").DefValue)
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"force needs numeric version", []string{"migrate", "force", "abc"}, "invalid version"},
		{"force needs exactly one arg", []string{"migrate", "force"}, "accepts 1 arg"},
		{"down needs positive steps", []string{"migrate", "down", "--steps", "0"}, "--steps must be positive"},
		{"award needs contest", []string{"prizes", "award"}, "--contest is required"},
		{"flush needs target", []string{"cache", "flush"}, "--contest or --user is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCmd(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
