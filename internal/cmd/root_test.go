package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCmd_Execute(t *testing.T) {
	t.Run("root command shows help", func(t *testing.T) {
		output, err := executeCmd(t)
		require.NoError(t, err)
		assert.Contains(t, output, "dockergen")
	})

	t.Run("help flag", func(t *testing.T) {
		output, err := executeCmd(t, "--help")
		require.NoError(t, err)
		assert.Contains(t, output, "Dockerfile generator")
		assert.Contains(t, output, "DOCKERGEN_CONFIG")
	})

	t.Run("version flag", func(t *testing.T) {
		output, err := executeCmd(t, "--version")
		require.NoError(t, err)
		assert.Equal(t, "dockergen version "+version+"\n", output)
	})

	t.Run("unknown command", func(t *testing.T) {
		_, err := executeCmd(t, "provision")
		assert.Error(t, err)
	})
}

func TestRootCmd_Structure(t *testing.T) {
	t.Run("has expected subcommands", func(t *testing.T) {
		resetRootCmd(t)
		commandNames := make([]string, 0, len(rootCmd.Commands()))
		for _, cmd := range rootCmd.Commands() {
			commandNames = append(commandNames, cmd.Name())
		}

		for _, name := range []string{"list", "render", "validate", "doctor"} {
			assert.Contains(t, commandNames, name)
		}
	})

	t.Run("persistent flags", func(t *testing.T) {
		resetRootCmd(t)
		flags := rootCmd.PersistentFlags()

		for _, tt := range []struct{ name, short string }{
			{"config", "c"},
			{"output", "o"},
			{"values", "f"},
			{"templates", ""},
			{"log-level", ""},
		} {
			f := flags.Lookup(tt.name)
			require.NotNil(t, f, tt.name)
			assert.Equal(t, tt.short, f.Shorthand, tt.name)
		}
	})

	t.Run("render flags", func(t *testing.T) {
		resetRootCmd(t)
		for _, name := range []string{"all", "strict", "no-redact"} {
			assert.NotNil(t, renderCmd.Flags().Lookup(name), name)
		}
		assert.NotNil(t, renderCmd.ValidArgsFunction)
	})
}
