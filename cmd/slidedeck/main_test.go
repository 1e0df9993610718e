package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/aretw0/slidedeck"
	"github.com/aretw0/slidedeck/internal/adapters/file"
	"github.com/aretw0/slidedeck/pkg/domain"
	"github.com/aretw0/slidedeck/pkg/dsl"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// run executes the root command with fresh flag values.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func seed(t *testing.T) string {
	t.Helper()
	t.Chdir(t.TempDir())
	dir := t.TempDir()
	_, err := dsl.New().
		Slide("1", dsl.Text("t", "Diagnosis").At(10, 20)).
		Seed(context.Background(), file.New(dir), "p1")
	require.NoError(t, err)
	return dir
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "slidedeck version "+slidedeck.Version+"\n", out)
}

func TestPresentationCommands(t *testing.T) {
	dir := seed(t)
	store := []string{"--store", "file", "--store-path", dir}

	out, err := run(t, append([]string{"presentation", "ls"}, store...)...)
	require.NoError(t, err)
	assert.Equal(t, "p1\n", out)

	out, err = run(t, append([]string{"presentation", "show", "p1", "--raw"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "# Presentation p1")
	assert.Contains(t, out, "\"Diagnosis\"")

	out, err = run(t, append([]string{"deck", "show", "p1", "--dump"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Diagnosis")
	assert.Contains(t, out, "Slides")

	_, err = run(t, append([]string{"presentation", "show", "nobody"}, store...)...)
	assert.ErrorIs(t, err, domain.ErrPresentationNotFound)

	out, err = run(t, append([]string{"presentation", "rm", "p1"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed presentation 'p1'")

	out, err = run(t, append([]string{"presentation", "ls"}, store...)...)
	require.NoError(t, err)
	assert.Equal(t, "No presentations found.\n", out)
}

func TestConfigErrorsStopCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	_, err := run(t, "presentation", "ls", "--store", "tape")
	assert.Error(t, err)

	_, err = run(t, "mcp", "--store", "memory", "--transport", "carrier-pigeon")
	assert.ErrorContains(t, err, "unknown transport")
}
