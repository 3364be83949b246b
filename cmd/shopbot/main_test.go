package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m3rciful/shopbot/core/buildinfo"
)

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Equal(t, buildinfo.String()+"\n", out.String())
}

func TestMigrateRequiresPostgres(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("storage:\n  driver: memory\n"), 0o600))

	root := newRootCmd()
	root.SetArgs([]string{"migrate", "--config", path})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres driver")
}

func TestRunRejectsArguments(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"run", "extra"})
	require.Error(t, root.Execute())
}
