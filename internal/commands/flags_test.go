package commands

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg-config")
	assert.Equal(t, filepath.Join("/tmp/xdg-config", "docket", "config.yaml"), DefaultConfigPath())

	t.Setenv("XDG_CONFIG_HOME", "")
	path := DefaultConfigPath()
	assert.Contains(t, path, filepath.Join(".config", "docket"))
}

func TestDefaultDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")
	assert.Equal(t, filepath.Join("/tmp/xdg-data", "docket"), DefaultDataDir())

	t.Setenv("XDG_DATA_HOME", "")
	dir := DefaultDataDir()
	assert.Contains(t, dir, filepath.Join(".local", "share", "docket"))
}
