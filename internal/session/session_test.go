package session

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesLogFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer

	s, err := New(Options{LogDir: filepath.Join(dir, "logs"), Console: &console})
	require.NoError(t, err)

	s.Infof("mapped %d folders", 3)
	s.Warnf("folder %q not found", "Climate")
	s.Debugf("hidden")
	require.NoError(t, s.Close())

	entries, err := os.ReadDir(filepath.Join(dir, "logs"))
	require.NoError(t, err)
	require.Len(t, entries, 1)

	data, err := os.ReadFile(filepath.Join(dir, "logs", entries[0].Name()))
	require.NoError(t, err)
	assert.Contains(t, string(data), "[INFO] mapped 3 folders")
	assert.Contains(t, string(data), `[WARN] folder "Climate" not found`)
	assert.NotContains(t, string(data), "hidden")
	assert.Contains(t, console.String(), "mapped 3 folders")
}

func TestDebugDirIsPerRun(t *testing.T) {
	dir := t.TempDir()
	a, err := New(Options{Debug: true, DebugDir: dir, Console: &bytes.Buffer{}})
	require.NoError(t, err)
	b, err := New(Options{Debug: true, DebugDir: dir, Console: &bytes.Buffer{}})
	require.NoError(t, err)

	assert.NotEqual(t, a.DebugDir, b.DebugDir)
	assert.DirExists(t, a.DebugDir)
	assert.Equal(t, filepath.Join(a.DebugDir, "overview.png"), a.DebugPath("overview.png"))
}

func TestDebugPathDisabled(t *testing.T) {
	assert.Empty(t, Discard().DebugPath("x.png"))
}

func TestRegisterPath(t *testing.T) {
	s := Discard()
	assert.True(t, s.RegisterPath("332BEV", "Work in Progress", "", "Climate"))
	assert.False(t, s.RegisterPath("332BEV", "Work in Progress", "Climate"))
	assert.True(t, s.RegisterPath("332BEV", "Work in Progress", "Climate", "Defroster"))
	assert.Equal(t, []string{
		"332BEV / Work in Progress / Climate",
		"332BEV / Work in Progress / Climate / Defroster",
	}, s.Paths())
}
