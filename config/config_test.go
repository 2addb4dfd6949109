package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfigHasEmptyShellPath(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, "", cfg.Shell.Path)
	require.False(t, cfg.Shell.SourceRC)
	require.NotNil(t, cfg.Shell.AdditionalEnv)
}

func TestLoadDictionaryWithUnsetPathReturnsEmpty(t *testing.T) {
	cfg := DefaultConfig()
	loader := cfg.LoadDictionary()
	require.Empty(t, loader())
}

func TestLoadDictionaryParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dict.yaml")
	contents := "- key: ni\n  candidates: \"你拟泥\"\n- key: hao\n  candidates: \"好号\"\n"
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))

	cfg := DefaultConfig()
	cfg.DictionaryPath = path
	entries := cfg.LoadDictionary()()
	require.Len(t, entries, 2)
	require.Equal(t, "ni", entries[0].Key)
	require.Equal(t, []rune("你拟泥"), entries[0].Candidates)
	require.Equal(t, "hao", entries[1].Key)
}

func TestLoadDictionaryMissingFileReturnsEmpty(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DictionaryPath = "/nonexistent/dict.yaml"
	require.Empty(t, cfg.LoadDictionary()())
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	home := os.Getenv("HOME")
	os.Setenv("HOME", dir)
	defer os.Setenv("HOME", home)

	cfg := DefaultConfig()
	cfg.Shell.Path = "/bin/zsh"
	cfg.Shell.SourceRC = true
	require.NoError(t, cfg.Save())

	loaded, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/bin/zsh", loaded.Shell.Path)
	require.True(t, loaded.Shell.SourceRC)
}
