package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "ids.json")

	require.NoError(t, SaveJSON(path, []string{"e1", "e2"}))

	var got []string
	require.NoError(t, LoadJSON(path, &got))
	assert.Equal(t, []string{"e1", "e2"}, got)
}

func TestLoadMissingFileLeavesZeroValue(t *testing.T) {
	var got []string
	require.NoError(t, LoadJSON(filepath.Join(t.TempDir(), "absent.json"), &got))
	assert.Nil(t, got)
}

func TestLoadCorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	var got []string
	assert.Error(t, LoadJSON(path, &got))
}

func TestSaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	require.NoError(t, SaveJSON(path, []string{"a"}))
	require.NoError(t, SaveJSON(path, []string{"b", "c"}))

	var got []string
	require.NoError(t, LoadJSON(path, &got))
	assert.Equal(t, []string{"b", "c"}, got)
}
