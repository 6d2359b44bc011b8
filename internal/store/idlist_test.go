package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDListSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sent_reminders.json")

	l := LoadIDList(path, 10, nil)
	assert.True(t, l.Add("e1"))
	assert.False(t, l.Add("e1"), "duplicate add reports already present")

	reloaded := LoadIDList(path, 10, nil)
	assert.True(t, reloaded.Contains("e1"))
	assert.False(t, reloaded.Contains("e2"))
	assert.Equal(t, 1, reloaded.Len())
}

func TestIDListCap(t *testing.T) {
	l := LoadIDList("", 2, nil)
	l.Add("a")
	l.Add("b")
	l.Add("c")

	assert.False(t, l.Contains("a"), "oldest evicted past cap")
	assert.True(t, l.Contains("b"))
	assert.True(t, l.Contains("c"))
	assert.Equal(t, []string{"b", "c"}, l.IDs())
}

func TestIDListReloadTrimsToCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ids.json")
	l := LoadIDList(path, 10, nil)
	for _, id := range []string{"a", "b", "c", "d"} {
		l.Add(id)
	}

	reloaded := LoadIDList(path, 2, nil)
	require.Equal(t, 2, reloaded.Len())
	assert.Equal(t, []string{"c", "d"}, reloaded.IDs(), "newest retained")
}
