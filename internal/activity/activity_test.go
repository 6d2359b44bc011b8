package activity

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matchwatch/matchwatch/internal/clock"
)

func TestRecordNewestFirstAndCapped(t *testing.T) {
	clk := clock.NewManual(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
	log := New(clk, "", 3, nil)

	for i := 1; i <= 5; i++ {
		clk.Advance(time.Minute)
		log.Record(fmt.Sprintf("op%d", i), errors.New("boom"), nil)
	}

	entries := log.Entries()
	require.Len(t, entries, 3)
	assert.Equal(t, "op5", entries[0].Operation)
	assert.Equal(t, "op3", entries[2].Operation)
	assert.True(t, entries[0].Timestamp.After(entries[2].Timestamp))
}

func TestLogSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error_log.json")
	clk := clock.NewManual(time.Unix(1000, 0))

	log := New(clk, path, 10, nil)
	log.Record("fcm.send", errors.New("unregistered token"), map[string]string{"token": "abc123de…"})

	reloaded := New(clk, path, 10, nil)
	entries := reloaded.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, "fcm.send", entries[0].Operation)
	assert.Equal(t, "unregistered token", entries[0].Error)
	assert.Equal(t, "abc123de…", entries[0].Context["token"])
}

func TestReloadTrimsToCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "error_log.json")
	clk := clock.NewManual(time.Unix(1000, 0))

	log := New(clk, path, 10, nil)
	for i := 0; i < 6; i++ {
		log.Record("op", nil, nil)
	}

	reloaded := New(clk, path, 4, nil)
	assert.Equal(t, 4, reloaded.Len())
}
