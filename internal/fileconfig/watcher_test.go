package fileconfig

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AireshBhat/nramh-lis/internal/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWatcherLoadsInitialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("his:\n  base_url: \"http://his.example.internal\"\n"), 0o600))

	w, err := New(path, discardLogger())
	require.NoError(t, err)
	defer w.Stop()

	assert.Equal(t, "http://his.example.internal", w.Current().HIS.BaseURL)
}

func TestWatcherReloadsOnFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("his:\n  base_url: \"http://first.example\"\n"), 0o600))

	w, err := New(path, discardLogger())
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan config.AppConfig, 1)
	w.OnChange(func(cfg config.AppConfig) { changed <- cfg })

	go w.Run()

	require.NoError(t, os.WriteFile(path, []byte("his:\n  base_url: \"http://second.example\"\n"), 0o600))

	select {
	case cfg := <-changed:
		assert.Equal(t, "http://second.example", cfg.HIS.BaseURL)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for config reload notification")
	}

	assert.Equal(t, "http://second.example", w.Current().HIS.BaseURL)
}
