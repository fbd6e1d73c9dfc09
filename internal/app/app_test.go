package app

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tptkds/assetManagement/internal/common"
	"github.com/tptkds/assetManagement/internal/interfaces"
)

// writeTestConfig writes a config using a temp sqlite file and an in-memory
// cache. extra is appended verbatim.
func writeTestConfig(t *testing.T, extra string) string {
	t.Helper()
	dir := t.TempDir()

	config := `
[storage]
backend = "sqlite"
dsn = "` + filepath.Join(dir, "assets.db") + `"

[storage.cache]
in_memory = true

[logging]
level = "error"
` + extra
	configPath := filepath.Join(dir, "asset.toml")
	if err := os.WriteFile(configPath, []byte(config), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	return configPath
}

func TestNewApp_WithoutAPIKey(t *testing.T) {
	t.Setenv("ASSET_EODHD_API_KEY", "")
	t.Setenv("EODHD_API_KEY", "")

	a, err := NewApp(context.Background(), writeTestConfig(t, ""))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Config)
	assert.NotNil(t, a.Logger)
	assert.NotNil(t, a.Storage)
	assert.NotNil(t, a.Chart)
	assert.Nil(t, a.Quotes)
	assert.Nil(t, a.Refresh)
	assert.Nil(t, a.Publisher)
	assert.False(t, a.StartupTime.IsZero())

	// Both are no-ops without a quote client.
	a.StartRefreshLoop()
	a.StartPublisher()
	assert.Nil(t, a.refreshCancel)
	assert.Nil(t, a.publisherCancel)
}

func TestNewApp_BackgroundTasksStopOnClose(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer upstream.Close()

	configPath := writeTestConfig(t, `
[clients.eodhd]
api_key = "test-key"
base_url = "`+upstream.URL+`"

[refresh]
enabled = true
idle_delay = "10ms"

[publisher]
enabled = true
interval = "1h"
`)

	a, err := NewApp(context.Background(), configPath)
	require.NoError(t, err)
	require.NotNil(t, a.Refresh)
	require.NotNil(t, a.Publisher)

	a.StartRefreshLoop()
	a.StartPublisher()
	assert.NotNil(t, a.refreshCancel)
	assert.NotNil(t, a.publisherCancel)

	a.Close()
	assert.Nil(t, a.Storage)

	// Second close is harmless.
	a.Close()
}

func TestNewApp_UniverseFile(t *testing.T) {
	universe := filepath.Join(t.TempDir(), "universe.yaml")
	require.NoError(t, os.WriteFile(universe, []byte("instruments:\n  - code: AAPL\n    market: US\n    currency: USD\n"), 0644))

	a, err := NewApp(context.Background(), writeTestConfig(t, `
[clients.eodhd]
api_key = "test-key"

[refresh]
universe_file = "`+universe+`"
`))
	require.NoError(t, err)
	defer a.Close()

	instruments, err := a.instrumentSource().ListInstruments(context.Background())
	require.NoError(t, err)
	require.Len(t, instruments, 1)
	assert.Equal(t, "AAPL.US", instruments[0].Ticker())
}

func TestNewApp_BadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "asset.toml")
	require.NoError(t, os.WriteFile(path, []byte(`base_currency = "XXX1"`), 0644))

	_, err := NewApp(context.Background(), path)
	assert.Error(t, err)
}

// failingStorage fails to close; other methods are unused.
type failingStorage struct {
	interfaces.StorageManager
}

func (failingStorage) Close() error { return errors.New("disk detached") }

func TestClose_LogsStorageError(t *testing.T) {
	var buf bytes.Buffer
	a := &App{Logger: common.NewLoggerWithOutput("warn", &buf), Storage: failingStorage{}}

	a.Close()

	assert.Nil(t, a.Storage)
	assert.Contains(t, buf.String(), "Failed to close storage")
	assert.Contains(t, buf.String(), "disk detached")
}
