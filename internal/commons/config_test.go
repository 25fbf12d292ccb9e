package commons

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7070
api:
  baseUrl: https://api.example.vn
  timeout: 10s
drafts:
  driver: mysql
capacity:
  hotel:
    maxOccupants: 12
    policy: blocking
`), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, "https://api.example.vn", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 3, cfg.API.MaxRetryAttempts)
	assert.Equal(t, "mysql", cfg.Drafts.Driver)
	assert.Equal(t, 12, cfg.Capacity.Hotel.MaxOccupants)
	assert.Equal(t, 10, cfg.Capacity.Flight.MaxOccupants)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))

	assert.ErrorContains(t, err, "reading config file")
}
