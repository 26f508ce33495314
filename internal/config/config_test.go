package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/taigit/internal/fetch"
)

// isolate points the config file somewhere empty and clears the environment
func isolate(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("TAIGIT_CONFIG", path)
	for _, key := range []string{"TAIGIT_DB", "TAIGA_API_URL", "TAIGA_WEB_URL", "GITHUB_API_URL", "GITLAB_API_URL", "TAIGIT_FETCH_TIMEOUT", "TAIGIT_DEBUG", "TAIGIT_LOG_FILE", "TAIGIT_MAX_LOG_FILES"} {
		t.Setenv(key, "")
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Contains(t, cfg.DBPath, "taigit.db")
	assert.Equal(t, "https://api.taiga.io/api/v1", cfg.TaigaAPIURL)
	assert.Equal(t, "https://api.github.com", cfg.GitHubAPIURL)
	assert.Equal(t, fetch.DefaultTimeout, cfg.FetchTimeout)
	assert.Equal(t, 50, cfg.MaxLogFiles)
	assert.False(t, cfg.Debug)
}

func TestLoadFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("TAIGIT_DB", "/tmp/x.db")
	t.Setenv("TAIGA_API_URL", "https://taiga.local/api/v1/")
	t.Setenv("TAIGIT_DEBUG", "1")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.DBPath)
	assert.Equal(t, "https://taiga.local/api/v1", cfg.TaigaAPIURL)
	assert.True(t, cfg.Debug)
}

func TestLoadFromFileWithEnvironmentOverride(t *testing.T) {
	path := isolate(t)
	require.NoError(t, os.WriteFile(path, []byte(`
db: /data/team.db
gitlab_api_url: https://git.example.com/api/v4
fetch_timeout: 1m
debug: true
max_log_files: 5
`), 0644))
	t.Setenv("TAIGIT_DB", "/override.db")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/override.db", cfg.DBPath)
	assert.Equal(t, "https://git.example.com/api/v4", cfg.GitLabAPIURL)
	assert.Equal(t, time.Minute, cfg.FetchTimeout)
	assert.True(t, cfg.Debug)
	assert.Equal(t, 5, cfg.MaxLogFiles)
	assert.Equal(t, "https://api.github.com", cfg.GitHubAPIURL)
}

func TestLoadRejectsBrokenFile(t *testing.T) {
	path := isolate(t)
	require.NoError(t, os.WriteFile(path, []byte("db: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestFetchTimeout(t *testing.T) {
	tests := []struct {
		value string
		want  time.Duration
	}{
		{"45s", 45 * time.Second},
		{"10", 10 * time.Second},
		{"garbage", fetch.DefaultTimeout},
		{"-5s", fetch.DefaultTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			isolate(t)
			t.Setenv("TAIGIT_FETCH_TIMEOUT", tt.value)
			cfg, err := Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.FetchTimeout)
		})
	}
}
