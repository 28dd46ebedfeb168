package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Server.RunPoller)
	assert.Equal(t, time.Minute, cfg.Poller.Interval)
	assert.Equal(t, 30*time.Second, cfg.Poller.PublishTimeout)
	assert.Equal(t, 10*time.Minute, cfg.Poller.StaleAfter)
	assert.Equal(t, 3, cfg.Poller.MaxAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Poller.BaseBackoff)
	assert.Equal(t, "https://api.linkedin.com/v2", cfg.LinkedIn.APIURL)
	assert.False(t, cfg.LinkedIn.Enabled())
	assert.False(t, cfg.Instagram.Enabled())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SOCIALBOT_SERVER_PORT", "9090")
	t.Setenv("SOCIALBOT_POLLER_INTERVAL", "30s")
	t.Setenv("SOCIALBOT_AUTH_JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("SOCIALBOT_LINKEDIN_ACCESS_TOKEN", "li-token")
	t.Setenv("SOCIALBOT_LINKEDIN_AUTHOR_URN", "urn:li:organization:42")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Poller.Interval)
	assert.True(t, cfg.LinkedIn.Enabled())
	assert.Equal(t, "urn:li:organization:42", cfg.LinkedIn.AuthorURN)
	assert.NoError(t, cfg.ValidateServe())
}

func TestLoad_ConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "socialbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7070
poller:
  batch_size: 5
log:
  format: console
  level: debug
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 5, cfg.Poller.BatchSize)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"linkedin without author", map[string]string{"SOCIALBOT_LINKEDIN_ACCESS_TOKEN": "x"}, "linkedin.author_urn"},
		{"instagram without account", map[string]string{"SOCIALBOT_INSTAGRAM_ACCESS_TOKEN": "x"}, "instagram.account_id"},
		{"bad log format", map[string]string{"SOCIALBOT_LOG_FORMAT": "xml"}, "log.format"},
		{"zero attempts", map[string]string{"SOCIALBOT_POLLER_MAX_ATTEMPTS": "0"}, "poller.max_attempts"},
		{"attempts above cap", map[string]string{"SOCIALBOT_POLLER_MAX_ATTEMPTS": "10"}, "poller.max_attempts"},
		{"zero backoff", map[string]string{"SOCIALBOT_POLLER_BASE_BACKOFF": "0s"}, "poller.base_backoff"},
		{"backoff below floor", map[string]string{"SOCIALBOT_POLLER_BASE_BACKOFF": "4m59s"}, "poller.base_backoff"},
		{"stale equals publish timeout", map[string]string{"SOCIALBOT_POLLER_STALE_AFTER": "30s"}, "poller.stale_after"},
		{"stale below publish timeout", map[string]string{
			"SOCIALBOT_POLLER_STALE_AFTER":     "1m",
			"SOCIALBOT_POLLER_PUBLISH_TIMEOUT": "2m",
		}, "poller.stale_after"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_RetryBoundsAccepted(t *testing.T) {
	t.Setenv("SOCIALBOT_POLLER_MAX_ATTEMPTS", "1")
	t.Setenv("SOCIALBOT_POLLER_BASE_BACKOFF", "15m")
	t.Setenv("SOCIALBOT_POLLER_STALE_AFTER", "0s")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Poller.MaxAttempts)
	assert.Equal(t, 15*time.Minute, cfg.Poller.BaseBackoff)
	assert.Zero(t, cfg.Poller.StaleAfter)
}

func TestValidateServe_RequiresSecret(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.ErrorContains(t, cfg.ValidateServe(), "auth.jwt_secret")
}
