package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadYAMLWithEnvOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
telegram:
  token: from-yaml
  run_mode: Polling
logging:
  level: debug
rate_limit:
  interval_ms: 500
  exclude_updates: [" Callback "]
`), 0o600))
	t.Setenv("LOG_FORMAT", "kv")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-yaml", cfg.Telegram.Token)
	assert.Equal(t, RunModeLongpoll, cfg.Telegram.RunMode)
	assert.Equal(t, "kv", cfg.Logging.Format)
	assert.Equal(t, []string{UpdateCallback}, cfg.RateLimit.ExcludeUpdates)
}

func TestDecodeRejectsBrokenYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("telegram: [oops"), 0o600))
	var cfg Config
	assert.Error(t, Decode(path, &cfg))
}

func TestNormalize(t *testing.T) {
	for name, tc := range map[string]struct {
		cfg     Config
		wantErr bool
	}{
		"missing token":  {cfg: Config{}, wantErr: true},
		"longpoll":       {cfg: Config{Telegram: TelegramConfig{Token: "t"}}},
		"webhook no url": {cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}}, wantErr: true},
		"webhook":        {cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "webhook"}, Webhook: WebhookConfig{URL: "https://x", Listen: "0.0.0.0", Port: 8443}}},
		"bad mode":       {cfg: Config{Telegram: TelegramConfig{Token: "t", RunMode: "push"}}, wantErr: true},
		"negative limit": {cfg: Config{Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{IntervalMS: -1}}, wantErr: true},
		"bad exclusion":  {cfg: Config{Telegram: TelegramConfig{Token: "t"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"inline"}}}, wantErr: true},
		"negative poll":  {cfg: Config{Telegram: TelegramConfig{Token: "t", LongPollTimeoutSeconds: -1}}, wantErr: true},
	} {
		t.Run(name, func(t *testing.T) {
			cfg := tc.cfg
			err := Normalize(&cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
