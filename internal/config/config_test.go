package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"fitnest/client/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))

	require.NoError(t, err)
	assert.Equal(t, config.DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.ConversationPoll)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, config.PingPeriod, cfg.Chat.PingPeriod)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	chdir(t, t.TempDir())
	path := filepath.Join(t.TempDir(), "client.yaml")
	yamlBody := `
base_url: http://localhost:9000
conversation_poll: 3s
storage:
  driver: redis
  redis_url: redis://localhost:6379/2
chat:
  pong_wait: 20s
  ping_period: 15s
`
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o600))
	t.Setenv("FITNEST_API_URL", "http://override:8000")

	cfg, err := config.Load(path)

	require.NoError(t, err)
	assert.Equal(t, "http://override:8000", cfg.BaseURL, "env must win over YAML")
	assert.Equal(t, 3*time.Second, cfg.ConversationPoll)
	assert.Equal(t, "redis", cfg.Storage.Driver)
	assert.Equal(t, 20*time.Second, cfg.Chat.PongWait)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("FITNEST_STORAGE_DRIVER=memory\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("FITNEST_STORAGE_DRIVER") })

	cfg, err := config.Load("")

	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Storage.Driver)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{name: "defaults are valid", mutate: func(*config.Config) {}},
		{name: "unknown driver", mutate: func(c *config.Config) { c.Storage.Driver = "etcd" }, wantErr: true},
		{name: "postgres without dsn", mutate: func(c *config.Config) { c.Storage.Driver = "postgres" }, wantErr: true},
		{name: "ping slower than pong", mutate: func(c *config.Config) { c.Chat.PingPeriod = c.Chat.PongWait }, wantErr: true},
		{name: "keep-alive disabled", mutate: func(c *config.Config) { c.Chat.PongWait = 0; c.Chat.PingPeriod = 0 }},
		{name: "zero poll interval", mutate: func(c *config.Config) { c.ConversationPoll = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}
