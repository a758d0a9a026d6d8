package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"go-toolchat/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	gt.NoError(t, err)
	gt.Equal(t, cfg.Server.Address, ":8080")
	gt.Equal(t, cfg.Server.StateTimeout, 10*time.Second)
	gt.Equal(t, cfg.LLM.Provider, config.ProviderOpenAI)
	gt.Equal(t, cfg.LLM.DefaultModel, "@cf/meta/llama-3.3-70b-instruct-fp8-fast")
	gt.Equal(t, cfg.Session.ContextWindow, 40)
	gt.Equal(t, cfg.Session.TTL, 24*time.Hour)
	gt.Equal(t, cfg.Tools.Timeout, 12*time.Second)
	gt.Equal(t, cfg.Storage.Backend, config.BackendMemory)
	gt.A(t, cfg.Server.AllowedOrigins).Length(1)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("TOOLCHAT_LLM_DEFAULT_MODEL", "gpt-4o-mini")
	t.Setenv("TOOLCHAT_SESSION_CONTEXT_WINDOW", "10")
	t.Setenv("TOOLCHAT_TOOLS_TIMEOUT", "3s")

	cfg, err := config.Load("")
	gt.NoError(t, err)
	gt.Equal(t, cfg.LLM.DefaultModel, "gpt-4o-mini")
	gt.Equal(t, cfg.Session.ContextWindow, 10)
	gt.Equal(t, cfg.Tools.Timeout, 3*time.Second)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "toolchat.yaml")
	gt.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: gemini
  default_model: gemini-2.5-flash
storage:
  backend: redis
  redis:
    addr: localhost:6379
`), 0o600))

	cfg, err := config.Load(path)
	gt.NoError(t, err)
	gt.Equal(t, cfg.LLM.Provider, config.ProviderGemini)
	gt.Equal(t, cfg.Storage.Redis.Addr, "localhost:6379")
	gt.Equal(t, cfg.Session.ContextWindow, 40)
}

func TestLoadInvalid(t *testing.T) {
	testCases := map[string]string{
		"provider": "llm:\n  provider: mystery\n",
		"backend":  "storage:\n  backend: postgres\n",
		"window":   "session:\n  context_window: 0\n",
	}
	for name, body := range testCases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			gt.NoError(t, os.WriteFile(path, []byte(body), 0o600))
			_, err := config.Load(path)
			gt.Error(t, err)
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	gt.Error(t, err)
}
