package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/easyworld/worldgen/config"
	"github.com/rs/zerolog"
)

func TestHolder_Get(t *testing.T) {
	clearEnv(t)
	cfg := writeConfig(t, validConfig())

	h, err := config.NewHolder(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	got := h.Get()
	if got == nil {
		t.Fatal("Get returned nil")
	}
	if got.Oracle.Timeout != 10*time.Second {
		t.Errorf("Oracle.Timeout = %v, want 10s", got.Oracle.Timeout)
	}
}

func TestHolder_Reload(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	// Verify initial config
	cfg := h.Get()
	if cfg.Logging.Level != "info" {
		t.Errorf("initial Logging.Level = %s, want info", cfg.Logging.Level)
	}

	// Write new config
	newContent := `
oracle:
  timeout: 20s
logging:
  level: debug
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	// Reload
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	// Verify new config
	cfg = h.Get()
	if cfg.Logging.Level != "debug" {
		t.Errorf("reloaded Logging.Level = %s, want debug", cfg.Logging.Level)
	}
	if cfg.Oracle.Timeout != 20*time.Second {
		t.Errorf("reloaded Oracle.Timeout = %v, want 20s", cfg.Oracle.Timeout)
	}
}

func TestHolder_OnChange(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var called bool
	var receivedCfg *config.Config

	h.OnChange(func(cfg *config.Config, _ []config.FieldChange) {
		mu.Lock()
		called = true
		receivedCfg = cfg
		mu.Unlock()
	})

	// Write new config and reload
	newContent := `
oracle:
  timeout: 40s
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	mu.Lock()
	if !called {
		t.Error("OnChange callback was not called")
	}
	if receivedCfg == nil {
		t.Error("received nil config in callback")
	} else if receivedCfg.Oracle.Timeout != 40*time.Second {
		t.Errorf("callback received Oracle.Timeout = %v, want 40s", receivedCfg.Oracle.Timeout)
	}
	mu.Unlock()
}

func TestHolder_ReloadInvalidConfig(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	// Write invalid config
	invalidContent := `
oracle:
  provider: remote
# Missing oracle.url
`
	if err := os.WriteFile(path, []byte(invalidContent), 0644); err != nil {
		t.Fatalf("write invalid config: %v", err)
	}

	// Reload should fail
	err = h.Reload()
	if err == nil {
		t.Error("Reload should fail for invalid config")
	}

	// Old config should still be valid
	cfg := h.Get()
	if cfg.Oracle.Provider != config.ProviderGemini {
		t.Errorf("should keep old config, got Oracle.Provider = %s", cfg.Oracle.Provider)
	}
}

func TestHolder_WatchFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var mu sync.Mutex
	var callCount int

	h.OnChange(func(*config.Config, []config.FieldChange) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})

	if err := h.WatchFile(); err != nil {
		t.Fatalf("WatchFile error: %v", err)
	}

	// Write new config
	newContent := `
logging:
  level: warn
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	// Wait for file watcher to trigger
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if h.Get().Logging.Level == "warn" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	if callCount == 0 {
		t.Error("file watcher did not trigger reload")
	}
	mu.Unlock()

	// Verify config was updated
	cfg := h.Get()
	if cfg.Logging.Level != "warn" {
		t.Errorf("after file watch, Logging.Level = %s, want warn", cfg.Logging.Level)
	}
}

func TestHolder_ConcurrentAccess(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	// Start many readers
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cfg := h.Get()
				if cfg == nil {
					t.Error("concurrent Get returned nil")
				}
			}
		}()
	}

	// Concurrent reloads
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = h.Reload()
		}()
	}

	wg.Wait()
}

func TestReloadableFields(t *testing.T) {
	fields := config.ReloadableFields()
	if len(fields) == 0 {
		t.Error("ReloadableFields returned empty")
	}

	// Check expected fields
	expected := []string{"logging.level", "oracle.timeout"}
	for _, e := range expected {
		found := false
		for _, f := range fields {
			if f == e {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s not in ReloadableFields", e)
		}
	}
}

func TestNonReloadableFields(t *testing.T) {
	fields := config.NonReloadableFields()
	if len(fields) == 0 {
		t.Error("NonReloadableFields returned empty")
	}

	// Check expected fields
	expected := []string{"server.host", "server.port", "oracle.provider", "analytics.path"}
	for _, e := range expected {
		found := false
		for _, f := range fields {
			if f == e {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("%s not in NonReloadableFields", e)
		}
	}
}

// Helpers

func validConfig() string {
	return `
oracle:
  provider: gemini
  timeout: 10s
logging:
  level: info
`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestHolder_StopTwice(t *testing.T) {
	clearEnv(t)
	h, err := config.NewHolder(writeConfig(t, validConfig()), zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	h.WatchSignals()
	h.Stop()
	h.Stop()
}

func TestHolder_OnReloadError(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var got error
	h.OnReloadError(func(err error) { got = err })
	h.OnChange(func(*config.Config, []config.FieldChange) { t.Error("OnChange called for a failed reload") })

	if err := os.WriteFile(path, []byte("logging:\n  level: loud\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := h.Reload(); err == nil {
		t.Fatal("Reload should fail")
	}
	if got == nil {
		t.Error("OnReloadError callback was not called")
	}
}

func TestHolder_RestartOnlySettingsKeepRunningValue(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	var changes []config.FieldChange
	h.OnChange(func(_ *config.Config, c []config.FieldChange) { changes = c })

	newContent := `
server:
  port: 8080
oracle:
  provider: gemini
  timeout: 15s
logging:
  level: info
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	cfg := h.Get()
	if cfg.Server.Port != 5000 {
		t.Errorf("Server.Port = %d, want running 5000", cfg.Server.Port)
	}
	if cfg.Oracle.Timeout != 15*time.Second {
		t.Errorf("Oracle.Timeout = %v, want 15s", cfg.Oracle.Timeout)
	}

	want := []config.FieldChange{{Field: "oracle.timeout", Old: "10s", New: "15s", Reloadable: true}}
	if diff := cmp.Diff(want, changes); diff != "" {
		t.Errorf("applied changes mismatch (-want +got):\n%s", diff)
	}

	wantPending := []config.FieldChange{{Field: "server.port", Old: "5000", New: "8080"}}
	if diff := cmp.Diff(wantPending, h.Pending()); diff != "" {
		t.Errorf("pending mismatch (-want +got):\n%s", diff)
	}
}

func TestHolder_UnchangedReloadSkipsListeners(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, validConfig())

	h, err := config.NewHolder(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHolder error: %v", err)
	}
	defer h.Stop()

	before := h.Get()
	h.OnChange(func(*config.Config, []config.FieldChange) { t.Error("OnChange called without a change") })

	if err := h.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}
	if h.Get() != before {
		t.Error("running config replaced without a change")
	}
	if len(h.Pending()) != 0 {
		t.Errorf("Pending = %v, want none", h.Pending())
	}
}

func TestDiff(t *testing.T) {
	base := func() *config.Config {
		return &config.Config{
			Server:    config.ServerConfig{Port: 5000, RetryAfter: 5 * time.Second},
			Oracle:    config.OracleConfig{Provider: config.ProviderGemini, APIKey: "old-key", Timeout: 30 * time.Second},
			Analytics: config.AnalyticsConfig{Enabled: true, Path: "worldgen.db"},
			Logging:   config.LoggingConfig{Level: "info", Format: "json"},
		}
	}

	tests := []struct {
		name   string
		modify func(*config.Config)
		want   []config.FieldChange
	}{
		{"identical", func(*config.Config) {}, nil},
		{
			"reloadable",
			func(c *config.Config) { c.Logging.Level = "debug"; c.Server.RetryAfter = 9 * time.Second },
			[]config.FieldChange{
				{Field: "logging.level", Old: "info", New: "debug", Reloadable: true},
				{Field: "server.retry_after", Old: "5s", New: "9s", Reloadable: true},
			},
		},
		{
			"restart only",
			func(c *config.Config) { c.Analytics.Enabled = false },
			[]config.FieldChange{{Field: "analytics.enabled", Old: "true", New: "false"}},
		},
		{
			"secret redacted",
			func(c *config.Config) { c.Oracle.APIKey = "new-key" },
			[]config.FieldChange{{Field: "oracle.api_key", Old: "<redacted>", New: "<redacted>"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base()
			tt.modify(next)
			if diff := cmp.Diff(tt.want, config.Diff(base(), next)); diff != "" {
				t.Errorf("Diff mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
