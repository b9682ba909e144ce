// Package config provides configuration loading and hot reload.
package config

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// reloadDelay coalesces the burst of events an editor save produces.
const reloadDelay = 100 * time.Millisecond

const redacted = "<redacted>"

// FieldChange is one setting that differs between two configurations.
type FieldChange struct {
	Field      string
	Old        string
	New        string
	Reloadable bool
}

// setting is a tracked configuration value. Reloadable settings carry an
// apply func that copies the value from src into dst.
type setting struct {
	name   string
	secret bool
	get    func(*Config) string
	apply  func(dst, src *Config)
}

var settings = []setting{
	{name: "logging.level",
		get:   func(c *Config) string { return c.Logging.Level },
		apply: func(d, s *Config) { d.Logging.Level = s.Logging.Level }},
	{name: "oracle.timeout",
		get:   func(c *Config) string { return c.Oracle.Timeout.String() },
		apply: func(d, s *Config) { d.Oracle.Timeout = s.Oracle.Timeout }},
	{name: "server.retry_after",
		get:   func(c *Config) string { return c.Server.RetryAfter.String() },
		apply: func(d, s *Config) { d.Server.RetryAfter = s.Server.RetryAfter }},

	{name: "server.host", get: func(c *Config) string { return c.Server.Host }},
	{name: "server.port", get: func(c *Config) string { return strconv.Itoa(c.Server.Port) }},
	{name: "server.request_timeout", get: func(c *Config) string { return c.Server.RequestTimeout.String() }},
	{name: "oracle.provider", get: func(c *Config) string { return c.Oracle.Provider }},
	{name: "oracle.model", get: func(c *Config) string { return c.Oracle.Model }},
	{name: "oracle.url", get: func(c *Config) string { return c.Oracle.URL }},
	{name: "oracle.file", get: func(c *Config) string { return c.Oracle.File }},
	{name: "oracle.api_key", secret: true, get: func(c *Config) string { return c.Oracle.APIKey }},
	{name: "analytics.enabled", get: func(c *Config) string { return strconv.FormatBool(c.Analytics.Enabled) }},
	{name: "analytics.path", get: func(c *Config) string { return c.Analytics.Path }},
	{name: "analytics.fingerprint_key", secret: true, get: func(c *Config) string { return c.Analytics.FingerprintKey }},
	{name: "logging.format", get: func(c *Config) string { return c.Logging.Format }},
	{name: "logging.file", get: func(c *Config) string { return c.Logging.File.Path }},
}

// Diff lists the tracked settings that differ between old and new, in a
// stable order. Secret values are redacted.
func Diff(old, new *Config) []FieldChange {
	var changes []FieldChange
	for _, s := range settings {
		o, n := s.get(old), s.get(new)
		if o == n {
			continue
		}
		if s.secret {
			o, n = redacted, redacted
		}
		changes = append(changes, FieldChange{Field: s.name, Old: o, New: n, Reloadable: s.apply != nil})
	}
	return changes
}

// Holder provides thread-safe access to the running configuration with hot
// reload. Only reloadable settings change in place; restart-only settings
// keep their running values and are reported by Pending.
type Holder struct {
	mu       sync.RWMutex
	config   *Config
	pending  []FieldChange
	path     string
	logger   zerolog.Logger
	watcher  *fsnotify.Watcher
	onChange []func(*Config, []FieldChange)
	onError  []func(error)
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewHolder creates a new config holder and loads the initial configuration.
func NewHolder(path string, logger zerolog.Logger) (*Holder, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Holder{
		config: cfg,
		path:   absPath,
		logger: logger,
		stopCh: make(chan struct{}),
	}, nil
}

// SetLogger replaces the logger. Call it before watching starts.
func (h *Holder) SetLogger(logger zerolog.Logger) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.logger = logger
}

// Get returns the running configuration.
func (h *Holder) Get() *Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.config
}

// Pending returns the restart-only settings that differ on disk.
func (h *Holder) Pending() []FieldChange {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]FieldChange(nil), h.pending...)
}

// Reload reads the file and applies the reloadable settings that changed.
// A file that fails to load leaves the running configuration untouched.
// Listeners run only when a reloadable setting changed.
func (h *Holder) Reload() error {
	loaded, err := Load(h.path)
	if err != nil {
		h.logger.Error().Err(err).Str("path", h.path).Msg("config reload failed, keeping running config")
		h.mu.RLock()
		listeners := append([]func(error){}, h.onError...)
		h.mu.RUnlock()
		for _, fn := range listeners {
			fn(err)
		}
		return fmt.Errorf("reload config: %w", err)
	}

	h.mu.Lock()
	running := h.config
	next := *running
	var applied, pending []FieldChange
	for _, c := range Diff(running, loaded) {
		if !c.Reloadable {
			pending = append(pending, c)
			continue
		}
		applied = append(applied, c)
	}
	for _, s := range settings {
		if s.apply != nil {
			s.apply(&next, loaded)
		}
	}
	h.pending = pending
	if len(applied) > 0 {
		h.config = &next
	}
	listeners := append([]func(*Config, []FieldChange){}, h.onChange...)
	cfg := h.config
	h.mu.Unlock()

	for _, c := range pending {
		h.logger.Warn().
			Str("field", c.Field).
			Str("running", c.Old).
			Str("file", c.New).
			Msg("setting needs a restart to apply")
	}

	if len(applied) == 0 {
		h.logger.Debug().Str("path", h.path).Msg("no reloadable settings changed")
		return nil
	}

	for _, c := range applied {
		h.logger.Info().
			Str("field", c.Field).
			Str("old", c.Old).
			Str("new", c.New).
			Msg("setting reloaded")
	}
	for _, fn := range listeners {
		fn(cfg, applied)
	}
	return nil
}

// OnChange registers a callback that receives the new running configuration
// and the settings that changed.
func (h *Holder) OnChange(fn func(*Config, []FieldChange)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onChange = append(h.onChange, fn)
}

// OnReloadError registers a callback to be called when a reload fails.
func (h *Holder) OnReloadError(fn func(error)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.onError = append(h.onError, fn)
}

// WatchFile reloads whenever the config file is written or replaced.
func (h *Holder) WatchFile() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	h.watcher = watcher

	// Editors that save atomically replace the file, so watch its directory.
	if err := watcher.Add(filepath.Dir(h.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch directory: %w", err)
	}

	go h.watchLoop()

	h.logger.Info().Str("path", h.path).Msg("watching config file for changes")
	return nil
}

// WatchSignals reloads on SIGHUP.
func (h *Holder) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		defer signal.Stop(sigCh)
		for {
			select {
			case <-sigCh:
				h.logger.Info().Msg("received SIGHUP, reloading config")
				_ = h.Reload()
			case <-h.stopCh:
				return
			}
		}
	}()
}

// Stop stops watching for file changes and signals. It is safe to call more
// than once.
func (h *Holder) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopCh)
		if h.watcher != nil {
			h.watcher.Close()
		}
	})
}

func (h *Holder) watchLoop() {
	filename := filepath.Base(h.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case event, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(reloadDelay)
			} else {
				timer.Reset(reloadDelay)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			_ = h.Reload()

		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			h.logger.Error().Err(err).Msg("file watcher error")

		case <-h.stopCh:
			return
		}
	}
}

// ReloadableFields returns the settings applied without a restart.
func ReloadableFields() []string {
	var out []string
	for _, s := range settings {
		if s.apply != nil {
			out = append(out, s.name)
		}
	}
	return out
}

// NonReloadableFields returns the tracked settings that need a restart.
func NonReloadableFields() []string {
	var out []string
	for _, s := range settings {
		if s.apply == nil {
			out = append(out, s.name)
		}
	}
	return out
}
