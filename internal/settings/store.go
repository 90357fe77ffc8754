package settings

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/sanity-io/litter"
	"github.com/smazurov/onair/internal/config"
	"github.com/smazurov/onair/internal/events"
)

// Change sources.
const (
	SourceAPI  = "api"
	SourceFile = "file"
)

// Read loads settings from path. A missing file yields the defaults, and
// keys absent from the file keep their default values.
func Read(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, fmt.Errorf("read settings: %w", err)
	}
	if err := toml.Unmarshal(data, &s); err != nil {
		return Default(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s, nil
}

// Write stores settings at path, replacing the file atomically.
func Write(path string, s Settings) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Store keeps the current settings in memory, persists updates and follows
// edits made to the file.
type Store struct {
	path     string
	eventBus *events.Bus
	logger   *slog.Logger

	mu      sync.RWMutex
	current Settings

	watcher *config.Watcher[Settings]
}

// NewStore creates a store for path. eventBus may be nil.
func NewStore(path string, eventBus *events.Bus, logger *slog.Logger) *Store {
	return &Store{
		path:     path,
		eventBus: eventBus,
		logger:   logger,
		current:  Default(),
	}
}

// Path returns the settings file path.
func (s *Store) Path() string { return s.path }

// Load reads the file into the store. On a parse error the defaults stay in
// effect and the error is returned.
func (s *Store) Load() (Settings, error) {
	loaded, err := Read(s.path)

	s.mu.Lock()
	s.current = loaded
	s.mu.Unlock()

	if err != nil {
		return loaded, err
	}
	s.logger.Debug("Settings loaded", "path", s.path, "settings", litter.Sdump(loaded))
	return loaded, nil
}

// Current returns the settings in effect.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update applies p, persists the result and returns it.
func (s *Store) Update(p Patch) (Settings, error) {
	s.mu.Lock()
	next := s.current
	next.Apply(p)
	if err := Write(s.path, next); err != nil {
		s.mu.Unlock()
		return s.Current(), err
	}
	s.current = next
	s.mu.Unlock()

	s.logger.Info("Settings updated", "source", SourceAPI, "effect", next.EffectConfig().Effect.String())
	s.publish(SourceAPI)
	return next, nil
}

// Watch reloads the file whenever it changes and calls onChange with the
// new settings. Reloads that change nothing, such as our own writes, are
// dropped.
func (s *Store) Watch(onChange func(Settings)) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	w := config.NewConfigWatcher(s.path, Read, s.logger,
		config.WithDebounce[Settings](250*time.Millisecond),
		config.WithErrorHandler[Settings](func(err error) {
			s.logger.Warn("Ignoring invalid settings file", "path", s.path, "error", err)
		}),
	)
	w.OnReload(func(next Settings) {
		s.mu.Lock()
		if next == s.current {
			s.mu.Unlock()
			return
		}
		s.current = next
		s.mu.Unlock()

		s.logger.Info("Settings reloaded", "source", SourceFile, "settings", litter.Sdump(next))
		s.publish(SourceFile)
		if onChange != nil {
			onChange(next)
		}
	})

	if err := w.Start(); err != nil {
		return fmt.Errorf("watch settings: %w", err)
	}
	s.watcher = w
	return nil
}

// Close stops watching the file.
func (s *Store) Close() error {
	if s.watcher == nil {
		return nil
	}
	return s.watcher.Stop()
}

func (s *Store) publish(source string) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(events.SettingsChangedEvent{
		Source:    source,
		Timestamp: time.Now().Format(time.RFC3339),
	})
}
