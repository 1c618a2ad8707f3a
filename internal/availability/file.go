package availability

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

type fileFormat struct {
	Settings Settings                                   `json:"settings"`
	Slots    map[string]map[string]map[string]*dayTable `json:"slots"`
}

// Open loads the slot table from path, creating an empty table with the
// given heavy-load default when the file does not exist yet.
func Open(path string, heavyLoad bool, log zerolog.Logger) (*Store, error) {
	s := &Store{
		settings: Settings{HeavyLoad: heavyLoad},
		slots:    make(map[string]map[string]map[string]*dayTable),
		path:     path,
		log:      log,
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("availability: create data dir: %w", err)
		}
		s.mu.Lock()
		err = s.save()
		s.mu.Unlock()
		if err != nil {
			return nil, err
		}
		log.Info().Str("path", path).Msg("created empty slot table")
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("availability: read %s: %w", path, err)
	}

	if err := s.decode(raw); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) decode(raw []byte) error {
	var f fileFormat
	if err := json.Unmarshal(raw, &f); err != nil {
		return fmt.Errorf("availability: parse slot table: %w", err)
	}
	if f.Slots == nil {
		f.Slots = make(map[string]map[string]map[string]*dayTable)
	}
	for _, centers := range f.Slots {
		for _, types := range centers {
			for _, tbl := range types {
				if tbl.Days == nil {
					tbl.Days = make(map[string]DayRecord)
				}
			}
		}
	}

	s.mu.Lock()
	s.settings = f.Settings
	s.slots = f.Slots
	s.mu.Unlock()
	return nil
}

// save writes the table to disk via a temp file rename. Callers hold
// the write lock.
func (s *Store) save() error {
	f := fileFormat{Settings: s.settings, Slots: s.slots}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("availability: marshal slot table: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("availability: write slot table: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("availability: replace slot table: %w", err)
	}

	s.lastSaved = time.Now()
	return nil
}

// Watch reloads the table when something other than this process edits
// the file, so out-of-band administrative edits are served live instead
// of stale. Returns when ctx is done.
func (s *Store) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("availability: watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors and our own atomic rename both
	// replace the file node, which breaks a direct file watch.
	if err := watcher.Add(filepath.Dir(s.path)); err != nil {
		return fmt.Errorf("availability: watch %s: %w", filepath.Dir(s.path), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if s.recentlySaved() {
				continue // our own write coming back around
			}
			s.reload()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.log.Warn().Err(err).Msg("slot table watcher error")
		}
	}
}

func (s *Store) recentlySaved() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.lastSaved) < 500*time.Millisecond
}

func (s *Store) reload() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		s.log.Warn().Err(err).Msg("slot table reload read failed")
		return
	}
	if err := s.decode(raw); err != nil {
		s.log.Warn().Err(err).Msg("slot table reload rejected")
		return
	}
	s.log.Info().Str("path", s.path).Msg("slot table reloaded from external edit")
}
