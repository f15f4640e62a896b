// Package versionpolicy serves the mobile app's update policy from a JSON
// file and reloads it when the file changes.
package versionpolicy

import (
	"encoding/json/v2"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
)

// Policy tells clients which app version is current and whether they must update.
type Policy struct {
	LatestVersion  string `json:"latestVersion"`
	MinVersionCode int    `json:"minVersionCode"`
	ForceUpdate    bool   `json:"forceUpdate"`
	StoreURL       string `json:"storeUrl"`
}

// Default is served when no policy file exists.
func Default() Policy {
	return Policy{
		LatestVersion:  "1.1.3",
		MinVersionCode: 12,
		ForceUpdate:    true,
		StoreURL:       "https://play.google.com/store/apps/details?id=com.jefferson159.appwallpaper",
	}
}

// Validate reports an error for policies clients could not act on.
func (p Policy) Validate() error {
	if p.LatestVersion == "" {
		return errors.New("latestVersion is required")
	}
	if p.MinVersionCode < 0 {
		return errors.New("minVersionCode cannot be negative")
	}
	if p.StoreURL == "" {
		return errors.New("storeUrl is required")
	}
	return nil
}

// Parse decodes a policy. Fields missing from data keep their default values.
func Parse(data []byte) (Policy, error) {
	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Policy{}, fmt.Errorf("decode version policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}

// Source holds the current policy.
type Source struct {
	path    string
	logger  *slog.Logger
	current atomic.Pointer[Policy]

	watcher *fsnotify.Watcher
	done    chan struct{}
	wg      sync.WaitGroup
	once    sync.Once
}

// Open loads the policy at path. A missing file yields the defaults; an
// invalid one is an error.
func Open(path string, logger *slog.Logger) (*Source, error) {
	s := &Source{path: filepath.Clean(path), logger: logger, done: make(chan struct{})}

	p, err := s.read()
	if err != nil {
		return nil, err
	}
	s.current.Store(&p)
	return s, nil
}

// Current returns the policy in effect.
func (s *Source) Current() Policy {
	return *s.current.Load()
}

// Reload re-reads the file. On error the previous policy stays in effect.
func (s *Source) Reload() error {
	p, err := s.read()
	if err != nil {
		return err
	}
	s.current.Store(&p)
	s.logger.Info("version policy loaded",
		"latest_version", p.LatestVersion,
		"min_version_code", p.MinVersionCode,
		"force_update", p.ForceUpdate,
	)
	return nil
}

func (s *Source) read() (Policy, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return Policy{}, fmt.Errorf("read version policy: %w", err)
	}
	return Parse(data)
}

// Watch reloads the policy whenever the file is written, created, renamed
// or removed. The parent directory is watched so editors that replace the
// file are handled. Call Close to stop.
func (s *Source) Watch() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("create policy directory: %w", err)
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	s.watcher = watcher
	s.wg.Add(1)
	go s.processEvents()
	return nil
}

func (s *Source) processEvents() {
	defer s.wg.Done()

	for {
		select {
		case <-s.done:
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != s.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Rename) && !event.Has(fsnotify.Remove) {
				continue
			}
			if err := s.Reload(); err != nil {
				s.logger.Warn("keeping previous version policy", "path", s.path, "error", err)
			}
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.logger.Warn("version policy watcher error", "error", err)
		}
	}
}

// Close stops watching. Safe to call without Watch and more than once.
func (s *Source) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if s.watcher != nil {
			err = s.watcher.Close()
		}
		s.wg.Wait()
	})
	return err
}
