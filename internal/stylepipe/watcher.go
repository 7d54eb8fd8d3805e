package isp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/sjc5/stylepipe/internal/util"
)

var naiveIgnoreDirPatterns = []string{"**/.git", "**/node_modules"}

type watchSession struct {
	c                   *Config
	fsw                 *fsnotify.Watcher
	hub                 *ReloadHub
	ignoredDirPatterns  []string
	ignoredFilePatterns []string
	buildMu             sync.Mutex
}

func (c *Config) watchConfig() *WatchConfig {
	if c.WatchConfig == nil {
		return &WatchConfig{}
	}
	return c.WatchConfig
}

func (c *Config) newWatchSession() (*watchSession, error) {
	cleanRootDir := c.getCleanRootDir()
	wc := c.watchConfig()

	s := &watchSession{c: c}
	for _, p := range naiveIgnoreDirPatterns {
		s.ignoredDirPatterns = append(s.ignoredDirPatterns, filepath.Join(cleanRootDir, p))
	}
	for _, p := range wc.IgnoreDirs {
		s.ignoredDirPatterns = append(s.ignoredDirPatterns, filepath.Join(cleanRootDir, p))
	}
	for _, p := range wc.IgnoreFiles {
		s.ignoredFilePatterns = append(s.ignoredFilePatterns, filepath.Join(cleanRootDir, p))
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("error creating watcher: %w", err)
	}
	s.fsw = fsw
	return s, nil
}

// Watch builds once, then rebuilds whenever a CSS file under RootDir
// changes, until ctx is done. If WatchConfig.ReloadPort is set, a websocket
// reload server is started too. A failed rebuild is logged (and broadcast)
// but does not stop watching.
func (c *Config) Watch(ctx context.Context) error {
	s, err := c.newWatchSession()
	if err != nil {
		return err
	}
	defer s.fsw.Close()

	if port := c.watchConfig().ReloadPort; port != 0 {
		freePort, err := util.GetFreePort(port)
		if err != nil {
			return fmt.Errorf("error getting free port for reload server: %w", err)
		}
		s.hub = NewReloadHub(c.logger())
		srv := s.hub.newServer(freePort)
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				c.logger().Errorf("reload server error: %v", err)
			}
		}()
		defer srv.Close()
		c.logger().Infof("reload server listening on port %d", freePort)
	}

	if err := s.addDirs(c.getCleanRootDir()); err != nil {
		return fmt.Errorf("error adding directories to watcher: %w", err)
	}

	s.rebuild(ctx)
	return s.handleWatcherEmissions(ctx)
}

// MustWatch is Watch with a background context that panics on setup errors.
func (c *Config) MustWatch() {
	if err := c.Watch(context.Background()); err != nil {
		c.logger().Panicf("error: failed to watch: %v", err)
	}
}

func (s *watchSession) addDirs(path string) error {
	cleanOutDir := s.c.getCleanOutDir()
	return filepath.Walk(path, func(walkedPath string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("error walking path: %w", err)
		}
		if !info.IsDir() {
			return nil
		}
		if s.c.getIsIgnored(walkedPath, s.ignoredDirPatterns) || isWithinDir(walkedPath, cleanOutDir) {
			return filepath.SkipDir
		}
		if err := s.fsw.Add(walkedPath); err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
		return nil
	})
}

func (s *watchSession) handleWatcherEmissions(ctx context.Context) error {
	debounce := s.c.watchConfig().Debounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	d := newDebouncer(debounce, func(events []fsnotify.Event) {
		s.processBatchedEvents(ctx, events)
	})
	defer d.stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case evt, ok := <-s.fsw.Events:
			if !ok {
				return nil
			}
			d.addEvent(evt)
		case err, ok := <-s.fsw.Errors:
			if !ok {
				return nil
			}
			s.c.logger().Errorf("watcher error: %v", err)
		}
	}
}

func (s *watchSession) processBatchedEvents(ctx context.Context, events []fsnotify.Event) {
	if ctx.Err() != nil {
		return
	}

	relevant := 0
	for _, evt := range events {
		if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
			if evt.Has(fsnotify.Create) || evt.Has(fsnotify.Rename) {
				if err := s.addDirs(evt.Name); err != nil {
					s.c.logger().Errorf("error: failed to add directory to watcher: %v", err)
				}
			}
			continue
		}
		if s.getIsRelevant(evt) {
			relevant++
		}
	}

	if relevant == 0 {
		return
	}
	s.c.logger().Infof("detected %d CSS change(s), rebuilding", relevant)
	s.rebuild(ctx)
}

func (s *watchSession) getIsRelevant(evt fsnotify.Event) bool {
	if filepath.Ext(evt.Name) != cssExt {
		return false
	}
	if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Remove) && !evt.Has(fsnotify.Rename) {
		return false
	}
	if isWithinDir(evt.Name, s.c.getCleanOutDir()) {
		return false
	}
	return !s.c.getIsIgnored(evt.Name, s.ignoredFilePatterns)
}

func (s *watchSession) rebuild(ctx context.Context) {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	s.hub.Broadcast(ReloadPayload{ChangeType: ChangeTypeRebuilding})

	manifest, err := s.c.Build(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		s.c.logger().Errorf("error: failed to build: %v", err)
		s.hub.Broadcast(ReloadPayload{ChangeType: ChangeTypeError, Error: err.Error()})
		return
	}
	s.hub.Broadcast(ReloadPayload{ChangeType: ChangeTypeCSS, Files: manifest})
}
