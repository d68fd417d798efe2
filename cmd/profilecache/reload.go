/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/acronis/go-appkit/log"
	"github.com/acronis/go-appkit/service"
	"github.com/fsnotify/fsnotify"

	"github.com/xch-dev/sage-sub002/resolver"
)

// configReloader applies the profiles section of the config file to the service every time the file changes.
// Other sections require a restart.
type configReloader struct {
	path   string
	svc    *resolver.Service
	logger log.FieldLogger
}

var _ service.Worker = (*configReloader)(nil)

func newConfigReloader(path string, svc *resolver.Service, logger log.FieldLogger) *configReloader {
	return &configReloader{path: filepath.Clean(path), svc: svc, logger: logger}
}

// Run watches the config file until ctx is done.
// The parent directory is watched since editors often replace the file instead of writing it in place.
func (r *configReloader) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create config watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil {
			r.logger.Warn("failed to close config watcher", log.Error(closeErr))
		}
	}()

	dir := filepath.Dir(r.path)
	if err = watcher.Add(dir); err != nil {
		return fmt.Errorf("watch config directory %s: %w", dir, err)
	}
	r.logger.Info("watching config file", log.String("path", r.path))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != r.path || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			r.logger.Debug("config file changed", log.String("op", event.Op.String()))
			r.reload()
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("config watcher error", log.Error(watchErr))
		}
	}
}

func (r *configReloader) reload() {
	// Truncation is reported before the new content is written.
	if fi, err := os.Stat(r.path); err != nil || fi.Size() == 0 {
		return
	}
	cfg, err := loadAppConfig(r.path)
	if err != nil {
		r.logger.Warn("failed to reload config, keeping the current one", log.Error(err))
		return
	}
	if _, err = r.svc.UpdateConfig(resolver.UpdateFrom(cfg.Profiles)); err != nil {
		r.logger.Warn("failed to apply reloaded config", log.Error(err))
	}
}
