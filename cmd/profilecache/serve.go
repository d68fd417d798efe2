/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package main

import (
	"context"
	"errors"

	"github.com/acronis/go-appkit/httpserver"
	"github.com/acronis/go-appkit/profserver"
	"github.com/acronis/go-appkit/service"
	"github.com/spf13/cobra"

	"github.com/xch-dev/sage-sub002/resolver"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the profile cache over HTTP",
		Long: "Serve the profile cache over HTTP and remove expired profiles periodically.\n" +
			"With --watch, profile settings are reloaded when the config file changes.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			if watch && cfgPath == "" {
				return errors.New("--watch requires a config file")
			}
			a, err := newApp(cfg, appOpts{WithMetrics: true})
			if err != nil {
				return err
			}
			defer a.Close()
			return runServer(cmd.Context(), a, cfgPath, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", false, "reload profile settings when the config file changes")
	return cmd
}

// runServer blocks until ctx is done or the process receives a shutdown signal.
func runServer(ctx context.Context, a *app, cfgPath string, watch bool) error {
	handler := resolver.NewHandler(a.svc, a.logger)
	defer handler.WaitForPreloads()

	sweeperOpts := service.WorkerUnitOpts{}
	if a.metrics != nil {
		sweeperOpts.MetricsRegisterer = a.metrics
	}
	units := []service.Unit{
		httpserver.NewWithHandler(a.cfg.Server, a.logger, handler),
		service.NewWorkerUnitWithOpts(resolver.NewSweeper(a.svc, a.logger), sweeperOpts),
	}
	if a.cfg.ProfServer.Enabled {
		units = append(units, profserver.New(a.cfg.ProfServer, a.logger))
	}
	if watch {
		units = append(units, service.NewWorkerUnit(newConfigReloader(cfgPath, a.svc, a.logger)))
	}
	return service.New(a.logger, service.NewCompositeUnit(units...)).StartContext(ctx)
}
