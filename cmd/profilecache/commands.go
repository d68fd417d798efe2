/*
Copyright © 2025 Sage Wallet contributors.

Released under MIT license.
*/

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/xch-dev/sage-sub002/profile"
	"github.com/xch-dev/sage-sub002/resolver"
)

type rootOptions struct {
	configPath string
}

// loadConfig returns the path of the used config file (empty if there is none) and the loaded config.
func (o *rootOptions) loadConfig() (string, *AppConfig, error) {
	path, err := resolveConfigPath(o.configPath)
	if err != nil {
		return "", nil, err
	}
	cfg, err := loadAppConfig(path)
	if err != nil {
		return "", nil, err
	}
	return path, cfg, nil
}

func (o *rootOptions) runWithApp(fn func(a *app) error) error {
	_, cfg, err := o.loadConfig()
	if err != nil {
		return err
	}
	a, err := newApp(cfg, appOpts{})
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:          "profilecache",
		Short:        "Resolve DIDs to profile metadata through a persistent cache",
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"path to the YAML config file (default is "+defaultConfigFileName+" in the user config directory)")

	configCmd := &cobra.Command{Use: "config", Short: "Inspect the configuration"}
	configCmd.AddCommand(newConfigShowCommand(opts))

	cmd.AddCommand(
		newGetCommand(opts),
		newPreloadCommand(opts),
		newClearCommand(opts),
		newSweepCommand(opts),
		newEntriesCommand(opts),
		newServeCommand(opts),
		configCmd,
	)
	return cmd
}

func newGetCommand(root *rootOptions) *cobra.Command {
	var cacheOnly bool
	cmd := &cobra.Command{
		Use:   "get ID...",
		Short: "Resolve DIDs to profiles",
		Long: "Resolve DIDs to profiles. Ids are resolved concurrently, the service limits\n" +
			"how many of them are fetched from the directory at the same time.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, ids []string) error {
			return root.runWithApp(func(a *app) error {
				var getOpts []resolver.GetOption
				if cacheOnly {
					getOpts = append(getOpts, resolver.CacheOnly())
				}
				profiles := make([]profile.Metadata, len(ids))
				eg, ctx := errgroup.WithContext(cmd.Context())
				for i := range ids {
					i := i
					eg.Go(func() error {
						profiles[i] = a.svc.GetProfile(ctx, ids[i], getOpts...)
						return ctx.Err()
					})
				}
				if err := eg.Wait(); err != nil {
					return fmt.Errorf("resolve profiles: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), profiles)
			})
		},
	}
	cmd.Flags().BoolVar(&cacheOnly, "cache-only", false, "never contact the directory, unknown ids get fallback profiles")
	return cmd
}

func newPreloadCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "preload ID...",
		Short: "Fetch profiles in batches and store them in the cache",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, ids []string) error {
			return root.runWithApp(func(a *app) error {
				a.svc.LoadProfiles(cmd.Context(), ids)
				if err := cmd.Context().Err(); err != nil {
					return fmt.Errorf("preload profiles: %w", err)
				}
				profiles := make([]profile.Metadata, 0, len(ids))
				for _, id := range ids {
					profiles = append(profiles, a.svc.GetProfile(cmd.Context(), id, resolver.CacheOnly()))
				}
				return writeJSON(cmd.OutOrStdout(), profiles)
			})
		},
	}
}

func newClearCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all profiles from the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.runWithApp(func(a *app) error {
				a.svc.ClearCache(cmd.Context())
				_, err := fmt.Fprintln(cmd.OutOrStdout(), "profile cache cleared")
				return err
			})
		},
	}
}

func newSweepCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired profiles from the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.runWithApp(func(a *app) error {
				removed := a.svc.ClearExpiredCache(cmd.Context())
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired %s\n",
					removed, pluralize(removed, "profile", "profiles"))
				return err
			})
		},
	}
}

func newEntriesCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "entries",
		Short: "List cached profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return root.runWithApp(func(a *app) error {
				entries, err := a.svc.CacheEntries(cmd.Context())
				if err != nil {
					return fmt.Errorf("list cache entries: %w", err)
				}
				ids := make([]string, 0, len(entries))
				for id := range entries {
					ids = append(ids, id)
				}
				sort.Strings(ids)

				now := time.Now()
				ttl := a.svc.GetConfig().CacheDuration
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				_, _ = fmt.Fprintln(tw, "ID\tNAME\tUNKNOWN\tSTORED\tSTATE")
				for _, id := range ids {
					e := entries[id]
					state := "valid"
					if !e.IsValid(now, ttl) {
						state = "expired"
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%t\t%s\t%s\n", id, e.Value.DisplayName, e.Value.IsUnknown,
						humanize.Time(time.UnixMilli(e.StoredAt)), state)
				}
				return tw.Flush()
			})
		},
	}
}

func newConfigShowCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, cfg, err := root.loadConfig()
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err = enc.Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return enc.Close()
		},
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func pluralize(n int, singular, plural string) string {
	if n == 1 {
		return singular
	}
	return plural
}
