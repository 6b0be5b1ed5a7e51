// Command spectractl inspects and purges sessions stored in Redis.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/molkiya/spectra/internal/config"
	"github.com/molkiya/spectra/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	redis  config.RedisConfig
	output string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "spectractl",
		Short:         "Inspect SPECTRA sessions in Redis",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.output != "yaml" && opts.output != "json" {
				return fmt.Errorf("unsupported output %q: use yaml or json", opts.output)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&opts.redis.Addr, "redis-addr", "localhost:6379", "Redis address")
	root.PersistentFlags().StringVar(&opts.redis.Password, "redis-password", "", "Redis password")
	root.PersistentFlags().IntVar(&opts.redis.DB, "redis-db", 0, "Redis database")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "yaml", "output format: yaml|json")

	root.AddCommand(newStateCmd(opts))
	root.AddCommand(newTimelineCmd(opts))
	root.AddCommand(newPurgeCmd(opts))
	return root
}

// withStore opens the Redis backend for the duration of fn
func withStore(ctx context.Context, opts *rootOptions, fn func(*storage.RedisStore) error) error {
	cfg := opts.redis
	cfg.DialTimeout = 2 * time.Second
	cfg.PoolSize = 1

	client, err := storage.Connect(ctx, cfg)
	if err != nil {
		return err
	}
	store := storage.NewRedisStore(client, 0)
	defer store.Close()

	return fn(store)
}

func newStateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "state <session-id>",
		Short: "Print the stored state of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(store *storage.RedisStore) error {
				session, err := store.LoadSession(cmd.Context(), args[0])
				if errors.Is(err, storage.ErrSessionNotFound) {
					return fmt.Errorf("session %s not found", args[0])
				}
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, session)
			})
		},
	}
}

func newTimelineCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "timeline <session-id>",
		Short: "Print the signal timeline of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(store *storage.RedisStore) error {
				timeline, err := store.ReadTimeline(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return render(cmd.OutOrStdout(), opts.output, timeline)
			})
		},
	}
}

func newPurgeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "purge <session-id>",
		Short: "Delete the state, timeline and previous output of a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), opts, func(store *storage.RedisStore) error {
				if err := store.DeleteSession(cmd.Context(), args[0]); err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "purged %s\n", args[0])
				return nil
			})
		},
	}
}

// render writes v using its JSON field names in either format
func render(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	return enc.Close()
}
