// Command syncctl is the operator surface for the sync engine: a small
// wrapper that builds every component (C1-C11) the same way a host
// application would, and exposes the operations that otherwise only run
// inside tests.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kilnworks/syncengine/internal/conflict"
	"github.com/kilnworks/syncengine/internal/engineconfig"
	"github.com/kilnworks/syncengine/internal/eventbus"
	"github.com/kilnworks/syncengine/internal/media"
	"github.com/kilnworks/syncengine/internal/metacache"
	"github.com/kilnworks/syncengine/internal/netgate"
	"github.com/kilnworks/syncengine/internal/offlinectx"
	"github.com/kilnworks/syncengine/internal/queue"
	"github.com/kilnworks/syncengine/internal/remote"
	sqlitestore "github.com/kilnworks/syncengine/internal/store/sqlite"
)

var (
	configPath string
	accountID  string
)

var rootCmd = &cobra.Command{
	Use:           "syncctl",
	Short:         "Inspect and drive the offline sync engine",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML engine config file")
	rootCmd.PersistentFlags().StringVar(&accountID, "account", "", "account id to operate on (required by most subcommands)")

	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(drainCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(mediaCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// app bundles every wired component a subcommand might need. Built fresh
// per invocation rather than kept as a daemon-long singleton, matching
// syncctl's one-shot CLI shape.
type app struct {
	cfg       *engineconfig.Config
	st        *sqlitestore.SQLiteStore
	bus       *eventbus.Bus
	octx      *offlinectx.Context
	gate      *netgate.Gate
	identity  *remote.IdentityClient
	rstore    *remote.StoreClient
	detector  *conflict.Detector
	resolver  *conflict.Resolver
	q         *queue.Queue
	mediaSt   *media.Store
	uploadQ   *media.UploadQueue
	metaCache *metacache.Cache
}

func buildApp(ctx context.Context) (*app, error) {
	cfg, err := engineconfig.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	st, err := sqlitestore.New(ctx, cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	bus := eventbus.New()
	octx, err := offlinectx.New(ctx, st, bus)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load offline context: %w", err)
	}

	probeAddr := ""
	gate := netgate.New(probeAddr)

	var identity *remote.IdentityClient
	if cfg.AuthBaseURL != "" {
		identity = remote.NewIdentityClient(cfg.AuthBaseURL, remote.WithSessionGate(gate))
	}

	var rstore *remote.StoreClient
	if cfg.RemoteDSN != "" {
		rstore, err = remote.NewStoreClient(cfg.RemoteDSN, gate)
		if err != nil {
			st.Close()
			return nil, fmt.Errorf("open remote store: %w", err)
		}
	}

	detector := conflict.New(st, rstore)
	q := queue.New(st, octx, gate, detector, rstore, *cfg)
	q.SetLogger(log)
	resolver := conflict.NewResolver(st, q)
	resolver.SetLogger(log)

	mediaSt := media.New(st, cfg.MediaQuotaBytes)
	uploadQ := media.NewUploadQueue(st, gate, rstore)
	uploadQ.SetLogger(log)
	metaCache := metacache.New(st, gate, rstore)

	return &app{
		cfg: cfg, st: st, bus: bus, octx: octx, gate: gate,
		identity: identity, rstore: rstore,
		detector: detector, resolver: resolver, q: q,
		mediaSt: mediaSt, uploadQ: uploadQ, metaCache: metaCache,
	}, nil
}

func (a *app) Close() {
	if a.rstore != nil {
		_ = a.rstore.Close()
	}
	_ = a.st.Close()
}

func requireAccount() (string, error) {
	if accountID == "" {
		return "", fmt.Errorf("--account is required")
	}
	return accountID, nil
}
