// Command stratad serves resolved configuration over a Unix domain socket.
//
// It reads ~/.strata/stratad.yaml for its socket path and configuration
// source, loads the configuration once, and answers queries from the
// in-memory snapshot. SIGHUP re-reads the files; SIGINT and SIGTERM shut it
// down.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lc/strata/internal/buildinfo"
	"github.com/lc/strata/internal/config"
	"github.com/lc/strata/internal/log"
	"github.com/lc/strata/pkg/api"
	"github.com/lc/strata/pkg/strata"
)

func main() {
	defer log.Sync()

	cfg, err := config.New().Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	conf, err := strata.New(strata.WithSource(cfg.Source))
	if err != nil {
		log.Fatalf("loading configuration: %v", err)
	}
	log.Info("stratad starting",
		"version", buildinfo.Version,
		"directory", cfg.Source.Directory,
		"environment", conf.Environment(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, conf, cfg.Socket.Path); err != nil {
		log.Fatalf("stratad: %v", err)
	}
	log.Info("stratad stopped")
}

// run serves the API until ctx is done, reloading on SIGHUP.
func run(ctx context.Context, conf *strata.Configuration, socketPath string) error {
	srv := api.New(conf)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.ListenAndServe(socketPath)
	})

	g.Go(func() error {
		hup := make(chan os.Signal, 1)
		signal.Notify(hup, syscall.SIGHUP)
		defer signal.Stop(hup)

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-hup:
				if err := conf.Reload(); err != nil {
					log.Error("reload failed, keeping previous snapshot", "error", err)
					continue
				}
				log.Info("reloaded on SIGHUP", "snapshot", conf.Snapshot().ID)
			}
		}
	})

	g.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down…")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
