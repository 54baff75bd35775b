package cli

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"sysrecv/db"
	"sysrecv/listener"
	"sysrecv/server"
	"sysrecv/server/handlers"
	"sysrecv/utils"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

func newRunCommand(use, short string, ingest, api bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := utils.LoadConfig(configPath)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg, ingest, api)
		},
	}
}

// run starts the selected components and blocks until ctx is cancelled or
// one of them fails. A listener that cannot bind fails run before anything
// is served.
func run(ctx context.Context, cfg *utils.Config, ingest, api bool) error {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	log.Printf("sysrecv %s starting (driver=%s, path=%s)", utils.Version, cfg.DBDriver, cfg.DBPath)

	store, err := db.Open(cfg.DBDriver, cfg.DBPath, cfg.Debug)
	if err != nil {
		return err
	}
	defer store.Close()

	g, ctx := errgroup.WithContext(ctx)

	var diagnostics handlers.SnapshotProvider
	if ingest {
		counters := &listener.Counters{Verbose: cfg.Verbose}
		diagnostics = counters
		ingestor := listener.NewIngestor(store, counters, cfg.StoreTimeoutDuration())

		var udp *listener.UDPListener
		if cfg.HasListener("udp") {
			udp = listener.NewUDPListener(":"+cfg.UDPPort, ingestor, cfg.MaxWorkers)
			if err := udp.Listen(); err != nil {
				return err
			}
		}

		var tcp *listener.TCPListener
		if cfg.HasListener("tcp") {
			tcp = listener.NewTCPListener(":"+cfg.TCPPort, ingestor, cfg.MaxWorkers)
			if err := tcp.Listen(); err != nil {
				if udp != nil {
					udp.Close()
				}
				return err
			}
		}

		if udp != nil {
			g.Go(func() error { return udp.Serve(ctx) })
		}
		if tcp != nil {
			g.Go(func() error { return tcp.Serve(ctx) })
		}
	}

	if api {
		srv := server.NewServer(cfg.APIPort, store, diagnostics)
		g.Go(srv.Start)
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()
	log.Println("sysrecv stopped")
	return err
}
