// Daygrid server - reward ledger and presence fan-out for the
// daygrid dashboard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/daygrid/daygrid/internal/api"
	"github.com/daygrid/daygrid/internal/config"
	"github.com/daygrid/daygrid/internal/logging"
	"github.com/daygrid/daygrid/internal/storage"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "daygrid",
		Short: "Daygrid - reward and presence engine",
		Long: `Daygrid keeps score for the daygrid dashboard.

It grants XP for calendar events, notes, todos and friendships,
tracks levels and unlocks, and fans progress out to every
connected dashboard over WebSocket.`,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// serveCmd runs the HTTP server until interrupted
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Daygrid server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.MustLoad()
			logging.SetLevel(logging.ParseLevel(cfg.Log.Level))

			db, err := storage.Open(storage.Config{Path: cfg.Database.Path})
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			if err := db.Migrate(); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			srv := api.New(api.Config{
				Host: cfg.Server.Host,
				Port: cfg.Server.Port,
				DB:   db,
			})

			errCh := make(chan error, 1)
			go func() {
				logging.Info("daygrid listening on %s", srv.Addr())
				errCh <- srv.Start()
			}()

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case sig := <-stop:
				logging.Info("received %s, shutting down", sig)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Stop(ctx); err != nil {
				return fmt.Errorf("shutdown failed: %w", err)
			}
			logging.Info("goodbye")
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the Daygrid version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("daygrid %s\n", version)
		},
	}
}
