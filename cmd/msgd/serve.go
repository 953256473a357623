package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nakliyo/messenger/internal/digest"
	"github.com/nakliyo/messenger/internal/httpapi"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the messaging API server",
		Long: `Starts the HTTP API the marketplace front end polls for conversations,
messages and unread counts. When a digest schedule is configured, the
unread-digest sweep runs alongside the server.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "msgd.yaml", "path to msgd config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port <= 0 {
		port = cfg.Server.Port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Digest.Schedule != "" {
		digester, err := digest.NewDigester(digest.DigesterOpts{
			DB:       gormDB,
			Schedule: cfg.Digest.Schedule,
			Notify:   digest.CommandNotifier(cfg.Digest.NotifyCommand),
		})
		if err != nil {
			return err
		}
		if err := digester.Start(ctx); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Unread digest scheduled: %s\n", cfg.Digest.Schedule)
	}

	return httpapi.Start(ctx, httpapi.StartOpts{
		DB:          gormDB,
		Port:        port,
		CORSOrigins: cfg.Server.CORSOrigins,
		Out:         cmd.OutOrStdout(),
	})
}
