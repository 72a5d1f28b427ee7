package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-extract/internal/convert"
	"github.com/thywilljoshua/pdf-extract/internal/metrics"
	"github.com/thywilljoshua/pdf-extract/internal/server"
)

func serveCmd(g *globalFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve extraction over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.setup()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			m := metrics.New()
			conv, err := convert.New(ctx, cfg, logger, m)
			if err != nil {
				return err
			}
			srv := server.New(conv, logger, m, cfg.Server.MaxUploadMB)
			return srv.ListenAndServe(ctx, cfg.Server.Addr, time.Duration(cfg.Server.ShutdownGrace)*time.Second)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config, :8080)")
	return cmd
}

