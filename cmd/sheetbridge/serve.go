package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/ukaji3/sheetbridge-go/internal/server"
)

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the open, save and scan API on a loopback address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				g.cfg.Server.Addr = addr
			}
			srv := server.NewServer(g.cfg, fontCache(g.cfg), g.logger)
			ln, err := srv.Listen()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			done := make(chan struct{})
			go func() {
				defer close(done)
				<-ctx.Done()
				g.logger.Info("shutting down...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), g.cfg.Server.ShutdownTimeout)
				defer cancel()
				if err := srv.Shutdown(shutdownCtx); err != nil {
					g.logger.Error("shutdown error", "error", err)
				}
			}()

			err = srv.Serve(ln)
			stop()
			<-done
			return err
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (loopback only; default from config)")
	return cmd
}
