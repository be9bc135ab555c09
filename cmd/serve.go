package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/emission-rollup/internal/report"
	"github.com/sells-group/emission-rollup/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API over stored snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}
		e, err := initEnv(ctx, "serve")
		if err != nil {
			return err
		}
		defer e.Close()

		ranges, err := report.ParseRanges(cfg.Report.Ranges)
		if err != nil {
			return err
		}
		policy, err := report.ParseUnknownPolicy(cfg.Report.UnknownPolicy)
		if err != nil {
			return err
		}
		desks, err := loadDesks(ctx)
		if err != nil {
			return err
		}

		handler := server.New(server.Config{
			Analyzer:      e.Analyzer,
			Snapshots:     e.Store,
			Ranges:        ranges,
			UnknownPolicy: policy,
			Desks:         desks,
			CORSOrigins:   cfg.Server.CORSOrigins,
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		zap.L().Info("starting server",
			zap.Int("port", cfg.Server.Port),
			zap.String("catalog_version", e.Catalog.Version()),
		)
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return eris.Wrap(err, "server listen")
		}
		return serveUntilDone(ctx, srv, ln, 10*time.Second)
	},
}

// serveUntilDone serves on ln until ctx is done, then shuts srv down and
// waits for in-flight requests (up to grace) before returning, so callers
// can close the store afterwards.
func serveUntilDone(ctx context.Context, srv *http.Server, ln net.Listener, grace time.Duration) error {
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- srv.Serve(ln)
	}()

	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server serve")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	<-serveErr
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
