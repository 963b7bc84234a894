package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UkralStul/threaducate/internal/api"
	"github.com/UkralStul/threaducate/internal/events"
	"github.com/UkralStul/threaducate/internal/seed"
	"github.com/UkralStul/threaducate/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func (a *app) serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port == "" {
				port = a.cfg.Server.Port
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, port)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "listen port (default: $PORT or 8080)")
	return cmd
}

func (a *app) serve(ctx context.Context, port string) error {
	ping, err := time.ParseDuration(a.cfg.Server.WSPingInterval)
	if err != nil {
		return fmt.Errorf("ws_ping_interval: %w", err)
	}

	store, err := a.openStorage(ctx, true)
	if err != nil {
		return err
	}
	defer store.Close()

	svc := service.New(store, events.NewCommentObserver(), a.log)
	router := api.NewRouter(svc, store, a.log, api.Options{
		DefaultUserID:  seed.CurrentUserID,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
		PingInterval:   ping,
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("listening", zap.String("addr", "http://localhost:"+port))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed to start: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
