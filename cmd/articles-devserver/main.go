// Command articles-devserver serves an in-memory articles backend for local
// development and demos of the articles client.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aktagon/articles-client/internal/fakeapi"
)

var (
	addr     string
	latency  time.Duration
	secret   string
	password string
	tokenTTL time.Duration
	debug    bool
)

var rootCmd = &cobra.Command{
	Use:   "articles-devserver",
	Short: "In-memory articles backend for local development",
	Long: fmt.Sprintf(`Serves /api/login and /api/articles backed by memory.

Any username of three or more characters logs in with the shared password
(default %q). Articles reset when the server restarts.`, fakeapi.DefaultPassword),
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		backend := fakeapi.New(fakeapi.Config{
			Secret:   secret,
			Password: password,
			TokenTTL: tokenTTL,
			Latency:  latency,
			Logger:   logger,
		})

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, logger, backend)
	},
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", ":9000", "listen address")
	rootCmd.Flags().DurationVar(&latency, "latency", 0, "delay added to every request")
	rootCmd.Flags().StringVar(&secret, "secret", "", "HMAC secret for issued tokens")
	rootCmd.Flags().StringVar(&password, "password", fakeapi.DefaultPassword, "password accepted for every user")
	rootCmd.Flags().DurationVar(&tokenTTL, "token-ttl", time.Hour, "lifetime of issued tokens")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func serve(ctx context.Context, logger *slog.Logger, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "latency", latency)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
