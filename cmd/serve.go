package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pable/go-wp-metrics/internal/cache"
	"github.com/pable/go-wp-metrics/internal/remote"
	"github.com/pable/go-wp-metrics/internal/server"
)

var (
	serveAddr     string
	serveRedisURL string
	serveOrigins  []string
	serveCacheTTL time.Duration
	serveRemote   bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve derived statistics over HTTP",
	Long: `Serve a read-only JSON API of derived statistics. Data comes from the local
database, or straight from the hosted store with --remote. Responses are
cached in Redis when --redis (or $REDIS_URL) is set, in memory otherwise.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", envOr("WPMETRICS_ADDR", ":8080"), "listen address")
	serveCmd.Flags().StringVar(&serveRedisURL, "redis", os.Getenv("REDIS_URL"), "redis URL for the response cache")
	serveCmd.Flags().StringSliceVar(&serveOrigins, "cors-origin", nil, "allowed CORS origins (default any)")
	serveCmd.Flags().DurationVar(&serveCacheTTL, "cache-ttl", cache.DefaultTTL, "response cache TTL")
	serveCmd.Flags().BoolVar(&serveRemote, "remote", false, "read from the hosted store instead of the local database")
	serveCmd.Flags().StringVar(&remoteURL, "url", os.Getenv("WPMETRICS_REMOTE_URL"), "hosted store base URL (with --remote)")
	serveCmd.Flags().StringVar(&remoteKey, "api-key", os.Getenv("WPMETRICS_REMOTE_KEY"), "hosted store API key (with --remote)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.WithField("component", "server")

	var src server.Source
	if serveRemote {
		if remoteURL == "" {
			return errors.New("--remote needs --url or $WPMETRICS_REMOTE_URL")
		}
		src = remote.NewClient(remoteURL, remoteKey, logger.WithField("component", "remote"))
	} else {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()
		src = db
	}

	c, err := cache.Open(ctx, serveRedisURL)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	if closer, ok := c.(io.Closer); ok {
		defer closer.Close()
	}

	srv := server.New(src, c, server.Config{
		CORSOrigins: serveOrigins,
		CacheTTL:    serveCacheTTL,
	}, log)

	httpServer := &http.Server{
		Addr:              serveAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", serveAddr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errc:
		if ok {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	case <-stop:
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
