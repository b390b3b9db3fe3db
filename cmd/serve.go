package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/identity-cli/internal/queue"
)

var (
	servePort           int
	serveEmbeddedWorker bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Serves job submission, session inspection, SSE progress streams, health, and Prometheus metrics. Jobs are enqueued to Temporal; run `identity-cli worker` (or pass --embedded-worker) to process them.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		tc, err := queue.Dial(cfg.Queue, zap.L())
		if err != nil {
			return err
		}
		defer tc.Close()

		enq := queue.NewEnqueuer(tc, env.Store, cfg.Queue.TaskQueue, zap.L())

		// The embedded worker processes jobs in-process, which also routes
		// their progress events into this server's SSE hub.
		if serveEmbeddedWorker {
			acts := queue.NewActivities(env.Pipeline, env.Metrics, zap.L())
			w := queue.NewWorker(tc, cfg.Queue, acts)
			if err := w.Start(); err != nil {
				return eris.Wrap(err, "start embedded worker")
			}
			defer w.Stop()
			zap.L().Info("embedded worker started", zap.String("task_queue", cfg.Queue.TaskQueue))
		}

		var limiter *rate.Limiter
		if cfg.Rates.Enqueue.QPS > 0 {
			limiter = rate.NewLimiter(rate.Limit(cfg.Rates.Enqueue.QPS), cfg.Rates.Enqueue.Burst)
		}

		api := newAPIServer(env.Store, enq, env.Hub, env.Metrics, limiter)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: api.routes(),
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveEmbeddedWorker, "embedded-worker", false, "also run a Temporal worker in this process")
	rootCmd.AddCommand(serveCmd)
}
