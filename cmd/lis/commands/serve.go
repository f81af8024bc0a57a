package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/AireshBhat/nramh-lis/internal/api"
	"github.com/AireshBhat/nramh-lis/internal/config"
	"github.com/AireshBhat/nramh-lis/internal/eventbus"
	"github.com/AireshBhat/nramh-lis/internal/fileconfig"
	"github.com/AireshBhat/nramh-lis/internal/his"
	"github.com/AireshBhat/nramh-lis/internal/logger"
	"github.com/AireshBhat/nramh-lis/internal/metrics"
	"github.com/AireshBhat/nramh-lis/internal/sink"
	"github.com/AireshBhat/nramh-lis/internal/supervisor"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analyzer middleware (listeners, HIS client, command API)",
	Long: `serve boots every configured analyzer service, starts the ones
marked activate_on_start, and runs the HTTP command surface and HIS
delivery client until interrupted.

Examples:
  lis serve
  lis serve --config /etc/lis/config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(getConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	log := logger.Get()
	log.Info("starting lis", "version", Version, "commit", Commit)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := fileconfig.NewStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open config store %q: %w", cfg.Store.Path, err)
	}
	analyzerStore := config.NewAnalyzerConfigStore(store)

	bus := eventbus.New(eventbus.DefaultBufferSize, log)
	defer bus.Close()

	hisClient := his.New(
		cfg.HIS.BaseURL,
		log,
		his.WithMaxAttempts(orDefault(cfg.HIS.RetryAttempts, 3)),
		his.WithRetryDelay(orDefaultDuration(cfg.HIS.RetryDelay, 5*time.Second)),
	)
	bus.Subscribe(hisClient)
	bus.Subscribe(sink.New(os.Stdout))

	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		metrics.Init(reg)
		metricsSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("metrics server error", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsSrv.Shutdown(shutdownCtx)
		}()
		log.Info("metrics enabled", "port", cfg.Metrics.Port)
	}

	sup := supervisor.New(analyzerStore, bus, log)
	if err := sup.Boot(cfg.KnownAnalyzerIDs); err != nil {
		return fmt.Errorf("boot supervisor: %w", err)
	}

	apiSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler: api.NewRouter(analyzerStore, sup, log),
	}
	apiDone := make(chan error, 1)
	go func() {
		log.Info("command api listening", "addr", apiSrv.Addr)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			apiDone <- err
			return
		}
		apiDone <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		log.Info("shutdown signal received")
	case err := <-apiDone:
		if err != nil {
			log.Error("command api server failed", "error", err)
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := apiSrv.Shutdown(shutdownCtx); err != nil {
		log.Warn("command api shutdown error", "error", err)
	}

	sup.Shutdown()
	log.Info("lis stopped")
	return nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v == 0 {
		return def
	}
	return v
}
