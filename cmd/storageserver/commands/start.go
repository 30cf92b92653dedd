package commands

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/internal/telemetry"
	"github.com/scriptoria/scriptoria/pkg/config"
	"github.com/scriptoria/scriptoria/pkg/httpapi"
	"github.com/scriptoria/scriptoria/pkg/metrics"
	"github.com/scriptoria/scriptoria/pkg/storageserver"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a storage node",
	Long: `Start a storage node: create its storage directory if missing,
register with a name node if one is configured, and serve client
connections until interrupted.

Examples:
  # Standalone, no name node
  storageserver start --config /etc/scriptoria/storageserver.yaml

  # Registered with a name node
  SCRIPTORIA_STORAGESERVER_NAMESERVER_ADDRESS=10.0.0.1 \
  SCRIPTORIA_STORAGESERVER_NAMESERVER_PORT=9001 \
  storageserver start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadStorageServer(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := os.MkdirAll(cfg.StorageDir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Output: cfg.Logging.Output})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "scriptoria-storageserver",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		if err := tel.Shutdown(context.Background()); err != nil {
			log.Warn("telemetry shutdown error", logger.KeyErr, err)
		}
	}()

	reg := prometheus.NewRegistry()
	var m *metrics.StorageServer
	if cfg.Metrics.Enabled {
		m = metrics.NewStorageServer(reg)
	}

	srv := storageserver.New(*cfg, log, m, tel)
	if err := srv.LoadExisting(); err != nil {
		return fmt.Errorf("scan storage dir: %w", err)
	}

	clientLn, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.ClientPort))
	if err != nil {
		return fmt.Errorf("listen on client port %d: %w", cfg.ClientPort, err)
	}

	var httpSrv *http.Server
	if cfg.Metrics.Enabled {
		router := httpapi.NewRouter("storageserver", reg, srv.Ready, log)
		httpSrv = &http.Server{Addr: ":" + strconv.Itoa(cfg.Metrics.Port), Handler: router}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("http server error", logger.KeyErr, err)
			}
		}()
	}

	log.Info("storage node starting", "client_port", cfg.ClientPort, "storage_dir", cfg.StorageDir)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, clientLn) }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		if err := <-done; err != nil {
			log.Error("storage node serve error", logger.KeyErr, err)
		}
	case err := <-done:
		if err != nil {
			log.Error("storage node serve error", logger.KeyErr, err)
		}
	}

	if httpSrv != nil {
		_ = httpSrv.Shutdown(context.Background())
	}
	log.Info("storage node stopped")
	return nil
}
