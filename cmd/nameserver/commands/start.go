package commands

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/scriptoria/scriptoria/internal/logger"
	"github.com/scriptoria/scriptoria/internal/telemetry"
	"github.com/scriptoria/scriptoria/pkg/acl"
	"github.com/scriptoria/scriptoria/pkg/config"
	"github.com/scriptoria/scriptoria/pkg/httpapi"
	"github.com/scriptoria/scriptoria/pkg/metrics"
	"github.com/scriptoria/scriptoria/pkg/nameserver"
)

var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the name node",
	Long: `Start the name node: bind its client-facing and storage-node-facing
ports, reload the ACL cache, and serve until interrupted.

Examples:
  # Start with a config file
  nameserver start --config /etc/scriptoria/nameserver.yaml

  # Override a field via environment variable
  SCRIPTORIA_NAMESERVER_CLIENT_PORT=9500 nameserver start`,
	RunE: runStart,
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadNameServer(GetConfigFile())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
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
		ServiceName:    "scriptoria-nameserver",
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
	var m *metrics.NameServer
	if cfg.Metrics.Enabled {
		m = metrics.NewNameServer(reg)
	}

	aclTable, err := acl.Load(cfg.ACLCachePath)
	if err != nil {
		return fmt.Errorf("load ACL cache: %w", err)
	}

	srv := nameserver.New(*cfg, log, m, tel, aclTable)

	clientLn, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.ClientPort))
	if err != nil {
		return fmt.Errorf("listen on client port %d: %w", cfg.ClientPort, err)
	}
	controlLn, err := net.Listen("tcp", ":"+strconv.Itoa(cfg.ControlPort))
	if err != nil {
		return fmt.Errorf("listen on control port %d: %w", cfg.ControlPort, err)
	}

	var httpSrv *http.Server
	if cfg.Metrics.Enabled {
		router := httpapi.NewRouter("nameserver", reg, srv.Ready, log)
		httpSrv = &http.Server{Addr: ":" + strconv.Itoa(cfg.Metrics.Port), Handler: router}
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn("http server error", logger.KeyErr, err)
			}
		}()
	}

	log.Info("name node starting", "client_port", cfg.ClientPort, "control_port", cfg.ControlPort)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, clientLn, controlLn) }()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
		if err := <-done; err != nil {
			log.Error("name node serve error", logger.KeyErr, err)
		}
	case err := <-done:
		if err != nil {
			log.Error("name node serve error", logger.KeyErr, err)
		}
	}

	if httpSrv != nil {
		_ = httpSrv.Shutdown(context.Background())
	}
	if err := srv.ACLTable().Save(cfg.ACLCachePath); err != nil {
		log.Warn("ACL cache save failed", logger.KeyErr, err)
	}
	log.Info("name node stopped")
	return nil
}
