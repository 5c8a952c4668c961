// Package app wires the visage engine runtime: storage, the notification
// bus, the composer service, the automation evaluator, and the authority
// lease, behind a gRPC health endpoint.
package app

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpc_health_v1 "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/louisbranch/visage-engine/internal/authority"
	"github.com/louisbranch/visage-engine/internal/automation"
	"github.com/louisbranch/visage-engine/internal/automation/script"
	verrors "github.com/louisbranch/visage-engine/internal/errors"
	"github.com/louisbranch/visage-engine/internal/notify"
	"github.com/louisbranch/visage-engine/internal/platform/id"
	"github.com/louisbranch/visage-engine/internal/scene"
	"github.com/louisbranch/visage-engine/internal/storage/sqlite"
	"github.com/louisbranch/visage-engine/internal/visage/service"
)

// RuntimeConfig controls engine startup and loop behavior.
type RuntimeConfig struct {
	Port            int
	DBPath          string
	Holder          string
	RebuildInterval time.Duration
}

const (
	defaultPort            = 8095
	defaultDB              = "data/visage.db"
	defaultRebuildInterval = 30 * time.Second
)

// withDefaults fills unset config fields. The lease holder defaults to a
// hostname-qualified random identity so two engines on the same host never
// collide on the authority lease.
func (cfg RuntimeConfig) withDefaults() RuntimeConfig {
	if cfg.Port <= 0 {
		cfg.Port = defaultPort
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		cfg.DBPath = defaultDB
	}
	if strings.TrimSpace(cfg.Holder) == "" {
		cfg.Holder = defaultHolder()
	}
	if cfg.RebuildInterval <= 0 {
		cfg.RebuildInterval = defaultRebuildInterval
	}
	return cfg
}

func defaultHolder() string {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "visaged"
	}
	suffix, err := id.NewID()
	if err != nil {
		log.Printf("generate holder suffix: %v", err)
		return hostname
	}
	return hostname + "-" + suffix
}

// Run starts the engine runtime and blocks until ctx is canceled.
func Run(ctx context.Context, cfg RuntimeConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.withDefaults()

	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create visage storage dir: %w", err)
		}
	}

	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open visage sqlite store: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			log.Printf("close visage sqlite store: %v", closeErr)
		}
	}()

	bus := notify.NewInProcessBus()
	world := scene.NewWorld(bus)
	engine := service.New(store, store, world)

	registry := automation.NewRegistry()
	if err := registry.Build(ctx, store); err != nil {
		return fmt.Errorf("build automation registry: %w", err)
	}
	defer registry.Teardown()

	evaluator := automation.NewEvaluator(registry, world, engine, script.NewRunner())

	lease := authority.NewManager(store, cfg.Holder)
	leaseDone := make(chan struct{})
	go func() {
		defer close(leaseDone)
		lease.Run(ctx)
	}()

	// Notifications reach the evaluator only while this process holds the
	// authority lease.
	sub := bus.Subscribe(func(n notify.Notification) {
		if lease.Held() {
			evaluator.Handle(n)
		}
	})
	defer sub.Cancel()

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.Port))
	if err != nil {
		return fmt.Errorf("listen on visage port %d: %w", cfg.Port, err)
	}
	defer listener.Close()

	grpcServer := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(verrors.UnaryServerInterceptor()),
	)
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus("visage.engine", grpc_health_v1.HealthCheckResponse_SERVING)

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- grpcServer.Serve(listener)
	}()
	defer func() {
		healthServer.Shutdown()
		grpcServer.GracefulStop()
		<-serveErr
		<-leaseDone
	}()

	log.Printf("visage engine listening at %v", listener.Addr())
	return runLoop(ctx, cfg.RebuildInterval, registry, evaluator, store, lease)
}

var _ automation.ActionSurface = (*service.Service)(nil)

// runLoop periodically rebuilds the automation registry so definition edits
// take effect, and sweeps the scene while the lease is held.
func runLoop(ctx context.Context, interval time.Duration, registry *automation.Registry, evaluator *automation.Evaluator, store *sqlite.Store, lease *authority.Manager) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := registry.Build(ctx, store); err != nil {
				log.Printf("rebuild automation registry: %v", err)
				continue
			}
			if !lease.Held() {
				continue
			}
			if err := evaluator.Sweep(ctx); err != nil {
				log.Printf("sweep scene: %v", err)
			}
		}
	}
}
