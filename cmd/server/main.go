package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"lingap/internal/audit"
	barangaystore "lingap/internal/barangay/store"
	"lingap/internal/media"
	"lingap/internal/platform/config"
	"lingap/internal/platform/httpserver"
	"lingap/internal/platform/logger"
	platformpg "lingap/internal/platform/postgres"
	platformredis "lingap/internal/platform/redis"
	"lingap/internal/registry/allocator"
	registrymetrics "lingap/internal/registry/metrics"
	registrymodels "lingap/internal/registry/models"
	registryservice "lingap/internal/registry/service"
	beneficiarystore "lingap/internal/registry/store/beneficiary"
	schemacache "lingap/internal/schema/cache"
	schemaservice "lingap/internal/schema/service"
	schemastore "lingap/internal/schema/store"
)

// main wires the stores, services and background workers, then exposes the
// ops endpoints. Business logic lives in the internal service packages; the
// registry itself is consumed as a library, so there is no domain router here.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && err != context.Canceled {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var (
		barangays     registryservice.BarangayStore
		beneficiaries registryservice.BeneficiaryStore
		schemaFields  schemaservice.Store
		checkers      []httpserver.NamedChecker
	)

	if cfg.PostgresDSN != "" {
		if err := platformpg.Migrate(ctx, cfg.PostgresDSN); err != nil {
			return err
		}
		pool, err := platformpg.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return err
		}
		defer pool.Close()

		barangays = barangaystore.NewPostgres(pool)
		beneficiaries = beneficiarystore.NewPostgres(pool)
		schemaFields = schemastore.NewPostgres(pool)
		checkers = append(checkers, httpserver.NamedChecker{
			Name: "postgres", Checker: platformpg.PoolHealth{Pool: pool},
		})
		log.Info("using postgres stores")
	} else {
		barangayMem := barangaystore.NewInMemory()
		barangays = barangayMem
		beneficiaries = beneficiarystore.NewInMemory(barangayMem)
		schemaFields = schemastore.NewInMemory()
		log.Warn("no postgres DSN configured, using in-memory stores")
	}

	if err := schemastore.SeedBaseline(ctx, schemaFields); err != nil {
		return err
	}

	var auditSink audit.Store = audit.NewInMemoryStore()
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaStore, err := audit.NewKafkaStore(ctx, cfg.Kafka)
		if err != nil {
			return err
		}
		defer kafkaStore.Close()
		auditSink = kafkaStore
		log.Info("audit events publishing to kafka", "topic", cfg.Kafka.Topic)
	}
	inbox := audit.NewInbox(256, log)
	auditWorker := audit.NewWorker(auditSink, inbox.Events(), log)
	publisher := audit.NewPublisher(inbox)

	schemaOpts := []schemaservice.Option{
		schemaservice.WithLogger(log),
		schemaservice.WithAuditPublisher(publisher),
	}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		schemaOpts = append(schemaOpts, schemaservice.WithFieldCache(schemacache.NewRedis(redisClient.Client)))
		checkers = append(checkers, httpserver.NamedChecker{Name: "redis", Checker: redisClient})
		log.Info("schema cache enabled")
	}
	schemaSvc := schemaservice.New(schemaFields, schemaOpts...)

	m := registrymetrics.New()
	alloc := allocator.New(beneficiaries,
		allocator.WithLogger(log),
		allocator.WithMetrics(m))

	registry := registryservice.New(beneficiaries, barangays, schemaSvc, alloc,
		registryservice.WithLogger(log),
		registryservice.WithMetrics(m),
		registryservice.WithAuditPublisher(publisher),
		registryservice.WithMediaStore(media.NewInMemory()),
		registryservice.WithPensionProviders(cfg.PensionProviders))

	// Startup probe: one listing exercises the full read path (store, filter
	// compilation, barangay join) before the process reports ready.
	if _, err := registry.List(ctx, registrymodels.ListFilter{}); err != nil {
		return err
	}

	srv := httpserver.New(cfg.Addr, httpserver.OpsRouter(checkers...))

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return auditWorker.Run(ctx)
	})
	group.Go(func() error {
		log.Info("lingap registry listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
