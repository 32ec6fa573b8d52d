package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/orgrecords/internal/adapters/grpc/handler"
	"github.com/ogurasousui/orgrecords/internal/adapters/repository/memory"
	"github.com/ogurasousui/orgrecords/internal/adapters/repository/postgres"
	"github.com/ogurasousui/orgrecords/internal/core/access"
	"github.com/ogurasousui/orgrecords/internal/core/employee"
	"github.com/ogurasousui/orgrecords/internal/core/leave"
	"github.com/ogurasousui/orgrecords/internal/core/lifecycle"
	"github.com/ogurasousui/orgrecords/internal/core/subdivision"
	"github.com/ogurasousui/orgrecords/internal/platform/adminhttp"
	"github.com/ogurasousui/orgrecords/internal/platform/auth"
	"github.com/ogurasousui/orgrecords/internal/platform/config"
	pg "github.com/ogurasousui/orgrecords/internal/platform/db/postgres"
	"github.com/ogurasousui/orgrecords/internal/platform/logging"
	"github.com/ogurasousui/orgrecords/internal/platform/metrics"
	"github.com/ogurasousui/orgrecords/internal/platform/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		logrus.Fatalf("failed to initialize logger: %v", err)
	}

	if err := run(ctx, cfg, logger); err != nil {
		logger.WithError(err).Fatal("server stopped with error")
	}
}

// storage は永続化先ごとのリポジトリとトランザクション制御をまとめます。
type storage struct {
	employees    employee.Repository
	intervals    leave.Repository
	subdivisions subdivision.Repository
	tx           employee.TransactionManager
	pinger       adminhttp.Pinger
	close        func()
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverMemory:
		store := memory.NewStore()
		return &storage{
			employees:    memory.NewEmployeeRepository(store),
			intervals:    memory.NewIntervalRepository(store),
			subdivisions: memory.NewSubdivisionRepository(store),
			tx:           store,
			pinger:       store,
			close:        func() {},
		}, nil
	default:
		pool, err := pg.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("initialize database pool: %w", err)
		}
		return &storage{
			employees:    postgres.NewEmployeeRepository(pool),
			intervals:    postgres.NewIntervalRepository(pool),
			subdivisions: postgres.NewSubdivisionRepository(pool),
			tx:           pg.NewTransactionManager(pool, pg.WithMaxAttempts(cfg.Database.TxMaxAttempts)),
			pinger:       pool,
			close:        pool.Close,
		}, nil
	}
}

func run(ctx context.Context, cfg *config.Config, logger *logrus.Logger) error {
	store, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.close()

	createRule, err := leave.ParseOverlapRule(cfg.Scheduling.Create.Scope, cfg.Scheduling.Create.Bounds, leave.CreateRule)
	if err != nil {
		return fmt.Errorf("scheduling.create: %w", err)
	}
	updateRule, err := leave.ParseOverlapRule(cfg.Scheduling.Update.Scope, cfg.Scheduling.Update.Bounds, leave.UpdateRule)
	if err != nil {
		return fmt.Errorf("scheduling.update: %w", err)
	}

	issuer, err := auth.NewJWTIssuer(cfg.Auth.TokenSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return err
	}
	hasher := auth.NewBcryptHasher(cfg.Auth.BcryptCost)

	employeeSvc := employee.NewService(store.employees, nil, store.tx)
	lifecycleMgr := lifecycle.NewManager(store.employees, store.intervals, store.subdivisions, store.tx,
		lifecycle.Options{ClearDanglingLeaders: cfg.Lifecycle.ClearDanglingLeaders}, logger)
	rpcHandler := handler.NewOrgRecordsHandler(handler.Services{
		Access:       access.NewService(employeeSvc, hasher, issuer),
		Employees:    employeeSvc,
		Intervals:    leave.NewService(store.intervals, nil, store.tx, leave.WithRules(createRule, updateRule)),
		Subdivisions: subdivision.NewService(store.subdivisions, store.employees, nil, store.tx),
		Lifecycle:    lifecycleMgr,
		Hasher:       hasher,
	})

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	grpcServer := server.New(cfg.Server.ListenAddr, rpcHandler, server.Options{
		Logger:         logger,
		Metrics:        metrics.NewRPC(registry),
		RateLimitRPS:   cfg.Server.RateLimitRPS,
		RateLimitBurst: cfg.Server.RateLimitBurst,
	})

	logger.WithFields(logrus.Fields{
		"listen_addr": cfg.Server.ListenAddr,
		"storage":     cfg.Storage.Driver,
		"create_rule": createRule.String(),
		"update_rule": updateRule.String(),
	}).Info("gRPC server listening")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return grpcServer.Run(gctx)
	})
	if cfg.Server.AdminAddr != "" {
		admin := adminhttp.NewServer(cfg.Server.AdminAddr, adminhttp.NewRouter(registry, store.pinger))
		logger.WithField("admin_addr", cfg.Server.AdminAddr).Info("admin HTTP listening")
		g.Go(func() error {
			return admin.Run(gctx)
		})
	}

	return g.Wait()
}
