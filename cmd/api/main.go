package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/napatsakorn/minimart-backend/api/routes"
	authsvc "github.com/napatsakorn/minimart-backend/internal/auth"
	"github.com/napatsakorn/minimart-backend/internal/catalog"
	"github.com/napatsakorn/minimart-backend/internal/checkout"
	"github.com/napatsakorn/minimart-backend/internal/members"
	"github.com/napatsakorn/minimart-backend/internal/promotions"
	"github.com/napatsakorn/minimart-backend/internal/seed"
	"github.com/napatsakorn/minimart-backend/pkg/config"
	"github.com/napatsakorn/minimart-backend/pkg/db"
	"github.com/napatsakorn/minimart-backend/pkg/logger"
	"github.com/napatsakorn/minimart-backend/pkg/metrics"
	"github.com/napatsakorn/minimart-backend/pkg/migrate"
	pkgredis "github.com/napatsakorn/minimart-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	if cfg.App.IsDev() && cfg.FeatureFlags.SeedOnBoot {
		if err := seed.Run(context.Background(), dbClient, cfg.Password, logg); err != nil {
			logg.Error(context.Background(), "failed to seed dev data", err)
			os.Exit(1)
		}
	}

	redisClient, err := pkgredis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)

	userRepo := authsvc.NewRepository(dbClient.DB())
	catalogRepo := catalog.NewRepository(dbClient.DB())
	promoRepo := promotions.NewRepository(dbClient.DB())
	memberRepo := members.NewRepository(dbClient.DB())
	transactionRepo := checkout.NewRepository(dbClient.DB())

	authService, err := authsvc.NewService(userRepo, cfg.JWT, cfg.Password)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}
	catalogService, err := catalog.NewService(catalogRepo, dbClient, promoRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}
	promotionService, err := promotions.NewService(promoRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create promotion service", err)
		os.Exit(1)
	}
	memberService, err := members.NewService(memberRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create member service", err)
		os.Exit(1)
	}
	checkoutService, err := checkout.NewService(
		dbClient,
		checkout.NewCatalogStore(catalogRepo),
		checkout.NewPromotionStore(promoRepo),
		checkout.NewMembershipStore(memberRepo),
		checkout.NewTransactionLog(transactionRepo),
		logg,
		checkoutMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:           cfg,
		Logger:           logg,
		DB:               dbClient,
		Redis:            redisClient,
		AuthService:      authService,
		CatalogService:   catalogService,
		PromotionService: promotionService,
		MemberService:    memberService,
		CheckoutService:  checkoutService,
		TransactionsRepo: transactionRepo,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port

	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received")
		graceCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}

	logg.Info(ctx, "api server stopped")
}
