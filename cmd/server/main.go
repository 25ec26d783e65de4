package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"resident-manager/internal/admin"
	"resident-manager/internal/auth"
	"resident-manager/internal/jwttoken"
	paymenthandler "resident-manager/internal/payment/handler"
	paymentservice "resident-manager/internal/payment/service"
	paymentstore "resident-manager/internal/payment/store/postgres"
	"resident-manager/internal/payment/vnpay"
	"resident-manager/internal/platform/config"
	"resident-manager/internal/platform/httpserver"
	"resident-manager/internal/platform/logger"
	"resident-manager/internal/platform/metrics"
	"resident-manager/internal/platform/postgres"
	"resident-manager/internal/platform/redis"
	"resident-manager/internal/ratelimit"
	registrationhandler "resident-manager/internal/registration/handler"
	registrationservice "resident-manager/internal/registration/service"
	registrationstore "resident-manager/internal/registration/store/postgres"
	httptransport "resident-manager/internal/transport/http"
	"resident-manager/pkg/snowflake"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	db, err := postgres.Open(cfg.DatabaseURL, cfg.MaxOpenConns)
	if err != nil {
		log.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := postgres.Migrate(ctx, db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Error("migrate database", "error", err)
		os.Exit(1)
	}

	m := metrics.New()
	ids := snowflake.New()

	registrationSvc, err := registrationservice.New(
		registrationstore.NewQueueStore(db),
		ids,
		registrationservice.WithLogger(log),
		registrationservice.WithMetrics(m),
		registrationservice.WithPageSize(cfg.PageSize),
	)
	if err != nil {
		log.Error("build registration service", "error", err)
		os.Exit(1)
	}

	paymentSvc, err := paymentservice.New(
		paymentstore.NewSettlementStore(db),
		paymentstore.NewFeeStore(db),
		paymentservice.WithLogger(log),
		paymentservice.WithMetrics(m),
		paymentservice.WithPageSize(cfg.PageSize),
	)
	if err != nil {
		log.Error("build payment service", "error", err)
		os.Exit(1)
	}

	adminSvc, err := admin.NewService(admin.NewPostgresCredentialStore(db))
	if err != nil {
		log.Error("build admin service", "error", err)
		os.Exit(1)
	}

	tokens := jwttoken.NewService(cfg.JWTSigningKey, cfg.TokenTTL)
	authSvc, err := auth.NewService(registrationstore.NewResidentStore(db), tokens, auth.WithLogger(log))
	if err != nil {
		log.Error("build auth service", "error", err)
		os.Exit(1)
	}

	var limiter ratelimit.Limiter
	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		limiter = ratelimit.NewRedisLimiter(redisClient.Client, cfg.RegisterRateLimit, cfg.RegisterRateWindow)
	}

	verifier := vnpay.New(cfg.VNPaySecretKey, cfg.VNPayTmnCode)
	router := httptransport.NewRouter(httptransport.Deps{
		Registration:    registrationhandler.New(registrationSvc, log),
		Payment:         paymenthandler.New(paymentSvc, verifier, log, paymenthandler.WithMetrics(m)),
		Login:           auth.NewHandler(authSvc, log),
		AdminAuth:       adminSvc,
		Tokens:          tokens,
		RegisterLimiter: limiter,
		DB:              db,
		Logger:          log,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
