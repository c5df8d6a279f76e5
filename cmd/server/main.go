package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cozycakey/internal/api"
	"cozycakey/internal/config"
	"cozycakey/internal/entities"
	"cozycakey/internal/middleware"
	"cozycakey/internal/repository"
	"cozycakey/internal/service"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})).
		With("service", "cozycakey")
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open DB", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to DB", "err", err)
		os.Exit(1)
	}

	orderRepo := repository.NewOrderRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	jobRepo := repository.NewJobRepository(db)

	policies := service.Policies{
		Base: cfg.Policy,
		AdvanceDays: map[entities.OrderType]int{
			entities.OrderTypeDesign:   cfg.DesignAdvanceDays,
			entities.OrderTypeCatering: cfg.CateringAdvanceDays,
		},
	}
	notifier, err := service.NewNotifyService(service.NotifyConfig{
		BakeryName:       cfg.BakeryName,
		Location:         cfg.Policy.Location,
		SendGridAPIKey:   cfg.SendGridAPIKey,
		FromEmail:        cfg.SendGridFromEmail,
		FromName:         cfg.SendGridFromName,
		BakeryEmail:      cfg.BakeryEmail,
		TwilioAccountSID: cfg.TwilioAccountSID,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		TwilioFromNumber: cfg.TwilioFromNumber,
		OwnerPhone:       cfg.OwnerPhone,
		VenmoHandle:      cfg.VenmoHandle,
		ZelleRecipient:   cfg.ZelleRecipient,
	})
	if err != nil {
		logger.Error("failed to load email template", "err", err)
		os.Exit(1)
	}

	availabilitySvc := service.NewAvailabilityService(orderRepo, policies, cfg.CountQueryTimeout)
	orderSvc := service.NewOrderService(orderRepo, availabilitySvc, notifier)
	adminSvc := service.NewAdminService(adminRepo, orderRepo, cfg.Policy.MaxOrdersPerDay)
	adminAuthSvc := service.NewAdminAuthService(cfg.AdminPasswordHash, cfg.JWTSecret)
	jobSvc := service.NewJobService(jobRepo, cfg.Policy.Location)

	if cfg.AdminPasswordHash == "" || cfg.JWTSecret == "" {
		logger.Warn("ADMIN_PASSWORD_HASH or JWT_SECRET not set, admin login disabled")
	}

	var throttle mux.MiddlewareFunc
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Error("invalid REDIS_URL", "err", err)
			os.Exit(1)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		throttle = middleware.NewRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "cozycakey:rl").
			TrustProxies(cfg.TrustedProxies).
			Middleware
	} else {
		logger.Warn("REDIS_URL not set, rate limiting disabled")
	}

	r := api.NewRouter(api.Routes{
		User:      api.NewUserHandler(availabilitySvc, orderSvc),
		Admin:     api.NewAdminHandler(adminSvc),
		AdminAuth: api.NewAdminAuthHandler(adminAuthSvc, cfg.CookieSecure),
		Sessions:  adminAuthSvc,
		DB:        orderRepo,
		Throttle:  throttle,
	})

	c := cron.New(cron.WithLocation(cfg.Policy.Location))
	_, err = c.AddFunc(cfg.HousekeepingSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		if err := jobSvc.CompletePastOrders(ctx); err != nil {
			logger.Error("housekeeping failed", "err", err)
		}
	})
	if err != nil {
		logger.Error("invalid HOUSEKEEPING_SCHEDULE", "err", err)
		os.Exit(1)
	}
	c.Start()

	cors := handlers.CORS(
		handlers.AllowedOrigins(cfg.CORSOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization", middleware.RequestIDHeader}),
		handlers.AllowCredentials(),
	)
	var h http.Handler = r
	h = cors(h)
	h = middleware.AccessLog(logger)(h)
	h = middleware.RequestID(h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("server running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	<-c.Stop().Done()
	notifier.Wait()
}
