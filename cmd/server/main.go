package main // Entry point package

import (
	"context"
	"errors"
	"log" // used only until the structured logger exists
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"    // loads .env for local runs
	"github.com/labstack/echo/v4" // Echo web framework
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/sportfield-booking/internal/apiclient"
	"github.com/iliyamo/sportfield-booking/internal/availability"
	"github.com/iliyamo/sportfield-booking/internal/config" // Internal config loader
	"github.com/iliyamo/sportfield-booking/internal/database"
	"github.com/iliyamo/sportfield-booking/internal/handler"
	"github.com/iliyamo/sportfield-booking/internal/middleware"
	"github.com/iliyamo/sportfield-booking/internal/queue"
	"github.com/iliyamo/sportfield-booking/internal/realtime"
	"github.com/iliyamo/sportfield-booking/internal/reconciler"
	"github.com/iliyamo/sportfield-booking/internal/repository"
	"github.com/iliyamo/sportfield-booking/internal/router" // Internal router setup
	"github.com/iliyamo/sportfield-booking/internal/service"
	"github.com/iliyamo/sportfield-booking/internal/timegrid"
	"github.com/iliyamo/sportfield-booking/internal/utils"
)

func main() {
	_ = godotenv.Load()  // a missing .env is fine outside development
	cfg := config.Load() // Load environment config

	logger, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	catalog, err := timegrid.NewCatalog(cfg.CatalogFirstHour, cfg.CatalogLastHour)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, database.DefaultPool)
	if err != nil {
		return err
	}
	defer db.Close()
	branches := repository.NewBranchRepo(db)
	fields := repository.NewFieldRepo(db)

	rdb := config.NewRedisClient(logger) // nil when Redis is down
	if rdb != nil {
		defer rdb.Close()
	}

	api, err := apiclient.New(cfg.APIBaseURL, cfg.APIToken, cfg.APITimeout, logger)
	if err != nil {
		return err
	}
	if cfg.APIToken == "" {
		api.UseTokenSource(utils.NewServiceTokens(cfg.JWTSecret, cfg.ServiceSubject, middleware.RoleSuperAdmin, 15*time.Minute))
	}
	loader := availability.NewLoader(availability.NewBuilder(catalog, loc), api, api, logger)

	var (
		channel   realtime.Channel
		responder *realtime.Responder
	)
	if rdb != nil {
		channel = realtime.NewRedisChannel(rdb, logger)
		responder = realtime.NewResponder(rdb, api, cfg.PushDedupe, logger)
	}

	bookings := service.NewBookingService(api, service.NewAMQPPublisher(cfg.RabbitURL, logger), logger)
	views := reconciler.NewRegistry(reconciler.Deps{
		Catalog:   catalog,
		Fields:    fields,
		Loader:    loader,
		Channel:   channel,
		Submitter: bookings,
		Logger:    logger,
	}, reconciler.Config{
		PollInterval:  cfg.PollInterval,
		PullTimeout:   cfg.APITimeout,
		NightFromHour: cfg.NightFromHour,
	}, cfg.IdleTTL)

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	router.RegisterRoutes(e, router.Handlers{
		Ready:  &handler.ReadyHandler{DB: db, Redis: rdb},
		Fields: handler.NewFieldHandler(fields, branches),
		Views:  handler.NewViewHandler(views, logger),
	}, router.Middlewares{
		Cache:     middleware.NewRedisCache(config.LoadCacheConfig(), rdb, logger),
		RateLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
	}, cfg.JWTSecret)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port // Address string with port
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return views.Run(ctx) })
	if responder != nil {
		g.Go(func() error {
			if err := responder.Run(ctx); err != nil {
				logger.Error("update responder stopped", zap.Error(err))
			}
			return nil
		})
	}
	g.Go(func() error {
		if err := queue.StartBookingConsumer(ctx, cfg.RabbitURL, cfg.BookingLogDir, logger); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("booking consumer stopped", zap.Error(err))
		}
		return nil
	})
	return g.Wait()
}
