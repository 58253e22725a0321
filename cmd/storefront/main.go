package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/discount"
	h "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/paypal"
	"github.com/fjod/storefront/internal/repository"
	"github.com/fjod/storefront/internal/repository/mongostore"
	"github.com/fjod/storefront/internal/session"
	"github.com/fjod/storefront/internal/tasks"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Env, cfg.LogLevel)
	log.Info().Str("env", cfg.Env).Msg("storefront starting...")

	ctx := context.Background()

	// Orders, items, tickets and (by default) cart rows
	creds := &repository.Credentials{
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		MigrationsDirPath: cfg.MigrationsPath,
	}
	orders, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer orders.Close()
	if err := orders.RunMigrations(creds); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("database migrations completed")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	log.Info().Str("addr", cfg.RedisAddr).Msg("redis ping succeeded")

	// Catalog
	products, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open catalog")
	}
	defer products.Close()
	if err := products.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run catalog migrations")
	}
	lookup := catalog.NewCachedLookup(products, redisClient, cfg.CatalogCacheTTL)

	var rows repository.CartRowStore = orders
	if cfg.CartRowStore == config.RowStoreMongo {
		mongoDB, err := mongostore.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to MongoDB")
		}
		defer mongoDB.Client().Disconnect(context.Background())
		store := mongostore.NewCartRowStore(mongoDB)
		if err := store.CreateIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create cart indexes")
		}
		rows = store
		log.Info().Str("uri", cfg.MongoURI).Msg("cart rows stored in MongoDB")
	}

	var notifier notify.Sender
	if len(cfg.KafkaBrokers) > 0 {
		sender := notify.NewKafkaSender(notify.NewKafkaWriter(cfg.NotificationTopic, cfg.KafkaBrokers...))
		defer sender.Close()
		notifier = sender
	} else {
		log.Warn().Msg("no kafka brokers configured, order confirmations disabled")
	}

	gateway, err := paypal.NewClient(paypal.Config{
		BaseURL:      cfg.PayPalBaseURL,
		ClientID:     cfg.PayPalClientID,
		ClientSecret: cfg.PayPalClientSecret,
		Timeout:      cfg.PayPalTimeout,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure payment gateway")
	}

	shipping, _ := cfg.ShippingRate()
	rate, _ := cfg.ConversionRate()
	discounts := discount.NewEvaluator(redisClient, shipping)
	runner := tasks.NewRunner(cfg.TaskTimeout)

	service := checkout.NewService(
		checkout.Config{
			Sinpe: checkout.SinpeConfig{
				Phone:           cfg.SinpePhone,
				Banks:           cfg.SinpeBanks,
				MessageTemplate: cfg.SinpeMessageTemplate,
			},
			ConversionRate:  rate,
			GatewayCurrency: cfg.PayPalCurrency,
		},
		orders, rows, discounts, gateway, notifier, runner,
	)

	sessions := session.NewManager(session.NewRedisStore(redisClient, cfg.SessionTTL))
	scope := h.NewSessionScope(sessions, lookup, rows, discounts, cfg.RequestTimeout)

	jwtValidator := h.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer)
	if jwtValidator == nil {
		log.Warn().Msg("JWT_SECRET not set, every visitor is a guest")
	}

	router := h.NewRouter(h.RouterConfig{
		Cart:           h.NewCartHandler(scope, lookup),
		Checkout:       h.NewCheckoutHandler(scope, service),
		PayPal:         h.NewPayPalHandler(scope, service),
		Orders:         h.NewOrdersHandler(orders),
		JWT:            jwtValidator,
		PaymentLimiter: h.NewRateLimiter(cfg.PaymentRateLimit, cfg.PaymentRateBurst),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// gRPC health and reflection for probes
	lis, err := net.Listen("tcp", fmt.Sprintf(":%s", cfg.GRPCPort))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to listen")
	}
	grpcServer := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	go watchDependencies(watchCtx, healthServer, 15*time.Second,
		orders.Ping,
		func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	)

	go func() {
		log.Info().Str("port", cfg.GRPCPort).Msg("gRPC health server listening")
		if err := grpcServer.Serve(lis); err != nil {
			log.Fatal().Err(err).Msg("failed to serve")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down storefront...")
	stopWatch()
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	if err := runner.Drain(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("background tasks did not finish")
	}
	grpcServer.GracefulStop()

	log.Info().Msg("storefront stopped")
}

// watchDependencies flips the gRPC health status when a backing store stops answering.
func watchDependencies(ctx context.Context, hs *health.Server, every time.Duration, checks ...func(context.Context) error) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		status := healthpb.HealthCheckResponse_SERVING
		for _, check := range checks {
			checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			err := check(checkCtx)
			cancel()
			if err != nil {
				log.Warn().Err(err).Msg("dependency check failed")
				status = healthpb.HealthCheckResponse_NOT_SERVING
				break
			}
		}
		hs.SetServingStatus("", status)
	}
}
