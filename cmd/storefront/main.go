package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"storefront/handlers"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/consul"
	"storefront/internal/coupons"
	"storefront/internal/orders"
	"storefront/internal/stores/kafka"
	"storefront/internal/stores/postgres"
	"storefront/pkg/logkey"
	"strconv"
	"syscall"
	"time"
)

func main() {
	setupSlog()
	if err := startApp(); err != nil {
		slog.Error("application stopped", slog.String(logkey.ERROR, err.Error()))
		os.Exit(1)
	}
}

func startApp() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()

	slog.Info("connecting to database")
	db, err := postgres.OpenDB(ctx, cfg.DB.DSN())
	if err != nil {
		return err
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		return err
	}

	cartConf, err := cart.NewConf(db)
	if err != nil {
		return err
	}
	catalogConf, err := catalog.NewConf(db)
	if err != nil {
		return err
	}
	couponConf, err := coupons.NewConf(db)
	if err != nil {
		return err
	}
	orderConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}

	// A nil interface, not a nil *kafka.Conf, keeps publishing disabled.
	var publisher checkout.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaConf, err := kafka.NewConf(cfg.KafkaBrokers)
		if err != nil {
			return err
		}
		defer kafkaConf.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err = kafkaConf.Ping(pingCtx)
		cancel()
		if err != nil {
			return err
		}
		publisher = kafkaConf
	} else {
		slog.Warn("KAFKA_BROKERS not set, order events are disabled")
	}

	store, err := checkout.NewSQLStore(db)
	if err != nil {
		return err
	}
	svc, err := checkout.NewService(store, publisher)
	if err != nil {
		return err
	}

	keys, err := auth.NewKeys([]byte(cfg.JWTSecret))
	if err != nil {
		return err
	}
	router, err := handlers.API(cfg.EndpointPrefix, cfg.GinMode, keys, handlers.Confs{
		Checkout: svc,
		Cart:     cartConf,
		Catalog:  catalogConf,
		Coupons:  couponConf,
		Orders:   orderConf,
		Events:   publisher,
	})
	if err != nil {
		return err
	}

	api := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  8 * time.Second,
		WriteTimeout: 800 * time.Second,
		IdleTimeout:  800 * time.Second,
	}

	grpcServer, healthServer := handlers.NewGRPCServer(cartConf)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		return fmt.Errorf("failed to listen on grpc port: %w", err)
	}

	serverErrors := make(chan error, 2)
	go func() {
		slog.Info("api listening", slog.String("Addr", api.Addr))
		serverErrors <- api.ListenAndServe()
	}()
	go func() {
		slog.Info("grpc listening", slog.String("Addr", lis.Addr().String()))
		serverErrors <- grpcServer.Serve(lis)
	}()

	if cfg.ConsulAddress != "" {
		deregister, err := registerWithConsul(cfg)
		if err != nil {
			return err
		}
		defer deregister()
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info("shutdown started", slog.String("Signal", sig.String()))
		healthServer.Shutdown()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		grpcServer.GracefulStop()
		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		slog.Info("shutdown complete")
	}
	return nil
}

func registerWithConsul(cfg config.Config) (func(), error) {
	httpPort, err := strconv.Atoi(cfg.HTTPPort)
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_PORT: %w", err)
	}
	grpcPort, err := strconv.Atoi(cfg.GRPCPort)
	if err != nil {
		return nil, fmt.Errorf("invalid GRPC_PORT: %w", err)
	}
	client, err := consul.NewClient(cfg.ConsulAddress)
	if err != nil {
		return nil, err
	}
	reg := consul.Registration{
		Name:     cfg.ServiceName,
		Host:     cfg.ServiceHost,
		HTTPPort: httpPort,
		GRPCPort: grpcPort,
	}
	if err := consul.RegisterService(client, reg); err != nil {
		return nil, err
	}
	slog.Info("registered with consul", slog.String("ID", reg.ServiceID()))
	return func() {
		if err := consul.DeregisterService(client, reg); err != nil {
			slog.Error("consul deregistration failed", slog.String(logkey.ERROR, err.Error()))
		}
	}, nil
}

func setupSlog() {
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	})
	slog.SetDefault(slog.New(logHandler))
}
