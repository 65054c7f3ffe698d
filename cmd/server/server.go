package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ardanlabs/conf/v3"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/wepink/cart-service/api"
	"github.com/wepink/cart-service/api/background"
	"github.com/wepink/cart-service/backend"
	"github.com/wepink/cart-service/config"
	"github.com/wepink/cart-service/core/cart"
	"github.com/wepink/cart-service/core/coupon"
	"github.com/wepink/cart-service/core/session"
	"github.com/wepink/cart-service/core/settings"
	"github.com/wepink/cart-service/database"
	"github.com/wepink/cart-service/poll"
	"github.com/wepink/cart-service/rate"
	"github.com/wepink/cart-service/snapshot"
	"github.com/wepink/cart-service/tracking"
)

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "WEPINK"
	var cfg config.Config
	if _, err := conf.Parse(prefix, &cfg); err != nil {
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	client := backend.New(cfg.Backend.URL, cfg.Backend.RequestTimeout)

	snaps, err := openSnapshots(cfg)
	if err != nil {
		return fmt.Errorf("opening snapshot store: %w", err)
	}

	fallback, err := decimal.NewFromString(cfg.Cart.MinimumOrderFallback)
	if err != nil {
		return fmt.Errorf("parsing minimum order fallback: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Backend.RequestTimeout)
	minimum := settings.Resolve(ctx, client, fallback, logger)
	cancel()

	var refresh *poll.Task
	if cfg.Cart.SettingsRefresh > 0 {
		refresh = poll.NewTask(cfg.Cart.SettingsRefresh, func(ctx context.Context, g *poll.Gate) {
			v, ok, err := client.MinimumOrder(ctx)
			if err != nil || !ok {
				if err != nil {
					logger.Warnf("refreshing minimum order value: %v", err)
				}
				return
			}
			g.Apply(func() { minimum.Set(v) })
		})
		refresh.Start()
		defer refresh.Stop()
	}

	bg := background.New(logger)
	notifier := tracking.NewBackend(client, bg, cfg.Backend.RequestTimeout, logger)

	carts := cart.NewManager(cart.ManagerConfig{
		Minimum:  minimum,
		Snaps:    snaps,
		Notifier: notifier,
		Log:      logger,
	})

	sessionManager := session.NewManager(cfg.Session.Lifetime)

	limiter := rate.NewLimiter(cfg.Rate.Burst, cfg.Rate.ExpiryMn, rate.Every(cfg.Rate.Every))

	mux := api.APIMux(api.APIConfig{
		CorsOrigin:    cfg.Cors.Origin,
		Log:           logger,
		Session:       sessionManager,
		Carts:         carts,
		Coupons:       coupon.NewRegistry(),
		Backend:       client,
		CouponLimiter: limiter,
	})

	srv := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			srv.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}

func openSnapshots(cfg config.Config) (cart.Snapshots, error) {
	switch cfg.Snapshot.Driver {
	case "memory":
		return snapshot.NewMemory(), nil

	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return snapshot.NewRedis(rdb, cfg.Redis.TTL), nil

	case "postgres":
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to open db connection: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		return snapshot.NewPostgres(db), nil
	}

	return nil, fmt.Errorf("unknown snapshot driver %q", cfg.Snapshot.Driver)
}
