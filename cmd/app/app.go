package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/terrainbook/booking-api/internal/abuse"
	"github.com/terrainbook/booking-api/internal/api"
	v1 "github.com/terrainbook/booking-api/internal/api/handler/v1"
	"github.com/terrainbook/booking-api/internal/availability"
	"github.com/terrainbook/booking-api/internal/config"
	"github.com/terrainbook/booking-api/internal/db"
	"github.com/terrainbook/booking-api/internal/logger"
	"github.com/terrainbook/booking-api/internal/notify"
)

const (
	configPath      = "./cmd/app/config.yml"
	shutdownTimeout = 10 * time.Second
)

func Start() error {
	conf, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to initialize config -> %w", err)
	}

	if err = logger.Init(conf.API.Environment); err != nil {
		return fmt.Errorf("failed to initialize logger -> %w", err)
	}
	defer func() { _ = zap.L().Sync() }()

	dbURL := os.Getenv("DATABASE_URL")
	var postgresDB *gorm.DB
	if dbURL != "" {
		postgresDB, err = db.OpenPostgresWithURL(dbURL)
	} else {
		postgresDB, err = db.OpenPostgres(conf.Postgres)
	}
	if err != nil {
		return fmt.Errorf("failed to initialize database -> %w", err)
	}

	loc, err := conf.Booking.Location()
	if err != nil {
		return fmt.Errorf("failed to load timezone -> %w", err)
	}

	policy, err := policyFromConfig(conf.Booking)
	if err != nil {
		return fmt.Errorf("failed to build booking policy -> %w", err)
	}
	policies := availability.NewPolicyStore(policy)

	if err = config.Watch(configPath, func(bc *config.BookingConfig) {
		p, err := policyFromConfig(bc)
		if err != nil {
			zap.L().Error("ignoring invalid booking policy", zap.Error(err))
			return
		}
		policies.Store(p)
	}); err != nil {
		zap.L().Warn("booking policy hot reload disabled", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var limiter abuse.Limiter
	if conf.Redis.Addr != "" {
		rl := abuse.NewRedisLimiter(
			abuse.NewRedisClient(conf.Redis.Addr, conf.Redis.Password, conf.Redis.DB),
			conf.Redis.ReservationLimit,
			conf.Redis.ReservationWindow,
		)
		if err = rl.Ping(ctx); err != nil {
			// the limiter fails open, so a late redis is tolerated
			zap.L().Warn("redis unreachable at startup", zap.String("addr", conf.Redis.Addr), zap.Error(err))
		}
		limiter = rl
	}

	hub := v1.NewLiveHub()
	sinks := []notify.Sink{hub}

	if conf.AMQP.URL != "" {
		publisher, err := notify.NewAMQPPublisher(conf.AMQP.URL, conf.AMQP.Exchange, "http://"+conf.API.BaseURL)
		if err != nil {
			return fmt.Errorf("failed to initialize amqp publisher -> %w", err)
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	if conf.Telegram.Token != "" {
		bot, err := notify.NewTelegramBot(conf.Telegram.Token)
		if err != nil {
			return fmt.Errorf("failed to initialize telegram bot -> %w", err)
		}
		sinks = append(sinks, notify.NewTelegramNotifier(bot, conf.Telegram.ChatID))
	}

	dispatcher := notify.NewDispatcher(0, sinks...)
	defer dispatcher.Wait()

	s := api.NewServer(conf, api.Deps{
		DB:       postgresDB,
		Location: loc,
		Policy:   policies,
		Limiter:  limiter,
		Notifier: dispatcher,
		Live:     hub,
	})

	if err = s.Auth.EnsureAdmin(ctx, conf.API.BootstrapAdminEmail, conf.API.BootstrapAdminPassword); err != nil {
		return fmt.Errorf("failed to bootstrap admin -> %w", err)
	}

	srv := &http.Server{
		Addr:              ":" + s.Config.API.Port,
		Handler:           s.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info(fmt.Sprintf("starting server at %v", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start the server -> %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return hub.Run(gctx)
	})

	g.Go(func() error {
		sweep(gctx, s, conf.Booking.SweepInterval)
		return nil
	})

	return g.Wait()
}

// sweep persists lazy expiry on a ticker so listings and the database agree.
func sweep(ctx context.Context, s *api.Server, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.Reservations.SweepExpired(ctx); err != nil {
				zap.L().Error("reservation sweep failed", zap.Error(err))
			} else if n > 0 {
				zap.L().Info("expired pending reservations", zap.Int("count", n))
			}

			if n, err := s.Subscriptions.SweepExpired(ctx); err != nil {
				zap.L().Error("subscription sweep failed", zap.Error(err))
			} else if n > 0 {
				zap.L().Info("expired subscriptions", zap.Int("count", n))
			}
		}
	}
}
