package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/dbpg"
	wbfredis "github.com/wb-go/wbf/redis"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/notification-dispatcher/internal/api/dto"
	"github.com/aliskhannn/notification-dispatcher/internal/api/handlers/notification"
	"github.com/aliskhannn/notification-dispatcher/internal/api/router"
	"github.com/aliskhannn/notification-dispatcher/internal/api/server"
	"github.com/aliskhannn/notification-dispatcher/internal/config"
	"github.com/aliskhannn/notification-dispatcher/internal/model"
	"github.com/aliskhannn/notification-dispatcher/internal/provider"
	notifmsg "github.com/aliskhannn/notification-dispatcher/internal/rabbitmq/handlers/notification"
	"github.com/aliskhannn/notification-dispatcher/internal/rabbitmq/queue"
	notifrepo "github.com/aliskhannn/notification-dispatcher/internal/repository/notification"
	notifsvc "github.com/aliskhannn/notification-dispatcher/internal/service/notification"
	"github.com/aliskhannn/notification-dispatcher/internal/status"
	"github.com/aliskhannn/notification-dispatcher/internal/worker"
	"github.com/aliskhannn/notification-dispatcher/pkg/email"
	"github.com/aliskhannn/notification-dispatcher/pkg/sms"
)

// store is satisfied by both record store adapters.
type store interface {
	CreateNotification(context.Context, model.Notification) (uuid.UUID, error)
	GetNotificationByID(context.Context, uuid.UUID) (model.Notification, error)
	UpdateStatus(context.Context, uuid.UUID, model.StatusUpdate) error
	GetNotificationsByUser(context.Context, string) ([]model.Notification, error)
	Close() error
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	zlog.Init()
	cfg := config.Must()

	// validated by config.Load
	level, _ := cfg.Log.ZerologLevel()
	zerolog.SetGlobalLevel(level)

	conn, err := queue.Connect(cfg.RabbitMQ.URL, cfg.Retry)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to rabbitmq")
	}

	q, err := queue.NewNotificationQueue(conn, cfg.RabbitMQ)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to create notification queue")
	}

	repo, err := openStore(ctx, cfg.Store)
	if err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to record store")
	}

	rdb := wbfredis.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.Database)
	if err := rdb.Ping(ctx).Err(); err != nil {
		zlog.Logger.Fatal().Err(err).Msg("failed to connect to redis")
	}

	var inbox *redis.Client
	if cfg.Providers.Mode == config.ProvidersLive && cfg.Providers.InApp.Enabled {
		inbox = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.Database,
		})
	}

	tracker := status.NewTracker(repo, rdb, cfg.Retry)
	dispatcher := notifmsg.NewDispatcher(tracker, providers(cfg, inbox), q)
	retryHandler := notifmsg.NewRetryHandler(tracker, dispatcher, notifmsg.RetryConfig{
		MaxRetries:     cfg.Pipeline.MaxRetries,
		Interval:       cfg.Pipeline.RetryInterval(),
		AttemptTimeout: cfg.Workers.HandlerTimeout,
	})

	consumers := []*worker.Consumer{
		worker.NewConsumer(q, dispatcher, worker.Options{
			Queue:          cfg.RabbitMQ.DispatchQueue,
			Workers:        cfg.Workers.Dispatch,
			Prefetch:       cfg.Workers.DispatchPrefetch,
			HandlerTimeout: cfg.Workers.HandlerTimeout,
			Retry:          cfg.Retry,
		}),
		worker.NewConsumer(q, retryHandler, worker.Options{
			Queue:          cfg.RabbitMQ.RetryQueue,
			Workers:        cfg.Workers.Retry,
			Prefetch:       cfg.Workers.RetryPrefetch,
			HandlerTimeout: cfg.Workers.HandlerTimeout,
			Retry:          cfg.Retry,
		}),
	}

	// a consumer or the broker connection going away stops the whole process
	fatal := make(chan error, len(consumers)+1)
	abort := func(err error) {
		select {
		case fatal <- err:
		default:
		}
		stop()
	}

	brokerClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if amqpErr, ok := <-brokerClosed; ok {
			zlog.Logger.Error().Err(amqpErr).Msg("rabbitmq connection closed")
			abort(amqpErr)
		}
	}()

	consumeCtx, stopConsumers := context.WithCancel(context.Background())

	var wg sync.WaitGroup
	for _, c := range consumers {
		wg.Add(1)
		go func(c *worker.Consumer) {
			defer wg.Done()
			if err := c.Run(consumeCtx); err != nil {
				zlog.Logger.Error().Err(err).Msg("consumer stopped")
				abort(err)
			}
		}(c)
	}

	service := notifsvc.NewService(repo, q, tracker)
	handler := notification.NewHandler(service, dto.NewValidator())

	s := server.New(cfg.Server.Addr(), router.New(handler))

	go func() {
		zlog.Logger.Info().Str("addr", s.Addr).Msg("starting http server")
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	zlog.Logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	zlog.Logger.Info().Msg("shutting down server")
	if err := s.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to shutdown server")
	}

	stopConsumers()
	wg.Wait()

	if err := retryHandler.Shutdown(shutdownCtx); err != nil {
		zlog.Logger.Error().Err(err).Msg("pending retries did not finish in time")
	}

	if errors.Is(shutdownCtx.Err(), context.DeadlineExceeded) {
		zlog.Logger.Info().Msg("timeout exceeded, forcing shutdown")
	}

	if err := q.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close rabbitmq connection")
	}

	if err := repo.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close record store")
	}

	if err := rdb.Close(); err != nil {
		zlog.Logger.Error().Err(err).Msg("failed to close redis")
	}

	if inbox != nil {
		if err := inbox.Close(); err != nil {
			zlog.Logger.Error().Err(err).Msg("failed to close in-app redis client")
		}
	}

	select {
	case err := <-fatal:
		zlog.Logger.Fatal().Err(err).Msg("notification pipeline stopped")
	default:
	}
}

func openStore(ctx context.Context, cfg config.Store) (store, error) {
	if cfg.IsMongo() {
		repo, err := notifrepo.ConnectMongo(ctx, cfg.URI, cfg.Database)
		if err != nil {
			return nil, err
		}

		if err := repo.EnsureIndexes(ctx); err != nil {
			_ = repo.Close()
			return nil, err
		}

		return repo, nil
	}

	db, err := dbpg.New(cfg.URI, nil, &dbpg.Options{
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}

	repo := notifrepo.NewRepository(db)
	if err := repo.Ping(ctx); err != nil {
		_ = repo.Close()
		return nil, err
	}

	return repo, nil
}

// providers registers a provider for every enabled channel. inbox backs the
// live in-app provider and is nil otherwise.
func providers(cfg *config.Config, inbox *redis.Client) *provider.Registry {
	registry := provider.NewRegistry()

	if cfg.Providers.Mode == config.ProvidersLive {
		p := cfg.Providers

		registry.Register(model.ChannelEmail, provider.NewEmail(
			email.NewClient(p.Email.SMTPHost, p.Email.SMTPPort, p.Email.Username, p.Email.Password, p.Email.From),
		))
		registry.Register(model.ChannelSMS, provider.NewSMS(
			sms.NewClient(p.SMS.GatewayURL, p.SMS.AccountSID, p.SMS.AuthToken, p.SMS.From),
		))
		if inbox != nil {
			registry.Register(model.ChannelInApp, provider.NewInApp(inbox))
		}
	} else {
		registry.Register(model.ChannelEmail, provider.NewSimulatedEmail(cfg.Providers.Email.From))
		registry.Register(model.ChannelSMS, provider.NewSimulatedSMS(cfg.Providers.SMS.From))
		if cfg.Providers.InApp.Enabled {
			registry.Register(model.ChannelInApp, provider.NewSimulatedInApp())
		}
	}

	zlog.Logger.Info().Str("mode", cfg.Providers.Mode).Interface("channels", registry.Channels()).Msg("providers registered")

	return registry
}
