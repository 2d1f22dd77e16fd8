// Package insightaggregator собирает сервис из частей: хранилище,
// кеш, брокер событий, доменные сервисы и HTTP-сервер.
package insightaggregator

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/insight-aggregator/internal/cache"
	"github.com/magabrotheeeer/insight-aggregator/internal/config"
	"github.com/magabrotheeeer/insight-aggregator/internal/identity"
	libjwt "github.com/magabrotheeeer/insight-aggregator/internal/lib/jwt"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/insight-aggregator/internal/lib/sl"
	"github.com/magabrotheeeer/insight-aggregator/internal/migrations"
	"github.com/magabrotheeeer/insight-aggregator/internal/paymentprovider"
	"github.com/magabrotheeeer/insight-aggregator/internal/producers"
	"github.com/magabrotheeeer/insight-aggregator/internal/report"
	"github.com/magabrotheeeer/insight-aggregator/internal/session"
	"github.com/magabrotheeeer/insight-aggregator/internal/storage/repository"
	"github.com/magabrotheeeer/insight-aggregator/internal/wizard"
)

type App struct {
	server     *http.Server
	logger     *slog.Logger
	db         *repository.Storage
	cache      *cache.Cache
	rabbitConn *amqp.Connection
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, "./migrations"); err != nil {
		return nil, err
	}
	if err = repository.CheckDatabaseReady(db); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}

	// Брокер событий необязателен: без него публикация событий молча
	// пропускается, остальной сервис работает как обычно.
	var rabbitConn *amqp.Connection
	var publisher *rabbitmq.Publisher
	rabbitConn, err = rabbitmq.Connect(cfg.RabbitConnectionString, 3, 2*time.Second)
	if err != nil {
		logger.Warn("rabbitmq unavailable, events will not be published", sl.Err(err))
	} else {
		ch, err := rabbitmq.SetupChannel(rabbitConn, rabbitmq.GetEventQueues())
		if err != nil {
			return nil, err
		}
		publisher = rabbitmq.NewPublisher(ch)
	}

	store := session.NewStore(db, cacheRedis, logger)
	wizardManager := wizard.NewManager(logger)
	registry := producers.NewDefaultRegistry(
		producers.NewClient(cfg.Producer.ProducerURL, cfg.Producer.ProducerAPIKey))
	orchestrator := report.NewOrchestrator(registry, store, publisher, logger)
	transitions := session.NewTransitions(store, wizardManager, orchestrator, publisher, logger)
	identityService := identity.NewService(db, logger)
	maker := libjwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)
	providerClient := paymentprovider.NewClient(cfg.PaymentGateway.ShopID, cfg.PaymentGateway.SecretKey)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Store:          store,
		Transitions:    transitions,
		Wizard:         wizardManager,
		Orchestrator:   orchestrator,
		Identity:       identityService,
		Maker:          maker,
		ProviderClient: providerClient,
		WebhookSecret:  cfg.WebhookSecret,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:     srv,
		logger:     logger,
		db:         db,
		cache:      cacheRedis,
		rabbitConn: rabbitConn,
	}, nil
}

func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.db.DB.Close()
		if a.rabbitConn != nil {
			a.rabbitConn.Close()
		}
		return err
	}
}
