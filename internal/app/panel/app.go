// Package panel собирает HTTP API панели реселлера: хранилище, кеш, брокер,
// сервисы и маршруты, и управляет жизненным циклом сервера.
package panel

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/dnscache"
	"github.com/streadway/amqp"
	"google.golang.org/grpc"

	"github.com/magabrotheeeer/reseller-panel/internal/cache"
	"github.com/magabrotheeeer/reseller-panel/internal/config"
	"github.com/magabrotheeeer/reseller-panel/internal/events"
	grpcserver "github.com/magabrotheeeer/reseller-panel/internal/grpc/server"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/jwt"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/reseller-panel/internal/lib/sl"
	"github.com/magabrotheeeer/reseller-panel/internal/metrics"
	"github.com/magabrotheeeer/reseller-panel/internal/migrations"
	"github.com/magabrotheeeer/reseller-panel/internal/provisioning"
	"github.com/magabrotheeeer/reseller-panel/internal/services/account"
	"github.com/magabrotheeeer/reseller-panel/internal/services/client"
	"github.com/magabrotheeeer/reseller-panel/internal/services/ledger"
	"github.com/magabrotheeeer/reseller-panel/internal/services/plan"
	"github.com/magabrotheeeer/reseller-panel/internal/services/server"
	"github.com/magabrotheeeer/reseller-panel/internal/services/snapshot"
	"github.com/magabrotheeeer/reseller-panel/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App — HTTP API панели со всеми зависимостями.
type App struct {
	server   *http.Server
	grpc     *grpc.Server
	grpcAddr string
	logger   *slog.Logger
	db       *repository.Storage
	cache    *cache.Cache
	conn     *amqp.Connection
	ch       *amqp.Channel
	resolver *dnscache.Resolver
	dnsTTL   time.Duration
}

// Services — сервисы, которые обслуживают маршруты.
type Services struct {
	Accounts *account.Service
	Ledger   *ledger.Service
	Plans    *plan.Service
	Servers  *server.Service
	Clients  *client.Service
	Syncer   *snapshot.Syncer
	Tokens   jwt.Maker
	DB       *repository.Storage
}

// New подключает хранилище, применяет миграции, поднимает кеш и брокер
// и собирает роутер.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err := migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	redisCache, err := cache.InitServer(ctx, cfg.Redis)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cache not initialized: %w", err)
	}

	app := &App{
		logger:   logger,
		db:       db,
		cache:    redisCache,
		resolver: &dnscache.Resolver{},
		dnsTTL:   cfg.Provisioning.DNSCacheTTL,
	}

	publisher, err := app.publisher(ctx, cfg)
	if err != nil {
		app.close()
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	httpClient := provisioning.NewHTTPClient(cfg.Provisioning.Timeout, app.resolver)
	provisioner := provisioning.NewClient(httpClient, cfg.Provisioning.Timeout, m)
	tokens := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)

	accounts := account.New(db, tokens, logger, m)
	plans := plan.New(db, logger)
	servers := server.New(db, redisCache, cfg.Cache.ServerTTL, logger)
	clients := client.New(db, servers, provisioner, publisher, logger, m, cfg.Provisioning.RenewExtensionDays)

	svc := Services{
		Accounts: accounts,
		Ledger:   ledger.New(db, logger, m),
		Plans:    plans,
		Servers:  servers,
		Clients:  clients,
		Syncer:   snapshot.New(accounts, servers, plans, clients),
		Tokens:   tokens,
		DB:       db,
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, cfg, svc, reg)

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	if cfg.GRPC.Address != "" {
		app.grpc = grpc.NewServer(grpc.UnaryInterceptor(grpcserver.LoggingInterceptor(logger)))
		grpcserver.Register(app.grpc, grpcserver.NewTokenServer(tokens, accounts, logger))
		app.grpcAddr = cfg.GRPC.Address
	}
	return app, nil
}

// publisher возвращает издателя событий. Без адреса брокера события только логируются.
func (a *App) publisher(ctx context.Context, cfg *config.Config) (client.Publisher, error) {
	if cfg.RabbitMQ.URL == "" {
		a.logger.Warn("rabbitmq url is empty, reconciliation events will only be logged")
		return events.NewLogPublisher(a.logger), nil
	}
	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.MaxRetries, cfg.RabbitMQ.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.PanelQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	a.conn, a.ch = conn, ch
	return events.NewPublisher(ch, a.logger), nil
}

// refreshDNS периодически обновляет кеш резолвера, удаляя неиспользуемые записи.
func (a *App) refreshDNS(ctx context.Context) {
	if a.dnsTTL <= 0 {
		return
	}
	ticker := time.NewTicker(a.dnsTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.resolver.Refresh(true)
		case <-ctx.Done():
			return
		}
	}
}

// serveGRPC запускает сервис проверки токенов, если он настроен.
func (a *App) serveGRPC(errCh chan<- error) error {
	if a.grpc == nil {
		return nil
	}
	lis, err := net.Listen("tcp", a.grpcAddr)
	if err != nil {
		return fmt.Errorf("failed to listen grpc: %w", err)
	}
	go func() {
		a.logger.Info("gRPC server starting", slog.String("address", a.grpcAddr))
		if err := a.grpc.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	return nil
}

// Run запускает HTTP-сервер (и gRPC, если задан адрес) и останавливает их при отмене ctx.
func (a *App) Run(ctx context.Context) error {
	go a.refreshDNS(ctx)

	errCh := make(chan error, 2)
	if err := a.serveGRPC(errCh); err != nil {
		a.close()
		return err
	}
	go func() {
		a.logger.Info("HTTP server starting", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		_ = a.server.Close()
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) close() {
	if a.grpc != nil {
		a.grpc.GracefulStop()
	}
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close RabbitMQ channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close RabbitMQ connection", sl.Err(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("failed to close redis", sl.Err(err))
		}
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
