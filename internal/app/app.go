package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/RoGogDBD/closet/docs"
	"github.com/RoGogDBD/closet/internal/config"
	"github.com/RoGogDBD/closet/internal/config/db"
	"github.com/RoGogDBD/closet/internal/handlers"
	"github.com/RoGogDBD/closet/internal/kafka"
	"github.com/RoGogDBD/closet/internal/repository"
	"github.com/RoGogDBD/closet/internal/service"
	"github.com/RoGogDBD/closet/internal/telemetry"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/securecookie"
	"github.com/jackc/pgx/v5/pgxpool"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// App содержит все зависимости приложения
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DBPool    *pgxpool.Pool
	Store     repository.Store
	Cache     *repository.MemCache
	Inventory *service.Inventory
	Accounts  *service.Accounts
	Telemetry *telemetry.Providers

	consumer *kafka.Consumer
	server   *http.Server
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewApp создает новое приложение.
func NewApp(cfg *config.Config, logger *zap.Logger) *App {
	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config: cfg,
		Logger: logger,
		Cache:  repository.NewMemCacheWithConfig(cfg.Cache.MaxItems, cfg.Cache.TTL),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Init выполняет инициализацию зависимостей приложения.
func (a *App) Init() error {
	providers, err := telemetry.Init(a.ctx, a.Config.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	a.Telemetry = providers

	a.Logger.Info("initialized category cache",
		zap.Int("max_items", a.Config.Cache.MaxItems),
		zap.Duration("ttl", a.Config.Cache.TTL),
	)
	a.Cache.StartJanitor(a.ctx, a.Config.Cache.CleanupInterval)

	if err := a.initStore(a.ctx); err != nil {
		return err
	}

	a.Inventory = service.NewInventory(a.Store, a.Cache, a.Logger.Named("inventory"))
	a.Accounts = service.NewAccounts(a.Store)

	if len(a.Config.Kafka.Brokers) > 0 && a.Config.Kafka.Topic != "" {
		a.consumer = kafka.NewConsumer(a.Config.Kafka, a.Inventory, a.Logger.Named("intake"))
		a.Logger.Info("intake consumer configured",
			zap.Strings("brokers", a.Config.Kafka.Brokers),
			zap.String("topic", a.Config.Kafka.Topic),
			zap.String("dlq_topic", a.Config.Kafka.DLQTopic),
		)
	} else {
		a.Logger.Info("no kafka brokers configured, intake consumer disabled")
	}

	router, err := a.Router()
	if err != nil {
		return err
	}
	a.server = &http.Server{
		Addr:         a.Config.Server.Address(),
		Handler:      otelhttp.NewHandler(router, a.Config.Telemetry.ServiceName),
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
	return nil
}

// initStore подключает PostgreSQL или, без DSN, хранилище в памяти.
func (a *App) initStore(ctx context.Context) error {
	if a.Config.Database.DSN == "" {
		a.Logger.Warn("no DSN provided, using in-memory storage")
		a.Store = repository.NewMemoryStorage()
		return nil
	}

	pool, err := db.NewPool(ctx, a.Config.Database, a.Logger.Named("db"))
	if err != nil {
		return err
	}
	a.DBPool = pool
	a.Store = repository.NewPostgresStorage(pool)
	a.Logger.Info("database initialized")
	return nil
}

// Router собирает HTTP-маршруты приложения.
func (a *App) Router() (chi.Router, error) {
	key := []byte(a.Config.Auth.SessionKey)
	if len(key) == 0 {
		if a.Config.Auth.Enabled {
			return nil, errors.New("auth.session_key is required when auth is enabled")
		}
		key = securecookie.GenerateRandomKey(32)
	}
	sessions := handlers.NewSessions(handlers.SessionOptions{
		Enabled:    a.Config.Auth.Enabled,
		Key:        key,
		CookieName: a.Config.Auth.CookieName,
		MaxAge:     a.Config.Auth.MaxAge,
		Secure:     a.Config.Auth.SecureCookie,
	}, a.Accounts, a.Logger.Named("auth"))

	r := chi.NewRouter()
	config.SetupMiddlewares(r, a.Config, a.Logger.Named("http"))
	r.Use(a.Telemetry.Middleware)

	r.Get("/healthz", handlers.HealthHandler)
	if pinger, ok := a.Store.(handlers.Pinger); ok {
		r.Get("/readyz", handlers.ReadyHandler(pinger))
	}
	if a.Telemetry != nil && a.Telemetry.MetricsHandler != nil {
		r.Handle(a.Config.Telemetry.MetricsPath, a.Telemetry.MetricsHandler)
	}

	if host := a.Config.Server.SwaggerHost(); host != "" {
		docs.SwaggerInfo.Host = host
	}
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	sessions.Routes(r)
	handlers.NewHandler(a.Inventory, a.Logger.Named("api")).
		WithMaxUpload(a.Config.Server.MaxUploadSize).
		Routes(r, sessions.Require)
	return r, nil
}

// Run запускает consumer и HTTP-сервер. Возвращается после остановки сервера.
func (a *App) Run() error {
	if a.consumer != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			if err := a.consumer.Run(a.ctx); err != nil {
				a.Logger.Error("intake consumer stopped", zap.Error(err))
			}
		}()
	}

	a.Logger.Info("starting HTTP server", zap.String("addr", a.server.Addr))
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown останавливает сервер и освобождает ресурсы приложения.
func (a *App) Shutdown(ctx context.Context) error {
	a.Logger.Info("shutting down application")

	var joined error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			joined = errors.Join(joined, fmt.Errorf("http shutdown: %w", err))
		}
	}

	// Отменяем контекст (остановит Kafka consumer и janitor кеша)
	a.cancel()
	a.wg.Wait()

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			joined = errors.Join(joined, fmt.Errorf("kafka close: %w", err))
		}
	}
	if a.DBPool != nil {
		a.DBPool.Close()
		a.Logger.Info("database connection closed")
	}
	if err := a.Telemetry.Shutdown(ctx); err != nil {
		joined = errors.Join(joined, fmt.Errorf("telemetry shutdown: %w", err))
	}

	a.Logger.Info("application shutdown complete")
	return joined
}
