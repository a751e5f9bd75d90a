package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/niksmo/paintstore/config"
	"github.com/niksmo/paintstore/internal/adapter"
	"github.com/niksmo/paintstore/internal/adapter/catalogapi"
	"github.com/niksmo/paintstore/internal/adapter/httphandler"
	"github.com/niksmo/paintstore/internal/adapter/kafka"
	"github.com/niksmo/paintstore/internal/adapter/metrics"
	"github.com/niksmo/paintstore/internal/adapter/storage"
	"github.com/niksmo/paintstore/internal/core/port"
	"github.com/niksmo/paintstore/internal/core/service"
	"github.com/niksmo/paintstore/pkg/schema"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/twmb/franz-go/pkg/sr"
)

type outbound struct {
	slot     CartSlot
	catalog  port.CatalogSource
	producer port.CheckoutEventsProducer
}

type App struct {
	ctx        context.Context
	cfg        config.Config
	registry   *prometheus.Registry
	metrics    *metrics.Metrics
	outbound   outbound
	service    *service.Service
	httpServer httphandler.HTTPServer
}

func New(ctx context.Context, cfg config.Config) *App {
	app := &App{ctx: ctx, cfg: cfg}

	app.initLogger()
	app.initMetrics()
	app.initCartSlot()
	app.initCatalog()
	app.initProducer()
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

// InitLogger installs the JSON logger as the default one.
func InitLogger(level slog.Leveler) {
	opts := &slog.HandlerOptions{Level: level}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initLogger() {
	InitLogger(app.cfg.LogLevel)
}

func (app *App) initMetrics() {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.registry = reg
	app.metrics = metrics.New(reg)
}

func (app *App) initCartSlot() {
	const op = "App.initCartSlot"

	slot, err := NewCartSlot(app.ctx, app.cfg)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.slot = slot
}

func (app *App) initCatalog() {
	const op = "App.initCatalog"

	cl, err := catalogapi.New(
		app.cfg.Catalog.BaseURL,
		catalogapi.TimeoutOpt(app.cfg.Catalog.RequestTimeout),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.catalog = cl
}

func (app *App) initProducer() {
	const op = "App.initProducer"
	log := slog.With("op", op)

	if !app.cfg.BrokerEnabled() {
		log.Info("no seed brokers, checkout events are not published")
		return
	}

	ctx := app.ctx
	broker := app.cfg.Broker

	srClient, err := sr.NewClient(sr.URLs(broker.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}

	serde, err := schema.NewSerdeCheckoutEventV1(
		ctx,
		schema.SubjectOpt(broker.CheckoutTopic+"-value"),
		schema.SchemaIdentifierOpt(schema.NewSchemaCreater(srClient)),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	var tlsCfg *tls.Config
	if app.cfg.BrokerTLSEnabled() {
		tlsCfg, err = adapter.MakeTLSConfig(broker.TLS.CA, broker.TLS.Cert, broker.TLS.Key)
		if err != nil {
			app.fallDown(op, err)
		}
	}

	producer, err := kafka.NewCheckoutProducer(
		kafka.ProducerClientOpt(ctx, broker.SeedBrokers, broker.CheckoutTopic, tlsCfg),
		kafka.ProducerEncoderOpt(serde),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.outbound.producer = producer
}

func (app *App) initCoreService() {
	app.service = service.New(
		ServiceConfig(app.cfg),
		app.outbound.slot,
		app.outbound.catalog,
		app.outbound.producer,
		app.metrics,
	)
}

func (app *App) initInboundAdapters() {
	mux := http.NewServeMux()
	httphandler.RegisterCatalog(mux, app.service)
	httphandler.RegisterCart(mux, app.service, app.service)
	mux.Handle("GET /metrics", metrics.Handler(app.registry))

	handler := httphandler.LogRequests(httphandler.AllowJSON(mux))
	app.httpServer = httphandler.NewHTTPServer(app.cfg.HTTPServerAddr, handler, 0)
}

func (app *App) Run(stopFn context.CancelFunc) {
	go app.httpServer.Run(stopFn)

	slog.Info("application is running")
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.Close()
	app.outbound.slot.Close()

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}

// ServiceConfig maps the loaded config onto the service settings.
func ServiceConfig(cfg config.Config) service.Config {
	return service.Config{
		CartKey:        cfg.Cart.Key,
		StrictQuantity: cfg.Cart.StrictQuantity,
		CatalogTTL:     cfg.Catalog.TTL,
		MaxCarts:       cfg.Cart.MaxCached,
		CartIdleTTL:    cfg.Cart.IdleTTL,
		Checkout: service.CheckoutConfig{
			Domain:       cfg.Checkout.Domain,
			Phone:        cfg.Checkout.Phone,
			Greeting:     cfg.Checkout.Greeting,
			MaxURLLength: cfg.Checkout.MaxURLLength,
		},
	}
}

// A CartSlot is the configured cart backend with the clients it owns.
type CartSlot struct {
	port.CartSlot
	redis *redis.Client
	sqldb *storage.SQLDB
}

// Close releases the backend connections.
func (s CartSlot) Close() {
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			slog.Error("failed to close redis client", "err", err)
		}
	}
	if s.sqldb != nil {
		s.sqldb.Close()
	}
}

// NewCartSlot opens the cart backend selected by cart.backend.
func NewCartSlot(ctx context.Context, cfg config.Config) (CartSlot, error) {
	const op = "app.NewCartSlot"
	log := slog.With("op", op, "backend", cfg.Cart.Backend)

	var s CartSlot
	switch cfg.Cart.Backend {
	case config.CartBackendMemory:
		s.CartSlot = storage.NewMemorySlot()
	case config.CartBackendFile:
		fs, err := storage.NewFileSlot(cfg.Cart.FileDir)
		if err != nil {
			return CartSlot{}, fmt.Errorf("%s: %w", op, err)
		}
		s.CartSlot = fs
	case config.CartBackendRedis:
		cl, err := storage.NewRedisClient(ctx, cfg.Cart.RedisURL)
		if err != nil {
			return CartSlot{}, fmt.Errorf("%s: %w", op, err)
		}
		s.CartSlot = storage.NewRedisSlot(cl, cfg.Cart.RedisTTL)
		s.redis = cl
	case config.CartBackendSQL:
		db, err := storage.NewSQLDB(ctx, cfg.Cart.SQLDB)
		if err != nil {
			return CartSlot{}, fmt.Errorf("%s: %w", op, err)
		}
		s.CartSlot = storage.NewSQLSlot(db)
		s.sqldb = &db
	default:
		return CartSlot{}, fmt.Errorf("%s: unknown backend %q", op, cfg.Cart.Backend)
	}

	log.Info("cart backend is ready")
	return s, nil
}
