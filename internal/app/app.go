// Package app wires stores, services and the HTTP router from configuration.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/cart"
	"github.com/fjod/storefront/internal/catalog"
	"github.com/fjod/storefront/internal/checkout"
	"github.com/fjod/storefront/internal/config"
	httpapi "github.com/fjod/storefront/internal/http"
	"github.com/fjod/storefront/internal/ledger"
	"github.com/fjod/storefront/internal/lock"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/orders"
	"github.com/fjod/storefront/internal/outbox"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/store/memory"
	"github.com/fjod/storefront/internal/store/mongostore"
	"github.com/fjod/storefront/internal/users"
	"github.com/fjod/storefront/internal/wishlist"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
)

type indexer interface {
	CreateIndexes(ctx context.Context) error
}

// Repos is the set of stores the services run on, either all Mongo/Postgres or all in memory.
type Repos struct {
	Tx       checkout.Transactor
	Catalog  catalog.Repository
	Carts    cart.Repository
	Wishlist wishlist.Repository
	Orders   orders.Repository
	Users    users.Repository
	Outbox   outbox.Repository
	Ledger   ledger.Repository

	sqlDB    *sql.DB
	indexers []indexer
	checks   map[string]httpapi.HealthCheck
	closers  []func(ctx context.Context) error
}

// OpenRepos connects the configured store driver. Migrations are not run here.
func OpenRepos(ctx context.Context, cfg *config.Config) (*Repos, error) {
	if cfg.Store.Driver == "memory" {
		st := memory.NewStore()
		slog.Warn("using in-memory store, data is lost on exit")
		return &Repos{
			Tx: st, Catalog: st, Carts: st, Wishlist: st, Orders: st, Users: st, Outbox: st, Ledger: st,
			checks: map[string]httpapi.HealthCheck{},
		}, nil
	}

	db, err := mongostore.ConnectMongoDB(ctx, cfg.Mongo.URI, cfg.Mongo.DBName)
	if err != nil {
		return nil, err
	}
	r := &Repos{
		Tx:       mongostore.NewTransactor(db),
		Catalog:  catalog.NewMongoRepository(db),
		Carts:    cart.NewMongoRepository(db),
		Wishlist: wishlist.NewMongoRepository(db),
		Orders:   orders.NewMongoRepository(db),
		Users:    users.NewMongoRepository(db),
		Outbox:   outbox.NewMongoRepository(db),
		checks: map[string]httpapi.HealthCheck{
			"mongo": func(ctx context.Context) error { return db.Client().Ping(ctx, nil) },
		},
	}
	r.closers = append(r.closers, func(ctx context.Context) error { return db.Client().Disconnect(ctx) })
	for _, repo := range []any{r.Catalog, r.Carts, r.Wishlist, r.Orders, r.Users, r.Outbox} {
		if ix, ok := repo.(indexer); ok {
			r.indexers = append(r.indexers, ix)
		}
	}

	sqlDB, err := ledger.Open(ctx, cfg.DB)
	if err != nil {
		r.Close(ctx)
		return nil, err
	}
	pg := ledger.NewPostgresRepository(sqlDB)
	r.sqlDB = sqlDB
	r.Ledger = pg
	r.checks["postgres"] = pg.Ping
	r.closers = append(r.closers, func(context.Context) error { return sqlDB.Close() })
	return r, nil
}

// Migrate applies ledger migrations and document store indexes.
func (r *Repos) Migrate(ctx context.Context, cfg *config.Config) error {
	if r.sqlDB != nil {
		if err := ledger.RunMigrations(r.sqlDB, cfg.DB.MigrationsPath); err != nil {
			return err
		}
	}
	for _, ix := range r.indexers {
		if err := ix.CreateIndexes(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repos) Close(ctx context.Context) {
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](ctx); err != nil {
			slog.Warn("failed to close store", "error", err)
		}
	}
}

// App is a fully wired server.
type App struct {
	Handler   http.Handler
	Poller    *outbox.Poller
	Limiter   *httpapi.RateLimiter
	Auth      *httpapi.Authenticator
	Repos     *Repos
	publisher outbox.Publisher
	redis     *redis.Client
}

func New(ctx context.Context, cfg *config.Config, repos *Repos) (*App, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a := &App{Repos: repos}

	var (
		locker lock.Locker = lock.NewKeyedMutex()
		cache  cart.Cache  = cart.NopCache{}
	)
	if cfg.Store.Driver == "mongo" {
		a.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := a.redis.Ping(ctx).Err(); err != nil {
			a.redis.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		locker = lock.NewRedisLocker(a.redis, cfg.Checkout.LockTTL)
		cache = cart.NewRedisCache(a.redis)
		repos.checks["redis"] = func(ctx context.Context) error { return a.redis.Ping(ctx).Err() }
	}

	if cfg.Kafka.Enabled() {
		a.publisher = outbox.NewKafkaPublisher(cfg.Kafka.Topic, cfg.Kafka.Brokers...)
	} else {
		a.publisher = outbox.LogPublisher{}
	}

	gw := payment.NewRazorpay(cfg.Razorpay)

	catalogSvc := catalog.NewService(repos.Catalog)
	carts := cart.NewService(repos.Carts, repos.Catalog, cache, locker)
	ordersSvc := orders.NewService(repos.Orders)

	stores := checkout.Stores{
		Tx:      repos.Tx,
		Catalog: repos.Catalog,
		Carts:   repos.Carts,
		Orders:  repos.Orders,
		Outbox:  repos.Outbox,
	}
	opts := checkout.Options{CallbackWindow: cfg.Checkout.CallbackWindow, Recorder: m}
	direct := checkout.NewDirectWorkflow(stores, opts)
	gatewayFlow := checkout.NewGatewayWorkflow(stores, gw, repos.Ledger, locker, carts, opts)

	a.Auth = httpapi.NewAuthenticator(cfg.Auth.JWTSecret)
	a.Limiter = httpapi.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	a.Poller = outbox.NewPoller(repos.Outbox, a.publisher, repos.Ledger, cfg.Checkout.CallbackWindow, m)

	timeout := cfg.HTTP.RequestTimeout
	a.Handler = httpapi.NewRouter(httpapi.RouterConfig{
		RequestTimeout:     timeout,
		MaxRequestBodySize: cfg.HTTP.MaxRequestBodySize,
	}, httpapi.Handlers{
		Products: httpapi.NewProductHandler(catalogSvc, timeout),
		Cart:     httpapi.NewCartHandler(carts, timeout),
		Wishlist: httpapi.NewWishlistHandler(wishlist.NewService(repos.Wishlist, repos.Catalog, locker), timeout),
		Orders:   httpapi.NewOrdersHandler(ordersSvc, direct, timeout),
		Payments: httpapi.NewPaymentHandler(gw, gatewayFlow, timeout),
		Admin:    httpapi.NewAdminHandler(ordersSvc, catalogSvc, users.NewService(repos.Users), repos.Ledger, timeout),
		Auth:     a.Auth,
		Limiter:  a.Limiter,
		Metrics:  m,
		Gateway:  gw,
		Checks:   repos.checks,
	})
	return a, nil
}

// RunBackground drives the outbox poller and limiter cleanup until ctx is done.
func (a *App) RunBackground(ctx context.Context) {
	go a.Poller.Run(ctx)
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-t.C:
				a.Limiter.Sweep()
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (a *App) Close(ctx context.Context) error {
	var errs []error
	if err := a.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	a.Repos.Close(ctx)
	return errors.Join(errs...)
}
