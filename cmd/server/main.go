package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catering-be/internal/cart"
	"catering-be/internal/config"
	"catering-be/internal/db"
	"catering-be/internal/event"
	"catering-be/internal/idempotency"
	"catering-be/internal/logger"
	"catering-be/internal/metrics"
	"catering-be/internal/middleware"
	"catering-be/internal/order"
	"catering-be/internal/rest"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

var (
	initDBFunc      = db.InitDB
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("server stopped", zap.Error(err))
	}
}

type routes struct {
	orders      *rest.OrderHandler
	cart        *rest.CartHandler
	limiter     *middleware.RateLimiter
	httpMetrics *metrics.ServerMetrics
	gatherer    prometheus.Gatherer
	jwtSecret   string
	corsOrigin  string
}

func setupRouter(rt routes) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(logger.RequestIDMiddleware)
	r.Use(logger.LoggingMiddleware)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(rt.corsOrigin))
	r.Use(rt.httpMetrics.Middleware)
	r.Use(middleware.Auth(rt.jwtSecret))
	r.Use(rt.limiter.Middleware)

	r.Get("/health", rest.Health)
	r.Handle("/metrics", metrics.Handler(rt.gatherer))

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/orders", rt.orders.PlaceOrder)
			r.Get("/orders", rt.orders.ListOrders)
			r.Get("/orders/{id}", rt.orders.GetOrder)
			r.Get("/cart", rt.cart.GetCart)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Patch("/orders/{id}/status", rt.orders.UpdateStatus)
		})
	})

	return r
}

// newServer wires every component around one connection pool. The returned
// func releases the broker and cache clients.
func newServer(ctx context.Context, cfg *config.Config, database *sql.DB, reg *prometheus.Registry) (http.Handler, func()) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	checkoutMetrics := metrics.NewCheckoutMetrics(reg)
	httpMetrics := metrics.NewServerMetrics(reg)

	publisher := event.NewPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic)

	var idem idempotency.Store
	closers := []func() error{publisher.Close}
	if cfg.RedisAddr != "" {
		client := idempotency.NewClient(cfg.RedisAddr)
		idem = idempotency.NewRedisStore(client, cfg.IdempotencyTTL, 2*cfg.CheckoutTimeout)
		closers = append(closers, client.Close)
	}

	orderSvc := order.NewService(
		order.NewRepository(database),
		order.NewTransactor(database),
		publisher,
		checkoutMetrics,
		cfg.CheckoutTimeout,
	)
	cartSvc := cart.NewService(cart.NewRepository(database))

	limiter := middleware.NewRateLimiter(cfg.InternalSecretKey)
	go limiter.Run(ctx)

	handler := setupRouter(routes{
		orders:      rest.NewOrderHandler(orderSvc, idem),
		cart:        rest.NewCartHandler(cartSvc),
		limiter:     limiter,
		httpMetrics: httpMetrics,
		gatherer:    reg,
		jwtSecret:   cfg.JWTSecret,
		corsOrigin:  cfg.CORSOrigin,
	})

	cleanup := func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.L().Warn("failed to close client", zap.Error(err))
			}
		}
	}
	return handler, cleanup
}

func run() error {
	cfg := config.LoadConfig()
	logger.Init(cfg.AppEnv)
	defer logger.Sync()

	database := initDBFunc(cfg)
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler, cleanup := newServer(ctx, cfg, database, prometheus.NewRegistry())
	defer cleanup()

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.L().Info("server running", zap.String("addr", srv.Addr), zap.String("env", cfg.AppEnv))
		errCh <- startServerFunc(srv)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}
