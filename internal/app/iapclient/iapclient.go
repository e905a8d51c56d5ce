package iapclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/simple-iap/internal/config"
	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
	"github.com/magabrotheeeer/simple-iap/internal/metrics"
	"github.com/magabrotheeeer/simple-iap/internal/rabbitmq"
	"github.com/magabrotheeeer/simple-iap/internal/receipt"
	"github.com/magabrotheeeer/simple-iap/internal/services/purchase"
	"github.com/magabrotheeeer/simple-iap/internal/storekit"
)

const shutdownTimeout = 15 * time.Second

type App struct {
	server  *http.Server
	logger  *slog.Logger
	conn    *amqp.Connection
	channel *amqp.Channel
	bridge  *storekit.Bridge
	service *purchase.Service
}

func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "app.iapclient.New"

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	httpClient := &http.Client{
		Timeout:   cfg.VerifyTimeout,
		Transport: m.InstrumentRoundTripper(nil),
	}
	validator := receipt.New(cfg.Store, httpClient, m, logger)
	receipts := receipt.NewFile(cfg.ReceiptPath)

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQ.URL, cfg.Retries, cfg.RetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ch, err := rabbitmq.SetupChannel(conn, cfg.Exchange, rabbitmq.EventQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	bridge := storekit.New(ch, cfg.Exchange, cfg.PaymentsDisabled, logger)
	service := purchase.New(cfg.ProductID, bridge, receipts, validator, m, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, service, reg, purchaseWait(cfg.HTTPServer.Timeout))

	srv := &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:  srv,
		logger:  logger,
		conn:    conn,
		channel: ch,
		bridge:  bridge,
		service: service,
	}, nil
}

// Run запускает мост к платформе и HTTP-сервер и ждет отмены ctx или ошибки.
func (a *App) Run(ctx context.Context) error {
	if err := a.bridge.Start(ctx); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() {
		if err := a.bridge.Observe(ctx, a.service); err != nil {
			errCh <- fmt.Errorf("transaction observer: %w", err)
		}
	}()

	go func() {
		if _, err := a.service.FindProduct(ctx); err != nil {
			a.logger.Warn("initial product lookup failed", sl.Err(err))
		}
	}()

	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case runErr = <-errCh:
	case <-ctx.Done():
	}

	timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down HTTP server gracefully")
	if err := a.server.Shutdown(timeoutCtx); err != nil {
		runErr = errors.Join(runErr, err)
	}
	if err := a.channel.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		a.logger.Warn("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil && !errors.Is(err, amqp.ErrClosed) {
		a.logger.Warn("failed to close connection", sl.Err(err))
	}
	return runErr
}
