// Package iapclient собирает сервис клиента покупок: мост к платформе, проверку чеков и HTTP API.
package iapclient

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/magabrotheeeer/simple-iap/docs"
	"github.com/magabrotheeeer/simple-iap/internal/http/handlers/health"
	"github.com/magabrotheeeer/simple-iap/internal/http/handlers/purchase/buy"
	"github.com/magabrotheeeer/simple-iap/internal/http/handlers/purchase/entitlement"
	"github.com/magabrotheeeer/simple-iap/internal/http/handlers/purchase/product"
	"github.com/magabrotheeeer/simple-iap/internal/http/handlers/purchase/restore"
	"github.com/magabrotheeeer/simple-iap/internal/http/handlers/purchase/restorecompleted"
	"github.com/magabrotheeeer/simple-iap/internal/http/handlers/purchase/transactions"
	"github.com/magabrotheeeer/simple-iap/internal/http/middlewarectx"
	"github.com/magabrotheeeer/simple-iap/internal/services/purchase"
)

// Лимит на маршруты оплаты и восстановления.
const (
	purchaseRateLimit = 1
	purchaseBurst     = 3
)

// Запас между ожиданием итога покупки и WriteTimeout сервера.
const writeMargin = 5 * time.Second

// purchaseWait время, которое обработчик оплаты ждет итога до ответа 202.
func purchaseWait(writeTimeout time.Duration) time.Duration {
	if writeTimeout > 2*writeMargin {
		return writeTimeout - writeMargin
	}
	return writeTimeout / 2
}

// RegisterRoutes регистрирует все маршруты приложения. wait ограничивает
// ожидание итога покупки и восстановления внутри запроса.
func RegisterRoutes(r chi.Router, logger *slog.Logger, service *purchase.Service, gatherer prometheus.Gatherer, wait time.Duration) {
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", health.New(logger, service).ServeHTTP)
		r.Get("/product", product.New(logger, service).ServeHTTP)
		r.Get("/entitlement", entitlement.New(logger, service).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, purchaseRateLimit, purchaseBurst))
			r.Post("/purchase", buy.New(logger, service, wait).ServeHTTP)
			r.Post("/purchase/restore", restore.New(logger, service, wait).ServeHTTP)
		})

		// вход для платформы, когда мост RabbitMQ не используется
		r.Post("/transactions", transactions.New(logger, service).ServeHTTP)
		r.Post("/transactions/restore-completed", restorecompleted.New(logger, service).ServeHTTP)
	})

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
