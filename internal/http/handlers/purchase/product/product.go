// Package product реализует HTTP-обработчик поиска продукта подписки в каталоге платформы.
package product

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/simple-iap/internal/http/response"
	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
	"github.com/magabrotheeeer/simple-iap/internal/models"
	"github.com/magabrotheeeer/simple-iap/internal/services/purchase"
)

// Handler обрабатывает запросы продукта.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает поиск продукта.
type Service interface {
	FindProduct(ctx context.Context) (*models.Product, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Найти продукт подписки
// @Description Запрашивает настроенный продукт в каталоге платформы и запоминает его для покупки.
// @Tags Purchase
// @Produce json
// @Success 200 {object} response.Response
// @Failure 404 {object} response.ErrorResponse "Продукт не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка платформы"
// @Router /product [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.product"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	product, err := h.service.FindProduct(r.Context())
	if errors.Is(err, purchase.ErrProductNotFound) {
		log.Warn("product not found")
		render.Status(r, http.StatusNotFound)
		render.JSON(w, r, response.Error("product not found"))
		return
	}
	if err != nil {
		log.Error("failed to find product", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load product"))
		return
	}

	render.JSON(w, r, response.OKWithData(map[string]any{
		"product": product,
	}))
}
