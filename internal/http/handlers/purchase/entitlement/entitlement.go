// Package entitlement реализует HTTP-обработчик проверки действующей подписки.
// Каждый запрос заново проверяет чек, кэша нет.
package entitlement

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/simple-iap/internal/http/response"
	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
	"github.com/magabrotheeeer/simple-iap/internal/services/purchase"
)

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает проверку подписки.
type Service interface {
	IsPurchaseActive(ctx context.Context) (bool, error)
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Проверить подписку
// @Description Находит чек, проверяет его на сервере и сообщает, действует ли подписка сейчас.
// @Tags Purchase
// @Produce json
// @Success 200 {object} response.Response "active: true или false"
// @Failure 502 {object} response.ErrorResponse "Чек не прошел проверку"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка"
// @Router /entitlement [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.entitlement"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	active, err := h.service.IsPurchaseActive(r.Context())
	if errors.Is(err, purchase.ErrReceiptInvalid) {
		log.Warn("receipt validation failed", sl.Err(err))
		render.Status(r, http.StatusBadGateway)
		render.JSON(w, r, response.Error("could not validate receipt"))
		return
	}
	if err != nil {
		log.Error("failed to check entitlement", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not check subscription"))
		return
	}

	log.Info("entitlement checked", slog.Bool("active", active))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"active": active,
	}))
}
