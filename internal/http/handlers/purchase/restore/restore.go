// Package restore реализует HTTP-обработчик восстановления ранее оплаченной подписки.
package restore

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/simple-iap/internal/http/response"
	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
	"github.com/magabrotheeeer/simple-iap/internal/models"
	"github.com/magabrotheeeer/simple-iap/internal/services/purchase"
)

type Handler struct {
	log     *slog.Logger
	service Service
	wait    time.Duration
}

// Service описывает восстановление покупки.
type Service interface {
	RestorePurchase(ctx context.Context) (models.PurchaseStatus, error)
}

// New создает обработчик. wait предел ожидания итога внутри запроса,
// он должен быть меньше WriteTimeout сервера.
func New(log *slog.Logger, service Service, wait time.Duration) *Handler {
	return &Handler{
		log:     log,
		service: service,
		wait:    wait,
	}
}

// ServeHTTP godoc
// @Summary Восстановить подписку
// @Tags Purchase
// @Produce json
// @Success 200 {object} response.Response
// @Success 202 {object} response.Response "in_progress: итог еще не известен"
// @Failure 409 {object} response.ErrorResponse "Покупка уже идет"
// @Failure 500 {object} response.ErrorResponse "Ошибка платформы"
// @Router /purchase/restore [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.restore"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ctx, cancel := context.WithTimeout(r.Context(), h.wait)
	defer cancel()

	status, err := h.service.RestorePurchase(ctx)
	switch {
	case errors.Is(err, context.DeadlineExceeded) && r.Context().Err() == nil:
		log.Info("restore still pending, result is left to entitlement check")
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, response.OKWithData(map[string]any{
			"in_progress": true,
		}))
		return
	case errors.Is(err, purchase.ErrPurchaseInProgress):
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("purchase already in progress"))
		return
	case errors.Is(err, context.Canceled):
		log.Info("client went away before restore completed")
		return
	case err != nil:
		log.Error("restore failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not restore purchase"))
		return
	}

	log.Info("restore completed", slog.String("status", status.String()))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": status,
	}))
}
