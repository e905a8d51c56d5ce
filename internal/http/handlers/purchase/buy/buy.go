// Package buy реализует HTTP-обработчик покупки подписки.
//
// Запрос держится открытым, пока платформа не сообщит итог оплаты через очередь
// транзакций и чек не будет проверен, но не дольше заданного ожидания.
// Итог возвращается как статус покупки, неизвестный итог как 202.
package buy

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

// Handler обрабатывает запросы на покупку.
type Handler struct {
	log     *slog.Logger
	service Service
	wait    time.Duration
}

// Service описывает сценарий покупки.
type Service interface {
	Purchase(ctx context.Context) (models.PurchaseStatus, error)
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
// @Summary Купить подписку
// @Description Отправляет платеж и ждет итога. cannotPay возвращается как обычный результат.
// @Description Если итог не пришел за время ожидания (например, отложенная покупка),
// @Description возвращается 202, а состояние подписки нужно проверять через /entitlement.
// @Tags Purchase
// @Produce json
// @Success 200 {object} response.Response "status: paid, cannotPay, purchaseFailed или purchaseExpired"
// @Success 202 {object} response.Response "in_progress: итог еще не известен"
// @Failure 409 {object} response.ErrorResponse "Продукт не загружен или покупка уже идет"
// @Failure 500 {object} response.ErrorResponse "Ошибка платформы"
// @Router /purchase [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.buy"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ctx, cancel := context.WithTimeout(r.Context(), h.wait)
	defer cancel()

	status, err := h.service.Purchase(ctx)
	switch {
	case errors.Is(err, context.DeadlineExceeded) && r.Context().Err() == nil:
		log.Info("purchase still pending, result is left to entitlement check")
		render.Status(r, http.StatusAccepted)
		render.JSON(w, r, response.OKWithData(map[string]any{
			"in_progress": true,
		}))
		return
	case errors.Is(err, purchase.ErrProductNotLoaded):
		log.Warn("purchase requested before product lookup")
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("product is not loaded"))
		return
	case errors.Is(err, purchase.ErrPurchaseInProgress):
		log.Warn("purchase already in progress")
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, response.Error("purchase already in progress"))
		return
	case errors.Is(err, context.Canceled):
		log.Info("client went away before purchase completed")
		return
	case err != nil:
		log.Error("purchase failed", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not complete purchase"))
		return
	}

	log.Info("purchase completed", slog.String("status", status.String()))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"status": status,
	}))
}
