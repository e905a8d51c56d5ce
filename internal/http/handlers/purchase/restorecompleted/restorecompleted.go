// Package restorecompleted реализует HTTP-вход для события завершения восстановления.
package restorecompleted

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/simple-iap/internal/http/response"
	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
)

// ErrRestoreFailed оборачивает текст ошибки, присланный платформой.
var ErrRestoreFailed = errors.New("restore failed")

type Handler struct {
	log     *slog.Logger
	service Service
}

// Service наблюдатель завершения восстановления.
type Service interface {
	HandleRestoreCompleted(ctx context.Context, err error)
}

// Request тело события. Пустой Error означает успешное завершение.
type Request struct {
	Error string `json:"error"`
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Завершение восстановления
// @Tags Transactions
// @Accept json
// @Produce json
// @Param request body Request true "Итог восстановления"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Router /transactions/restore-completed [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.restorecompleted"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	var restoreErr error
	if req.Error != "" {
		restoreErr = errors.Join(ErrRestoreFailed, errors.New(req.Error))
	}
	h.service.HandleRestoreCompleted(context.WithoutCancel(r.Context()), restoreErr)

	render.JSON(w, r, response.OKWithData(map[string]any{
		"restored": restoreErr == nil,
	}))
}
