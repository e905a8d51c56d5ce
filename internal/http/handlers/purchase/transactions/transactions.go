// Package transactions реализует HTTP-вход для обновлений очереди транзакций платформы.
//
// Handler принимает пачку транзакций, валидирует ее и передает наблюдателю очереди
// так же, как это делает потребитель RabbitMQ.
package transactions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/simple-iap/internal/http/response"
	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
	"github.com/magabrotheeeer/simple-iap/internal/models"
)

// Handler принимает обновления очереди транзакций.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service наблюдатель очереди транзакций.
type Service interface {
	HandleTransactions(ctx context.Context, txs []models.Transaction)
}

// Request тело запроса с обновлениями.
type Request struct {
	Transactions []models.Transaction `json:"transactions" validate:"required,min=1,dive"`
}

func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Обновления очереди транзакций
// @Description Передает транзакции наблюдателю. Ожидающая покупка разрешается этим же запросом.
// @Tags Transactions
// @Accept json
// @Produce json
// @Param request body Request true "Пачка транзакций"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Router /transactions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.purchase.transactions"
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

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		render.Status(r, http.StatusUnprocessableEntity)
		if verrs, ok := err.(validator.ValidationErrors); ok {
			render.JSON(w, r, response.ValidationError(verrs))
			return
		}
		render.JSON(w, r, response.Error("invalid request"))
		return
	}

	// обработка не должна обрываться вместе с клиентом: от нее зависит ожидающая покупка
	h.service.HandleTransactions(context.WithoutCancel(r.Context()), req.Transactions)

	log.Info("transactions handled", slog.Int("count", len(req.Transactions)))
	render.JSON(w, r, response.OKWithData(map[string]any{
		"handled": len(req.Transactions),
	}))
}
