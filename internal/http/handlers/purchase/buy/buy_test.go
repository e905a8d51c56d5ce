package buy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/simple-iap/internal/models"
	"github.com/magabrotheeeer/simple-iap/internal/services/purchase"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Purchase(ctx context.Context) (models.PurchaseStatus, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.PurchaseStatus), args.Error(1)
}

func TestBuyHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		status         models.PurchaseStatus
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "paid",
			status:         models.Paid,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"status":"paid"}}`,
		},
		{
			name:           "cannot pay is a regular result",
			status:         models.CannotPay,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"status":"cannotPay"}}`,
		},
		{
			name:           "expired",
			status:         models.PurchaseExpired,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"status":"purchaseExpired"}}`,
		},
		{
			name:           "product not loaded",
			err:            fmt.Errorf("op: %w", purchase.ErrProductNotLoaded),
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"product is not loaded"}`,
		},
		{
			name:           "purchase in progress",
			err:            fmt.Errorf("op: %w", purchase.ErrPurchaseInProgress),
			expectedStatus: http.StatusConflict,
			expectedBody:   `{"status":"Error","error":"purchase already in progress"}`,
		},
		{
			name:           "result not known in time",
			err:            context.DeadlineExceeded,
			expectedStatus: http.StatusAccepted,
			expectedBody:   `{"status":"OK","data":{"in_progress":true}}`,
		},
		{
			name:           "platform error",
			err:            errors.New("broker down"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not complete purchase"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockService.On("Purchase", mock.Anything).Return(tt.status, tt.err)

			w := httptest.NewRecorder()
			New(logger, mockService, time.Second).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/purchase", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}

func TestBuyHandler_WaitBoundsPurchase(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	hasDeadline := mock.MatchedBy(func(ctx context.Context) bool {
		deadline, ok := ctx.Deadline()
		return ok && time.Until(deadline) <= 50*time.Millisecond
	})
	mockService := new(MockService)
	mockService.On("Purchase", hasDeadline).Return(models.PurchaseStatus(0), context.DeadlineExceeded).Once()

	w := httptest.NewRecorder()
	New(logger, mockService, 50*time.Millisecond).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/purchase", nil))

	assert.Equal(t, http.StatusAccepted, w.Code)
	mockService.AssertExpectations(t)
}
