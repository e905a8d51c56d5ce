package entitlement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/simple-iap/internal/services/purchase"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) IsPurchaseActive(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func TestEntitlementHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name           string
		active         bool
		err            error
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "active",
			active:         true,
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"active":true}}`,
		},
		{
			name:           "expired",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"status":"OK","data":{"active":false}}`,
		},
		{
			name:           "receipt invalid",
			err:            fmt.Errorf("op: %w: 503", purchase.ErrReceiptInvalid),
			expectedStatus: http.StatusBadGateway,
			expectedBody:   `{"status":"Error","error":"could not validate receipt"}`,
		},
		{
			name:           "unexpected error",
			err:            errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not check subscription"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			mockService.On("IsPurchaseActive", mock.Anything).Return(tt.active, tt.err)

			w := httptest.NewRecorder()
			New(logger, mockService).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/entitlement", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
