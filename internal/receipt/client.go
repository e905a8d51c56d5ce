// Package receipt проверяет чек покупки на удаленном сервере верификации:
// собирает запрос из байтов чека, отправляет его одним POST-запросом
// и извлекает из ответа дату окончания последнего периода подписки.
package receipt

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/awa/go-iap/appstore"

	"github.com/magabrotheeeer/simple-iap/internal/config"
	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
	"github.com/magabrotheeeer/simple-iap/internal/models"
)

// Тексты ошибок ReceiptStatus.
const (
	MsgNoReceiptDate = "no receipt date found"
	MsgNoResponse    = "no response from Receipt request"
)

const maxResponseSize = 4 << 20

// ErrEmptyReceipt возвращается при попытке проверить пустой чек.
var ErrEmptyReceipt = errors.New("empty receipt data")

// Recorder принимает метрики проверок чека.
type Recorder interface {
	ReceiptValidation(result string, elapsed time.Duration)
}

// Client клиент сервера верификации чеков.
type Client struct {
	sharedSecret string
	verifyURL    string
	httpClient   *http.Client
	recorder     Recorder
	log          *slog.Logger
}

// New создает клиент. Если httpClient равен nil, используется клиент
// с таймаутом из конфига; recorder может быть nil.
func New(cfg config.Store, httpClient *http.Client, recorder Recorder, log *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.VerifyTimeout}
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Client{
		sharedSecret: cfg.SharedSecret,
		verifyURL:    cfg.VerifyReceiptURL,
		httpClient:   httpClient,
		recorder:     recorder,
		log:          log,
	}
}

// Verify выполняет полный цикл проверки: сборка запроса, отправка, разбор ответа.
// Любая ошибка сводится к models.ReceiptError.
func (c *Client) Verify(ctx context.Context, receipt []byte) models.ReceiptStatus {
	const op = "receipt.Verify"
	log := c.log.With(slog.String("op", op))

	start := time.Now()
	req, err := c.BuildRequest(ctx, receipt)
	if err != nil {
		log.Error("failed to build receipt request", sl.Err(err))
		status := models.ReceiptError(err.Error())
		c.recorder.ReceiptValidation(resultLabel(status), time.Since(start))
		return status
	}

	status := c.Send(req)
	c.recorder.ReceiptValidation(resultLabel(status), time.Since(start))
	if status.IsError() {
		log.Warn("receipt validation failed", slog.String("message", status.Message()))
	} else {
		log.Debug("receipt validated", slog.String("status", status.String()))
	}
	return status
}

// BuildRequest собирает POST-запрос с телом {"receipt-data": base64, "password": secret}.
func (c *Client) BuildRequest(ctx context.Context, receipt []byte) (*http.Request, error) {
	const op = "receipt.BuildRequest"

	if len(receipt) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrEmptyReceipt)
	}

	payload := appstore.IAPRequest{
		ReceiptData: base64.StdEncoding.EncodeToString(receipt),
		Password:    c.sharedSecret,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(payload); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.verifyURL, &buf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Send отправляет запрос и разбирает ответ. Транспортная ошибка дает
// пустое сообщение, ответ не 2xx дает код статуса строкой.
func (c *Client) Send(req *http.Request) models.ReceiptStatus {
	const op = "receipt.Send"
	log := c.log.With(slog.String("op", op))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error("receipt request failed", sl.Err(err))
		return models.ReceiptError("")
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		log.Error("unexpected status from verification endpoint", slog.Int("status", resp.StatusCode))
		return models.ReceiptError(strconv.Itoa(resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil || len(body) == 0 {
		if err != nil {
			log.Error("failed to read receipt response", sl.Err(err))
		}
		return models.ReceiptError(MsgNoResponse)
	}

	expiresDate, err := ParseResponse(body)
	if err != nil {
		log.Warn("receipt response has no expiration date", sl.Err(err))
		return models.ReceiptError(MsgNoReceiptDate)
	}
	return models.ReceiptExists(expiresDate)
}

func resultLabel(status models.ReceiptStatus) string {
	if status.IsError() {
		return "error"
	}
	return "exists"
}

type nopRecorder struct{}

func (nopRecorder) ReceiptValidation(string, time.Duration) {}
