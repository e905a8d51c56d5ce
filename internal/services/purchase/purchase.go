// Package purchase реализует сценарий покупки единственной автопродлеваемой подписки:
// поиск продукта, оплату, восстановление, обработку очереди транзакций платформы
// и определение статуса по проверенному чеку.
package purchase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/magabrotheeeer/simple-iap/internal/lib/sl"
	"github.com/magabrotheeeer/simple-iap/internal/models"
	"github.com/magabrotheeeer/simple-iap/internal/receipt"
)

const (
	lookupTimeout  = 30 * time.Second
	refreshTimeout = 30 * time.Second

	msgNoReceipt = "no receipt on device"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductNotLoaded   = errors.New("product is not loaded")
	ErrPurchaseInProgress = errors.New("purchase already in progress")
	ErrReceiptInvalid     = errors.New("receipt validation failed")
)

// Platform подсистема покупок платформы: каталог, очередь платежей, чек.
type Platform interface {
	// RequestProducts запрашивает продукты каталога по идентификаторам.
	RequestProducts(ctx context.Context, ids []string) ([]models.Product, error)
	// CanMakePayments сообщает, разрешены ли покупки на устройстве.
	CanMakePayments() bool
	// AddPayment ставит платеж за продукт в очередь.
	AddPayment(ctx context.Context, product models.Product) error
	// RestoreCompletedTransactions просит восстановить завершенные транзакции.
	RestoreCompletedTransactions(ctx context.Context) error
	// FinishTransaction подтверждает платформе обработку транзакции.
	FinishTransaction(ctx context.Context, tx models.Transaction) error
	// RefreshReceipt запрашивает свежий чек с платформы.
	RefreshReceipt(ctx context.Context) error
}

// ReceiptSource локальный чек на устройстве.
type ReceiptSource interface {
	// Load возвращает байты чека или receipt.ErrNotFound.
	Load() ([]byte, error)
}

// Validator проверяет чек на удаленном сервере.
type Validator interface {
	Verify(ctx context.Context, receipt []byte) models.ReceiptStatus
}

// Recorder учитывает итоги покупок.
type Recorder interface {
	PurchaseOutcome(status models.PurchaseStatus)
}

// Service контроллер сценария покупки.
type Service struct {
	productID string
	platform  Platform
	receipts  ReceiptSource
	validator Validator
	recorder  Recorder
	log       *slog.Logger
	now       func() time.Time
	// refreshWait предел ожидания ответа платформы на обновление чека.
	refreshWait time.Duration

	lookup  singleflight.Group
	product productHolder
	pending pendingSlot
}

// New создает сервис покупки продукта productID. recorder может быть nil.
func New(productID string, platform Platform, receipts ReceiptSource, validator Validator, recorder Recorder, log *slog.Logger) *Service {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Service{
		productID: productID,
		platform:  platform,
		receipts:  receipts,
		validator: validator,
		recorder:  recorder,
		log:       log,
		now:       time.Now,

		refreshWait: refreshTimeout,
	}
}

// ProductID идентификатор продукта, которым управляет сервис.
func (s *Service) ProductID() string {
	return s.productID
}

// FindProduct ищет продукт в каталоге платформы и запоминает его.
// Одновременные вызовы разделяют один запрос к платформе.
func (s *Service) FindProduct(ctx context.Context) (*models.Product, error) {
	const op = "services.purchase.FindProduct"

	ch := s.lookup.DoChan(s.productID, func() (any, error) {
		lookupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
		defer cancel()
		return s.requestProduct(lookupCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%s: %w", op, res.Err)
		}
		product := res.Val.(models.Product)
		return &product, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

func (s *Service) requestProduct(ctx context.Context) (models.Product, error) {
	log := s.log.With(slog.String("op", "services.purchase.requestProduct"))

	products, err := s.platform.RequestProducts(ctx, []string{s.productID})
	if err != nil {
		log.Error("product request failed", sl.Err(err))
		return models.Product{}, err
	}

	for _, product := range products {
		if product.ID == s.productID {
			s.product.set(product)
			log.Info("product found and loaded", slog.String("product_id", product.ID))
			return product, nil
		}
	}

	log.Warn("product not found", slog.String("product_id", s.productID), slog.Int("received", len(products)))
	return models.Product{}, ErrProductNotFound
}

// Product возвращает ранее найденный продукт.
func (s *Service) Product() (*models.Product, bool) {
	return s.product.get()
}

// Purchase оплачивает подписку и ждет итога из очереди транзакций.
// Без найденного продукта платеж не отправляется; при запрете покупок
// сразу возвращается CannotPay.
func (s *Service) Purchase(ctx context.Context) (models.PurchaseStatus, error) {
	const op = "services.purchase.Purchase"
	log := s.log.With(slog.String("op", op))

	product, ok := s.Product()
	if !ok {
		return 0, fmt.Errorf("%s: %w", op, ErrProductNotLoaded)
	}

	if !s.platform.CanMakePayments() {
		log.Info("payments are not allowed on this device")
		s.recorder.PurchaseOutcome(models.CannotPay)
		return models.CannotPay, nil
	}

	pending, err := s.pending.acquire(opPurchase)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.platform.AddPayment(ctx, *product); err != nil {
		s.pending.release(pending)
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	log.Info("payment submitted", slog.String("product_id", product.ID))

	return s.wait(ctx, op, pending)
}

// RestorePurchase восстанавливает ранее оплаченную подписку.
func (s *Service) RestorePurchase(ctx context.Context) (models.PurchaseStatus, error) {
	const op = "services.purchase.RestorePurchase"

	pending, err := s.pending.acquire(opRestore)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.platform.RestoreCompletedTransactions(ctx); err != nil {
		s.pending.release(pending)
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("restore requested", slog.String("op", op))

	return s.wait(ctx, op, pending)
}

func (s *Service) wait(ctx context.Context, op string, pending *pendingOp) (models.PurchaseStatus, error) {
	select {
	case status := <-pending.result:
		return status, nil
	case <-ctx.Done():
		s.pending.release(pending)
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	}
}

// InProgress сообщает, есть ли незавершенная покупка или восстановление.
func (s *Service) InProgress() bool {
	return s.pending.busy()
}

// HandleTransactions обрабатывает пачку обновлений очереди транзакций.
// Учитывается только первая транзакция нашего продукта.
func (s *Service) HandleTransactions(ctx context.Context, txs []models.Transaction) {
	const op = "services.purchase.HandleTransactions"
	log := s.log.With(slog.String("op", op))

	log.Info("transactions received", slog.Int("count", len(txs)))

	tx, ok := s.selectTransaction(txs)
	if !ok {
		log.Debug("no transaction for configured product", slog.String("product_id", s.productID))
		return
	}
	log = log.With(slog.String("transaction_id", tx.ID), slog.String("state", string(tx.State)))

	switch tx.State {
	case models.TransactionPurchased, models.TransactionRestored:
		s.pending.markMatched()
		if err := s.platform.FinishTransaction(ctx, tx); err != nil {
			log.Error("failed to finish transaction", sl.Err(err))
		}
		s.processReceipt(ctx)
	case models.TransactionFailed:
		log.Warn("payment failed", slog.String("error", tx.Error))
		s.complete(models.PurchaseFailed)
	case models.TransactionPurchasing, models.TransactionDeferred:
		log.Info("processing transaction, waiting for final state")
	default:
		log.Warn("unknown transaction state")
	}
}

func (s *Service) selectTransaction(txs []models.Transaction) (models.Transaction, bool) {
	for _, tx := range txs {
		if tx.ProductID == s.productID {
			return tx, true
		}
	}
	return models.Transaction{}, false
}

// HandleRestoreCompleted обрабатывает завершение восстановления.
// Ошибка дает PurchaseFailed, восстановление без транзакций нашего продукта
// дает PurchaseExpired.
func (s *Service) HandleRestoreCompleted(_ context.Context, restoreErr error) {
	const op = "services.purchase.HandleRestoreCompleted"
	log := s.log.With(slog.String("op", op))

	if restoreErr != nil {
		log.Warn("restore failed", sl.Err(restoreErr))
		s.completeWhen(func(p *pendingOp) bool { return p.kind == opRestore }, models.PurchaseFailed)
		return
	}

	if s.completeWhen(func(p *pendingOp) bool { return p.kind == opRestore && !p.matched }, models.PurchaseExpired) {
		log.Info("nothing to restore", slog.String("product_id", s.productID))
	}
}

// processReceipt проверяет чек и разрешает ожидающую операцию.
func (s *Service) processReceipt(ctx context.Context) {
	const op = "services.purchase.processReceipt"
	log := s.log.With(slog.String("op", op))

	status := s.validateReceipt(ctx)
	if status.IsError() {
		log.Warn("receipt status error", slog.String("message", status.Message()))
		s.complete(models.PurchaseExpired)
		return
	}

	if status.ActiveAt(s.now()) {
		s.complete(models.Paid)
		return
	}

	expiresDate, _ := status.ExpiresDate()
	log.Info("subscription expired", slog.Time("expires_date", expiresDate))
	s.complete(models.PurchaseExpired)
}

// validateReceipt находит чек (при отсутствии запрашивает свежий) и проверяет его.
func (s *Service) validateReceipt(ctx context.Context) models.ReceiptStatus {
	log := s.log.With(slog.String("op", "services.purchase.validateReceipt"))

	data, err := s.locateReceipt(ctx)
	if err != nil {
		log.Warn("receipt is unavailable", sl.Err(err))
		return models.ReceiptError(msgNoReceipt)
	}
	return s.validator.Verify(ctx, data)
}

func (s *Service) locateReceipt(ctx context.Context) ([]byte, error) {
	data, err := s.receipts.Load()
	if err == nil {
		return data, nil
	}
	if !errors.Is(err, receipt.ErrNotFound) {
		return nil, err
	}

	s.log.Info("receipt is not on device, requesting refresh")
	refreshCtx, cancel := context.WithTimeout(ctx, s.refreshWait)
	defer cancel()
	if err := s.platform.RefreshReceipt(refreshCtx); err != nil {
		return nil, fmt.Errorf("refresh receipt: %w", err)
	}
	return s.receipts.Load()
}

// IsPurchaseActive заново проверяет чек и сообщает, действует ли подписка сейчас.
func (s *Service) IsPurchaseActive(ctx context.Context) (bool, error) {
	const op = "services.purchase.IsPurchaseActive"

	status := s.validateReceipt(ctx)
	if status.IsError() {
		return false, fmt.Errorf("%s: %w: %s", op, ErrReceiptInvalid, status.Message())
	}
	return status.ActiveAt(s.now()), nil
}

func (s *Service) complete(status models.PurchaseStatus) {
	s.completeWhen(func(*pendingOp) bool { return true }, status)
}

func (s *Service) completeWhen(cond func(*pendingOp) bool, status models.PurchaseStatus) bool {
	kind, ok := s.pending.resolveWhen(cond, status)
	if !ok {
		s.log.Debug("no pending operation to resolve", slog.String("status", status.String()))
		return false
	}
	s.recorder.PurchaseOutcome(status)
	s.log.Info("pending operation resolved", slog.String("operation", string(kind)), slog.String("status", status.String()))
	return true
}

type nopRecorder struct{}

func (nopRecorder) PurchaseOutcome(models.PurchaseStatus) {}
