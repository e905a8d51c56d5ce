package storekit

import "github.com/magabrotheeeer/simple-iap/internal/models"

// Ключи команд, которые клиент публикует в exchange платформы.
const (
	KeyProductsRequest     = "products.request"
	KeyPaymentAdd          = "payment.add"
	KeyTransactionsRestore = "transactions.restore"
	KeyTransactionFinish   = "transaction.finish"
	KeyReceiptRefresh      = "receipt.refresh"
)

type productsRequest struct {
	ProductIDs []string `json:"product_ids"`
}

type productsReply struct {
	Products []models.Product `json:"products"`
	Error    string           `json:"error,omitempty"`
}

type paymentRequest struct {
	ProductID string `json:"product_id"`
	Handle    string `json:"handle,omitempty"`
}

type restoreRequest struct{}

type finishRequest struct {
	TransactionID string `json:"transaction_id"`
	ProductID     string `json:"product_id"`
}

type refreshRequest struct{}

// statusReply ответ или событие, в котором важен только текст ошибки.
type statusReply struct {
	Error string `json:"error,omitempty"`
}
