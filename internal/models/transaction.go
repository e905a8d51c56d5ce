package models

import (
	"encoding/json"
	"fmt"
)

// TransactionState состояние транзакции в очереди платежей платформы.
type TransactionState string

const (
	TransactionPurchasing TransactionState = "purchasing"
	TransactionPurchased  TransactionState = "purchased"
	TransactionFailed     TransactionState = "failed"
	TransactionRestored   TransactionState = "restored"
	TransactionDeferred   TransactionState = "deferred"
)

// Valid сообщает, известно ли состояние.
func (s TransactionState) Valid() bool {
	switch s {
	case TransactionPurchasing, TransactionPurchased, TransactionFailed,
		TransactionRestored, TransactionDeferred:
		return true
	}
	return false
}

// UnmarshalJSON отклоняет неизвестные состояния.
func (s *TransactionState) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	state := TransactionState(raw)
	if !state.Valid() {
		return fmt.Errorf("unknown transaction state %q", raw)
	}
	*s = state
	return nil
}

// Transaction запись платформы о попытке покупки или восстановления.
type Transaction struct {
	ID        string           `json:"id"`
	ProductID string           `json:"product_id" validate:"required"`
	State     TransactionState `json:"state" validate:"required"`
	Error     string           `json:"error,omitempty"`
}
