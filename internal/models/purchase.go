package models

import (
	"encoding/json"
	"fmt"
)

// PurchaseStatus итог покупки или восстановления, сообщаемый вызывающему.
type PurchaseStatus int

const (
	// Paid подписка оплачена и действует.
	Paid PurchaseStatus = iota + 1
	// CannotPay платформа запрещает покупки (родительский контроль, регион и т.п.).
	CannotPay
	// PurchaseFailed транзакция завершилась ошибкой.
	PurchaseFailed
	// PurchaseExpired чек не подтвердил действующую подписку.
	PurchaseExpired
)

var purchaseStatusNames = map[PurchaseStatus]string{
	Paid:            "paid",
	CannotPay:       "cannotPay",
	PurchaseFailed:  "purchaseFailed",
	PurchaseExpired: "purchaseExpired",
}

func (s PurchaseStatus) String() string {
	if name, ok := purchaseStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("PurchaseStatus(%d)", int(s))
}

// MarshalJSON кодирует статус его текстовым именем.
func (s PurchaseStatus) MarshalJSON() ([]byte, error) {
	name, ok := purchaseStatusNames[s]
	if !ok {
		return nil, fmt.Errorf("unknown purchase status %d", int(s))
	}
	return json.Marshal(name)
}
