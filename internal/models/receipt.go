package models

import "time"

// ReceiptStatus результат проверки чека: либо дата окончания подписки,
// либо текстовая ошибка (часто просто HTTP-код).
type ReceiptStatus struct {
	expiresDate time.Time
	message     string
	failed      bool
}

// ReceiptExists возвращает успешный статус с датой окончания подписки.
func ReceiptExists(expiresDate time.Time) ReceiptStatus {
	return ReceiptStatus{expiresDate: expiresDate}
}

// ReceiptError возвращает статус с ошибкой проверки.
func ReceiptError(message string) ReceiptStatus {
	return ReceiptStatus{message: message, failed: true}
}

// ExpiresDate возвращает дату окончания, если чек найден.
func (s ReceiptStatus) ExpiresDate() (time.Time, bool) {
	return s.expiresDate, !s.failed
}

// IsError сообщает, завершилась ли проверка ошибкой.
func (s ReceiptStatus) IsError() bool {
	return s.failed
}

// Message текст ошибки; пустая строка для успешного статуса.
func (s ReceiptStatus) Message() string {
	return s.message
}

// ActiveAt сообщает, действует ли подписка в момент now.
// Момент окончания уже считается истекшим.
func (s ReceiptStatus) ActiveAt(now time.Time) bool {
	return !s.failed && now.Before(s.expiresDate)
}

func (s ReceiptStatus) String() string {
	if s.failed {
		return "error(" + s.message + ")"
	}
	return "exists(" + s.expiresDate.UTC().Format(time.RFC3339) + ")"
}
