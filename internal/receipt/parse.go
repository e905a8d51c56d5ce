package receipt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/awa/go-iap/appstore"
)

// Формат expires_date: дата, время и идентификатор зоны, например
// "2099-01-01 00:00:00 Etc/GMT".
const (
	dateLayout       = "2006-01-02 15:04:05"
	dateLayoutOffset = "2006-01-02 15:04:05 -0700"
)

var (
	// ErrNoReceiptInfo ответ не содержит latest_receipt_info.
	ErrNoReceiptInfo = errors.New("latest_receipt_info is missing")
	// ErrNoExpiresDate последняя запись не содержит expires_date.
	ErrNoExpiresDate = errors.New("expires_date is missing")
)

// verifyResponse только те поля ответа, от которых зависит результат.
// Остальные поля не разбираются, их типы у совместимых серверов расходятся.
type verifyResponse struct {
	Status            json.RawMessage `json:"status"`
	LatestReceiptInfo []struct {
		ExpiresDate string `json:"expires_date"`
	} `json:"latest_receipt_info"`
}

// ParseResponse извлекает дату окончания из последней записи latest_receipt_info.
func ParseResponse(body []byte) (time.Time, error) {
	const op = "receipt.ParseResponse"

	var resp verifyResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(resp.LatestReceiptInfo) == 0 {
		if storeErr := storeStatusError(resp.Status); storeErr != nil {
			return time.Time{}, fmt.Errorf("%s: %w: %w", op, ErrNoReceiptInfo, storeErr)
		}
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrNoReceiptInfo)
	}

	latest := resp.LatestReceiptInfo[len(resp.LatestReceiptInfo)-1]
	if latest.ExpiresDate == "" {
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrNoExpiresDate)
	}

	expiresDate, err := ParseExpiresDate(latest.ExpiresDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return expiresDate, nil
}

// storeStatusError переводит числовой status App Store в ошибку appstore.
// Нечисловой или отсутствующий status ошибкой не считается.
func storeStatusError(raw json.RawMessage) error {
	var status int
	if len(raw) == 0 || json.Unmarshal(raw, &status) != nil {
		return nil
	}
	return appstore.HandleError(status)
}

// ParseExpiresDate разбирает строку вида "yyyy-MM-dd HH:mm:ss <zone>",
// где zone идентификатор IANA ("Etc/GMT", "America/Los_Angeles")
// или числовое смещение ("+0000").
func ParseExpiresDate(value string) (time.Time, error) {
	const op = "receipt.ParseExpiresDate"

	value = strings.TrimSpace(value)
	idx := strings.LastIndexByte(value, ' ')
	if idx < 0 {
		return time.Time{}, fmt.Errorf("%s: no time zone in %q", op, value)
	}

	loc, err := time.LoadLocation(value[idx+1:])
	if err != nil {
		t, offsetErr := time.Parse(dateLayoutOffset, value)
		if offsetErr != nil {
			return time.Time{}, fmt.Errorf("%s: %w", op, err)
		}
		return t, nil
	}

	t, err := time.ParseInLocation(dateLayout, value[:idx], loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return t, nil
}
