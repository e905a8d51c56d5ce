package purchase

import (
	"sync"

	"github.com/magabrotheeeer/simple-iap/internal/models"
)

// productHolder найденный продукт, живет до конца процесса.
type productHolder struct {
	mu      sync.RWMutex
	product *models.Product
}

func (h *productHolder) set(product models.Product) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.product = &product
}

func (h *productHolder) get() (*models.Product, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.product == nil {
		return nil, false
	}
	product := *h.product
	return &product, true
}
