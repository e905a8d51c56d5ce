package purchase

import (
	"sync"

	"github.com/magabrotheeeer/simple-iap/internal/models"
)

type operation string

const (
	opPurchase operation = "purchase"
	opRestore  operation = "restore"
)

// pendingOp ожидание одной покупки или восстановления. result пишется ровно один раз.
type pendingOp struct {
	kind    operation
	result  chan models.PurchaseStatus
	matched bool // пришла транзакция purchased/restored для нашего продукта
}

// pendingSlot единственный слот незавершенной операции.
type pendingSlot struct {
	mu      sync.Mutex
	current *pendingOp
}

func (p *pendingSlot) acquire(kind operation) (*pendingOp, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		return nil, ErrPurchaseInProgress
	}
	p.current = &pendingOp{
		kind:   kind,
		result: make(chan models.PurchaseStatus, 1),
	}
	return p.current, nil
}

// release освобождает слот, если он все еще занят op.
func (p *pendingSlot) release(op *pendingOp) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == op {
		p.current = nil
	}
}

// resolveWhen передает статус ожидающему и освобождает слот, если операция удовлетворяет cond.
func (p *pendingSlot) resolveWhen(cond func(*pendingOp) bool, status models.PurchaseStatus) (operation, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current == nil || !cond(p.current) {
		return "", false
	}
	op := p.current
	op.result <- status
	p.current = nil
	return op.kind, true
}

func (p *pendingSlot) markMatched() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.current != nil {
		p.current.matched = true
	}
}

func (p *pendingSlot) busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.current != nil
}
