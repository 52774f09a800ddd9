package odds

import (
	"sync"
	"time"
)

// DefaultCooldown é quanto tempo o circuito fica aberto antes de permitir nova tentativa
const DefaultCooldown = 30 * time.Second

// breaker é um circuit breaker de falha única: uma falha final abre o circuito.
// Após o cooldown apenas uma chamada de prova passa; as demais continuam no fallback.
type breaker struct {
	mu       sync.Mutex
	cooldown time.Duration
	now      func() time.Time

	open     bool
	openedAt time.Time
	probing  bool
}

func newBreaker(cooldown time.Duration) *breaker {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &breaker{cooldown: cooldown, now: time.Now}
}

func (b *breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return true
	}
	if b.now().Sub(b.openedAt) < b.cooldown || b.probing {
		return false
	}
	b.probing = true
	return true
}

func (b *breaker) success() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open = false
	b.probing = false
	b.openedAt = time.Time{}
}

func (b *breaker) failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.open = true
	b.probing = false
	b.openedAt = b.now()
}

// release libera a prova em andamento sem mudar o estado do circuito
func (b *breaker) release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.probing = false
}

func (b *breaker) state() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch {
	case !b.open:
		return "closed"
	case b.now().Sub(b.openedAt) >= b.cooldown:
		return "half-open"
	default:
		return "open"
	}
}
