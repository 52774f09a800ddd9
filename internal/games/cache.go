package games

import (
	"sync"
	"time"
)

// nextGameCache guarda em memória o último "próximo jogo" lido do banco.
// Cada invalidação incrementa gen; um preenchimento iniciado antes da
// invalidação é descartado para não ressuscitar dado antigo.
type nextGameCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	game      *Game
	expiresAt time.Time
	gen       uint64
}

func newNextGameCache(ttl time.Duration) *nextGameCache {
	return &nextGameCache{ttl: ttl}
}

// get retorna uma cópia da entrada se ainda válida.
// Entrada cujo jogo já começou também é tratada como miss.
func (c *nextGameCache) get(now time.Time) (*Game, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.game == nil || !now.Before(c.expiresAt) || now.After(c.game.StartTime) {
		return nil, false
	}
	cp := *c.game
	return &cp, true
}

func (c *nextGameCache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

func (c *nextGameCache) put(g *Game, now time.Time, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		return
	}
	cp := *g
	c.game = &cp
	c.expiresAt = now.Add(c.ttl)
}

func (c *nextGameCache) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.game = nil
	c.expiresAt = time.Time{}
}
