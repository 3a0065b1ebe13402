package marketdata

import (
	"sync"
	"time"
)

// Tick is one published quote.
type Tick struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Timestamp int64   `json:"ts"`
}

// Bus fans published ticks out to websocket subscribers. Slow subscribers
// drop ticks instead of blocking the publisher.
type Bus struct {
	mu   sync.RWMutex
	subs map[chan Tick]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[chan Tick]struct{})}
}

func (b *Bus) Subscribe() chan Tick {
	ch := make(chan Tick, 64)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Bus) Unsubscribe(ch chan Tick) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Bus) Publish(t Tick) {
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- t:
		default:
		}
	}
	b.mu.RUnlock()
}

// NewTick stamps a quote for publication.
func NewTick(symbol string, price float64) Tick {
	return Tick{Symbol: symbol, Price: price, Timestamp: time.Now().UTC().UnixMilli()}
}
