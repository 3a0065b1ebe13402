// Package marketdata provides price quotes. The trading engine only depends
// on the Oracle contract; the shipped implementation synthesizes quotes as a
// bounded random walk around per-symbol base prices.
package marketdata

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// Oracle returns a current quote for a symbol. Quotes are always positive;
// no other behavior is guaranteed, and consumers must tolerate arbitrarily
// volatile sequences.
type Oracle interface {
	Quote(ctx context.Context, symbol string) (float64, error)
}

// Profile describes how quotes for a symbol are synthesized.
type Profile struct {
	Base       float64 `yaml:"base"`
	Volatility float64 `yaml:"volatility"`
	Precision  int     `yaml:"precision"`
}

const (
	defaultVolatility = 0.02
	defaultPrecision  = 4
	fallbackBasePrice = 1.0
)

// DefaultProfiles covers the instrument set the platform quotes out of the
// box. A MARKET_PROFILES yaml file may extend or override it.
func DefaultProfiles() map[string]Profile {
	return map[string]Profile{
		"EURUSD": {Base: 1.0500, Volatility: defaultVolatility, Precision: 5},
		"GBPUSD": {Base: 1.2800, Volatility: defaultVolatility, Precision: 5},
		"USDJPY": {Base: 150.00, Volatility: defaultVolatility, Precision: 3},
		"BTCUSD": {Base: 45000, Volatility: defaultVolatility, Precision: 2},
		"ETHUSD": {Base: 2500, Volatility: defaultVolatility, Precision: 2},
		"XAUUSD": {Base: 2000, Volatility: defaultVolatility, Precision: 2},
		"OIL":    {Base: 75.00, Volatility: defaultVolatility, Precision: 2},
		"SPX500": {Base: 4500, Volatility: defaultVolatility, Precision: 2},
	}
}

// SyntheticOracle quotes base*(1+u) with u uniform in ±volatility. Unknown
// symbols quote around a base of 1, so the engine never sees a non-positive
// price.
type SyntheticOracle struct {
	mu       sync.Mutex
	rng      *rand.Rand
	profiles map[string]Profile
}

func NewSyntheticOracle(profiles map[string]Profile) *SyntheticOracle {
	if len(profiles) == 0 {
		profiles = DefaultProfiles()
	}
	return &SyntheticOracle{
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		profiles: profiles,
	}
}

func (o *SyntheticOracle) Quote(ctx context.Context, symbol string) (float64, error) {
	profile, ok := o.profiles[symbol]
	if !ok {
		profile = Profile{Base: fallbackBasePrice, Volatility: defaultVolatility, Precision: defaultPrecision}
	}
	vol := profile.Volatility
	if vol <= 0 {
		vol = defaultVolatility
	}
	o.mu.Lock()
	u := (o.rng.Float64() - 0.5) * 2 * vol
	o.mu.Unlock()
	return profile.Base * (1 + u), nil
}

// Symbols lists the configured symbols in stable order.
func (o *SyntheticOracle) Symbols() []string {
	out := make([]string, 0, len(o.profiles))
	for sym := range o.profiles {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}

func (o *SyntheticOracle) Precision(symbol string) int {
	if p, ok := o.profiles[symbol]; ok && p.Precision > 0 {
		return p.Precision
	}
	return defaultPrecision
}
