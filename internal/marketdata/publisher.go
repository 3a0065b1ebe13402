package marketdata

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StartPublisher runs a background goroutine that polls the oracle for every
// configured symbol and publishes ticks to the bus until ctx is canceled.
func StartPublisher(ctx context.Context, bus *Bus, oracle *SyntheticOracle, interval time.Duration, log *zap.Logger) {
	if interval <= 0 {
		interval = time.Second
	}
	symbols := oracle.Symbols()
	log.Info("quote publisher starting", zap.Int("symbols", len(symbols)), zap.Duration("interval", interval))
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, sym := range symbols {
					price, err := oracle.Quote(ctx, sym)
					if err != nil {
						log.Warn("quote failed", zap.String("symbol", sym), zap.Error(err))
						continue
					}
					bus.Publish(NewTick(sym, price))
				}
			}
		}
	}()
}
