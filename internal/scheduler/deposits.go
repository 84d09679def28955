package scheduler

import (
	"context"
	"log/slog"
	"time"

	"lucky-spin/internal/payment"
)

// DepositSweeper expires pending deposits whose payment page was opened
// but never completed, so abandoned references don't pile up.
type DepositSweeper struct {
	payments *payment.Client
	ttl      time.Duration
	interval time.Duration
	logger   *slog.Logger
	stopCh   chan struct{}
}

func NewDepositSweeper(payments *payment.Client, ttl, interval time.Duration, logger *slog.Logger) *DepositSweeper {
	return &DepositSweeper{
		payments: payments,
		ttl:      ttl,
		interval: interval,
		logger:   logger,
		stopCh:   make(chan struct{}),
	}
}

func (s *DepositSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-ctx.Done():
				return
			case <-s.stopCh:
				return
			}
		}
	}()
}

func (s *DepositSweeper) Stop() {
	close(s.stopCh)
}

func (s *DepositSweeper) sweep() {
	dropped := s.payments.Expire(time.Now().Add(-s.ttl))
	if dropped > 0 {
		s.logger.Info("expired abandoned deposits", "count", dropped)
	}
}
