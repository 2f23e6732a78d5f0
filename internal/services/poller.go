package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StatusPoller periodically asks the bank for status updates on submitted
// transfers that are still pending.
type StatusPoller struct {
	transfers *TransferService
	interval  time.Duration
	logger    *zap.Logger
}

func NewStatusPoller(transfers *TransferService, interval time.Duration, logger *zap.Logger) *StatusPoller {
	return &StatusPoller{
		transfers: transfers,
		interval:  interval,
		logger:    logger,
	}
}

// Run polls on a fixed interval until the context is cancelled.
func (p *StatusPoller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.logger.Info("transfer status poller started", zap.Duration("interval", p.interval))
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("transfer status poller stopped")
			return ctx.Err()
		case <-ticker.C:
			changed, err := p.transfers.PollPendingStatuses(ctx)
			if err != nil {
				p.logger.Error("transfer status poll failed", zap.Error(err))
				continue
			}
			if changed > 0 {
				p.logger.Info("transfer statuses updated", zap.Int("count", changed))
			}
		}
	}
}
