package queue

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Enqueuer submits background tasks after checkout commits.
type Enqueuer struct {
	Client *asynq.Client
}

// WarmVendorTotals schedules the vendor totals cache warm for an order.
func (e *Enqueuer) WarmVendorTotals(ctx context.Context, orderID uuid.UUID) error {
	if e == nil || e.Client == nil {
		return errors.New("queue: client not configured")
	}
	task, err := NewWarmVendorTotalsTask(orderID)
	if err != nil {
		return err
	}
	_, err = e.Client.EnqueueContext(ctx, task)
	return err
}
