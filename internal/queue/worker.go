package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Ansagu88/foodtruck/internal/cache"
	"github.com/Ansagu88/foodtruck/internal/ledger"
	"github.com/Ansagu88/foodtruck/internal/obs"
	"github.com/Ansagu88/foodtruck/internal/order"
)

// OrderGetter loads one settled order by id.
type OrderGetter interface {
	Get(ctx context.Context, orderID uuid.UUID) (order.Order, error)
}

// Worker handles background tasks for the settlement engine.
type Worker struct {
	Orders OrderGetter
	Redis  *redis.Client
	TTL    time.Duration
	Logger zerolog.Logger
}

// Register attaches all task handlers to the mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeWarmVendorTotals, w.HandleWarmVendorTotals)
}

// HandleWarmVendorTotals decodes the order's ledger and caches each vendor's
// slice for dashboard reads. The ledger is the source of truth; nothing is
// recomputed from live prices.
func (w *Worker) HandleWarmVendorTotals(ctx context.Context, task *asynq.Task) error {
	if w == nil || w.Orders == nil || w.Redis == nil {
		return errors.New("queue: worker not configured")
	}
	var payload warmVendorTotalsPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		w.countWarm("error")
		return err
	}
	ord, err := w.Orders.Get(ctx, payload.OrderID)
	if err != nil {
		w.countWarm("error")
		return err
	}
	perVendor, err := ledger.Decode(ord.Ledger)
	if err != nil {
		w.countWarm("error")
		// A malformed ledger never heals; retrying would only churn.
		return errors.Join(err, asynq.SkipRetry)
	}
	for vendorID, totals := range perVendor {
		data, err := json.Marshal(totals)
		if err != nil {
			w.countWarm("error")
			return err
		}
		key := cache.VendorTotalsKey(ord.ID, vendorID)
		if err := w.Redis.Set(ctx, key, data, w.TTL).Err(); err != nil {
			w.countWarm("error")
			return err
		}
	}
	w.Logger.Debug().
		Str("order_id", ord.ID.String()).
		Int("vendors", len(perVendor)).
		Msg("vendor totals warmed")
	w.countWarm("ok")
	return nil
}

func (w *Worker) countWarm(result string) {
	if obs.VendorTotalsWarmTotal != nil {
		obs.VendorTotalsWarmTotal.WithLabelValues(result).Inc()
	}
}
