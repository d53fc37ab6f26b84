package queue

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// TypeWarmVendorTotals caches every vendor's slice of a freshly settled order.
const TypeWarmVendorTotals = "settlement:warm_vendor_totals"

type warmVendorTotalsPayload struct {
	OrderID uuid.UUID `json:"orderId"`
}

// NewWarmVendorTotalsTask builds the asynq task for one settled order.
func NewWarmVendorTotalsTask(orderID uuid.UUID) (*asynq.Task, error) {
	payload, err := json.Marshal(warmVendorTotalsPayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeWarmVendorTotals, payload, asynq.MaxRetry(5)), nil
}
