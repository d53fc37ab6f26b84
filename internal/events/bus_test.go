package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Ansagu88/foodtruck/internal/events"
)

type stubStore struct {
	last events.Event
}

func (s *stubStore) Insert(_ context.Context, event events.Event) (events.Event, error) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	s.last = event
	return event, nil
}

type captureNotifier struct {
	events []events.Event
}

func (c *captureNotifier) Notify(_ context.Context, event events.Event) error {
	c.events = append(c.events, event)
	return nil
}

func TestEmitPersistsEvent(t *testing.T) {
	store := &stubStore{}
	notifier := &captureNotifier{}
	bus := events.Bus{
		Store:     store,
		Notifiers: []events.Notifier{notifier},
	}

	aggregate := uuid.New()
	payload := map[string]any{"orderId": "123"}
	ctx := context.Background()
	event, err := bus.Emit(ctx, events.TopicOrderPlaced, aggregate, payload)
	require.NoError(t, err)
	require.Equal(t, events.TopicOrderPlaced, store.last.Topic)
	require.JSONEq(t, `{"orderId":"123"}`, string(store.last.Payload))
	require.Len(t, notifier.events, 1)
	require.Equal(t, event.ID, notifier.events[0].ID)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Payload, &decoded))
	require.Equal(t, "123", decoded["orderId"])
}

func TestEmitRequiresTopicAndAggregate(t *testing.T) {
	bus := events.Bus{Store: &stubStore{}}
	_, err := bus.Emit(context.Background(), " ", uuid.New(), nil)
	require.Error(t, err)
	_, err = bus.Emit(context.Background(), events.TopicOrderPlaced, uuid.Nil, nil)
	require.Error(t, err)
}
