package events

// Topic constants for domain events emitted by the settlement engine.
const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status_changed"
	TopicCartCleared        = "cart.cleared"
)

// DefaultTopics returns the canonical list of emitted topics.
func DefaultTopics() []string {
	return []string{
		TopicOrderPlaced,
		TopicOrderStatusChanged,
		TopicCartCleared,
	}
}
