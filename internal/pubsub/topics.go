package pubsub

// Topic names mirror the portal's STOMP destinations so existing consumers
// keep working against the redis channels.
const (
	topicPrefix = "/topic/payment/"

	// GlobalTopic receives every payment status change, for admin views.
	GlobalTopic = topicPrefix + "global"
)

// OrderTopic returns the order-scoped payment topic.
func OrderTopic(orderCode string) string {
	return topicPrefix + orderCode
}
