package queue

import (
	"context"
	"fmt"
)

// Publisher publishes campaign dispatch requests to a queue.
type Publisher interface {
	Publish(ctx context.Context, queue string, msg CampaignMessage) error
	Close() error
}

// MessageHandler handles a consumed queue message.
type MessageHandler func(ctx context.Context, msg CampaignMessage) error

// Consumer consumes campaign dispatch requests from a queue.
type Consumer interface {
	Consume(ctx context.Context, queue string, handler MessageHandler) error
	Close() error
}

// DispatchQueue carries campaign send requests.
const DispatchQueue = "campaign.dispatch"

// DLQName returns the dead-letter queue name, e.g. dlq.campaign.dispatch.
func DLQName(queue string) string {
	return fmt.Sprintf("dlq.%s", queue)
}

// WorkQueueNames returns every work queue the service declares.
func WorkQueueNames() []string {
	return []string{DispatchQueue}
}

// DLQNames returns every dead-letter queue the service declares.
func DLQNames() []string {
	work := WorkQueueNames()
	queues := make([]string, 0, len(work))
	for _, q := range work {
		queues = append(queues, DLQName(q))
	}
	return queues
}

// Action is what the consumer does with a delivery once handled.
type Action int

const (
	ActionAck Action = iota
	ActionRequeue
	ActionDeadLetter
)

func (a Action) String() string {
	switch a {
	case ActionAck:
		return "ack"
	case ActionRequeue:
		return "requeue"
	case ActionDeadLetter:
		return "dead_letter"
	default:
		return "unknown"
	}
}

// DeliveryAction requeues a failed delivery once; a failure on redelivery
// goes to the dead-letter queue.
func DeliveryAction(redelivered bool, handlerErr error) Action {
	switch {
	case handlerErr == nil:
		return ActionAck
	case redelivered:
		return ActionDeadLetter
	default:
		return ActionRequeue
	}
}
