package queue

import (
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/aliskhannn/notification-dispatcher/internal/model"
)

// Message is a consumed notification awaiting settlement.
type Message struct {
	Notification model.Notification
	delivery     amqp.Delivery
}

// NewMessage builds a Message settled through ack. It lets other
// transports, and tests, feed the pipeline.
func NewMessage(n model.Notification, ack amqp.Acknowledger, tag uint64) Message {
	return Message{
		Notification: n,
		delivery:     amqp.Delivery{Acknowledger: ack, DeliveryTag: tag},
	}
}

// Ack acknowledges the message; the broker drops it.
func (m Message) Ack() error {
	return m.delivery.Ack(false)
}

// Nack rejects the message. With requeue the broker delivers it again,
// otherwise it is dropped.
func (m Message) Nack(requeue bool) error {
	return m.delivery.Nack(false, requeue)
}
