// Package mqtt defines the messaging contract of the service: the retained
// timetable state message and the publisher/subscriber interfaces
// implemented by infra/mqtt.
package mqtt

// Handler receives the payload of a message on a subscribed topic.
type Handler func(topic string, payload []byte)

// Publisher publishes the resolved timetable.
type Publisher interface {
	PublishState(msg StateMessage) error
}

// Subscriber delivers messages of a topic to a handler. Subscriptions
// survive reconnects.
type Subscriber interface {
	Subscribe(topic string, h Handler) error
}
