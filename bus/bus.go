// Package bus decouples article creation from webhook delivery. Publish
// is fire-and-forget: an event published while no subscriber is attached
// is dropped, and late subscribers never see earlier events.
package bus

import "go-asyncops/model"

type Bus interface {
	// Publish delivers the event to every attached subscriber without
	// blocking the caller.
	Publish(event model.Event)

	// Subscribe attaches a new subscriber that receives every event
	// published from now on, in publish order.
	Subscribe() Subscription
}

type Subscription interface {
	// Events is closed when the subscription is closed.
	Events() <-chan model.Event

	// Close detaches the subscriber. Safe to call more than once.
	Close()
}
