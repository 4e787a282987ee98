package session

// Notifier receives session events. Delivery is best effort.
//
// Implementations are called from the supervisor goroutine (and from
// Connect/Disconnect) with internal locks held. They must return quickly,
// must not block on slow consumers, and must not call back into the Session.
type Notifier interface {
	StatusChanged(status Status)
	MessageReceived(msg Message)
}

// NopNotifier discards every event.
type NopNotifier struct{}

func (NopNotifier) StatusChanged(Status)    {}
func (NopNotifier) MessageReceived(Message) {}

// Notifiers fans each event out to every member in order.
type Notifiers []Notifier

// StatusChanged implements Notifier.
func (ns Notifiers) StatusChanged(status Status) {
	for _, n := range ns {
		n.StatusChanged(status)
	}
}

// MessageReceived implements Notifier.
func (ns Notifiers) MessageReceived(msg Message) {
	for _, n := range ns {
		n.MessageReceived(msg)
	}
}
