package storefront

import (
	"sync"
	"time"
)

// Notification is a transient "item added" signal for the UI layer.
type Notification struct {
	ItemName string
	At       time.Time
}

// Notifier fans transient notifications out to registered listeners and
// drops each one again after its display duration.
type Notifier struct {
	mu        sync.Mutex
	ttl       time.Duration
	nextID    int
	listeners map[int]func(Notification)
	current   *Notification
}

// NewNotifier creates a notifier whose notifications expire after ttl.
func NewNotifier(ttl time.Duration) *Notifier {
	if ttl <= 0 {
		ttl = 3 * time.Second
	}
	return &Notifier{
		ttl:       ttl,
		listeners: make(map[int]func(Notification)),
	}
}

// Listen registers a listener and returns a function that removes it.
func (n *Notifier) Listen(fn func(Notification)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.nextID
	n.nextID++
	n.listeners[id] = fn
	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.listeners, id)
	}
}

// Notify publishes an "item added" signal and schedules its expiry.
func (n *Notifier) Notify(itemName string) {
	note := Notification{ItemName: itemName, At: time.Now()}

	n.mu.Lock()
	n.current = &note
	listeners := make([]func(Notification), 0, len(n.listeners))
	for _, fn := range n.listeners {
		listeners = append(listeners, fn)
	}
	n.mu.Unlock()

	for _, fn := range listeners {
		fn(note)
	}

	time.AfterFunc(n.ttl, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		if n.current != nil && n.current.At.Equal(note.At) && n.current.ItemName == note.ItemName {
			n.current = nil
		}
	})
}

// Current returns the notification currently on display, if any.
func (n *Notifier) Current() (Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.current == nil {
		return Notification{}, false
	}
	return *n.current, true
}
