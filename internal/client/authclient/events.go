package authclient

// EventKind identifies a session lifecycle notification.
type EventKind int

const (
	EventRefreshed EventKind = iota + 1
	EventSessionExpired
)

func (k EventKind) String() string {
	switch k {
	case EventRefreshed:
		return "refreshed"
	case EventSessionExpired:
		return "session_expired"
	default:
		return "unknown"
	}
}

// SessionEvent is delivered to subscribers. Message is set for EventSessionExpired.
type SessionEvent struct {
	Kind    EventKind
	Message string
}

// Subscribe registers fn for session events and returns a function that
// removes it. Handlers run synchronously on the refreshing goroutine.
func (c *Client) Subscribe(fn func(SessionEvent)) (unsubscribe func()) {
	c.subMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subscribers, id)
		c.subMu.Unlock()
	}
}

func (c *Client) publish(event SessionEvent) {
	c.subMu.Lock()
	handlers := make([]func(SessionEvent), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		handlers = append(handlers, fn)
	}
	c.subMu.Unlock()

	for _, fn := range handlers {
		fn(event)
	}
}
