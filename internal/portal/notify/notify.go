package notify

import "strings"

// Kind classifies a transient notification.
type Kind string

const (
	KindLoading Kind = "loading"
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Notification is a short-lived message shown to the user. Notifications
// sharing a Key replace each other.
type Notification struct {
	Key     string `json:"key"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Board keeps the latest notification per key in first-posted order.
type Board struct {
	items []Notification
}

// NewBoard restores a board from previously stored notifications.
func NewBoard(items []Notification) *Board {
	b := &Board{}
	for _, n := range items {
		b.Post(n)
	}
	return b
}

// Post adds the notification, replacing any earlier one with the same key.
// Notifications without a key never replace each other.
func (b *Board) Post(n Notification) {
	n.Key = strings.TrimSpace(n.Key)
	if n.Key != "" {
		for i := range b.items {
			if b.items[i].Key == n.Key {
				b.items[i] = n
				return
			}
		}
	}
	b.items = append(b.items, n)
}

// Get returns the notification stored under key.
func (b *Board) Get(key string) (Notification, bool) {
	for _, n := range b.items {
		if n.Key == key {
			return n, true
		}
	}
	return Notification{}, false
}

// Items returns a copy of the stored notifications.
func (b *Board) Items() []Notification {
	if len(b.items) == 0 {
		return nil
	}
	return append([]Notification(nil), b.items...)
}

// Drain returns the stored notifications and empties the board.
func (b *Board) Drain() []Notification {
	items := b.Items()
	b.items = nil
	return items
}

// Len reports how many notifications are stored.
func (b *Board) Len() int {
	return len(b.items)
}
