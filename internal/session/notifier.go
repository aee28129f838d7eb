package session

import "sync"

// Notifier fans token changes out to subscribers. It replaces the browser's
// cross-tab storage events: every manager sharing a notifier sees login and
// logout from its siblings. Subscribers only ever need the latest value, so
// a slow subscriber is lapped rather than blocked.
type Notifier struct {
	mu   sync.Mutex
	next int
	subs map[int]chan string
}

func NewNotifier() *Notifier {
	return &Notifier{subs: make(map[int]chan string)}
}

// Subscribe returns a channel of token values and a cancel func. An empty
// value means the token was cleared.
func (n *Notifier) Subscribe() (<-chan string, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()
	id := n.next
	n.next++
	ch := make(chan string, 1)
	n.subs[id] = ch
	return ch, func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *Notifier) Publish(token string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, ch := range n.subs {
		select {
		case ch <- token:
		default:
			// Drop the stale value so the latest one lands.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- token:
			default:
			}
		}
	}
}
