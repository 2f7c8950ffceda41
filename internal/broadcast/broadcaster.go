package broadcast

import (
	"sync"

	"github.com/johnjomin/OneVote/internal/results"
)

// subscriber channels are buffered so a slow consumer never blocks the
// publish path; events beyond the buffer are dropped for that subscriber.
const subscriberBuffer = 8

// Broadcaster is a process-wide fan-out of result snapshots. Publishing is
// fire-and-forget: no delivery guarantee, no replay for late subscribers.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[uint64]chan results.Snapshot
	nextID uint64
	closed bool
}

func New() *Broadcaster {
	return &Broadcaster{subs: make(map[uint64]chan results.Snapshot)}
}

// Subscribe registers a listener for every published snapshot. Callers filter
// by poll ID themselves. The returned cancel func is idempotent and must be
// called on teardown; it closes the channel.
func (b *Broadcaster) Subscribe() (<-chan results.Snapshot, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan results.Snapshot, subscriberBuffer)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	b.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel
}

// Publish delivers the snapshot to every subscriber without blocking.
func (b *Broadcaster) Publish(snap results.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- snap:
		default:
		}
	}
}

// Close drops all subscribers and closes their channels. Subsequent
// Subscribe calls return an already-closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}

// SubscriberCount reports how many listeners are currently registered.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
