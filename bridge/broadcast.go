package bridge

import (
	"sync"

	"github.com/pkg/errors"
)

// BridgeMessage is a Discord-originated chat line awaiting relay to IRC.
type BridgeMessage struct {
	ChannelID string // Discord channel the message was written in
	Body      string
}

// ErrNoSubscribers is returned by Publish when no bridge session is
// consuming messages, i.e. the IRC side is not connected yet.
var ErrNoSubscribers = errors.New("no active bridge session is consuming messages")

// A Queue is a bounded multi-producer, single-consumer backlog between
// the write command and the bridge session. Producers never block: when
// the backlog is full the oldest unread message is dropped. The
// consumer can inspect Dropped to observe lag.
type Queue struct {
	mu       sync.Mutex
	messages chan BridgeMessage
	attached bool
	dropped  uint64
}

// NewQueue creates a Queue with the given backlog capacity.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = 64
	}
	return &Queue{
		messages: make(chan BridgeMessage, capacity),
	}
}

// Publish enqueues msg, dropping the oldest unread message if the
// backlog is full. Returns ErrNoSubscribers when no consumer is
// attached.
func (q *Queue) Publish(msg BridgeMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.attached {
		return ErrNoSubscribers
	}

	for {
		select {
		case q.messages <- msg:
			return nil
		default:
		}

		// Backlog full. Drop the oldest unread message and retry.
		select {
		case <-q.messages:
			q.dropped++
		default:
		}
	}
}

// Attach registers the (single) consumer and returns its receive channel.
func (q *Queue) Attach() <-chan BridgeMessage {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.attached = true
	return q.messages
}

// Detach unregisters the consumer and discards any unread backlog, so
// a message submitted during one session is never relayed under a
// later one. Subsequent publishes fail with ErrNoSubscribers until a
// session attaches again.
func (q *Queue) Detach() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.attached = false

	for {
		select {
		case <-q.messages:
			q.dropped++
		default:
			return
		}
	}
}

// Dropped returns how many messages have been discarded, whether to
// overflow or to session teardown.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}
