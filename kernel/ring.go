package kernel

import (
	"runtime"
	"sync/atomic"
)

// Ring is a bounded single-producer/single-consumer queue of Message
// values. head/tail are atomic so the producer and the consumer, which may
// run on different cores, observe each other's progress without a lock.
//
// Unlike a multi-producer mailbox there is no need for a compare-and-swap
// on the head: Ring has exactly one writer, so a plain load-then-store
// is race-free.
//
// One slot is always held in reserve as a full/empty sentinel, so a ring
// of capacity C holds at most C-1 messages at once.
type Ring struct {
	_     [0]func() // makes Ring non-comparable
	head  atomic.Uint32
	tail  atomic.Uint32
	slots []Message
}

// NewRing allocates a ring buffer with the given capacity (number of
// slots); one slot is reserved, so it accepts at most capacity-1 messages.
func NewRing(capacity int) *Ring {
	if capacity <= 1 {
		capacity = 2
	}
	return &Ring{slots: make([]Message, capacity)}
}

// Len returns the number of messages currently waiting.
func (r *Ring) Len() int {
	return int(r.head.Load() - r.tail.Load())
}

// Cap returns the ring's configured capacity. The number of messages it
// will actually hold at once is one less, per the reserved sentinel slot.
func (r *Ring) Cap() int {
	return len(r.slots)
}

// Resize replaces the ring's backing storage with a new capacity, dropping
// any messages already queued. Used by the event log, which needs an
// enlarged inbound mailbox at Init.
func (r *Ring) Resize(capacity int) {
	if capacity <= 1 {
		capacity = 2
	}
	r.head.Store(0)
	r.tail.Store(0)
	r.slots = make([]Message, capacity)
}

// TrySend enqueues msg, returning false if the ring is full. One slot is
// always kept empty as the full/empty sentinel, so a ring of N slots
// accepts at most N-1 queued messages.
func (r *Ring) TrySend(msg Message) bool {
	head := r.head.Load()
	tail := r.tail.Load()
	if int(head-tail) >= len(r.slots)-1 {
		return false
	}
	r.slots[int(head)%len(r.slots)] = msg
	r.head.Store(head + 1)
	return true
}

// Send blocks until msg can be enqueued.
func (r *Ring) Send(msg Message) {
	for !r.TrySend(msg) {
		runtime.Gosched()
	}
}

// TryRecv dequeues the oldest message, returning false if the ring is empty.
func (r *Ring) TryRecv() (Message, bool) {
	tail := r.tail.Load()
	head := r.head.Load()
	if tail == head {
		return Message{}, false
	}
	msg := r.slots[int(tail)%len(r.slots)]
	r.tail.Store(tail + 1)
	return msg, true
}

// Recv blocks until a message is available.
func (r *Ring) Recv() Message {
	for {
		msg, ok := r.TryRecv()
		if ok {
			return msg
		}
		runtime.Gosched()
	}
}
