package bridge

import "sync"

// Queue is an unbounded FIFO of NetRecvMsg. Push never blocks, which is what
// lets any number of connections report events without waiting on the game.
type Queue struct {
	mu     sync.Mutex
	items  []NetRecvMsg
	notify chan struct{}
}

func NewQueue() *Queue {
	return &Queue{notify: make(chan struct{}, 1)}
}

// Push appends msg to the queue.
func (q *Queue) Push(msg NetRecvMsg) {
	q.mu.Lock()
	q.items = append(q.items, msg)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// Drain removes and returns everything currently queued, oldest first. It
// returns nil when the queue is empty.
func (q *Queue) Drain() []NetRecvMsg {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.items) == 0 {
		return nil
	}
	items := q.items
	q.items = nil
	return items
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Ready is signalled after a Push. It is only a hint; Drain may still return
// nothing if another consumer got there first.
func (q *Queue) Ready() <-chan struct{} {
	return q.notify
}
