package session

import (
	"sync"

	"github.com/eapache/queue"
)

// mailbox is the unbounded FIFO feeding the event loop. Unlike a buffered
// channel it never drops a continuation when producers outpace the loop.
type mailbox struct {
	mu     sync.Mutex
	q      *queue.Queue
	ready  chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{
		q:     queue.New(),
		ready: make(chan struct{}, 1),
	}
}

// push enqueues fn. It returns false once the mailbox is closed.
func (m *mailbox) push(fn func()) bool {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false
	}
	m.q.Add(fn)
	m.mu.Unlock()

	m.signal()
	return true
}

// pop blocks until a function is available or the mailbox is closed and
// drained.
func (m *mailbox) pop() (func(), bool) {
	for {
		m.mu.Lock()
		if m.q.Length() > 0 {
			fn := m.q.Remove().(func())
			m.mu.Unlock()
			return fn, true
		}
		if m.closed {
			m.mu.Unlock()
			return nil, false
		}
		m.mu.Unlock()
		<-m.ready
	}
}

// close stops accepting functions. Queued ones are still delivered.
func (m *mailbox) close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.signal()
}

func (m *mailbox) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.q.Length()
}

func (m *mailbox) signal() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}
