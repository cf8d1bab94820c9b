package websocket

import "sync"

// mailbox is an unbounded FIFO queue. push never blocks; the owner waits on
// ready and drains everything queued so far in submission order.
type mailbox struct {
	mu     sync.Mutex
	queue  []request
	ready  chan struct{}
	closed bool
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

func (m *mailbox) push(req request) (int, bool) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0, false
	}
	m.queue = append(m.queue, req)
	depth := len(m.queue)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return depth, true
}

func (m *mailbox) drain() []request {
	m.mu.Lock()
	defer m.mu.Unlock()
	batch := m.queue
	m.queue = nil
	return batch
}

func (m *mailbox) close() []request {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	rest := m.queue
	m.queue = nil
	return rest
}
