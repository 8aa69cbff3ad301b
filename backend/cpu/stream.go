package cpu

import "sync"

// stream is an unbounded FIFO command queue drained by one goroutine.
// Commands run in submission order; synchronize blocks until every
// command enqueued before it has finished.
type stream struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	busy   bool
	closed bool
}

func newStream() *stream {
	s := &stream{}
	s.cond = sync.NewCond(&s.mu)
	go s.run()
	return s
}

func (s *stream) run() {
	s.mu.Lock()
	for {
		for len(s.queue) == 0 && !s.closed {
			s.cond.Wait()
		}
		if s.closed && len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		cmd := s.queue[0]
		s.queue = s.queue[1:]
		s.busy = true
		s.mu.Unlock()

		cmd()

		s.mu.Lock()
		s.busy = false
		s.cond.Broadcast()
	}
}

// enqueue appends a command. Returns false after close.
func (s *stream) enqueue(cmd func()) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.queue = append(s.queue, cmd)
	s.cond.Broadcast()
	return true
}

// synchronize blocks until the queue is drained and no command is
// running.
func (s *stream) synchronize() {
	s.mu.Lock()
	for len(s.queue) > 0 || s.busy {
		s.cond.Wait()
	}
	s.mu.Unlock()
}

// close drains outstanding commands and stops the worker. Idempotent.
func (s *stream) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.cond.Broadcast()
	for len(s.queue) > 0 || s.busy {
		s.cond.Wait()
	}
	s.mu.Unlock()
}
