package telegram

import "sync"

// Shutdown - одноразовый сигнал остановки. Повторный Signal ничего не делает,
// поэтому один указатель можно раздать любому числу владельцев.
type Shutdown struct {
	once sync.Once
	done chan struct{}
}

func NewShutdown() *Shutdown {
	return &Shutdown{done: make(chan struct{})}
}

func (s *Shutdown) Signal() {
	s.once.Do(func() {
		close(s.done)
	})
}

func (s *Shutdown) Done() <-chan struct{} {
	return s.done
}

func (s *Shutdown) Signaled() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}
