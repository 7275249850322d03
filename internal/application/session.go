package application

import "sync/atomic"

// Session is the live state of one conversation. Stop may be called from any
// goroutine; the controller only looks at the flag between turns.
type Session struct {
	id     string
	active atomic.Bool
}

func NewSession(id string) *Session {
	return &Session{id: id}
}

func (s *Session) ID() string { return s.id }

func (s *Session) Active() bool { return s.active.Load() }

func (s *Session) Activate() { s.active.Store(true) }

func (s *Session) Stop() { s.active.Store(false) }
