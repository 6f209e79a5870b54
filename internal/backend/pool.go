package backend

import (
	"errors"
	"sync/atomic"
)

// ErrExhausted is returned when every backend has been disabled.
var ErrExhausted = errors.New("all backends exhausted")

type member struct {
	backend Backend
	enabled atomic.Bool
}

// Pool tracks which backends remain usable for the run. A backend that
// returns an unusable error is disabled once and stays disabled; selection
// always prefers the configured primary while it is still enabled.
type Pool struct {
	members   []*member
	preferred string
}

// NewPool creates a pool over the given backends, all initially enabled.
// preferred names the backend tried first; it must be one of backends.
func NewPool(preferred string, backends ...Backend) *Pool {
	p := &Pool{preferred: preferred}
	for _, b := range backends {
		m := &member{backend: b}
		m.enabled.Store(true)
		p.members = append(p.members, m)
	}
	return p
}

// Current returns the preferred backend if it is still enabled, otherwise
// the first enabled backend in registration order.
func (p *Pool) Current() (Backend, error) {
	for _, m := range p.members {
		if m.backend.Name() == p.preferred && m.enabled.Load() {
			return m.backend, nil
		}
	}
	for _, m := range p.members {
		if m.enabled.Load() {
			return m.backend, nil
		}
	}
	return nil, ErrExhausted
}

// Disable marks the named backend unusable for the remainder of the run.
func (p *Pool) Disable(name string) {
	for _, m := range p.members {
		if m.backend.Name() == name {
			m.enabled.Store(false)
		}
	}
}

// Enabled reports whether the named backend is still usable.
func (p *Pool) Enabled(name string) bool {
	for _, m := range p.members {
		if m.backend.Name() == name {
			return m.enabled.Load()
		}
	}
	return false
}
