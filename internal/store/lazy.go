package store

import (
	"fmt"
	"sync"
)

// Provider constructs the underlying store handle. Called at most once.
type Provider func() (Store, error)

// Lazy holds the single process-wide store handle, created on first use and
// reused for the process lifetime. A first-call race yields exactly one
// handle; a failed initialization is sticky and reported to every caller.
type Lazy struct {
	once    sync.Once
	provide Provider
	handle  Store
	err     error
}

// NewLazy wraps a provider in a single-initialization holder.
func NewLazy(provide Provider) *Lazy {
	return &Lazy{provide: provide}
}

// Get returns the shared handle, initializing it on the first call.
func (l *Lazy) Get() (Store, error) {
	l.once.Do(func() {
		l.handle, l.err = l.provide()
		if l.err != nil {
			l.err = fmt.Errorf("%w: %v", ErrUnavailable, l.err)
		}
	})
	return l.handle, l.err
}
