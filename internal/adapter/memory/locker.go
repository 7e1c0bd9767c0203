package memory

import (
	"context"
	"sync"

	"koerperwerte/internal/domain"
)

var _ domain.GroupLocker = (*Locker)(nil)

// Locker serializes writers per group within one process.
type Locker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

// NewLocker creates an in-process group locker.
func NewLocker() *Locker {
	return &Locker{slots: make(map[string]chan struct{})}
}

// Lock blocks until the group is free or ctx is done.
func (l *Locker) Lock(ctx context.Context, group string) (func(), error) {
	slot := l.slot(group)
	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (l *Locker) slot(group string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[group]
	if !ok {
		s = make(chan struct{}, 1)
		l.slots[group] = s
	}
	return s
}
