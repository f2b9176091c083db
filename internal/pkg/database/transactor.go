package database

import (
	"context"
	"errors"
	"sync"
)

var ErrNoTransaction = errors.New("lock requested outside of a transaction")

// Transactor runs fn inside one atomic unit of work. Repositories called
// with the ctx passed to fn take part in the same transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// KeyedMutex hands out one mutex per key and forgets keys nobody holds.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock blocks until key is free or ctx is done. The returned func releases it.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-e.ch
				k.unref(key, e)
			})
		}, nil
	case <-ctx.Done():
		k.unref(key, e)
		return nil, ctx.Err()
	}
}

func (k *KeyedMutex) unref(key string, e *keyedEntry) {
	k.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()
}

type lockSetKey struct{}

type lockSet struct {
	mu      sync.Mutex
	held    map[string]bool
	unlocks []func()
}

// WithLockSet returns a ctx that collects locks taken through LockInTx.
// Call the returned func once the unit of work is finished.
func WithLockSet(ctx context.Context) (context.Context, func()) {
	ls := &lockSet{held: make(map[string]bool)}
	return context.WithValue(ctx, lockSetKey{}, ls), func() {
		ls.mu.Lock()
		defer ls.mu.Unlock()
		for i := len(ls.unlocks) - 1; i >= 0; i-- {
			ls.unlocks[i]()
		}
		ls.unlocks = nil
		ls.held = map[string]bool{}
	}
}

// InLockSet reports whether ctx belongs to a unit of work.
func InLockSet(ctx context.Context) bool {
	_, ok := ctx.Value(lockSetKey{}).(*lockSet)
	return ok
}

// LockInTx takes key on km and holds it until the unit of work started with
// WithLockSet ends. Re-locking a key already held by the same unit is a no-op.
func LockInTx(ctx context.Context, km *KeyedMutex, key string) error {
	ls, ok := ctx.Value(lockSetKey{}).(*lockSet)
	if !ok {
		return ErrNoTransaction
	}
	ls.mu.Lock()
	already := ls.held[key]
	ls.mu.Unlock()
	if already {
		return nil
	}

	unlock, err := km.Lock(ctx, key)
	if err != nil {
		return err
	}
	ls.mu.Lock()
	ls.held[key] = true
	ls.unlocks = append(ls.unlocks, unlock)
	ls.mu.Unlock()
	return nil
}
