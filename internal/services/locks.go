package services

import (
	"context"
	"sync"
)

// SimulationLocks serializes operations per simulation id. Operations on
// different simulations never wait on each other.
type SimulationLocks struct {
	mu    sync.Mutex
	locks map[string]*simulationLock
}

type simulationLock struct {
	sem  chan struct{}
	refs int
}

func NewSimulationLocks() *SimulationLocks {
	return &SimulationLocks{locks: make(map[string]*simulationLock)}
}

// Acquire blocks until the simulation is free or ctx is done. The returned
// func releases the lock and must be called exactly once.
func (l *SimulationLocks) Acquire(ctx context.Context, simulationID string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[simulationID]
	if !ok {
		lk = &simulationLock{sem: make(chan struct{}, 1)}
		l.locks[simulationID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.sem <- struct{}{}:
		return func() {
			<-lk.sem
			l.release(simulationID, lk)
		}, nil
	case <-ctx.Done():
		l.release(simulationID, lk)
		return nil, ctx.Err()
	}
}

func (l *SimulationLocks) release(simulationID string, lk *simulationLock) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, simulationID)
	}
}
