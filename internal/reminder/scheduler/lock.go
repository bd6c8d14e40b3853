package scheduler

import "context"

// TickLock serializes ticks across replicas. Acquire returns acquired=false
// when another holder owns the lock; release is a no-op in that case.
type TickLock interface {
	Acquire(ctx context.Context) (release func(), acquired bool, err error)
}

// NoopLock always grants the tick. Used for single-instance deployments.
type NoopLock struct{}

func (NoopLock) Acquire(context.Context) (func(), bool, error) {
	return func() {}, true, nil
}
