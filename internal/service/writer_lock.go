package service

import (
	"context"
	"time"
)

type lockObserver interface {
	ObserveLockWait(duration time.Duration)
}

// WriterLock serialises load-modify-save cycles against the semester
// collection. The collection is stored as one value, so a single lock covers
// every semester: two writers touching different semesters would still
// overwrite each other's snapshot.
type WriterLock struct {
	sem      chan struct{}
	observer lockObserver
}

// NewWriterLock returns an unlocked WriterLock. observer may be nil.
func NewWriterLock(observer lockObserver) *WriterLock {
	return &WriterLock{sem: make(chan struct{}, 1), observer: observer}
}

// Acquire blocks until the lock is held or ctx is done.
func (l *WriterLock) Acquire(ctx context.Context) error {
	start := time.Now()
	select {
	case l.sem <- struct{}{}:
		if l.observer != nil {
			l.observer.ObserveLockWait(time.Since(start))
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release gives the lock back. It must follow a successful Acquire.
func (l *WriterLock) Release() {
	<-l.sem
}
