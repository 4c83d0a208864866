package service

import (
	"context"
	"sync/atomic"

	"github.com/noah-isme/timetable-builder/internal/models"
)

type revisionKey struct{}

// WithExpectedRevision makes the next mutation on ctx fail with
// PRECONDITION_FAILED unless the collection is still at revision.
func WithExpectedRevision(ctx context.Context, revision uint64) context.Context {
	return context.WithValue(ctx, revisionKey{}, revision)
}

// ExpectedRevision returns the revision set by WithExpectedRevision, if any.
func ExpectedRevision(ctx context.Context) (uint64, bool) {
	rev, ok := ctx.Value(revisionKey{}).(uint64)
	return rev, ok
}

type trackerKey struct{}

// RevisionTracker receives the collection revision that a call's result
// reflects. Reads record the revision seen before loading, so a write that
// lands during the load leaves the recorded value behind the data and never
// ahead of it. Writes record the revision under the writer lock.
type RevisionTracker struct {
	revision atomic.Uint64
	recorded atomic.Bool
}

// TrackRevision returns a context whose service calls report into the
// returned tracker.
func TrackRevision(ctx context.Context) (context.Context, *RevisionTracker) {
	tracker := &RevisionTracker{}
	return context.WithValue(ctx, trackerKey{}, tracker), tracker
}

// Revision returns the recorded revision and whether any call recorded one.
func (t *RevisionTracker) Revision() (uint64, bool) {
	if t == nil || !t.recorded.Load() {
		return 0, false
	}
	return t.revision.Load(), true
}

func recordRevision(ctx context.Context, revision uint64) {
	tracker, ok := ctx.Value(trackerKey{}).(*RevisionTracker)
	if !ok {
		return
	}
	tracker.revision.Store(revision)
	tracker.recorded.Store(true)
}

// loadTracked reads the collection after recording the revision it is at.
func loadTracked(ctx context.Context, store semesterStore) ([]models.Semester, error) {
	recordRevision(ctx, store.Revision())
	return store.LoadAll(ctx)
}
