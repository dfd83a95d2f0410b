package tracker

import (
	"context"

	"github.com/rotisserie/eris"

	"sfpark-collector/internal/model"
	"sfpark-collector/internal/sfpark"
)

// IDLoader returns the ids of every location already persisted.
type IDLoader interface {
	LocationIDs(ctx context.Context) ([]int64, error)
}

// Options tunes the staging decisions.
type Options struct {
	// EagerLocations stages an unseen location as soon as it appears instead of
	// waiting for the next date rollover. Rates and hours stay gated either way.
	EagerLocations bool
}

// Tracker decides which normalized rows are staged in a cycle: new locations
// once, rates and hours once per date, availability always.
//
// A Tracker is owned by a single worker and is not safe for concurrent use.
type Tracker struct {
	known      map[int64]struct{}
	lastDateID int
	opts       Options
}

// New creates a tracker whose known set is bootstrapped from the store.
func New(ctx context.Context, loader IDLoader, opts Options) (*Tracker, error) {
	ids, err := loader.LocationIDs(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "tracker: load known location ids")
	}
	return NewWithIDs(ids, opts), nil
}

// NewWithIDs creates a tracker with an explicit known set.
func NewWithIDs(ids []int64, opts Options) *Tracker {
	known := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		known[id] = struct{}{}
	}
	return &Tracker{known: known, opts: opts}
}

// Checkpoint is the tracker state a failed cycle can be rolled back to.
type Checkpoint struct {
	dateID int
	added  []int64
}

// Stage filters res into the rows to persist and advances the tracker. The
// returned checkpoint undoes the advance via Rollback.
func (t *Tracker) Stage(res *sfpark.Result) (model.Batch, Checkpoint) {
	cp := Checkpoint{dateID: t.lastDateID}
	var batch model.Batch

	rollover := res.DateID != t.lastDateID
	if rollover {
		t.lastDateID = res.DateID
	}

	if rollover || t.opts.EagerLocations {
		for _, loc := range res.Locations {
			if _, ok := t.known[loc.ID]; ok {
				continue
			}
			t.known[loc.ID] = struct{}{}
			cp.added = append(cp.added, loc.ID)
			batch.Locations = append(batch.Locations, loc)
		}
	}

	if rollover {
		batch.Rates = append(batch.Rates, res.Rates...)
		batch.Hours = append(batch.Hours, res.Hours...)
	}

	batch.Availability = append(batch.Availability, res.Availability...)
	return batch, cp
}

// Rollback restores the state captured in cp after the staged batch failed to
// persist, so the next cycle stages the same dimensions again.
func (t *Tracker) Rollback(cp Checkpoint) {
	t.lastDateID = cp.dateID
	for _, id := range cp.added {
		delete(t.known, id)
	}
}

// Known reports whether id has been staged or was present at bootstrap.
func (t *Tracker) Known(id int64) bool {
	_, ok := t.known[id]
	return ok
}

// KnownCount returns the size of the known set.
func (t *Tracker) KnownCount() int {
	return len(t.known)
}

// LastDateID returns the date bucket of the last rollover (0 before the first).
func (t *Tracker) LastDateID() int {
	return t.lastDateID
}
