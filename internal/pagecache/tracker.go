// File: internal/pagecache/tracker.go
package pagecache

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
	"github.com/xkilldash9x/pagescope-cli/internal/extract"
)

// Archive receives observation results for offline persistence. The tracker
// treats archiving as best-effort: a failing archive degrades to "history not
// recorded", never to a failed observation.
type Archive interface {
	SaveObservation(ctx context.Context, url string, interactive, informative schemas.ElementMap, delta schemas.SnapshotDelta) error
}

// Tracker runs the extractor against incoming snapshots, diffs the result
// against the cache and republishes only the delta.
type Tracker struct {
	cache     *Cache
	extractor *extract.Extractor
	archive   Archive
	logger    *zap.Logger

	// urlLocks serializes observations per URL. Diffs must be applied in
	// snapshot order; an out-of-order apply could report a removal that is
	// really a stale re-observation. Distinct URLs share no mutable state and
	// run concurrently.
	mu       sync.Mutex
	urlLocks map[string]*sync.Mutex
}

// NewTracker creates a tracker bound to a session cache. archive may be nil.
func NewTracker(cache *Cache, extractor *extract.Extractor, archive Archive, logger *zap.Logger) *Tracker {
	return &Tracker{
		cache:     cache,
		extractor: extractor,
		archive:   archive,
		logger:    logger.Named("tracker"),
		urlLocks:  make(map[string]*sync.Mutex),
	}
}

// lockURL returns the per-URL observation lock, creating it on first use.
func (t *Tracker) lockURL(url string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()
	lock, ok := t.urlLocks[url]
	if !ok {
		lock = &sync.Mutex{}
		t.urlLocks[url] = lock
	}
	return lock
}

// Observe extracts both element sets from the snapshot, diffs each side
// against the current baseline by full element-value identity, and installs
// new baselines plus update buckets for any side whose diff is non-empty. A
// side with an empty diff is left completely untouched: a no-op observation
// produces no spurious update.
//
// The first observation of a URL diffs against an empty baseline, so the
// entire first snapshot becomes the update set.
func (t *Tracker) Observe(ctx context.Context, snap *schemas.PageSnapshot) (schemas.SnapshotDelta, error) {
	delta := schemas.SnapshotDelta{URL: snap.URL}
	if err := ctx.Err(); err != nil {
		return delta, err
	}

	lock := t.lockURL(snap.URL)
	lock.Lock()
	defer lock.Unlock()

	interactive := toElementMap(t.extractor.ExtractInteractive(snap.Document))
	informative := toElementMap(t.extractor.ExtractInformative(snap.Accessibility))

	oldInteractive, _ := t.cache.Interactive(snap.URL)
	if diff := diffElements(interactive, oldInteractive); len(diff) > 0 {
		t.cache.installInteractive(snap.URL, interactive, diff.Clone())
		delta.InteractiveUpdates = diff
	}

	oldInformative, _ := t.cache.Informative(snap.URL)
	if diff := diffElements(informative, oldInformative); len(diff) > 0 {
		t.cache.installInformative(snap.URL, informative, diff.Clone())
		delta.InformativeUpdates = diff
	}

	t.logger.Debug("Observed page",
		zap.String("url", snap.URL),
		zap.Int("interactive", len(interactive)),
		zap.Int("informative", len(informative)),
		zap.Int("interactive_updates", len(delta.InteractiveUpdates)),
		zap.Int("informative_updates", len(delta.InformativeUpdates)))

	if t.archive != nil && delta.Changed() {
		if err := t.archive.SaveObservation(ctx, snap.URL, interactive, informative, delta); err != nil {
			t.logger.Warn("Failed to archive observation", zap.String("url", snap.URL), zap.Error(err))
		}
	}

	return delta, nil
}

// toElementMap keys an extracted element list by selector. Lists arrive
// already deduplicated, so first-wins insertion preserves extraction order
// semantics.
func toElementMap(elements []schemas.Element) schemas.ElementMap {
	m := make(schemas.ElementMap, len(elements))
	for _, elem := range elements {
		if _, exists := m[elem.Selector]; !exists {
			m[elem.Selector] = elem
		}
	}
	return m
}

// diffElements returns the entries of next that are absent from prev by full
// value identity: same selector but changed contents counts as changed, a
// brand-new selector counts as new. Entries only present in prev do not
// appear in the diff.
func diffElements(next, prev schemas.ElementMap) schemas.ElementMap {
	diff := make(schemas.ElementMap)
	for sel, elem := range next {
		old, ok := prev[sel]
		if !ok || old.Identity() != elem.Identity() {
			diff[sel] = elem
		}
	}
	return diff
}
