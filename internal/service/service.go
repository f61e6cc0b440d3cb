// File: internal/service/service.go

// Package service exposes the page semantic model to the action/decision
// layer. One PageModel exists per browsing session; it owns the session's
// cache and tracker and delegates selector resolution back to the browser
// driver. There is deliberately no global instance.
package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/pagescope-cli/api/schemas"
	"github.com/xkilldash9x/pagescope-cli/internal/blocks"
	"github.com/xkilldash9x/pagescope-cli/internal/config"
	"github.com/xkilldash9x/pagescope-cli/internal/extract"
	"github.com/xkilldash9x/pagescope-cli/internal/pagecache"
)

// PageModel is the session-scoped semantic view of every page the session
// has observed.
type PageModel struct {
	sessionID string
	driver    schemas.PageDriver
	cache     *pagecache.Cache
	tracker   *pagecache.Tracker
	grouper   *blocks.Grouper
	logger    *zap.Logger
}

// New wires a page model for one session. archive may be nil to disable
// observation history.
func New(driver schemas.PageDriver, cfg config.ExtractorConfig, archive pagecache.Archive, logger *zap.Logger) *PageModel {
	return NewWithSessionID(uuid.NewString(), driver, cfg, archive, logger)
}

// NewWithSessionID wires a page model under an externally chosen session ID,
// so the archive and the model can share one identity.
func NewWithSessionID(sessionID string, driver schemas.PageDriver, cfg config.ExtractorConfig, archive pagecache.Archive, logger *zap.Logger) *PageModel {
	logger = logger.Named("pagemodel").With(zap.String("session_id", sessionID))

	cache := pagecache.NewCache(logger)
	extractor := extract.New(logger, cfg)

	return &PageModel{
		sessionID: sessionID,
		driver:    driver,
		cache:     cache,
		tracker:   pagecache.NewTracker(cache, extractor, archive, logger),
		grouper:   blocks.New(logger),
		logger:    logger,
	}
}

// SessionID identifies this model's session in logs and archives.
func (m *PageModel) SessionID() string { return m.sessionID }

// Observe captures a fresh snapshot from the driver and feeds it through the
// tracker, returning the delta against the cached baseline.
func (m *PageModel) Observe(ctx context.Context) (schemas.SnapshotDelta, error) {
	snap, err := m.driver.Snapshot(ctx)
	if err != nil {
		return schemas.SnapshotDelta{}, fmt.Errorf("snapshot failed: %w", err)
	}
	return m.tracker.Observe(ctx, snap)
}

// ObserveSnapshot feeds an already captured snapshot through the tracker.
// Useful when the caller batches snapshot capture separately.
func (m *PageModel) ObserveSnapshot(ctx context.Context, snap *schemas.PageSnapshot) (schemas.SnapshotDelta, error) {
	return m.tracker.Observe(ctx, snap)
}

// ListInteractive returns the cached interactive elements for url, sorted by
// selector for stable output. A URL that was never observed yields an empty
// list, not an error: the caller must trigger an observation first.
func (m *PageModel) ListInteractive(url string) []schemas.Element {
	elements, _ := m.cache.Interactive(url)
	return sortedElements(elements)
}

// ListInformative returns the cached informative elements for url.
func (m *PageModel) ListInformative(url string) []schemas.Element {
	elements, _ := m.cache.Informative(url)
	return sortedElements(elements)
}

// DrainInteractiveUpdates empties and returns the pending interactive delta
// for url. Each delta is delivered exactly once.
func (m *PageModel) DrainInteractiveUpdates(url string) schemas.ElementMap {
	return m.cache.DrainInteractiveUpdates(url)
}

// DrainInformativeUpdates empties and returns the pending informative delta
// for url.
func (m *PageModel) DrainInformativeUpdates(url string) schemas.ElementMap {
	return m.cache.DrainInformativeUpdates(url)
}

// Clear empties the cached element sets for url while keeping the record.
func (m *PageModel) Clear(url string) {
	m.cache.Clear(url)
}

// ResolveSelector delegates to the browser driver to turn a cached selector
// into a live, operable handle. ErrTargetLost surfaces unchanged.
func (m *PageModel) ResolveSelector(ctx context.Context, selector string) (schemas.Target, error) {
	return m.driver.Resolve(ctx, selector)
}

// ExtractBlocks snapshots the page and returns the block-level grouping of
// the results section announced by headerLabel. Falls back to the whole
// accessibility tree when no working root can be determined.
func (m *PageModel) ExtractBlocks(ctx context.Context, headerLabel string) ([]*schemas.AccessibilityNode, error) {
	snap, err := m.driver.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot failed: %w", err)
	}

	workingRoot := m.grouper.FindWorkingRoot(snap.Accessibility, headerLabel)
	if workingRoot == nil {
		m.logger.Debug("No working root found; grouping over the full tree", zap.String("url", snap.URL))
		workingRoot = snap.Accessibility
	}
	return m.grouper.ExtractBlocks(workingRoot), nil
}

// sortedElements flattens an element map into a selector-sorted slice.
func sortedElements(elements schemas.ElementMap) []schemas.Element {
	out := make([]schemas.Element, 0, len(elements))
	for _, elem := range elements {
		out = append(out, elem)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Selector < out[j].Selector })
	return out
}
