package dataset

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"surveytab/domain/core"
	"surveytab/domain/snapshot"
	"surveytab/internal"
	"surveytab/internal/profiling"
	"surveytab/ports"
)

// DefaultLoadTimeout bounds one shared source load.
const DefaultLoadTimeout = 2 * time.Minute

// Cache owns the current dataset snapshot. Readers get the snapshot pointer
// without locking; a refresh builds a new snapshot and swaps it in whole.
// Concurrent refreshes share one load, which runs detached from any single
// caller's context.
type Cache struct {
	source      ports.DatasetSource
	ordinals    map[string][]string
	loadTimeout time.Duration
	current     atomic.Pointer[snapshot.Snapshot]
	group       singleflight.Group
	drift       *DriftDetector
	lastDiff    atomic.Pointer[DriftReport]
	logger      *internal.Logger
}

// NewCache creates a cache over a source. ordinals declare display orders
// used during schema inference.
func NewCache(source ports.DatasetSource, ordinals map[string][]string) *Cache {
	return &Cache{
		source:      source,
		ordinals:    ordinals,
		loadTimeout: DefaultLoadTimeout,
		drift:       NewDriftDetector(DefaultDriftThresholds()),
		logger:      internal.DefaultLogger.With("dataset"),
	}
}

// SetLoadTimeout changes the bound on a single source load.
func (c *Cache) SetLoadTimeout(d time.Duration) {
	if d > 0 {
		c.loadTimeout = d
	}
}

// Get returns the current snapshot, loading it on first use.
func (c *Cache) Get(ctx context.Context) (*snapshot.Snapshot, error) {
	if s := c.current.Load(); s != nil {
		return s, nil
	}
	return c.Refresh(ctx)
}

// Refresh reloads the dataset. On failure the previous snapshot stays current.
// A caller whose context ends early gets ctx.Err() while the shared load keeps
// running for the other waiters.
func (c *Cache) Refresh(ctx context.Context) (*snapshot.Snapshot, error) {
	ch := c.group.DoChan("refresh", func() (interface{}, error) {
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.loadTimeout)
		defer cancel()

		ds, err := c.source.Load(loadCtx)
		if err != nil {
			c.logger.Error("load from %s failed: %v", c.source.Name(), err)
			if core.IsUpstreamError(err) {
				return nil, err
			}
			return nil, core.NewUpstreamError(c.source.Name(), err)
		}
		fields := profiling.InferSchema(ds, c.ordinals)
		s := snapshot.New(c.source.Name(), ds, fields)

		if prev := c.current.Swap(s); prev != nil {
			c.recordDrift(prev, s)
		}
		c.logger.Info("loaded %d records, %d fields from %s (snapshot %s)", s.Len(), len(fields), c.source.Name(), s.ID)
		return s, nil
	})

	select {
	case <-ctx.Done():
		c.logger.Debug("refresh abandoned by caller: %v", ctx.Err())
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.Trace("refresh shared with a concurrent caller")
		}
		return res.Val.(*snapshot.Snapshot), nil
	}
}

// Peek returns the current snapshot without loading.
func (c *Cache) Peek() *snapshot.Snapshot {
	return c.current.Load()
}

// LastDrift returns the schema changes found by the last refresh that replaced
// a snapshot, nil before the first reload.
func (c *Cache) LastDrift() *DriftReport {
	return c.lastDiff.Load()
}

func (c *Cache) recordDrift(prev, next *snapshot.Snapshot) {
	if prev.Fingerprint == next.Fingerprint {
		c.logger.Debug("reloaded %s: contents unchanged (%s)", c.source.Name(), next.Fingerprint.Short())
		c.lastDiff.Store(&DriftReport{Changes: []FieldChange{}})
		return
	}
	report := c.drift.Detect(prev.Fields, next.Fields)
	c.lastDiff.Store(report)
	switch {
	case report.Severity >= DriftSeverityMedium:
		c.logger.Warn("schema drift on %s: %d changes, severity %s", c.source.Name(), len(report.Changes), report.Severity)
	case len(report.Changes) > 0:
		c.logger.Info("schema drift on %s: %d minor changes", c.source.Name(), len(report.Changes))
	}
}
