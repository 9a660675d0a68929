package store

import (
	"context"

	"salaryreport/internal/cache"
	"salaryreport/internal/core"
)

// Cached serves GetByID from an LRU cache in front of another store.
// Stored reports never change, so entries are only dropped by size or TTL.
type Cached struct {
	ReportStore
	reports *cache.LRUCache[core.StoredReport]
}

func NewCached(next ReportStore, reports *cache.LRUCache[core.StoredReport]) *Cached {
	return &Cached{ReportStore: next, reports: reports}
}

func (c *Cached) Insert(ctx context.Context, report core.SalaryReport, input core.SalaryInput, sourceAddress string) (core.StoredReport, error) {
	rec, err := c.ReportStore.Insert(ctx, report, input, sourceAddress)
	if err != nil {
		return rec, err
	}
	c.reports.Set(rec.ID, rec)
	return rec, nil
}

func (c *Cached) GetByID(ctx context.Context, id string) (core.StoredReport, error) {
	key, err := core.CanonicalReportID(id)
	if err != nil {
		return core.StoredReport{}, err
	}
	if rec, ok := c.reports.Get(key); ok {
		return rec, nil
	}
	rec, err := c.ReportStore.GetByID(ctx, key)
	if err != nil {
		return rec, err
	}
	c.reports.Set(key, rec)
	return rec, nil
}

// CacheStats exposes the underlying cache counters.
func (c *Cached) CacheStats() cache.Stats {
	return c.reports.Stats()
}

// CleanExpired drops expired entries; it makes Cached a cache.Cleaner.
func (c *Cached) CleanExpired() int {
	return c.reports.CleanExpired()
}
