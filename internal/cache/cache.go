// Package cache holds the local summary cache: the durable lecture id →
// CachedSummary mapping displayed by the summaries dashboard.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/kiranshivaraju/lecturepilot/internal/store"
	"github.com/kiranshivaraju/lecturepilot/pkg/models"
)

// SummaryCache stores CachedSummary records as one JSON array under
// SummariesKey, most recent first. Read-modify-write sequences hold mu so
// no caller observes a half-applied update. There is no expiry.
type SummaryCache struct {
	store store.Store
	mu    sync.Mutex
}

// NewSummaryCache creates a SummaryCache backed by s.
func NewSummaryCache(s store.Store) *SummaryCache {
	return &SummaryCache{store: s}
}

// Upsert removes any record with the same lecture id and inserts rec at the front.
func (c *SummaryCache) Upsert(ctx context.Context, rec models.CachedSummary) error {
	if rec.LectureID == "" {
		return fmt.Errorf("upsert summary: lecture id is required")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}

	updated := make([]models.CachedSummary, 0, len(records)+1)
	updated = append(updated, rec)
	for _, r := range records {
		if r.LectureID != rec.LectureID {
			updated = append(updated, r)
		}
	}
	return c.save(ctx, updated)
}

// All returns every record in stored order. Unparsable stored data is
// treated as an empty collection.
func (c *SummaryCache) All(ctx context.Context) ([]models.CachedSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.load(ctx)
}

// Get returns the record for lectureID, if any.
func (c *SummaryCache) Get(ctx context.Context, lectureID string) (*models.CachedSummary, bool, error) {
	records, err := c.All(ctx)
	if err != nil {
		return nil, false, err
	}
	for i := range records {
		if records[i].LectureID == lectureID {
			return &records[i], true, nil
		}
	}
	return nil, false, nil
}

// Delete removes the record for lectureID. Deleting an absent id is a no-op
// and does not rewrite the store.
func (c *SummaryCache) Delete(ctx context.Context, lectureID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	records, err := c.load(ctx)
	if err != nil {
		return err
	}

	kept := make([]models.CachedSummary, 0, len(records))
	for _, r := range records {
		if r.LectureID != lectureID {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(records) {
		return nil
	}
	return c.save(ctx, kept)
}

func (c *SummaryCache) load(ctx context.Context) ([]models.CachedSummary, error) {
	raw, found, err := c.store.Get(ctx, SummariesKey)
	if err != nil {
		return nil, fmt.Errorf("read summaries: %w", err)
	}
	if !found || len(raw) == 0 {
		return []models.CachedSummary{}, nil
	}

	var records []models.CachedSummary
	if err := json.Unmarshal(raw, &records); err != nil {
		slog.Warn("discarding malformed summary cache", "error", err)
		return []models.CachedSummary{}, nil
	}
	if records == nil {
		return []models.CachedSummary{}, nil
	}
	return records, nil
}

func (c *SummaryCache) save(ctx context.Context, records []models.CachedSummary) error {
	raw, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode summaries: %w", err)
	}
	if err := c.store.Set(ctx, SummariesKey, raw); err != nil {
		return fmt.Errorf("write summaries: %w", err)
	}
	return nil
}
