package cache

import (
	"context"
	"sync"
	"time"

	"github.com/getmentor/getmentor-escrow/internal/models"
	"github.com/getmentor/getmentor-escrow/pkg/logger"
	"github.com/getmentor/getmentor-escrow/pkg/metrics"
	"github.com/getmentor/getmentor-escrow/pkg/statedb"
	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"
)

const (
	allMentorsKey    = "mentor:all"
	cacheCheckPeriod = 10 * time.Second
	directoryName    = "mentor_directory"
)

// MentorSource loads every registered mentor from committed ledger state
type MentorSource interface {
	AllMentors(ctx context.Context) ([]*models.Mentor, error)
}

// MentorDirectoryInterface is the read side used by the identity service
type MentorDirectoryInterface interface {
	List(ctx context.Context, filter models.MentorFilter) ([]*models.Mentor, error)
	Invalidate()
}

// MentorDirectory caches the mentor listing between ledger commits that touch mentors
type MentorDirectory struct {
	cache      *gocache.Cache
	source     MentorSource
	ttl        time.Duration
	mu         sync.Mutex
	generation uint64
}

// NewMentorDirectory creates a directory cache. ttl bounds staleness if an invalidation is missed.
func NewMentorDirectory(source MentorSource, ttl time.Duration) *MentorDirectory {
	return &MentorDirectory{
		cache:  gocache.New(ttl, cacheCheckPeriod),
		source: source,
		ttl:    ttl,
	}
}

// List returns mentors passing filter. Returned records are shared and must not be modified.
func (d *MentorDirectory) List(ctx context.Context, filter models.MentorFilter) ([]*models.Mentor, error) {
	mentors, err := d.all(ctx)
	if err != nil {
		return nil, err
	}

	filtered := make([]*models.Mentor, 0, len(mentors))
	for _, m := range mentors {
		if filter.Matches(m) {
			filtered = append(filtered, m)
		}
	}
	return filtered, nil
}

func (d *MentorDirectory) all(ctx context.Context) ([]*models.Mentor, error) {
	if data, found := d.cache.Get(allMentorsKey); found {
		if mentors, ok := data.([]*models.Mentor); ok {
			metrics.CacheHits.WithLabelValues(directoryName).Inc()
			return mentors, nil
		}
		logger.Error("Invalid mentor directory cache data type")
		d.cache.Delete(allMentorsKey)
	}
	metrics.CacheMisses.WithLabelValues(directoryName).Inc()

	d.mu.Lock()
	generation := d.generation
	d.mu.Unlock()

	mentors, err := d.source.AllMentors(ctx)
	if err != nil {
		logger.Error("Failed to load mentor directory", zap.Error(err))
		return nil, err
	}

	// a commit that landed during the load makes this snapshot stale
	d.mu.Lock()
	if generation == d.generation {
		d.cache.Set(allMentorsKey, mentors, d.ttl)
		metrics.CacheSize.WithLabelValues(directoryName).Set(float64(len(mentors)))
	}
	d.mu.Unlock()

	logger.Debug("Mentor directory refreshed", zap.Int("count", len(mentors)))
	return mentors, nil
}

// Invalidate drops the cached listing
func (d *MentorDirectory) Invalidate() {
	d.mu.Lock()
	d.generation++
	d.cache.Delete(allMentorsKey)
	d.mu.Unlock()
}

// OnCommit is a statedb commit hook that invalidates the listing when mentor records changed
func (d *MentorDirectory) OnCommit(_ uint64, events []statedb.Event) {
	for _, e := range events {
		switch models.EventName(e.EventName()) {
		case models.EventMentorRegistered, models.EventSessionStarted,
			models.EventSessionEnded, models.EventMentorRated, models.EventEmergencyWithdrawal:
			d.Invalidate()
			return
		}
	}
}
