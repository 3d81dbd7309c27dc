package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"live-tracker/internal/core/cache"
	"live-tracker/internal/core/logger"
	"live-tracker/internal/features/tracking/domain"
	"live-tracker/internal/features/tracking/ports"

	"go.uber.org/zap"
)

// SnapshotService serves on-demand tracking snapshots with a read-through
// cache in front of the tracking API. The cache is an accelerator for
// repeated lookups, never the source of truth for the live view: cache
// failures fall through to the provider transparently.
type SnapshotService struct {
	provider ports.SnapshotProvider
	cache    cache.Cache
	ttl      time.Duration
	log      *zap.Logger
}

// NewSnapshotService creates a SnapshotService. A nil cache disables caching.
func NewSnapshotService(provider ports.SnapshotProvider, c cache.Cache, ttl time.Duration) *SnapshotService {
	return &SnapshotService{
		provider: provider,
		cache:    c,
		ttl:      ttl,
		log:      logger.Get(),
	}
}

// GetSnapshot returns the tracking snapshot for a tracking number, from the
// cache when fresh, from the tracking API otherwise. Typed fetch failures
// from the ports package propagate verbatim.
func (s *SnapshotService) GetSnapshot(ctx context.Context, trackingNumber string) (*domain.Snapshot, error) {
	key := cacheKey(trackingNumber)

	if s.cache != nil {
		if data, err := s.cache.Get(ctx, key); err == nil {
			var snap domain.Snapshot
			if err := json.Unmarshal(data, &snap); err == nil {
				return &snap, nil
			}
			s.log.Warn("Evicting undecodable cached snapshot", zap.String("key", key))
			s.cache.Delete(ctx, key)
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn("Snapshot cache unavailable", zap.Error(err))
		}
	}

	snap, err := s.provider.FetchSnapshot(ctx, trackingNumber)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if data, err := json.Marshal(snap); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				s.log.Warn("Failed to cache snapshot", zap.String("key", key), zap.Error(err))
			}
		}
	}

	return snap, nil
}

func cacheKey(trackingNumber string) string {
	return "snapshot:" + trackingNumber
}
