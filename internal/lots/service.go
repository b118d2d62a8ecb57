package lots

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"driver-parkmate/internal/backend"
	"driver-parkmate/internal/shared/geo"
	"driver-parkmate/internal/stream"
)

const cacheKey = "parkmate:lots:last-known"
const cacheTTL = 24 * time.Hour

// BackendAPI is the slice of the backend client this service needs.
type BackendAPI interface {
	Lots(ctx context.Context, pos *geo.Position) ([]backend.Lot, error)
}

type cachedSnapshot struct {
	Lots        []backend.Lot `json:"lots"`
	RefreshedAt time.Time     `json:"refreshed_at"`
}

// Service holds the current lot snapshot and the driver's last position and
// keeps the ranked list current. A refresh failure falls back to the redis
// last-known cache instead of emptying the list.
type Service struct {
	api   BackendAPI
	cache *redis.Client
	hub   *stream.Hub
	now   func() time.Time

	mu          sync.RWMutex
	snapshot    []backend.Lot
	index       *Index
	userPos     *geo.Position
	posSeq      uint64
	stale       bool
	refreshedAt time.Time
}

func NewService(api BackendAPI, cache *redis.Client, hub *stream.Hub) *Service {
	return &Service{
		api:   api,
		cache: cache,
		hub:   hub,
		now:   time.Now,
		index: NewIndex(nil),
	}
}

// Refresh pulls a fresh snapshot from the backend. On failure the last
// in-memory or cached snapshot stays live and is marked stale; the error is
// still returned so callers can surface a retryable warning.
func (s *Service) Refresh(ctx context.Context, pos *geo.Position) error {
	fetched, err := s.api.Lots(ctx, pos)
	if err != nil {
		s.mu.Lock()
		if len(s.snapshot) == 0 {
			if cached, ok := s.loadCache(ctx); ok {
				s.snapshot = cached.Lots
				s.index = NewIndex(cached.Lots)
				s.refreshedAt = cached.RefreshedAt
			}
		}
		s.stale = true
		s.mu.Unlock()
		return err
	}

	normalized := make([]backend.Lot, 0, len(fetched))
	for _, lot := range fetched {
		normalized = append(normalized, Normalize(lot))
	}

	s.mu.Lock()
	s.snapshot = normalized
	s.index = NewIndex(normalized)
	s.stale = false
	s.refreshedAt = s.now()
	if pos != nil {
		s.userPos = pos
	}
	s.mu.Unlock()

	s.storeCache(ctx, normalized)
	s.broadcast()
	return nil
}

// SetPosition records a new driver position keyed by the tracker's fix
// sequence. A fix older than the newest one seen is dropped so a late
// callback cannot roll the ranking backward.
func (s *Service) SetPosition(seq uint64, pos geo.Position) bool {
	s.mu.Lock()
	if seq <= s.posSeq {
		s.mu.Unlock()
		return false
	}
	s.posSeq = seq
	p := pos
	s.userPos = &p
	s.mu.Unlock()

	s.broadcast()
	return true
}

// Snapshot returns the ranked list for the current position, optionally
// filtered by vehicle type.
func (s *Service) Snapshot(vehicleType string) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Lots:        FilterType(Rank(s.userPos, s.snapshot), vehicleType),
		Stale:       s.stale,
		RefreshedAt: s.refreshedAt,
	}
}

// Nearest returns the k closest lots to pos, ranked with exact distances.
func (s *Service) Nearest(pos geo.Position, k int) []RankedLot {
	s.mu.RLock()
	idx := s.index
	s.mu.RUnlock()
	return Rank(&pos, idx.Nearest(pos, k))
}

// Within returns the ranked lots inside a map viewport.
func (s *Service) Within(box geo.BoundingBox) []RankedLot {
	s.mu.RLock()
	idx := s.index
	pos := s.userPos
	s.mu.RUnlock()
	return Rank(pos, idx.Within(box))
}

// Rate reports a lot's hourly price, looked up from the current snapshot.
func (s *Service) Rate(lotID string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, lot := range s.snapshot {
		if lot.ID == lotID {
			return lot.PricePerHour, true
		}
	}
	return 0, false
}

func (s *Service) broadcast() {
	if s.hub == nil {
		return
	}
	payload, err := json.Marshal(s.Snapshot(""))
	if err != nil {
		return
	}
	s.hub.Broadcast(stream.TopicLots, payload)
}

func (s *Service) storeCache(ctx context.Context, ls []backend.Lot) {
	if s.cache == nil {
		return
	}
	payload, err := json.Marshal(cachedSnapshot{Lots: ls, RefreshedAt: s.now()})
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, cacheKey, payload, cacheTTL).Err()
}

func (s *Service) loadCache(ctx context.Context) (cachedSnapshot, bool) {
	if s.cache == nil {
		return cachedSnapshot{}, false
	}
	raw, err := s.cache.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return cachedSnapshot{}, false
	}
	var cached cachedSnapshot
	if err := json.Unmarshal(raw, &cached); err != nil {
		return cachedSnapshot{}, false
	}
	return cached, true
}
