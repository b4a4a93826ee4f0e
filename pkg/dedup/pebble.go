package dedup

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"

	"newsrelay/pkg/fingerprint"
	"newsrelay/pkg/logger"
	"newsrelay/pkg/models"
)

const (
	seenPrefix = "seen:"
	schemaKey  = "meta:schema"
	schemaVer  = 1
)

// ErrUnavailable is returned when the underlying store cannot be
// reached. Callers must treat it as "skip this item": returning true on
// a store failure would open the door to unbounded duplicate publishing.
var ErrUnavailable = errors.New("dedup store unavailable")

type schemaRecord struct {
	Version int   `json:"version"`
	TTLSecs int64 `json:"ttl_secs"`
}

// Store is a persistent set of previously-seen fingerprints with
// TTL-based expiry, backed by pebble. The single mutex around
// check-and-insert is the store's uniqueness constraint: it is the only
// cross-worker serialization point in the pipeline, so no two workers
// can both win the race for one fingerprint.
type Store struct {
	mu    sync.Mutex
	db    *pebble.DB
	ttl   time.Duration
	cache *seenCache

	hits   uint64
	misses uint64
}

// Open opens (or creates) the fingerprint store at path. Records expire
// ttl after their first insertion.
func Open(path string, ttl time.Duration, cacheSize int) (*Store, error) {
	logger.Info("opening_dedup_store", "path", path, "ttl", ttl.String())
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		logger.Error("dedup_open_failed", "path", path, "error", err)
		return nil, fmt.Errorf("open dedup store at %s: %w", path, err)
	}
	return &Store{db: db, ttl: ttl, cache: newSeenCache(cacheSize)}, nil
}

// Close closes the store. Already-inserted records are durable.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return err
	}
	s.db = nil
	logger.Info("dedup_store_closed")
	return nil
}

// Ready reports whether the store is opened and usable.
func (s *Store) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db != nil
}

// EnsureIndexes validates the on-disk key layout and records the
// configured TTL. Run once at startup; fails loudly so the process
// entry point can refuse to start against an incompatible store.
func (s *Store) EnsureIndexes() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrUnavailable
	}
	val, closer, err := s.db.Get([]byte(schemaKey))
	if err == nil {
		var rec schemaRecord
		uerr := json.Unmarshal(val, &rec)
		closer.Close()
		if uerr != nil {
			return fmt.Errorf("corrupt schema record: %w", uerr)
		}
		if rec.Version != schemaVer {
			return fmt.Errorf("incompatible dedup store schema %d (want %d)", rec.Version, schemaVer)
		}
		if rec.TTLSecs != int64(s.ttl.Seconds()) {
			logger.Warn("dedup_ttl_changed", "stored_secs", rec.TTLSecs, "configured_secs", int64(s.ttl.Seconds()))
		}
		return nil
	}
	if !errors.Is(err, pebble.ErrNotFound) {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	b, _ := json.Marshal(schemaRecord{Version: schemaVer, TTLSecs: int64(s.ttl.Seconds())})
	if err := s.db.Set([]byte(schemaKey), b, pebble.Sync); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	logger.Info("dedup_schema_written", "version", schemaVer)
	return nil
}

// InsertIfNew atomically records fp as seen by source. It returns true
// only for the first insertion inside the retention window; concurrent
// callers racing on one fingerprint get exactly one true. Expired
// records are treated as absent, so content legitimately reappears as
// new after the TTL. The blank sentinel is never new.
func (s *Store) InsertIfNew(fp, source string) (bool, error) {
	if fingerprint.IsEmpty(fp) {
		return false, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return false, ErrUnavailable
	}

	now := time.Now().UTC()
	if ts, ok := s.cache.get(fp); ok {
		if now.Sub(ts) < s.ttl {
			s.hits++
			return false, nil
		}
		s.cache.remove(fp)
	}

	key := []byte(seenPrefix + fp)
	val, closer, err := s.db.Get(key)
	switch {
	case err == nil:
		var rec models.DedupRecord
		uerr := json.Unmarshal(val, &rec)
		closer.Close()
		if uerr == nil && now.Sub(rec.FirstSeenAt) < s.ttl {
			s.misses++
			s.cache.add(fp, rec.FirstSeenAt)
			return false, nil
		}
		// expired or unreadable: fall through and reclaim the key
	case errors.Is(err, pebble.ErrNotFound):
		// first sighting
	default:
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	rec := models.DedupRecord{Fingerprint: fp, SourceID: source, FirstSeenAt: now}
	b, merr := json.Marshal(rec)
	if merr != nil {
		return false, fmt.Errorf("marshal dedup record: %w", merr)
	}
	if err := s.db.Set(key, b, pebble.Sync); err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.cache.add(fp, now)
	return true, nil
}

// Sweep deletes expired seen records and returns how many were removed.
// Expiry is already invisible to InsertIfNew; the sweep only reclaims
// disk so the store stays self-bounded.
func (s *Store) Sweep() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, ErrUnavailable
	}
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(seenPrefix),
		UpperBound: []byte(seenPrefix + "\xff"),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	now := time.Now().UTC()
	var expired [][]byte
	for iter.First(); iter.Valid(); iter.Next() {
		var rec models.DedupRecord
		if json.Unmarshal(iter.Value(), &rec) != nil || now.Sub(rec.FirstSeenAt) >= s.ttl {
			k := append([]byte(nil), iter.Key()...)
			expired = append(expired, k)
		}
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}
	for _, k := range expired {
		if err := s.db.Delete(k, pebble.NoSync); err != nil {
			return 0, err
		}
		s.cache.remove(string(k[len(seenPrefix):]))
	}
	if len(expired) > 0 {
		logger.Info("dedup_sweep_done", "removed", len(expired))
	}
	return len(expired), nil
}

// CacheStats returns cumulative front-cache hit/miss counts.
func (s *Store) CacheStats() (hits, misses uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits, s.misses
}
