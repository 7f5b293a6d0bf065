package storage

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/samvad-hq/completion-bench/internal/domain"
	bolt "go.etcd.io/bbolt"
)

const (
	resultBucket     = "results"
	expiryValueBytes = 8
)

// boltStore implements a Store backed by BoltDB. Values are an 8-byte
// big-endian expiry followed by the JSON-encoded result.
type boltStore struct {
	db              *bolt.DB
	cleanupMu       sync.Mutex
	lastCleanup     atomic.Int64
	resultTTL       time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
}

// openBolt initializes a BoltDB-backed Store.
func openBolt(path string, opts Options) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bbolt db: %w", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(resultBucket))
		return err
	}); err != nil {
		db.Close()
		return nil, fmt.Errorf("init bucket: %w", err)
	}

	store := &boltStore{
		db:              db,
		resultTTL:       opts.ResultTTL,
		cleanupInterval: opts.CleanupInterval,
		now:             time.Now,
	}
	store.lastCleanup.Store(store.now().Unix())
	return store, nil
}

// Close closes the BoltDB store.
func (b *boltStore) Close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

// SaveResult stores res under its run id and strategy.
func (b *boltStore) SaveResult(res domain.RunResult) error {
	if b == nil || b.db == nil {
		return nil
	}
	if res.RunID == "" || res.Strategy == "" {
		return fmt.Errorf("result requires run id and strategy")
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return err
	}

	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	value := make([]byte, expiryValueBytes+len(payload))
	binary.BigEndian.PutUint64(value, uint64(now.Add(b.resultTTL).Unix()))
	copy(value[expiryValueBytes:], payload)

	return b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(resultBucket))
		if bucket == nil {
			return fmt.Errorf("result bucket missing")
		}
		return bucket.Put(resultKey(res), value)
	})
}

// Results returns every unexpired result ordered by start time, then strategy.
func (b *boltStore) Results() ([]domain.RunResult, error) {
	if b == nil || b.db == nil {
		return nil, nil
	}

	now := b.now()
	if err := b.maybeCleanupExpired(now); err != nil {
		return nil, err
	}

	var out []domain.RunResult
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(resultBucket))
		if bucket == nil {
			return fmt.Errorf("result bucket missing")
		}
		return bucket.ForEach(func(k, v []byte) error {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				return nil
			}
			var res domain.RunResult
			if err := json.Unmarshal(v[expiryValueBytes:], &res); err != nil {
				return fmt.Errorf("decode result %s: %w", k, err)
			}
			out = append(out, res)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].Strategy < out[j].Strategy
	})
	return out, nil
}

// maybeCleanupExpired removes expired results on a fixed cadence to avoid unbounded growth.
func (b *boltStore) maybeCleanupExpired(now time.Time) error {
	if b == nil || b.db == nil {
		return nil
	}

	last := time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	b.cleanupMu.Lock()
	defer b.cleanupMu.Unlock()

	last = time.Unix(b.lastCleanup.Load(), 0)
	if now.Sub(last) < b.cleanupInterval {
		return nil
	}

	err := b.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(resultBucket))
		if bucket == nil {
			return fmt.Errorf("result bucket missing")
		}

		// Deleting through the cursor while iterating skips the following key.
		var expired [][]byte
		cursor := bucket.Cursor()
		for k, v := cursor.First(); k != nil; k, v = cursor.Next() {
			expiry, ok := decodeExpiry(v)
			if !ok || !expiry.After(now) {
				expired = append(expired, append([]byte(nil), k...))
			}
		}
		for _, k := range expired {
			if err := bucket.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		b.lastCleanup.Store(now.Unix())
	}
	return err
}

func resultKey(res domain.RunResult) []byte {
	return []byte(res.RunID + "/" + res.Strategy)
}

// decodeExpiry decodes the expiry time from the head of the stored value.
func decodeExpiry(value []byte) (time.Time, bool) {
	if len(value) < expiryValueBytes {
		return time.Time{}, false
	}
	unix := int64(binary.BigEndian.Uint64(value[:expiryValueBytes]))
	if unix <= 0 {
		return time.Time{}, false
	}
	return time.Unix(unix, 0), true
}
