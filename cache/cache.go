// Package cache holds the most recent normalized snapshot per (chain, user)
// so repeated queries inside the TTL do not refetch. It is purely in-memory
// and injected into the engine; nothing here is package-global.
package cache

import (
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/ethereum/go-ethereum/common"

	"github.com/ggonzalez94/lend-risk/model"
)

// Entry is one cached snapshot set. Readers always see a whole entry or
// nothing; refreshes replace the value in a single write, last writer wins.
type Entry struct {
	Summary   model.UserPositionSummary
	Snapshots []model.ReserveSnapshot
	StoredAt  time.Time
}

// Result mirrors a lookup: whether it hit, how old the entry is, and whether
// it outlived its TTL.
type Result struct {
	Hit   bool
	Entry Entry
	Age   time.Duration
	Stale bool
}

type SnapshotCache struct {
	store *ristretto.Cache
	ttl   time.Duration
	now   func() time.Time
}

// New builds a cache with the given TTL. TTLs above a minute defeat the
// point of point-in-time data, so the constructor clamps them.
func New(ttl time.Duration) (*SnapshotCache, error) {
	if ttl <= 0 || ttl > time.Minute {
		ttl = time.Minute
	}
	store, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 10,
		MaxCost:     1 << 10,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("init snapshot cache: %w", err)
	}
	return &SnapshotCache{store: store, ttl: ttl, now: time.Now}, nil
}

func (c *SnapshotCache) Close() {
	if c == nil || c.store == nil {
		return
	}
	c.store.Close()
}

func (c *SnapshotCache) TTL() time.Duration { return c.ttl }

func key(chainID int64, user common.Address) string {
	return fmt.Sprintf("%d:%s", chainID, user.Hex())
}

func (c *SnapshotCache) Get(chainID int64, user common.Address) Result {
	if c == nil || c.store == nil {
		return Result{}
	}
	v, ok := c.store.Get(key(chainID, user))
	if !ok {
		return Result{}
	}
	entry, ok := v.(Entry)
	if !ok {
		return Result{}
	}
	age := c.now().Sub(entry.StoredAt)
	if age < 0 {
		age = 0
	}
	return Result{
		Hit:   true,
		Entry: entry,
		Age:   age,
		Stale: age > c.ttl,
	}
}

// Put swaps in a fresh entry. Wait makes the write visible before returning
// so a refresh immediately followed by a read does not miss.
func (c *SnapshotCache) Put(chainID int64, user common.Address, summary model.UserPositionSummary, snapshots []model.ReserveSnapshot) {
	if c == nil || c.store == nil {
		return
	}
	entry := Entry{Summary: summary, Snapshots: snapshots, StoredAt: c.now()}
	c.store.SetWithTTL(key(chainID, user), entry, 1, c.ttl)
	c.store.Wait()
}
