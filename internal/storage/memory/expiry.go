package memory

import (
	"github.com/google/btree"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// expiryDegree is the btree node degree for the expiry index.
const expiryDegree = 32

// expiryIndex orders keys by absolute expiry time (soonest first) and is
// addressable by key, so a TTL can be replaced or dropped without leaving
// stale entries behind.
type expiryIndex struct {
	tree  *btree.BTreeG[domain.ExpireTime]
	byKey map[string]int64
}

func newExpiryIndex() *expiryIndex {
	return &expiryIndex{
		tree:  btree.NewG(expiryDegree, domain.ExpireTime.Less),
		byKey: make(map[string]int64),
	}
}

// Set installs or replaces the expiry for key.
func (x *expiryIndex) Set(key string, expireAt int64) {
	if old, ok := x.byKey[key]; ok {
		x.tree.Delete(domain.ExpireTime{Key: key, ExpireAt: old})
	}
	x.tree.ReplaceOrInsert(domain.ExpireTime{Key: key, ExpireAt: expireAt})
	x.byKey[key] = expireAt
}

// Get returns the expiry for key.
func (x *expiryIndex) Get(key string) (int64, bool) {
	at, ok := x.byKey[key]
	return at, ok
}

// Remove drops the expiry for key, reporting whether one existed.
func (x *expiryIndex) Remove(key string) bool {
	at, ok := x.byKey[key]
	if !ok {
		return false
	}
	x.tree.Delete(domain.ExpireTime{Key: key, ExpireAt: at})
	delete(x.byKey, key)
	return true
}

// Len returns the number of keys with a pending expiry.
func (x *expiryIndex) Len() int {
	return len(x.byKey)
}

// PopDue removes up to limit entries whose expiry is at or before now,
// calling fn for each. A limit <= 0 removes every due entry.
func (x *expiryIndex) PopDue(now int64, limit int, fn func(key string)) int {
	n := 0
	for limit <= 0 || n < limit {
		min, ok := x.tree.Min()
		if !ok || min.ExpireAt > now {
			break
		}
		x.tree.DeleteMin()
		delete(x.byKey, min.Key)
		fn(min.Key)
		n++
	}
	return n
}

// Clear drops every entry.
func (x *expiryIndex) Clear() {
	x.tree.Clear(false)
	x.byKey = make(map[string]int64)
}
