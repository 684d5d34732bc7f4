package memory

import (
	"github.com/yndnr/memkv-go/internal/core/domain"
)

// Keyspace is the shared vector of logical databases. Connections hold an
// index into it rather than a DB handle, so SWAPDB is visible to every
// connection that has either slot selected.
type Keyspace struct {
	dbs []*DB
}

// Stats is a point-in-time view of one database.
type Stats struct {
	Index   int
	Keys    int
	Expires int
}

// NewKeyspace creates n empty databases sharing opts.
func NewKeyspace(n int, opts ...DBOption) *Keyspace {
	dbs := make([]*DB, n)
	for i := range dbs {
		dbs[i] = NewDB(opts...)
	}
	return &Keyspace{dbs: dbs}
}

// Len returns the configured database count.
func (k *Keyspace) Len() int {
	return len(k.dbs)
}

// DB returns the database currently in slot i.
func (k *Keyspace) DB(i int) *DB {
	return k.dbs[i]
}

// Validate reports ErrDBIndexOutOfRange when i is not a configured slot.
func (k *Keyspace) Validate(i int64) error {
	if i < 0 || i >= int64(len(k.dbs)) {
		return domain.ErrDBIndexOutOfRange
	}
	return nil
}

// Swap exchanges the databases in slots a and b.
func (k *Keyspace) Swap(a, b int64) error {
	if err := k.Validate(a); err != nil {
		return err
	}
	if err := k.Validate(b); err != nil {
		return err
	}
	k.dbs[a], k.dbs[b] = k.dbs[b], k.dbs[a]
	return nil
}

// FlushAll flushes every database in order.
func (k *Keyspace) FlushAll() {
	for _, db := range k.dbs {
		db.Flush()
	}
}

// SweepExpired runs an active expiry pass over each database, removing at
// most limit keys per database. It returns the total removed.
func (k *Keyspace) SweepExpired(limit int) int {
	n := 0
	for _, db := range k.dbs {
		n += db.SweepExpired(limit)
	}
	return n
}

// Stats returns per-database key and TTL counts.
func (k *Keyspace) Stats() []Stats {
	out := make([]Stats, len(k.dbs))
	for i, db := range k.dbs {
		out[i] = Stats{Index: i, Keys: db.Len(), Expires: db.ExpiresLen()}
	}
	return out
}
