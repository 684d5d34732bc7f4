package memory

import (
	"math"
	"strconv"
	"time"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// DB is a single logical database.
type DB struct {
	data    map[string]domain.Value
	expires *expiryIndex

	now      func() time.Time
	onExpire func(n int)
}

// DBOption configures a DB.
type DBOption func(*DB)

// WithClock sets the time source used for expiry decisions.
func WithClock(now func() time.Time) DBOption {
	return func(db *DB) {
		db.now = now
	}
}

// WithExpireHook registers a callback invoked with the number of keys
// removed by lazy or active expiry.
func WithExpireHook(fn func(n int)) DBOption {
	return func(db *DB) {
		db.onExpire = fn
	}
}

// NewDB creates an empty database.
func NewDB(opts ...DBOption) *DB {
	db := &DB{
		data:    make(map[string]domain.Value, 1024),
		expires: newExpiryIndex(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Len returns the number of stored keys, including keys that are due to
// expire but have not been reclaimed yet.
func (db *DB) Len() int {
	return len(db.data)
}

// ExpiresLen returns the number of keys with a TTL.
func (db *DB) ExpiresLen() int {
	return db.expires.Len()
}

// SweepExpired removes up to limit keys whose TTL has passed and returns
// how many were removed. A limit <= 0 removes all of them.
func (db *DB) SweepExpired(limit int) int {
	n := db.expires.PopDue(db.nowMillis(), limit, func(key string) {
		delete(db.data, key)
	})
	db.reportExpired(n)
	return n
}

// Flush removes every key and TTL.
func (db *DB) Flush() {
	db.data = make(map[string]domain.Value, 1024)
	db.expires.Clear()
}

func (db *DB) nowMillis() int64 {
	return db.now().UnixMilli()
}

func (db *DB) reportExpired(n int) {
	if n > 0 && db.onExpire != nil {
		db.onExpire(n)
	}
}

// expireIfNeeded deletes key when its TTL has passed.
func (db *DB) expireIfNeeded(key string) {
	at, ok := db.expires.Get(key)
	if !ok || at > db.nowMillis() {
		return
	}
	db.expires.Remove(key)
	delete(db.data, key)
	db.reportExpired(1)
}

// lookup returns the live value at key.
func (db *DB) lookup(key string) (domain.Value, bool) {
	db.expireIfNeeded(key)
	v, ok := db.data[key]
	return v, ok
}

// remove deletes key and its TTL, reporting whether it existed.
func (db *DB) remove(key string) bool {
	if _, ok := db.lookup(key); !ok {
		return false
	}
	delete(db.data, key)
	db.expires.Remove(key)
	return true
}

// Execute runs cmd against the database and returns its reply.
// SELECT, SWAPDB and FLUSHALL span databases and are handled by the caller.
func (db *DB) Execute(cmd domain.Command) domain.Return {
	switch c := cmd.(type) {
	// strings
	case domain.Get:
		v, ok := db.lookup(c.Key)
		if !ok {
			return domain.ReplyNil()
		}
		return domain.ReplyValue(v)
	case domain.SetString:
		db.store(c.Key, c.Value, c.TTL)
		return domain.OK{}
	case domain.Append:
		return reply(db.appendString(c.Key, c.Value))
	case domain.IncrBy:
		return reply(db.incrBy(c.Key, c.Delta))
	case domain.IncrByFloat:
		return reply(db.incrByFloat(c.Key, c.Delta))

	// keys
	case domain.Del:
		var n int64
		for _, k := range c.Keys {
			if db.remove(k) {
				n++
			}
		}
		return domain.ReplyInt(n)
	case domain.Exists:
		var n int64
		for _, k := range c.Keys {
			if _, ok := db.lookup(k); ok {
				n++
			}
		}
		return domain.ReplyInt(n)
	case domain.Type:
		v, ok := db.lookup(c.Key)
		if !ok {
			return domain.ReplyNil()
		}
		return domain.ReplyStr(v.Kind().String())
	case domain.Expire:
		return domain.ReplyBool(db.expire(c.Key, c.TTL))
	case domain.TTL:
		return domain.ReplyInt(db.ttl(c.Key, c.Unit))
	case domain.Persist:
		if _, ok := db.lookup(c.Key); !ok {
			return domain.ReplyInt(0)
		}
		return domain.ReplyBool(db.expires.Remove(c.Key))

	// lists
	case domain.Push:
		return reply(db.push(c.Key, c.Left, c.Values))
	case domain.Pop:
		return reply(db.pop(c.Key, c.Left))
	case domain.LIndex:
		return reply(db.lindex(c.Key, c.Index))
	case domain.LLen:
		l, err := db.listAt(c.Key)
		if err != nil {
			return domain.ReplyFor(err)
		}
		if l == nil {
			return domain.ReplyInt(0)
		}
		return domain.ReplyInt(int64(l.Len()))
	case domain.LSet:
		if err := db.lset(c.Key, c.Index, c.Value); err != nil {
			return domain.ReplyFor(err)
		}
		return domain.OK{}

	// sets
	case domain.SAdd:
		return reply(db.sadd(c.Key, c.Members))
	case domain.SRem:
		return reply(db.srem(c.Key, c.Members))
	case domain.SCard:
		s, err := db.setAt(c.Key)
		if err != nil {
			return domain.ReplyFor(err)
		}
		return domain.ReplyInt(int64(len(s)))
	case domain.SIsMember:
		s, err := db.setAt(c.Key)
		if err != nil {
			return domain.ReplyFor(err)
		}
		_, ok := s[c.Member]
		return domain.ReplyBool(ok)

	// database
	case domain.DBSize:
		db.SweepExpired(0)
		return domain.ReplyInt(int64(len(db.data)))
	case domain.FlushDB:
		db.Flush()
		return domain.OK{}
	case domain.Echo:
		return domain.ReplyStr(c.Message)
	case domain.Time:
		now := db.now()
		return domain.ReplyValue(domain.Array{
			domain.Int(now.Unix()),
			domain.Int(int64(now.Nanosecond() / 1000)),
		})
	}

	return domain.Error{Msg: "ERR '" + cmd.Name() + "' is not a per-database command"}
}

// reply converts a (value, error) result into a Return.
func reply(v domain.Value, err error) domain.Return {
	if err != nil {
		return domain.ReplyFor(err)
	}
	return domain.ReplyValue(v)
}

// ============================================================================
// Strings
// ============================================================================

func (db *DB) store(key string, v domain.Value, ttl time.Duration) {
	db.data[key] = v
	if ttl > 0 {
		db.expires.Set(key, db.nowMillis()+ttl.Milliseconds())
		return
	}
	db.expires.Remove(key)
}

func (db *DB) appendString(key, suffix string) (domain.Value, error) {
	v, ok := db.lookup(key)
	if !ok {
		db.data[key] = domain.Str(suffix)
		return domain.Int(len(suffix)), nil
	}
	s, ok := domain.Text(v)
	if !ok {
		return nil, domain.ErrWrongType
	}
	s += suffix
	db.data[key] = domain.Str(s)
	return domain.Int(len(s)), nil
}

// incrBy is the single increment primitive behind INCR, DECR, INCRBY and
// DECRBY. The key keeps its TTL.
func (db *DB) incrBy(key string, delta int64) (domain.Value, error) {
	var cur int64
	if v, ok := db.lookup(key); ok {
		switch x := v.(type) {
		case domain.Int:
			cur = int64(x)
		case domain.Str:
			n, err := strconv.ParseInt(string(x), 10, 64)
			if err != nil {
				return nil, domain.ErrNotInteger
			}
			cur = n
		default:
			return nil, domain.ErrWrongType
		}
	}

	if (delta > 0 && cur > math.MaxInt64-delta) || (delta < 0 && cur < math.MinInt64-delta) {
		return nil, domain.ErrOverflow
	}
	n := domain.Int(cur + delta)
	db.data[key] = n
	return n, nil
}

func (db *DB) incrByFloat(key string, delta float64) (domain.Value, error) {
	var cur float64
	if v, ok := db.lookup(key); ok {
		switch x := v.(type) {
		case domain.Int:
			cur = float64(x)
		case domain.Str:
			f, err := strconv.ParseFloat(string(x), 64)
			if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
				return nil, domain.ErrNotInteger
			}
			cur = f
		default:
			return nil, domain.ErrWrongType
		}
	}

	f := cur + delta
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, domain.ErrNotFloat
	}
	s := domain.Str(strconv.FormatFloat(f, 'f', -1, 64))
	db.data[key] = s
	return s, nil
}

// ============================================================================
// Keys
// ============================================================================

// expire sets a relative TTL. A non-positive TTL deletes the key.
func (db *DB) expire(key string, ttl time.Duration) bool {
	if _, ok := db.lookup(key); !ok {
		return false
	}
	if ttl <= 0 {
		db.remove(key)
		return true
	}
	db.expires.Set(key, db.nowMillis()+ttl.Milliseconds())
	return true
}

// ttl returns -2 for a missing key, -1 for a key without TTL, otherwise the
// remaining time in unit (rounded to the nearest second for TTL).
func (db *DB) ttl(key string, unit time.Duration) int64 {
	if _, ok := db.lookup(key); !ok {
		return -2
	}
	at, ok := db.expires.Get(key)
	if !ok {
		return -1
	}
	remaining := at - db.nowMillis()
	if unit == time.Millisecond {
		return remaining
	}
	return (remaining + 500) / 1000
}

// ============================================================================
// Lists
// ============================================================================

// listAt returns the list at key, nil when absent, or ErrWrongType.
func (db *DB) listAt(key string) (*domain.List, error) {
	v, ok := db.lookup(key)
	if !ok {
		return nil, nil
	}
	l, ok := v.(*domain.List)
	if !ok {
		return nil, domain.ErrWrongType
	}
	return l, nil
}

// push applies one single-element push per value, so LPUSH reverses its
// arguments at the front.
func (db *DB) push(key string, left bool, values []string) (domain.Value, error) {
	l, err := db.listAt(key)
	if err != nil {
		return nil, err
	}
	if l == nil {
		l = &domain.List{}
		db.data[key] = l
	}
	for _, v := range values {
		if left {
			l.PushFront(v)
		} else {
			l.PushBack(v)
		}
	}
	return domain.Int(l.Len()), nil
}

// pop removes one element. A list emptied by a pop is deleted.
func (db *DB) pop(key string, left bool) (domain.Value, error) {
	l, err := db.listAt(key)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.ErrListEmpty
	}

	var (
		s  string
		ok bool
	)
	if left {
		s, ok = l.PopFront()
	} else {
		s, ok = l.PopBack()
	}
	if !ok {
		return nil, domain.ErrListEmpty
	}
	if l.Len() == 0 {
		db.remove(key)
	}
	return domain.Str(s), nil
}

func (db *DB) lindex(key string, index int64) (domain.Value, error) {
	l, err := db.listAt(key)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, domain.ErrIndexOutOfRange
	}
	i, ok := l.Index(index)
	if !ok {
		return nil, domain.ErrIndexOutOfRange
	}
	return domain.Str(l.At(i)), nil
}

func (db *DB) lset(key string, index int64, value string) error {
	l, err := db.listAt(key)
	if err != nil {
		return err
	}
	if l == nil {
		return domain.ErrIndexOutOfRange
	}
	i, ok := l.Index(index)
	if !ok {
		return domain.ErrIndexOutOfRange
	}
	l.Set(i, value)
	return nil
}

// ============================================================================
// Sets
// ============================================================================

// setAt returns the set at key, nil when absent, or ErrWrongType.
func (db *DB) setAt(key string) (domain.Set, error) {
	v, ok := db.lookup(key)
	if !ok {
		return nil, nil
	}
	s, ok := v.(domain.Set)
	if !ok {
		return nil, domain.ErrWrongType
	}
	return s, nil
}

func (db *DB) sadd(key string, members []string) (domain.Value, error) {
	s, err := db.setAt(key)
	if err != nil {
		return nil, err
	}
	if s == nil {
		s = make(domain.Set, len(members))
		db.data[key] = s
	}
	var added int64
	for _, m := range members {
		if _, ok := s[m]; !ok {
			s[m] = struct{}{}
			added++
		}
	}
	return domain.Int(added), nil
}

// srem removes members. A set emptied by SREM is deleted.
func (db *DB) srem(key string, members []string) (domain.Value, error) {
	s, err := db.setAt(key)
	if err != nil {
		return nil, err
	}
	var removed int64
	for _, m := range members {
		if _, ok := s[m]; ok {
			delete(s, m)
			removed++
		}
	}
	if s != nil && len(s) == 0 {
		db.remove(key)
	}
	return domain.Int(removed), nil
}
