package domain

import "time"

// Command is a typed request. Name returns the upper-case verb.
type Command interface {
	Name() string
}

// Return is the typed result of executing a Command.
type Return interface {
	isReturn()
}

// OK is the simple success reply.
type OK struct{}

// Error is an error reply; Msg carries its code prefix.
type Error struct {
	Msg string
}

// ValueReturn wraps a Value reply.
type ValueReturn struct {
	Value Value
}

func (OK) isReturn()          {}
func (Error) isReturn()       {}
func (ValueReturn) isReturn() {}

// Reply helpers.
func ReplyInt(n int64) Return   { return ValueReturn{Value: Int(n)} }
func ReplyStr(s string) Return  { return ValueReturn{Value: Str(s)} }
func ReplyValue(v Value) Return { return ValueReturn{Value: v} }
func ReplyNil() Return          { return ValueReturn{Value: Nil{}} }

func ReplyBool(b bool) Return {
	if b {
		return ReplyInt(1)
	}
	return ReplyInt(0)
}

// ============================================================================
// String commands
// ============================================================================

type (
	// Get returns the value stored at Key.
	Get struct{ Key string }

	// SetString stores Value at Key. A positive TTL installs an expiry.
	SetString struct {
		Key   string
		Value Value
		TTL   time.Duration
	}

	// Append concatenates Value onto the string at Key.
	Append struct {
		Key   string
		Value string
	}

	// IncrBy adds Delta to the integer at Key. Verb keeps the
	// client-facing name (INCR, INCRBY, DECR, DECRBY).
	IncrBy struct {
		Verb  string
		Key   string
		Delta int64
	}

	// IncrByFloat adds Delta to the number at Key, storing text.
	IncrByFloat struct {
		Key   string
		Delta float64
	}
)

func (Get) Name() string         { return "GET" }
func (SetString) Name() string   { return "SET" }
func (Append) Name() string      { return "APPEND" }
func (c IncrBy) Name() string    { return c.Verb }
func (IncrByFloat) Name() string { return "INCRBYFLOAT" }

// ============================================================================
// Key commands
// ============================================================================

type (
	Del    struct{ Keys []string }
	Exists struct{ Keys []string }
	Type   struct{ Key string }

	// Expire sets a relative TTL. Verb is EXPIRE or PEXPIRE.
	Expire struct {
		Verb string
		Key  string
		TTL  time.Duration
	}

	// TTL reports the remaining TTL in Unit (time.Second or time.Millisecond).
	TTL struct {
		Key  string
		Unit time.Duration
	}

	Persist struct{ Key string }
)

func (Del) Name() string      { return "DEL" }
func (Exists) Name() string   { return "EXISTS" }
func (Type) Name() string     { return "TYPE" }
func (c Expire) Name() string { return c.Verb }
func (Persist) Name() string  { return "PERSIST" }

func (c TTL) Name() string {
	if c.Unit == time.Millisecond {
		return "PTTL"
	}
	return "TTL"
}

// ============================================================================
// List commands
// ============================================================================

type (
	// Push inserts Values one at a time at the front (Left) or back.
	Push struct {
		Left   bool
		Key    string
		Values []string
	}

	// Pop removes one element from the front (Left) or back.
	Pop struct {
		Left bool
		Key  string
	}

	LIndex struct {
		Key   string
		Index int64
	}

	LLen struct{ Key string }

	LSet struct {
		Key   string
		Index int64
		Value string
	}
)

func (c Push) Name() string {
	if c.Left {
		return "LPUSH"
	}
	return "RPUSH"
}

func (c Pop) Name() string {
	if c.Left {
		return "LPOP"
	}
	return "RPOP"
}

func (LIndex) Name() string { return "LINDEX" }
func (LLen) Name() string   { return "LLEN" }
func (LSet) Name() string   { return "LSET" }

// ============================================================================
// Set commands
// ============================================================================

type (
	SAdd struct {
		Key     string
		Members []string
	}

	SRem struct {
		Key     string
		Members []string
	}

	SCard struct{ Key string }

	SIsMember struct {
		Key    string
		Member string
	}
)

func (SAdd) Name() string      { return "SADD" }
func (SRem) Name() string      { return "SREM" }
func (SCard) Name() string     { return "SCARD" }
func (SIsMember) Name() string { return "SISMEMBER" }

// ============================================================================
// Database and connection commands
// ============================================================================

type (
	DBSize   struct{}
	FlushDB  struct{}
	FlushAll struct{}

	// Select switches the connection's active database.
	Select struct{ Index int64 }

	// SwapDB swaps two database slots for every connection.
	SwapDB struct{ A, B int64 }

	// Echo returns Message. PING is parsed as Echo with Verb "PING".
	Echo struct {
		Verb    string
		Message string
	}

	Time struct{}
)

func (DBSize) Name() string   { return "DBSIZE" }
func (FlushDB) Name() string  { return "FLUSHDB" }
func (FlushAll) Name() string { return "FLUSHALL" }
func (Select) Name() string   { return "SELECT" }
func (SwapDB) Name() string   { return "SWAPDB" }
func (c Echo) Name() string   { return c.Verb }
func (Time) Name() string     { return "TIME" }
