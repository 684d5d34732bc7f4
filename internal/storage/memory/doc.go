// Package memory provides the in-memory database engine for memkv.
//
// A DB owns one keyspace and its expiry index and executes typed commands
// against them. A Keyspace is the fixed vector of DBs shared by every
// connection.
//
// Expiry:
//
// Keys with a TTL are tracked in a btree ordered by expiry time. A key is
// removed lazily when a lookup finds it due, and actively by SweepExpired,
// which the server calls on every loop tick.
//
// Thread Safety:
//
// Nothing in this package is safe for concurrent use. The server mutates
// every DB from its single event-loop goroutine.
package memory
