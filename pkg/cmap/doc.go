// Package cmap provides a sharded, string-keyed concurrent map.
//
// Each shard is a plain map behind its own RWMutex; keys are assigned to
// shards with hash/maphash. The HTTP rate limiter keeps one entry per
// client address here.
package cmap
