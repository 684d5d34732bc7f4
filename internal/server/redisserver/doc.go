// Package redisserver serves memkv over the RESP wire protocol.
//
// A single event loop owns the listener, every client connection and the
// keyspace. On Linux it is driven by edge-triggered epoll; each readiness
// event reads until the socket would block, executes every complete frame
// in arrival order and writes the replies back, falling back to write
// readiness when the socket buffer is full. The poll timeout doubles as
// the active expiry tick.
//
// Requests are arrays of bulk strings. Each frame is linearized to a
// command line and parsed by package grammar, so command-level errors
// produce one error reply and leave the connection open. Malformed framing
// produces a protocol error reply, after which the connection is closed.
package redisserver
