// Package connection provides the RESP client used by memkv-cli.
//
// A Client holds one TCP connection, encodes each request as an array of
// bulk strings and decodes one reply per request. Error replies are
// returned as errors; a broken connection is redialed on the next call.
package connection
