// Package tlsroots loads TLS material for the HTTP metrics endpoint.
//
//   - roots.go: client CA pools built from PEM files
//   - watcher.go: a server key pair reloaded when its files change
package tlsroots
