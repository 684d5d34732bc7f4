// Package buildinfo provides build information for memkv.
//
// Version, Commit and BuildTime are injected via ldflags:
//
//	go build -ldflags "-X github.com/yndnr/memkv-go/internal/infra/buildinfo.Version=v1.0.0"
//
// When they are left at their defaults, Get fills what it can from the
// module build information embedded by the Go toolchain.
package buildinfo
