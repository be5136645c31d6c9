// Package version exposes build metadata of the still-alive binaries.
//
// Version, Commit and BuildTime are injected with -ldflags -X; the commit falls
// back to the VCS stamp recorded by the Go toolchain.
package version
