// Package liveness implements the gRPC transport of the liveness monitor.
//
// The service is described by hand instead of generated code: every request
// and response is a google.protobuf.Struct (or Empty), so the wire format stays
// self-describing and needs no .proto compilation step. This package owns the
// mapping between those structs and the domain types.
package liveness
