// Package grpc exposes the standard grpc.health.v1.Health service so that
// orchestrators with native gRPC probes can check the service without HTTP.
package grpc
