// Package errors holds the sentinel errors shared across example-app packages.
package errors

import (
	"errors"
)

var (
	ErrInvalidConfig     = errors.New("invalid configuration")
	ErrFailedToLoadEnv   = errors.New("failed to load env file")
	ErrInvalidLogLevel   = errors.New("invalid log level")
	ErrInvalidLogFormat  = errors.New("invalid log format")
	ErrReadinessTimeout  = errors.New("readiness check timed out")
	ErrReadinessURL      = errors.New("readiness url is required")
	ErrQueueFull         = errors.New("event queue is full")
	ErrPublisherStopped  = errors.New("event publisher is stopped")
	ErrBusClosed         = errors.New("event bus is closed")
	ErrInvalidImage      = errors.New("invalid image reference")
	ErrKustomizationFile = errors.New("failed to process kustomization file")
	ErrShutdownTimeout   = errors.New("shutdown timeout")
)

var (
	Is   = errors.Is
	As   = errors.As
	New  = errors.New
	Join = errors.Join
)
