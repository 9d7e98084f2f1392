package httpserver

import "errors"

var (
	// ErrStart indicates that the server failed to start.
	ErrStart = errors.New("httpserver: failed to start")
	// ErrShutdown indicates that graceful shutdown failed.
	ErrShutdown = errors.New("httpserver: failed to shutdown gracefully")
	// ErrAlreadyRunning is returned by Run when the server is already serving.
	ErrAlreadyRunning = errors.New("httpserver: already running")
)
