package client

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// ClientType identifies a provider implementation.
type ClientType string

// Registered provider types.
const (
	ClientClaude  ClientType = "claude"
	ClientCodex   ClientType = "codex"
	ClientCommand ClientType = "command"
)

// HeadlessClient is implemented by each provider. Spawn starts a single
// CLI run for the given config; the returned process streams events
// until the CLI exits.
type HeadlessClient interface {
	Type() ClientType
	Spawn(ctx context.Context, cfg Config) (HeadlessProcess, error)
}

// HeadlessProcess is a running (or finished) CLI invocation.
type HeadlessProcess interface {
	// Events streams parsed output events. The channel closes when the
	// process exits and its output is fully consumed.
	Events() <-chan OutputEvent

	// Errors streams non-fatal runtime errors (unparseable lines,
	// dropped events). The process keeps running after these.
	Errors() <-chan error

	// Wait blocks until the process exits and returns its terminal
	// error, if any.
	Wait() error

	// Cancel terminates the process.
	Cancel() error

	SessionRef() string
	Status() ProcessStatus
	IsRunning() bool
	WorkDir() string
	PID() int

	// Stderr and RawStdout return the captured output tails, used for
	// error reporting and lenient-format fallback.
	Stderr() string
	RawStdout() string
}

var (
	registryMu sync.RWMutex
	registry   = make(map[ClientType]func() HeadlessClient)
)

// RegisterClient registers a provider constructor. Called from provider
// package init functions.
func RegisterClient(t ClientType, factory func() HeadlessClient) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = factory
}

// NewClient returns a new client for the given provider type.
func NewClient(t ClientType) (HeadlessClient, error) {
	registryMu.RLock()
	factory, ok := registry[t]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown client type %q (registered: %v)", t, RegisteredClients())
	}
	return factory(), nil
}

// RegisteredClients lists the registered provider types in sorted order.
func RegisteredClients() []ClientType {
	registryMu.RLock()
	defer registryMu.RUnlock()
	types := make([]ClientType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
