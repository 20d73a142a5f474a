// Package runtime holds the function registry: every declared function is
// recorded here at declaration time, and the deployment manifest is built
// from the recorded endpoints when the CLI asks for it. The two flows never
// interact at invocation time; they share only the endpoint shapes.
package runtime

import (
	"context"
	"net/http"
	"sync"

	ce "github.com/night-fury-3/firebase-functions-go/internal/runtime/cloudevents"
	errspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/errors"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/logging"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/manifest"
)

// EventHandler consumes a raw event envelope. Trigger packages wrap the
// typed adaptation around the developer's handler before registering, so the
// handler stored here already enforces adapt-before-invoke.
type EventHandler func(ctx context.Context, raw ce.Event) error

// FunctionInfo records one declared function: its manifest endpoint and the
// entry point the platform invokes. Exactly one of EventHandler and
// HTTPHandler is set, depending on the trigger kind.
type FunctionInfo struct {
	Name         string
	Endpoint     manifest.Endpoint
	EventHandler EventHandler
	HTTPHandler  http.Handler
}

// Registry collects function declarations for one process.
type Registry struct {
	mu        sync.Mutex
	functions map[string]*FunctionInfo
	order     []string
	logger    logging.ServiceLogger
}

// NewRegistry returns an empty registry logging through log.
func NewRegistry(log logging.ServiceLogger) *Registry {
	if log == nil {
		log = logging.Default()
	}
	return &Registry{
		functions: map[string]*FunctionInfo{},
		logger:    log,
	}
}

var defaultRegistry = NewRegistry(logging.Default())

// Default returns the process-wide registry that package-level trigger
// declarations register into.
func Default() *Registry { return defaultRegistry }

// Register records a declared function. Names must be unique within the
// registry; duplicate declarations are programmer errors and are rejected.
func (r *Registry) Register(info FunctionInfo) error {
	if r == nil {
		return errspkg.ErrRegistryRequired
	}
	if info.Name == "" {
		return errspkg.ErrFuncNameRequired
	}
	if info.EventHandler == nil && info.HTTPHandler == nil {
		return errspkg.ErrHandlerRequired
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.functions[info.Name]; exists {
		return errspkg.ErrFunctionRegistered
	}
	stored := info
	r.functions[info.Name] = &stored
	r.order = append(r.order, info.Name)

	r.logger.Debug("registered function", logging.LogFields{"function": info.Name})
	return nil
}

// Lookup returns the function registered under name.
func (r *Registry) Lookup(name string) (*FunctionInfo, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	info, ok := r.functions[name]
	return info, ok
}

// Functions returns the registered functions in declaration order.
func (r *Registry) Functions() []*FunctionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	infos := make([]*FunctionInfo, 0, len(r.order))
	for _, name := range r.order {
		infos = append(infos, r.functions[name])
	}
	return infos
}

// Manifest builds the deployment stack from every registered endpoint. The
// stack is a fresh value each call; building twice from the same registry
// yields identical output.
func (r *Registry) Manifest() manifest.Stack {
	r.mu.Lock()
	defer r.mu.Unlock()

	stack := manifest.NewStack()
	for name, info := range r.functions {
		stack.Endpoints[name] = info.Endpoint
	}
	return stack
}

// Reset drops all registrations. Intended for tests.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions = map[string]*FunctionInfo{}
	r.order = nil
}
