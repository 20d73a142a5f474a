// Package database declares functions triggered by realtime database
// writes. The reference path supports wildcard and capture syntax, so it is
// always routed to the path-pattern filters; the instance only when it
// actually contains a wildcard.
package database

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	ce "github.com/night-fury-3/firebase-functions-go/internal/runtime/cloudevents"
	errspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/errors"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/jsoncodec"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/manifest"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/options"
	runtimepkg "github.com/night-fury-3/firebase-functions-go/internal/runtime"
)

// Event types emitted for realtime database references.
const (
	EventTypeWritten = "google.firebase.database.ref.v1.written"
	EventTypeCreated = "google.firebase.database.ref.v1.created"
	EventTypeUpdated = "google.firebase.database.ref.v1.updated"
	EventTypeDeleted = "google.firebase.database.ref.v1.deleted"
)

// Options configure a database-triggered function.
type Options struct {
	options.RuntimeOptions

	// Reference is the database reference to trigger on. It can be a
	// single reference or a pattern: "/foo/bar", "/foo/{bar}". Required.
	Reference string

	// Instance selects the database instance(s) to trigger on, either a
	// single instance or a pattern such as "my-instance-*". The capture
	// syntax cannot be used for instances. Empty matches every instance.
	Instance string
}

func (o Options) endpoint(funcName, eventType string) (manifest.Endpoint, error) {
	if eventType == "" {
		return manifest.Endpoint{}, errspkg.ErrEventTypeRequired
	}
	if o.Reference == "" {
		return manifest.Endpoint{}, errspkg.ErrReferenceRequired
	}
	endpoint, err := o.RuntimeOptions.Endpoint(funcName)
	if err != nil {
		return manifest.Endpoint{}, err
	}

	instance := o.Instance
	if instance == "" {
		instance = "*"
	}
	filters := map[string]string{}
	// Eventarc always treats ref as a path pattern.
	pathPatterns := map[string]string{
		"ref": strings.Trim(o.Reference, "/"),
	}
	if strings.Contains(instance, "*") {
		pathPatterns["instance"] = instance
	} else {
		filters["instance"] = instance
	}

	endpoint.EventTrigger = &manifest.EventTrigger{
		EventType:               eventType,
		Retry:                   false,
		EventFilters:            filters,
		EventFilterPathPatterns: pathPatterns,
	}
	return endpoint, nil
}

// ReferenceEvent is the payload delivered for a reference change: the data
// at the reference before the write and the delta applied by it, both as raw
// JSON for the handler to shape.
type ReferenceEvent struct {
	Data  json.RawMessage
	Delta json.RawMessage
}

// Event is the typed envelope handed to database handlers.
type Event = ce.TypedEvent[ReferenceEvent]

// ReferenceHandler processes one adapted database event.
type ReferenceHandler func(ctx context.Context, event Event) error

// ReferenceRegistration wires a handler to a database reference.
type ReferenceRegistration struct {
	Name    string
	Options Options
	Handler ReferenceHandler
}

// OnValueWritten declares a function triggered on every write (create,
// update, or delete) at the reference.
func OnValueWritten(reg ReferenceRegistration) error {
	return register(reg, EventTypeWritten)
}

// OnValueCreated declares a function triggered when data is created at the
// reference.
func OnValueCreated(reg ReferenceRegistration) error {
	return register(reg, EventTypeCreated)
}

// OnValueUpdated declares a function triggered when data is updated at the
// reference.
func OnValueUpdated(reg ReferenceRegistration) error {
	return register(reg, EventTypeUpdated)
}

// OnValueDeleted declares a function triggered when data is deleted at the
// reference.
func OnValueDeleted(reg ReferenceRegistration) error {
	return register(reg, EventTypeDeleted)
}

func register(reg ReferenceRegistration, eventType string) error {
	if reg.Handler == nil {
		return errspkg.ErrHandlerRequired
	}
	endpoint, err := reg.Options.endpoint(reg.Name, eventType)
	if err != nil {
		return err
	}
	return runtimepkg.Default().Register(runtimepkg.FunctionInfo{
		Name:     reg.Name,
		Endpoint: endpoint,
		EventHandler: func(ctx context.Context, raw ce.Event) error {
			event, err := adaptReferenceEvent(raw)
			if err != nil {
				return err
			}
			return reg.Handler(ctx, event)
		},
	})
}

type wireReferenceData struct {
	Data  json.RawMessage `json:"data"`
	Delta json.RawMessage `json:"delta"`
}

func adaptReferenceEvent(raw ce.Event) (Event, error) {
	var payload wireReferenceData
	if err := jsoncodec.Unmarshal(raw.Data, &payload); err != nil {
		return Event{}, fmt.Errorf("functions: invalid database event payload: %w", err)
	}
	return ce.Typed(raw, ReferenceEvent{
		Data:  payload.Data,
		Delta: payload.Delta,
	})
}
