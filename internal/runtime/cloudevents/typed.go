package cloudevents

import "time"

// TypedEvent wraps a domain-shaped payload together with the common event
// metadata. One is constructed fresh for every delivery, is never mutated
// after construction, and is discarded once the handler returns.
type TypedEvent[T any] struct {
	// SpecVersion is the CloudEvents specification version of the event.
	SpecVersion string

	// ID is the globally unique ID of this event.
	ID string

	// Source is the resource which published this event.
	Source string

	// Type is the kind of event this represents.
	Type string

	// Subject is the resource, provided by the source, this event relates
	// to. Nil when the producer did not supply one.
	Subject *string

	// Time is when this event occurred.
	Time time.Time

	// Data is the trigger-specific payload.
	Data T
}

// Typed builds the typed envelope from a validated raw envelope and an
// already-adapted payload. It fails when required attributes are missing or
// the timestamp does not match the wire format, before any handler can
// observe the event.
func Typed[T any](raw Event, data T) (TypedEvent[T], error) {
	if err := raw.Validate(); err != nil {
		return TypedEvent[T]{}, err
	}
	occurred, err := ParseEventTime(raw.Time)
	if err != nil {
		return TypedEvent[T]{}, err
	}
	return TypedEvent[T]{
		SpecVersion: raw.SpecVersion,
		ID:          raw.ID,
		Source:      raw.Source,
		Type:        raw.Type,
		Subject:     raw.Subject,
		Time:        occurred,
		Data:        data,
	}, nil
}

// Change carries the before and after state for events that modify data,
// such as realtime database writes.
type Change[T any] struct {
	// Before is the state of the data before the change.
	Before T

	// After is the state of the data after the change.
	After T
}
