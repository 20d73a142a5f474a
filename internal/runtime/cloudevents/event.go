// Package cloudevents implements the CloudEvents v1.0 envelope as delivered
// by the event platform, together with the typed envelope handed to function
// handlers after adaptation.
package cloudevents

import (
	"encoding/json"
	"fmt"
	"time"

	idspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/ids"
)

// SpecVersion is the CloudEvents specification version implemented.
const SpecVersion = "1.0"

// Event is the generic wire-level envelope. Data carries the raw
// trigger-specific payload; each trigger package reshapes it into its domain
// object before the handler runs.
type Event struct {
	// SpecVersion is the version of the CloudEvents specification.
	SpecVersion string `json:"specversion"`

	// Type describes the kind of occurrence, for example
	// "google.cloud.pubsub.topic.v1.messagePublished".
	Type string `json:"type"`

	// Source identifies the resource which published this event.
	Source string `json:"source"`

	// ID uniquely identifies the event.
	ID string `json:"id"`

	// Subject describes the subject of the event in the context of the
	// source, when the producer supplies one.
	Subject *string `json:"subject,omitempty"`

	// Time is the occurrence timestamp as it appears on the wire. It is
	// parsed during adaptation; a malformed value fails the invocation
	// before the handler runs.
	Time string `json:"time,omitempty"`

	// Data is the unparsed trigger payload.
	Data json.RawMessage `json:"data,omitempty"`
}

// New builds an envelope with a generated ULID and the current time. Incoming
// platform events arrive fully populated; New exists for the emulator and for
// tests.
func New(eventType, source string, data json.RawMessage) Event {
	return Event{
		SpecVersion: SpecVersion,
		Type:        eventType,
		Source:      source,
		ID:          idspkg.NewEventID(),
		Time:        time.Now().UTC().Format(EventTimeFormat),
		Data:        data,
	}
}

// Validate checks that the envelope carries all required CloudEvents
// attributes. Adaptation refuses envelopes that fail validation so handlers
// never observe a partially-formed event.
func (e Event) Validate() error {
	if e.SpecVersion == "" {
		return fmt.Errorf("functions: event specversion is required")
	}
	if e.Type == "" {
		return fmt.Errorf("functions: event type is required")
	}
	if e.Source == "" {
		return fmt.Errorf("functions: event source is required")
	}
	if e.ID == "" {
		return fmt.Errorf("functions: event id is required")
	}
	return nil
}
