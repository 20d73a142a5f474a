// Package pubsub declares functions triggered by messages published to a
// Pub/Sub topic, and adapts the generic event envelope into the typed
// message shape before the handler runs.
package pubsub

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	ce "github.com/night-fury-3/firebase-functions-go/internal/runtime/cloudevents"
	errspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/errors"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/jsoncodec"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/manifest"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/options"
	runtimepkg "github.com/night-fury-3/firebase-functions-go/internal/runtime"
)

// EventTypeMessagePublished is the event type emitted when a message is
// published to a topic.
const EventTypeMessagePublished = "google.cloud.pubsub.topic.v1.messagePublished"

// Options configure a message-published function.
type Options struct {
	options.RuntimeOptions

	// Topic is the Pub/Sub topic to watch for message events. Required.
	Topic string

	// Retry controls whether failed executions are delivered again.
	Retry bool
}

func (o Options) endpoint(funcName string) (manifest.Endpoint, error) {
	if o.Topic == "" {
		return manifest.Endpoint{}, errspkg.ErrTopicRequired
	}
	endpoint, err := o.RuntimeOptions.Endpoint(funcName)
	if err != nil {
		return manifest.Endpoint{}, err
	}
	endpoint.EventTrigger = &manifest.EventTrigger{
		EventType:    EventTypeMessagePublished,
		Retry:        o.Retry,
		EventFilters: map[string]string{"topic": o.Topic},
	}
	return endpoint, nil
}

// Message represents one delivered Pub/Sub message.
type Message struct {
	// MessageID is the autogenerated ID that uniquely identifies this
	// message.
	MessageID string

	// PublishTime is when the message was published.
	PublishTime time.Time

	// Attributes are the user-defined attributes published with the
	// message. Never nil; an absent attributes field adapts to an empty
	// map.
	Attributes map[string]string

	// Data is the payload of the message as a base64-encoded string.
	Data string

	// OrderingKey is the user-defined key used to preserve relative order
	// amongst messages with the same key.
	OrderingKey string
}

// JSON decodes the base64 payload and parses it as JSON. A payload that is
// not valid base64-encoded JSON is a payload-decoding error.
func (m Message) JSON() (any, error) {
	decoded, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		return nil, fmt.Errorf("functions: unable to parse pub/sub message data as JSON: %w", err)
	}
	var value any
	if err := jsoncodec.Unmarshal(decoded, &value); err != nil {
		return nil, fmt.Errorf("functions: unable to parse pub/sub message data as JSON: %w", err)
	}
	return value, nil
}

// DecodeJSON decodes the base64 payload into a value of type T.
func DecodeJSON[T any](m Message) (T, error) {
	var value T
	decoded, err := base64.StdEncoding.DecodeString(m.Data)
	if err != nil {
		return value, fmt.Errorf("functions: unable to parse pub/sub message data as JSON: %w", err)
	}
	if err := jsoncodec.Unmarshal(decoded, &value); err != nil {
		return value, fmt.Errorf("functions: unable to parse pub/sub message data as JSON: %w", err)
	}
	return value, nil
}

// MessagePublishedData is the payload delivered for a publish subscription.
type MessagePublishedData struct {
	// Message is the published Pub/Sub message.
	Message Message

	// Subscription is the subscription resource the message was delivered
	// through.
	Subscription string
}

// Event is the typed envelope handed to message-published handlers.
type Event = ce.TypedEvent[MessagePublishedData]

// MessageHandler processes one adapted message-published event. The returned
// error is reported to the platform, which owns retry policy.
type MessageHandler func(ctx context.Context, event Event) error

// MessagePublishedRegistration wires a handler to a topic.
type MessagePublishedRegistration struct {
	Name    string
	Options Options
	Handler MessageHandler
}

// OnMessagePublished declares a function triggered by a message being
// published to a Pub/Sub topic. The raw envelope is adapted before the
// handler runs; the handler never observes a partially-constructed event.
func OnMessagePublished(reg MessagePublishedRegistration) error {
	if reg.Handler == nil {
		return errspkg.ErrHandlerRequired
	}
	endpoint, err := reg.Options.endpoint(reg.Name)
	if err != nil {
		return err
	}
	return runtimepkg.Default().Register(runtimepkg.FunctionInfo{
		Name:     reg.Name,
		Endpoint: endpoint,
		EventHandler: func(ctx context.Context, raw ce.Event) error {
			event, err := adaptMessagePublished(raw)
			if err != nil {
				return err
			}
			return reg.Handler(ctx, event)
		},
	})
}

// wireMessage is the nested message object as it appears on the wire. The
// snake_case keys are authoritative; the camelCase duplicates (messageId,
// publishTime) are not mapped and therefore dropped. orderingKey has no
// snake_case alias on the wire.
type wireMessage struct {
	MessageID   string            `json:"message_id"`
	PublishTime string            `json:"publish_time"`
	Attributes  map[string]string `json:"attributes"`
	Data        string            `json:"data"`
	OrderingKey string            `json:"orderingKey"`
}

type wirePublishedData struct {
	Message      *wireMessage `json:"message"`
	Subscription string       `json:"subscription"`
}

func adaptMessagePublished(raw ce.Event) (Event, error) {
	var payload wirePublishedData
	if err := jsoncodec.Unmarshal(raw.Data, &payload); err != nil {
		return Event{}, fmt.Errorf("functions: invalid pub/sub event payload: %w", err)
	}
	if payload.Message == nil {
		return Event{}, fmt.Errorf("functions: pub/sub event payload is missing message")
	}
	if payload.Subscription == "" {
		return Event{}, fmt.Errorf("functions: pub/sub event payload is missing subscription")
	}
	wire := payload.Message
	if wire.MessageID == "" {
		return Event{}, fmt.Errorf("functions: pub/sub message is missing message_id")
	}

	publishTime, err := ce.ParseEventTime(wire.PublishTime)
	if err != nil {
		return Event{}, err
	}

	attributes := wire.Attributes
	if attributes == nil {
		attributes = map[string]string{}
	}

	data := MessagePublishedData{
		Message: Message{
			MessageID:   wire.MessageID,
			PublishTime: publishTime,
			Attributes:  attributes,
			Data:        wire.Data,
			OrderingKey: wire.OrderingKey,
		},
		Subscription: payload.Subscription,
	}
	return ce.Typed(raw, data)
}
