// Package storage declares functions triggered by object changes in a
// storage bucket.
package storage

import (
	"context"
	"fmt"

	"github.com/spf13/cast"

	ce "github.com/night-fury-3/firebase-functions-go/internal/runtime/cloudevents"
	configpkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/config"
	errspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/errors"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/jsoncodec"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/manifest"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/options"
	runtimepkg "github.com/night-fury-3/firebase-functions-go/internal/runtime"
)

// Event types emitted for storage objects.
const (
	EventTypeArchived        = "google.cloud.storage.object.v1.archived"
	EventTypeFinalized       = "google.cloud.storage.object.v1.finalized"
	EventTypeDeleted         = "google.cloud.storage.object.v1.deleted"
	EventTypeMetadataUpdated = "google.cloud.storage.object.v1.metadataUpdated"
)

// Options configure a storage-triggered function.
type Options struct {
	options.RuntimeOptions

	// Bucket is the bucket to watch. When empty, the default bucket from
	// the deployment configuration is used.
	Bucket string
}

func (o Options) endpoint(funcName, eventType string) (manifest.Endpoint, error) {
	if eventType == "" {
		return manifest.Endpoint{}, errspkg.ErrEventTypeRequired
	}
	bucket := o.Bucket
	if bucket == "" {
		cfg, err := configpkg.Load()
		if err != nil {
			return manifest.Endpoint{}, err
		}
		if cfg != nil {
			bucket = cfg.StorageBucket
		}
	}
	if bucket == "" {
		return manifest.Endpoint{}, errspkg.ErrBucketRequired
	}

	endpoint, err := o.RuntimeOptions.Endpoint(funcName)
	if err != nil {
		return manifest.Endpoint{}, err
	}
	endpoint.EventTrigger = &manifest.EventTrigger{
		EventType:    eventType,
		Retry:        false,
		EventFilters: map[string]string{"bucket": bucket},
	}
	return endpoint, nil
}

// CustomerEncryption is the metadata of a customer-supplied encryption key,
// present when the object is encrypted with one.
type CustomerEncryption struct {
	// EncryptionAlgorithm is the encryption algorithm used.
	EncryptionAlgorithm string

	// KeySHA256 is the SHA256 hash of the encryption key.
	KeySHA256 string
}

// StorageObjectData describes one object within a storage bucket.
type StorageObjectData struct {
	// Bucket is the name of the bucket containing this object.
	Bucket string

	// Generation is the content generation of this object, used for
	// object versioning.
	Generation int64

	// ID is the full identifier of the object, including bucket, name and
	// generation.
	ID string

	// Metageneration is the metadata generation of this object.
	Metageneration int64

	// Name is the name of the object.
	Name string

	// Size is the object size in bytes.
	Size int64

	// StorageClass is the storage class of the object.
	StorageClass string

	CacheControl       string
	ComponentCount     int
	ContentDisposition string
	ContentEncoding    string
	ContentLanguage    string
	ContentType        string
	CRC32C             string
	Etag               string
	Kind               string
	MD5Hash            string
	MediaLink          string
	Metadata           map[string]string
	SelfLink           string
	TimeCreated        string
	TimeDeleted        string
	TimeStorageClassUpdated string
	Updated            string

	CustomerEncryption *CustomerEncryption
}

// Event is the typed envelope handed to storage handlers.
type Event = ce.TypedEvent[StorageObjectData]

// ObjectHandler processes one adapted storage object event.
type ObjectHandler func(ctx context.Context, event Event) error

// ObjectRegistration wires a handler to a bucket.
type ObjectRegistration struct {
	Name    string
	Options Options
	Handler ObjectHandler
}

// OnObjectFinalized declares a function that fires every time an object (or
// a new generation of an existing object) is successfully created in the
// bucket. A failed upload does not trigger it.
func OnObjectFinalized(reg ObjectRegistration) error {
	return register(reg, EventTypeFinalized)
}

// OnObjectArchived declares a function sent only when a bucket has object
// versioning enabled and a live object becomes an archived version.
func OnObjectArchived(reg ObjectRegistration) error {
	return register(reg, EventTypeArchived)
}

// OnObjectDeleted declares a function that fires when an object is
// permanently deleted, including overwrites and lifecycle deletions.
func OnObjectDeleted(reg ObjectRegistration) error {
	return register(reg, EventTypeDeleted)
}

// OnObjectMetadataUpdated declares a function that fires when the metadata
// of an existing object changes.
func OnObjectMetadataUpdated(reg ObjectRegistration) error {
	return register(reg, EventTypeMetadataUpdated)
}

func register(reg ObjectRegistration, eventType string) error {
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
			event, err := adaptObjectEvent(raw)
			if err != nil {
				return err
			}
			return reg.Handler(ctx, event)
		},
	})
}

// wireObject mirrors the camelCase wire shape. Numeric fields arrive as
// JSON strings from the storage API, so they are coerced after decoding.
type wireObject struct {
	Bucket             string            `json:"bucket"`
	Generation         any               `json:"generation"`
	ID                 string            `json:"id"`
	Metageneration     any               `json:"metageneration"`
	Name               string            `json:"name"`
	Size               any               `json:"size"`
	StorageClass       string            `json:"storageClass"`
	CacheControl       string            `json:"cacheControl"`
	ComponentCount     any               `json:"componentCount"`
	ContentDisposition string            `json:"contentDisposition"`
	ContentEncoding    string            `json:"contentEncoding"`
	ContentLanguage    string            `json:"contentLanguage"`
	ContentType        string            `json:"contentType"`
	CRC32C             string            `json:"crc32c"`
	Etag               string            `json:"etag"`
	Kind               string            `json:"kind"`
	MD5Hash            string            `json:"md5Hash"`
	MediaLink          string            `json:"mediaLink"`
	Metadata           map[string]string `json:"metadata"`
	SelfLink           string            `json:"selfLink"`
	TimeCreated        string            `json:"timeCreated"`
	TimeDeleted        string            `json:"timeDeleted"`
	TimeStorageClassUpdated string       `json:"timeStorageClassUpdated"`
	Updated            string            `json:"updated"`

	CustomerEncryption *struct {
		EncryptionAlgorithm string `json:"encryptionAlgorithm"`
		KeySHA256           string `json:"keySha256"`
	} `json:"customerEncryption"`
}

func adaptObjectEvent(raw ce.Event) (Event, error) {
	var wire wireObject
	if err := jsoncodec.Unmarshal(raw.Data, &wire); err != nil {
		return Event{}, fmt.Errorf("functions: invalid storage event payload: %w", err)
	}
	if wire.Bucket == "" {
		return Event{}, fmt.Errorf("functions: storage event payload is missing bucket")
	}
	if wire.Name == "" {
		return Event{}, fmt.Errorf("functions: storage event payload is missing object name")
	}

	object := StorageObjectData{
		Bucket:             wire.Bucket,
		Generation:         cast.ToInt64(wire.Generation),
		ID:                 wire.ID,
		Metageneration:     cast.ToInt64(wire.Metageneration),
		Name:               wire.Name,
		Size:               cast.ToInt64(wire.Size),
		StorageClass:       wire.StorageClass,
		CacheControl:       wire.CacheControl,
		ComponentCount:     cast.ToInt(wire.ComponentCount),
		ContentDisposition: wire.ContentDisposition,
		ContentEncoding:    wire.ContentEncoding,
		ContentLanguage:    wire.ContentLanguage,
		ContentType:        wire.ContentType,
		CRC32C:             wire.CRC32C,
		Etag:               wire.Etag,
		Kind:               wire.Kind,
		MD5Hash:            wire.MD5Hash,
		MediaLink:          wire.MediaLink,
		Metadata:           wire.Metadata,
		SelfLink:           wire.SelfLink,
		TimeCreated:        wire.TimeCreated,
		TimeDeleted:        wire.TimeDeleted,
		TimeStorageClassUpdated: wire.TimeStorageClassUpdated,
		Updated:            wire.Updated,
	}
	if wire.CustomerEncryption != nil {
		object.CustomerEncryption = &CustomerEncryption{
			EncryptionAlgorithm: wire.CustomerEncryption.EncryptionAlgorithm,
			KeySHA256:           wire.CustomerEncryption.KeySHA256,
		}
	}
	return ce.Typed(raw, object)
}
