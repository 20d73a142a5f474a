// Package manifest defines the deployment manifest consumed by the CLI.
// Field names match the functions.yaml container specification, so most of
// them are camelCase on the wire.
package manifest

import (
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/jsoncodec"
	"sigs.k8s.io/yaml"
)

// Platform is the functions platform every endpoint in this manifest
// targets.
const Platform = "gcfv2"

// SpecVersion is the manifest schema version.
const SpecVersion = "v1alpha1"

// Field is a manifest value in one of three states: omitted, explicit null,
// or a concrete value. Omitted fields are pruned from the spec; explicit
// nulls survive pruning and serialize as null, which tells the deployment
// tool to restore the factory default.
type Field struct {
	value   any
	present bool
	null    bool
}

// Omitted returns the zero Field; the key is dropped from the spec.
func Omitted() Field { return Field{} }

// Null returns a Field that serializes as an explicit null.
func Null() Field { return Field{present: true, null: true} }

// Of returns a Field holding a concrete value.
func Of(v any) Field { return Field{value: v, present: true} }

// IsPresent reports whether the field appears in the spec at all.
func (f Field) IsPresent() bool { return f.present }

// IsNull reports whether the field renders as an explicit null.
func (f Field) IsNull() bool { return f.present && f.null }

// Value returns the concrete value, or nil for omitted and null fields.
func (f Field) Value() any {
	if !f.present || f.null {
		return nil
	}
	return f.value
}

func (f Field) addTo(spec map[string]any, key string) {
	switch {
	case !f.present:
	case f.null:
		spec[key] = nil
	default:
		spec[key] = f.value
	}
}

// SecretEnvironmentVariable binds one secret to the function environment.
type SecretEnvironmentVariable struct {
	Key    string `json:"key"`
	Secret string `json:"secret,omitempty"`
}

// HTTPSTrigger marks an endpoint as an arbitrary HTTPS function. An empty
// invoker list means "make public" on create and do nothing on update.
type HTTPSTrigger struct {
	Invoker []string `json:"invoker,omitempty"`
}

// CallableTrigger marks an endpoint as a callable RPC function. It carries
// no settings; its presence selects the callable protocol.
type CallableTrigger struct{}

// EventTrigger describes an endpoint that listens to CloudEvents emitted by
// another system. EventFilters match exactly; EventFilterPathPatterns apply
// to fields that support wildcard and capture syntax.
type EventTrigger struct {
	EventType               string            `json:"eventType"`
	Retry                   bool              `json:"retry"`
	EventFilters            map[string]string `json:"eventFilters,omitempty"`
	EventFilterPathPatterns map[string]string `json:"eventFilterPathPatterns,omitempty"`
	Channel                 string            `json:"channel,omitempty"`
	Region                  string            `json:"region,omitempty"`
	ServiceAccountEmail     string            `json:"serviceAccountEmail,omitempty"`
}

// VPCSettings connects the function to a VPC connector. It is only emitted
// when a connector is configured; the egress setting is optional within it.
type VPCSettings struct {
	Connector      string `json:"connector"`
	EgressSettings string `json:"egressSettings,omitempty"`
}

// Endpoint is the definition of one function as it appears in the manifest.
// Constructed once per declared function at manifest-build time and immutable
// thereafter.
type Endpoint struct {
	EntryPoint string
	Region     []string

	AvailableMemoryMB   Field
	TimeoutSeconds      Field
	MinInstances        Field
	MaxInstances        Field
	Concurrency         Field
	CPU                 Field
	ServiceAccountEmail Field
	IngressSettings     Field

	// SecretEnvironmentVariables holds a []SecretEnvironmentVariable or an
	// explicit null when secrets were reset to defaults.
	SecretEnvironmentVariables Field

	VPC    *VPCSettings
	Labels map[string]string

	HTTPSTrigger    *HTTPSTrigger
	CallableTrigger *CallableTrigger
	EventTrigger    *EventTrigger
}

// Spec renders the endpoint as a serializable document. Omitted fields are
// pruned; explicit nulls are kept. Building the spec twice from the same
// endpoint yields identical output.
func (e Endpoint) Spec() map[string]any {
	spec := map[string]any{
		"platform":   Platform,
		"entryPoint": e.EntryPoint,
	}
	if len(e.Region) > 0 {
		spec["region"] = e.Region
	}

	e.AvailableMemoryMB.addTo(spec, "availableMemoryMb")
	e.TimeoutSeconds.addTo(spec, "timeoutSeconds")
	e.MinInstances.addTo(spec, "minInstances")
	e.MaxInstances.addTo(spec, "maxInstances")
	e.Concurrency.addTo(spec, "concurrency")
	e.CPU.addTo(spec, "cpu")
	e.ServiceAccountEmail.addTo(spec, "serviceAccountEmail")
	e.IngressSettings.addTo(spec, "ingressSettings")
	e.SecretEnvironmentVariables.addTo(spec, "secretEnvironmentVariables")

	if e.VPC != nil {
		vpc := map[string]any{"connector": e.VPC.Connector}
		if e.VPC.EgressSettings != "" {
			vpc["egressSettings"] = e.VPC.EgressSettings
		}
		spec["vpc"] = vpc
	}
	if len(e.Labels) > 0 {
		spec["labels"] = e.Labels
	}

	if e.HTTPSTrigger != nil {
		trigger := map[string]any{}
		if len(e.HTTPSTrigger.Invoker) > 0 {
			trigger["invoker"] = e.HTTPSTrigger.Invoker
		}
		spec["httpsTrigger"] = trigger
	}
	if e.CallableTrigger != nil {
		spec["callableTrigger"] = map[string]any{}
	}
	if e.EventTrigger != nil {
		trigger := map[string]any{
			"eventType": e.EventTrigger.EventType,
			"retry":     e.EventTrigger.Retry,
		}
		if len(e.EventTrigger.EventFilters) > 0 {
			trigger["eventFilters"] = e.EventTrigger.EventFilters
		}
		if len(e.EventTrigger.EventFilterPathPatterns) > 0 {
			trigger["eventFilterPathPatterns"] = e.EventTrigger.EventFilterPathPatterns
		}
		if e.EventTrigger.Channel != "" {
			trigger["channel"] = e.EventTrigger.Channel
		}
		if e.EventTrigger.Region != "" {
			trigger["region"] = e.EventTrigger.Region
		}
		if e.EventTrigger.ServiceAccountEmail != "" {
			trigger["serviceAccountEmail"] = e.EventTrigger.ServiceAccountEmail
		}
		spec["eventTrigger"] = trigger
	}

	return spec
}

// RequiredAPI names a service API that must be enabled before deploying.
type RequiredAPI struct {
	API    string `json:"api"`
	Reason string `json:"reason"`
}

// Stack is the complete manifest for one deployment.
type Stack struct {
	SpecVersion  string
	Endpoints    map[string]Endpoint
	RequiredAPIs []RequiredAPI
}

// NewStack returns an empty manifest with the current spec version.
func NewStack() Stack {
	return Stack{
		SpecVersion: SpecVersion,
		Endpoints:   map[string]Endpoint{},
	}
}

// Spec renders the whole stack as a serializable document.
func (s Stack) Spec() map[string]any {
	endpoints := make(map[string]any, len(s.Endpoints))
	for name, endpoint := range s.Endpoints {
		endpoints[name] = endpoint.Spec()
	}
	spec := map[string]any{
		"specVersion": s.SpecVersion,
		"endpoints":   endpoints,
	}
	if len(s.RequiredAPIs) > 0 {
		spec["requiredApis"] = s.RequiredAPIs
	}
	return spec
}

// YAML serializes the stack for functions.yaml. The document round-trips
// through the JSON spec map, so pruning and explicit-null semantics carry
// over unchanged.
func (s Stack) YAML() ([]byte, error) {
	return yaml.Marshal(s.Spec())
}

// JSON serializes the stack spec as JSON.
func (s Stack) JSON() ([]byte, error) {
	return jsoncodec.Marshal(s.Spec())
}
