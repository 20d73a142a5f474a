package functions

import (
	runtimepkg "github.com/night-fury-3/firebase-functions-go/internal/runtime"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/callable"
	ce "github.com/night-fury-3/firebase-functions-go/internal/runtime/cloudevents"
	configpkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/config"
	errspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/errors"
	idspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/ids"
	jsoncodec "github.com/night-fury-3/firebase-functions-go/internal/runtime/jsoncodec"
	loggingpkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/logging"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/manifest"
	optionspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/options"
)

type (
	RuntimeOptions = optionspkg.RuntimeOptions
	Opt[T any]     = optionspkg.Opt[T]

	MemoryOption     = optionspkg.MemoryOption
	SupportedRegion  = optionspkg.SupportedRegion
	IngressSetting   = optionspkg.IngressSetting
	VPCEgressSetting = optionspkg.VPCEgressSetting
	CPUValue         = optionspkg.CPUValue
	SecretParam      = optionspkg.SecretParam
	SecretRef        = optionspkg.SecretRef

	// CloudEvents types
	RawEvent         = ce.Event
	CloudEvent[T any] = ce.TypedEvent[T]
	Change[T any]     = ce.Change[T]

	// Manifest types
	ManifestEndpoint = manifest.Endpoint
	ManifestStack    = manifest.Stack
	ManifestField    = manifest.Field
	EventTrigger     = manifest.EventTrigger
	RequiredAPI      = manifest.RequiredAPI

	// Registry types
	Registry     = runtimepkg.Registry
	FunctionInfo = runtimepkg.FunctionInfo
	EventHandler = runtimepkg.EventHandler

	// Callable verification types
	TokenState         = callable.TokenState
	TokenVerifier      = callable.TokenVerifier
	Verifiers          = callable.Verifiers
	VerificationResult = callable.VerificationResult

	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger

	FirebaseConfig = configpkg.FirebaseConfig
)

const (
	MemoryMB128 = optionspkg.MemoryMB128
	MemoryMB256 = optionspkg.MemoryMB256
	MemoryMB512 = optionspkg.MemoryMB512
	MemoryGB1   = optionspkg.MemoryGB1
	MemoryGB2   = optionspkg.MemoryGB2
	MemoryGB4   = optionspkg.MemoryGB4
	MemoryGB8   = optionspkg.MemoryGB8
	MemoryGB16  = optionspkg.MemoryGB16
	MemoryGB32  = optionspkg.MemoryGB32

	IngressAllowAll             = optionspkg.IngressAllowAll
	IngressAllowInternalOnly    = optionspkg.IngressAllowInternalOnly
	IngressAllowInternalAndGCLB = optionspkg.IngressAllowInternalAndGCLB

	VPCEgressPrivateRangesOnly = optionspkg.VPCEgressPrivateRangesOnly
	VPCEgressAllTraffic        = optionspkg.VPCEgressAllTraffic

	TokenStateMissing = callable.TokenStateMissing
	TokenStateValid   = callable.TokenStateValid
	TokenStateInvalid = callable.TokenStateInvalid
)

var (
	SetGlobalOptions = optionspkg.SetGlobalOptions
	GlobalOptions    = optionspkg.GlobalOptions
	CPUCores         = optionspkg.CPUCores
	CPUGCFGen1       = optionspkg.CPUGCFGen1
	SecretNames      = optionspkg.SecretNames

	// Registry access
	DefaultRegistry = runtimepkg.Default
	NewRegistry     = runtimepkg.NewRegistry

	// CloudEvents constructors and helpers
	NewRawEvent     = ce.New
	ParseEventTime  = ce.ParseEventTime
	FormatEventTime = ce.FormatEventTime

	// Callable verification
	ValidCallableRequest = callable.ValidRequest
	CheckCallableTokens  = callable.CheckTokens

	LoadFirebaseConfig = configpkg.Load
	RunningInEmulator  = configpkg.RunningInEmulator

	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger

	NewEventID = idspkg.NewEventID

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal
	Encode        = jsoncodec.Encode
	Decode        = jsoncodec.Decode

	ErrFuncNameRequired   = errspkg.ErrFuncNameRequired
	ErrHandlerRequired    = errspkg.ErrHandlerRequired
	ErrEventTypeRequired  = errspkg.ErrEventTypeRequired
	ErrTopicRequired      = errspkg.ErrTopicRequired
	ErrReferenceRequired  = errspkg.ErrReferenceRequired
	ErrBucketRequired     = errspkg.ErrBucketRequired
	ErrRegistryRequired   = errspkg.ErrRegistryRequired
	ErrFunctionRegistered = errspkg.ErrFunctionRegistered
)

// Option constructors for three-state fields. Value marks an explicit
// setting, UseDefault marks an explicit reset to the platform default, and a
// zero Opt is unset and inherits from the global options.
func OptionValue[T any](v T) Opt[T] { return optionspkg.Value(v) }

// OptionReset marks a field as explicitly reset to the platform default.
func OptionReset[T any]() Opt[T] { return optionspkg.UseDefault[T]() }

// Typed adapts a raw event envelope into a typed event carrying data.
func Typed[T any](raw RawEvent, data T) (CloudEvent[T], error) {
	return ce.Typed(raw, data)
}
