// Package options implements the configuration records attached to declared
// functions and their resolution against the process-wide defaults at
// manifest-build time.
package options

import (
	"sync"

	errspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/errors"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/manifest"
)

// VPCEgressSetting is a valid setting for VPC egress.
type VPCEgressSetting string

const (
	VPCEgressPrivateRangesOnly VPCEgressSetting = "PRIVATE_RANGES_ONLY"
	VPCEgressAllTraffic        VPCEgressSetting = "ALL_TRAFFIC"
)

// IngressSetting controls what kind of traffic can reach the function.
type IngressSetting string

const (
	IngressAllowAll             IngressSetting = "ALLOW_ALL"
	IngressAllowInternalOnly    IngressSetting = "ALLOW_INTERNAL_ONLY"
	IngressAllowInternalAndGCLB IngressSetting = "ALLOW_INTERNAL_AND_GCLB"
)

// MemoryOption is an available memory allocation, in megabytes.
type MemoryOption int

const (
	MemoryMB128 MemoryOption = 128
	MemoryMB256 MemoryOption = 256
	MemoryMB512 MemoryOption = 512
	MemoryGB1   MemoryOption = 1 << 10
	MemoryGB2   MemoryOption = 2 << 10
	MemoryGB4   MemoryOption = 4 << 10
	MemoryGB8   MemoryOption = 8 << 10
	MemoryGB16  MemoryOption = 16 << 10
	MemoryGB32  MemoryOption = 32 << 10
)

// SupportedRegion is a region supported by the functions platform.
type SupportedRegion string

const (
	RegionAsiaNortheast1 SupportedRegion = "asia-northeast1"
	RegionEuropeNorth1   SupportedRegion = "europe-north1"
	RegionEuropeWest1    SupportedRegion = "europe-west1"
	RegionEuropeWest4    SupportedRegion = "europe-west4"
	RegionUSCentral1     SupportedRegion = "us-central1"
	RegionUSEast1        SupportedRegion = "us-east1"
	RegionUSWest1        SupportedRegion = "us-west1"
)

// CPUValue selects the CPU allocation for a function: a whole number of CPUs
// or the fixed generation-1 sizing derived from the memory allocation.
type CPUValue struct {
	cores int
	gen1  bool
}

// CPUCores allocates a whole number of CPUs.
func CPUCores(n int) CPUValue { return CPUValue{cores: n} }

// CPUGCFGen1 reverts to the CPU amounts used in generation 1.
func CPUGCFGen1() CPUValue { return CPUValue{gen1: true} }

func (c CPUValue) specValue() any {
	if c.gen1 {
		return "gcf_gen1"
	}
	return c.cores
}

// SecretParam declares a secret parameter whose value is bound at deploy
// time.
type SecretParam struct {
	// Name is the name of the secret in the secret manager.
	Name string
}

// SecretRef names a secret to bind to a function, either directly by name or
// through a declared SecretParam.
type SecretRef struct {
	// Name is the plain secret name.
	Name string

	// Param references a declared secret parameter. When set it takes
	// precedence over Name.
	Param *SecretParam
}

func (r SecretRef) resolvedName() string {
	if r.Param != nil {
		return r.Param.Name
	}
	return r.Name
}

// SecretNames builds secret references from plain names.
func SecretNames(names ...string) []SecretRef {
	refs := make([]SecretRef, len(names))
	for i, name := range names {
		refs[i] = SecretRef{Name: name}
	}
	return refs
}

// RuntimeOptions are the options that can be set on any function or
// globally. Records are immutable once attached to a function: resolution
// produces a new record instead of mutating either input.
type RuntimeOptions struct {
	// Region lists where the function should be deployed. HTTPS functions
	// may specify more than one region. Empty means inherit.
	Region []string

	// Memory is the amount of memory to allocate. Resetting it restores
	// the platform default of 256MB.
	Memory Opt[MemoryOption]

	// TimeoutSec is the function timeout in seconds. Event handling
	// functions allow up to 540; resetting restores the default of 60.
	TimeoutSec Opt[int]

	// MinInstances is the minimum number of warm instances.
	MinInstances Opt[int]

	// MaxInstances is the maximum number of instances running in
	// parallel.
	MaxInstances Opt[int]

	// Concurrency is the number of requests one instance may serve at
	// once. Values other than 1 require at least one full CPU.
	Concurrency Opt[int]

	// CPU is the CPU allocation for the function.
	CPU Opt[CPUValue]

	// VPCConnector connects the function to the named VPC connector.
	// Empty means inherit.
	VPCConnector string

	// VPCConnectorEgressSettings selects which egress traffic is routed
	// through the connector.
	VPCConnectorEgressSettings VPCEgressSetting

	// ServiceAccount is the identity the function runs as.
	ServiceAccount Opt[string]

	// Ingress controls where the function can be called from.
	Ingress Opt[IngressSetting]

	// Labels are user labels to set on the function. Nil means inherit.
	Labels map[string]string

	// Secrets lists the secrets to bind to the function environment.
	Secrets Opt[[]SecretRef]
}

var (
	globalMu sync.RWMutex
	global   RuntimeOptions
)

// SetGlobalOptions replaces the process-wide default options wholesale; any
// field not set on opts becomes unset. The expected write pattern is a single
// call at cold start before request dispatch begins; last writer wins.
func SetGlobalOptions(opts RuntimeOptions) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global = opts
}

// GlobalOptions returns the current process-wide defaults.
func GlobalOptions() RuntimeOptions {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return global
}

// MergedWithGlobal resolves every base field against the process-wide
// defaults, field by field: a locally set field (explicit value or reset
// marker) wins; otherwise the global value is used, which may itself be
// unset. Trigger-specific fields live on the trigger option records and pass
// through untouched.
func (o RuntimeOptions) MergedWithGlobal() RuntimeOptions {
	g := GlobalOptions()

	merged := RuntimeOptions{
		Region:                     o.Region,
		Memory:                     resolve(o.Memory, g.Memory),
		TimeoutSec:                 resolve(o.TimeoutSec, g.TimeoutSec),
		MinInstances:               resolve(o.MinInstances, g.MinInstances),
		MaxInstances:               resolve(o.MaxInstances, g.MaxInstances),
		Concurrency:                resolve(o.Concurrency, g.Concurrency),
		CPU:                        resolve(o.CPU, g.CPU),
		VPCConnector:               o.VPCConnector,
		VPCConnectorEgressSettings: o.VPCConnectorEgressSettings,
		ServiceAccount:             resolve(o.ServiceAccount, g.ServiceAccount),
		Ingress:                    resolve(o.Ingress, g.Ingress),
		Labels:                     o.Labels,
		Secrets:                    resolve(o.Secrets, g.Secrets),
	}
	if len(merged.Region) == 0 {
		merged.Region = g.Region
	}
	if merged.VPCConnector == "" {
		merged.VPCConnector = g.VPCConnector
	}
	if merged.VPCConnectorEgressSettings == "" {
		merged.VPCConnectorEgressSettings = g.VPCConnectorEgressSettings
	}
	if merged.Labels == nil {
		merged.Labels = g.Labels
	}
	return merged
}

// Endpoint builds the base manifest entry for a function with these options,
// resolved against the global defaults. Trigger packages extend the result
// with their trigger blocks.
func (o RuntimeOptions) Endpoint(funcName string) (manifest.Endpoint, error) {
	if funcName == "" {
		return manifest.Endpoint{}, errspkg.ErrFuncNameRequired
	}
	merged := o.MergedWithGlobal()

	endpoint := manifest.Endpoint{
		EntryPoint: funcName,
		Region:     merged.Region,
		Labels:     merged.Labels,

		AvailableMemoryMB: fieldOf(merged.Memory, func(m MemoryOption) any { return int(m) }),
		TimeoutSeconds:    fieldOf(merged.TimeoutSec, nil),
		MinInstances:      fieldOf(merged.MinInstances, nil),
		MaxInstances:      fieldOf(merged.MaxInstances, nil),
		Concurrency:       fieldOf(merged.Concurrency, nil),
		CPU:               fieldOf(merged.CPU, func(c CPUValue) any { return c.specValue() }),
		ServiceAccountEmail: fieldOf(merged.ServiceAccount, nil),
		IngressSettings:     fieldOf(merged.Ingress, func(i IngressSetting) any { return string(i) }),

		SecretEnvironmentVariables: secretsField(merged.Secrets),
	}

	if merged.VPCConnector != "" {
		endpoint.VPC = &manifest.VPCSettings{
			Connector:      merged.VPCConnector,
			EgressSettings: string(merged.VPCConnectorEgressSettings),
		}
	}

	return endpoint, nil
}

// fieldOf translates a three-state option field into a manifest field:
// reset markers become explicit nulls, explicit values are converted with
// conv when supplied, and unset fields stay omitted.
func fieldOf[T any](o Opt[T], conv func(T) any) manifest.Field {
	switch {
	case o.IsUseDefault():
		return manifest.Null()
	case o.IsSet():
		v, _ := o.Get()
		if conv != nil {
			return manifest.Of(conv(v))
		}
		return manifest.Of(v)
	default:
		return manifest.Omitted()
	}
}

func secretsField(secrets Opt[[]SecretRef]) manifest.Field {
	switch {
	case secrets.IsUseDefault():
		// Kept as an explicit null so downstream pruning does not strip
		// the reset silently.
		return manifest.Null()
	case secrets.IsSet():
		refs, _ := secrets.Get()
		vars := make([]manifest.SecretEnvironmentVariable, len(refs))
		for i, ref := range refs {
			vars[i] = manifest.SecretEnvironmentVariable{Key: ref.resolvedName()}
		}
		return manifest.Of(vars)
	default:
		return manifest.Omitted()
	}
}
