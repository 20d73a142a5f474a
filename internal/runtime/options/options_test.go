package options

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/night-fury-3/firebase-functions-go/internal/runtime/manifest"
)

func resetGlobal(t *testing.T) {
	t.Helper()
	SetGlobalOptions(RuntimeOptions{})
	t.Cleanup(func() { SetGlobalOptions(RuntimeOptions{}) })
}

func TestOptStates(t *testing.T) {
	var unset Opt[int]
	assert.False(t, unset.IsSet())
	assert.False(t, unset.IsUseDefault())
	_, ok := unset.Get()
	assert.False(t, ok)

	set := Value(42)
	assert.True(t, set.IsSet())
	assert.False(t, set.IsUseDefault())
	v, ok := set.Get()
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	reset := UseDefault[int]()
	assert.True(t, reset.IsSet())
	assert.True(t, reset.IsUseDefault())
	_, ok = reset.Get()
	assert.False(t, ok)
}

func TestMergedWithGlobalLocalWins(t *testing.T) {
	resetGlobal(t)
	SetGlobalOptions(RuntimeOptions{
		Memory:       Value(MemoryMB512),
		MinInstances: Value(2),
	})

	local := RuntimeOptions{Memory: Value(MemoryGB1)}
	merged := local.MergedWithGlobal()

	mem, ok := merged.Memory.Get()
	require.True(t, ok)
	assert.Equal(t, MemoryGB1, mem)

	// Unset local field falls back to the global value.
	min, ok := merged.MinInstances.Get()
	require.True(t, ok)
	assert.Equal(t, 2, min)
}

func TestMergedWithGlobalResetSurvives(t *testing.T) {
	resetGlobal(t)
	SetGlobalOptions(RuntimeOptions{MaxInstances: Value(10)})

	local := RuntimeOptions{MaxInstances: UseDefault[int]()}
	merged := local.MergedWithGlobal()

	assert.True(t, merged.MaxInstances.IsUseDefault())
	_, ok := merged.MaxInstances.Get()
	assert.False(t, ok)
}

func TestMergedWithGlobalPlainFields(t *testing.T) {
	resetGlobal(t)
	SetGlobalOptions(RuntimeOptions{
		Region:       []string{"us-central1"},
		VPCConnector: "global-connector",
		Labels:       map[string]string{"team": "infra"},
	})

	merged := RuntimeOptions{}.MergedWithGlobal()
	assert.Equal(t, []string{"us-central1"}, merged.Region)
	assert.Equal(t, "global-connector", merged.VPCConnector)
	assert.Equal(t, map[string]string{"team": "infra"}, merged.Labels)

	local := RuntimeOptions{Region: []string{"europe-west1"}, VPCConnector: "local-connector"}
	merged = local.MergedWithGlobal()
	assert.Equal(t, []string{"europe-west1"}, merged.Region)
	assert.Equal(t, "local-connector", merged.VPCConnector)
}

func TestSetGlobalOptionsReplacesWholesale(t *testing.T) {
	resetGlobal(t)
	SetGlobalOptions(RuntimeOptions{
		Memory:     Value(MemoryMB512),
		TimeoutSec: Value(120),
	})
	SetGlobalOptions(RuntimeOptions{TimeoutSec: Value(300)})

	merged := RuntimeOptions{}.MergedWithGlobal()
	assert.False(t, merged.Memory.IsSet(), "memory from the first write must not linger")
	timeout, ok := merged.TimeoutSec.Get()
	require.True(t, ok)
	assert.Equal(t, 300, timeout)
}

func TestEndpointRequiresName(t *testing.T) {
	resetGlobal(t)
	_, err := RuntimeOptions{}.Endpoint("")
	assert.Error(t, err)
}

func TestEndpointFieldStates(t *testing.T) {
	resetGlobal(t)
	opts := RuntimeOptions{
		Memory:     Value(MemoryMB512),
		TimeoutSec: UseDefault[int](),
	}

	endpoint, err := opts.Endpoint("fn")
	require.NoError(t, err)

	assert.Equal(t, "fn", endpoint.EntryPoint)
	assert.Equal(t, 512, endpoint.AvailableMemoryMB.Value())
	assert.True(t, endpoint.TimeoutSeconds.IsNull())
	assert.False(t, endpoint.MinInstances.IsPresent())
}

func TestEndpointCPU(t *testing.T) {
	resetGlobal(t)

	endpoint, err := RuntimeOptions{CPU: Value(CPUCores(2))}.Endpoint("fn")
	require.NoError(t, err)
	assert.Equal(t, 2, endpoint.CPU.Value())

	endpoint, err = RuntimeOptions{CPU: Value(CPUGCFGen1())}.Endpoint("fn")
	require.NoError(t, err)
	assert.Equal(t, "gcf_gen1", endpoint.CPU.Value())
}

func TestEndpointVPC(t *testing.T) {
	resetGlobal(t)
	opts := RuntimeOptions{
		VPCConnector:               "id",
		VPCConnectorEgressSettings: VPCEgressAllTraffic,
	}

	endpoint, err := opts.Endpoint("fn")
	require.NoError(t, err)
	require.NotNil(t, endpoint.VPC)
	assert.Equal(t, "id", endpoint.VPC.Connector)
	assert.Equal(t, "ALL_TRAFFIC", endpoint.VPC.EgressSettings)

	endpoint, err = RuntimeOptions{}.Endpoint("fn")
	require.NoError(t, err)
	assert.Nil(t, endpoint.VPC)
}

func TestEndpointSecrets(t *testing.T) {
	resetGlobal(t)

	opts := RuntimeOptions{
		Secrets: Value([]SecretRef{
			{Name: "API_KEY"},
			{Param: &SecretParam{Name: "DB_PASSWORD"}},
		}),
	}
	endpoint, err := opts.Endpoint("fn")
	require.NoError(t, err)
	assert.Equal(t, []manifest.SecretEnvironmentVariable{
		{Key: "API_KEY"},
		{Key: "DB_PASSWORD"},
	}, endpoint.SecretEnvironmentVariables.Value())

	endpoint, err = RuntimeOptions{Secrets: UseDefault[[]SecretRef]()}.Endpoint("fn")
	require.NoError(t, err)
	assert.True(t, endpoint.SecretEnvironmentVariables.IsNull())
}

func TestSecretNames(t *testing.T) {
	refs := SecretNames("A", "B")
	require.Len(t, refs, 2)
	assert.Equal(t, "A", refs[0].resolvedName())
	assert.Equal(t, "B", refs[1].resolvedName())
}

func TestEndpointIngress(t *testing.T) {
	resetGlobal(t)
	endpoint, err := RuntimeOptions{Ingress: Value(IngressAllowInternalOnly)}.Endpoint("fn")
	require.NoError(t, err)
	assert.Equal(t, "ALLOW_INTERNAL_ONLY", endpoint.IngressSettings.Value())
}
