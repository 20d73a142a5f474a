package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ce "github.com/night-fury-3/firebase-functions-go/internal/runtime/cloudevents"
	errspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/errors"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/manifest"
)

func noopHandler(_ context.Context, _ ce.Event) error { return nil }

func TestRegisterAndLookup(t *testing.T) {
	registry := NewRegistry(nil)

	err := registry.Register(FunctionInfo{
		Name:         "fn",
		Endpoint:     manifest.Endpoint{EntryPoint: "fn"},
		EventHandler: noopHandler,
	})
	require.NoError(t, err)

	info, ok := registry.Lookup("fn")
	require.True(t, ok)
	assert.Equal(t, "fn", info.Name)

	_, ok = registry.Lookup("missing")
	assert.False(t, ok)
}

func TestRegisterValidation(t *testing.T) {
	registry := NewRegistry(nil)

	err := registry.Register(FunctionInfo{EventHandler: noopHandler})
	assert.ErrorIs(t, err, errspkg.ErrFuncNameRequired)

	err = registry.Register(FunctionInfo{Name: "fn"})
	assert.ErrorIs(t, err, errspkg.ErrHandlerRequired)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	registry := NewRegistry(nil)

	require.NoError(t, registry.Register(FunctionInfo{Name: "fn", EventHandler: noopHandler}))
	err := registry.Register(FunctionInfo{Name: "fn", EventHandler: noopHandler})
	assert.ErrorIs(t, err, errspkg.ErrFunctionRegistered)
}

func TestFunctionsDeclarationOrder(t *testing.T) {
	registry := NewRegistry(nil)
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, registry.Register(FunctionInfo{Name: name, EventHandler: noopHandler}))
	}

	infos := registry.Functions()
	require.Len(t, infos, 3)
	assert.Equal(t, "charlie", infos[0].Name)
	assert.Equal(t, "alpha", infos[1].Name)
	assert.Equal(t, "bravo", infos[2].Name)
}

func TestManifestFromRegistry(t *testing.T) {
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register(FunctionInfo{
		Name:         "fn",
		Endpoint:     manifest.Endpoint{EntryPoint: "fn", AvailableMemoryMB: manifest.Of(256)},
		EventHandler: noopHandler,
	}))

	stack := registry.Manifest()
	assert.Equal(t, manifest.SpecVersion, stack.SpecVersion)
	require.Contains(t, stack.Endpoints, "fn")
	assert.Equal(t, 256, stack.Endpoints["fn"].AvailableMemoryMB.Value())

	// Building twice yields identical output.
	assert.Equal(t, stack.Spec(), registry.Manifest().Spec())
}

func TestReset(t *testing.T) {
	registry := NewRegistry(nil)
	require.NoError(t, registry.Register(FunctionInfo{Name: "fn", EventHandler: noopHandler}))

	registry.Reset()
	assert.Empty(t, registry.Functions())

	// Names are reusable after a reset.
	assert.NoError(t, registry.Register(FunctionInfo{Name: "fn", EventHandler: noopHandler}))
}
