package options

type optState uint8

const (
	stateUnset optState = iota
	stateValue
	stateUseDefault
)

// Opt is a three-state option field: unset (inherit), an explicit value, or
// reset-to-default. The zero value is unset. The reset state is distinct from
// unset: it survives merging and serializes as an explicit null in the
// manifest, instructing the deployment tool to restore the factory default.
type Opt[T any] struct {
	state optState
	value T
}

// Value returns an Opt holding an explicit value.
func Value[T any](v T) Opt[T] {
	return Opt[T]{state: stateValue, value: v}
}

// UseDefault returns an Opt that resets the field to its factory default.
func UseDefault[T any]() Opt[T] {
	return Opt[T]{state: stateUseDefault}
}

// IsSet reports whether the field was set at all, to a value or to the
// reset-to-default marker.
func (o Opt[T]) IsSet() bool { return o.state != stateUnset }

// IsUseDefault reports whether the field was reset to its factory default.
func (o Opt[T]) IsUseDefault() bool { return o.state == stateUseDefault }

// Get returns the explicit value and whether one is present. It returns
// false for both the unset and reset states.
func (o Opt[T]) Get() (T, bool) {
	if o.state != stateValue {
		var zero T
		return zero, false
	}
	return o.value, true
}

// resolve picks the local field when it is set in any way, falling back to
// the global field otherwise. The reset marker is deliberately not unwrapped
// here; it is rendered during manifest generation.
func resolve[T any](local, global Opt[T]) Opt[T] {
	if local.IsSet() {
		return local
	}
	return global
}
