// Package functions is a declarative SDK for defining serverless functions:
// each function is declared with a trigger, a handler, and an options record,
// and the same declarations drive both deployment-manifest generation and
// request-time dispatch.
//
// Trigger packages cover the supported sources: pubsub for topic messages,
// database for realtime database writes, storage for bucket object changes,
// and https for raw requests and callable functions. Declaring a function
// registers it in the process-wide registry; the deployment tooling reads the
// registry back as a manifest stack via Registry.Manifest.
//
// # Options
//
// RuntimeOptions attach resource settings (memory, timeout, instance bounds,
// CPU, ingress, secrets) to a function. Option fields are three-state: unset
// fields inherit from SetGlobalOptions, OptionValue sets an explicit value,
// and OptionReset restores the platform default even when a global default
// exists. The distinction survives into the manifest, where reset fields
// render as explicit nulls and unset fields are omitted.
//
// # Events
//
// Event-driven triggers adapt the raw event envelope into a typed event
// before the handler runs: payload fields are normalized, timestamps parsed,
// and malformed envelopes rejected so handlers never observe a
// partially-constructed event.
//
// # Callable functions
//
// https.OnCall wraps a typed handler in the callable protocol: request-shape
// validation, identity and app-attestation token verification, and the
// result/error response envelope. Verification always reaches a verdict;
// verifier failures become an unauthenticated response, never a crash.
package functions
