// Package config reads the per-deployment configuration blob the hosting
// platform injects into the environment at cold start.
package config

import (
	"fmt"
	"os"
	"strings"

	jsoncodec "github.com/night-fury-3/firebase-functions-go/internal/runtime/jsoncodec"
)

// EnvVar names the environment variable holding the configuration. Its value
// is either a JSON blob or a path to a file containing one.
const EnvVar = "FIREBASE_CONFIG"

// EmulatorEnvVar is set by the local emulator. Token verification falls back
// to unverified decoding when it is present.
const EmulatorEnvVar = "FUNCTIONS_EMULATOR"

// FirebaseConfig is the subset of the deployment configuration the SDK needs.
type FirebaseConfig struct {
	// ProjectID is the project this deployment belongs to.
	ProjectID string `json:"projectId"`

	// StorageBucket is the default storage bucket name, without any
	// scheme prefix ("gs://").
	StorageBucket string `json:"storageBucket"`

	// DatabaseURL is the default realtime database URL.
	DatabaseURL string `json:"databaseURL"`

	// LocationID is the default resource location.
	LocationID string `json:"locationId"`
}

// Load reads the configuration from the environment. It returns nil with no
// error when the variable is unset; an unreadable file or malformed JSON is a
// configuration error and carries the offending content in its message.
func Load() (*FirebaseConfig, error) {
	raw := os.Getenv(EnvVar)
	if raw == "" {
		return nil, nil
	}

	jsonStr := raw
	if !strings.HasPrefix(raw, "{") {
		// Production always injects a JSON blob, but a file path is
		// documented as valid for local setups.
		contents, err := os.ReadFile(raw)
		if err != nil {
			return nil, fmt.Errorf("functions: unable to read config file %s: %w", raw, err)
		}
		jsonStr = string(contents)
	}

	var cfg FirebaseConfig
	if err := jsoncodec.Unmarshal([]byte(jsonStr), &cfg); err != nil {
		return nil, fmt.Errorf("functions: %s JSON string %q is not valid json: %w", EnvVar, jsonStr, err)
	}
	return &cfg, nil
}

// RunningInEmulator reports whether the process is hosted by the local
// emulator.
func RunningInEmulator() bool {
	return os.Getenv(EmulatorEnvVar) != ""
}
