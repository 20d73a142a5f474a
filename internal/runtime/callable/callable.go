// Package callable validates inbound callable HTTPS requests: the request
// shape defined by the callable protocol, and the optional identity and
// app-attestation tokens. Verification never raises; it always produces a
// verdict so the invocation path can decide how to react.
package callable

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/night-fury-3/firebase-functions-go/internal/runtime/jsoncodec"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/logging"
)

// AuthorizationHeader carries the caller identity token.
const AuthorizationHeader = "Authorization"

// AppCheckHeader carries the app-attestation token.
const AppCheckHeader = "X-Firebase-AppCheck"

// bearerPrefix is the required scheme on the Authorization header.
const bearerPrefix = "Bearer "

// logTypeLabel tags verification summaries as their own log category.
const logTypeLabel = "callable-request-verification"

// TokenState is the status of one credential on a callable request.
type TokenState string

const (
	// TokenStateMissing means the header was absent, for example on
	// unauthenticated requests.
	TokenStateMissing TokenState = "MISSING"

	// TokenStateValid means the token verified and claims are attached.
	TokenStateValid TokenState = "VALID"

	// TokenStateInvalid means the header was present but verification
	// failed, including a malformed bearer prefix.
	TokenStateInvalid TokenState = "INVALID"
)

// VerificationResult records the outcome for both credentials on a callable
// request. Claims are nil unless the corresponding state is VALID.
type VerificationResult struct {
	App      TokenState
	AppToken map[string]any

	Auth      TokenState
	AuthToken map[string]any
}

// TokenVerifier checks one bearer-style credential. Implementations are
// external to this package; any error (or panic) from a verifier is folded
// into an INVALID state, never propagated.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (map[string]any, error)
}

// Verifiers bundles the two verifiers consulted on a callable request.
type Verifiers struct {
	// Auth verifies identity tokens from the Authorization header.
	Auth TokenVerifier

	// AppCheck verifies attestation tokens from the X-Firebase-AppCheck
	// header.
	AppCheck TokenVerifier
}

// ValidRequest reports whether the request matches the callable protocol
// shape: POST, an application/json content type (any parameter suffix
// ignored), and a JSON body whose only top-level key is "data". The body is
// passed separately because the caller owns reading the request stream.
func ValidRequest(r *http.Request, body []byte, log logging.ServiceLogger) bool {
	if r.Method != http.MethodPost {
		log.Warn("request has invalid method", logging.LogFields{"method": r.Method})
		return false
	}
	if !validContentType(r, log) {
		return false
	}

	var parsed map[string]any
	if err := jsoncodec.Unmarshal(body, &parsed); err != nil || parsed == nil {
		log.Warn("request is missing body", nil)
		return false
	}
	if _, ok := parsed["data"]; !ok {
		log.Warn("request body is missing data", nil)
		return false
	}
	if len(parsed) > 1 {
		extra := make([]string, 0, len(parsed)-1)
		for key := range parsed {
			if key != "data" {
				extra = append(extra, key)
			}
		}
		log.Warn("request body has extra fields", logging.LogFields{"fields": strings.Join(extra, ",")})
		return false
	}
	return true
}

func validContentType(r *http.Request, log logging.ServiceLogger) bool {
	contentType := r.Header.Get("Content-Type")
	if contentType == "" {
		log.Warn("request is missing content type", nil)
		return false
	}
	// Strip any parameter such as a charset suffix.
	if semi := strings.Index(contentType, ";"); semi >= 0 {
		contentType = strings.TrimSpace(contentType[:semi])
	}
	if !strings.EqualFold(contentType, "application/json") {
		log.Warn("request has incorrect content type", logging.LogFields{"content_type": contentType})
		return false
	}
	return true
}

// CheckTokens evaluates both credentials on the request independently and
// returns the combined verdict. It never returns an error: verifier failures
// become INVALID states. A summary record is emitted through log, labeled as
// the callable-request-verification category.
func CheckTokens(ctx context.Context, r *http.Request, verifiers Verifiers, log logging.ServiceLogger) VerificationResult {
	result := VerificationResult{
		App:  TokenStateInvalid,
		Auth: TokenStateInvalid,
	}

	authClaims, authState := checkAuthToken(ctx, r, verifiers.Auth, log)
	result.Auth = authState
	result.AuthToken = authClaims

	appClaims, appState := checkAppToken(ctx, r, verifiers.AppCheck, log)
	result.App = appState
	result.AppToken = appClaims

	summary := logging.LogFields{
		"auth": string(result.Auth),
		"app":  string(result.App),
		logging.LabelsField: map[string]string{
			"firebase-log-type": logTypeLabel,
		},
	}

	var rejected []string
	if result.App == TokenStateInvalid {
		rejected = append(rejected, "AppCheck token was rejected.")
	}
	if result.Auth == TokenStateInvalid {
		rejected = append(rejected, "Auth token was rejected.")
	}
	if len(rejected) == 0 {
		log.Info("callable request verification passed", summary)
	} else {
		log.Warn(fmt.Sprintf("callable request verification failed: %s", strings.Join(rejected, " ")), summary)
	}

	return result
}

func checkAuthToken(ctx context.Context, r *http.Request, verifier TokenVerifier, log logging.ServiceLogger) (map[string]any, TokenState) {
	authorization := r.Header.Get(AuthorizationHeader)
	if authorization == "" {
		return nil, TokenStateMissing
	}
	if !strings.HasPrefix(authorization, bearerPrefix) {
		log.Error("error validating token: not a bearer token", nil, nil)
		return nil, TokenStateInvalid
	}
	idToken := strings.TrimPrefix(authorization, bearerPrefix)
	claims := verifyToken(ctx, verifier, idToken, log)
	if claims == nil {
		return nil, TokenStateInvalid
	}
	return claims, TokenStateValid
}

func checkAppToken(ctx context.Context, r *http.Request, verifier TokenVerifier, log logging.ServiceLogger) (map[string]any, TokenState) {
	appCheck := r.Header.Get(AppCheckHeader)
	if appCheck == "" {
		return nil, TokenStateMissing
	}
	claims := verifyToken(ctx, verifier, appCheck, log)
	if claims == nil {
		return nil, TokenStateInvalid
	}
	return claims, TokenStateValid
}

// verifyToken runs the external verifier, converting every failure mode
// (nil verifier, error, panic, nil claims) into a nil result. The worker must
// always reach a verdict, so nothing escapes.
func verifyToken(ctx context.Context, verifier TokenVerifier, token string, log logging.ServiceLogger) (claims map[string]any) {
	if verifier == nil {
		log.Error("error validating token: no verifier configured", nil, nil)
		return nil
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			log.Error("error validating token", fmt.Errorf("verifier panic: %v", recovered), nil)
			claims = nil
		}
	}()

	verified, err := verifier.Verify(ctx, token)
	if err != nil {
		log.Error("error validating token", err, nil)
		return nil
	}
	return verified
}
