// Package https declares HTTPS-triggered functions: raw request handlers and
// callable functions speaking the callable protocol.
package https

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cast"

	"github.com/night-fury-3/firebase-functions-go/internal/runtime/callable"
	configpkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/config"
	errspkg "github.com/night-fury-3/firebase-functions-go/internal/runtime/errors"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/jsoncodec"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/logging"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/manifest"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/options"
	runtimepkg "github.com/night-fury-3/firebase-functions-go/internal/runtime"
)

// CorsOptions configure cross-origin handling for an HTTPS function. They
// shape the serving middleware only and never appear in the deployment
// manifest.
type CorsOptions struct {
	// Origins lists the allowed origins. "*" allows any origin.
	Origins []string

	// Methods lists the allowed methods for preflight responses.
	Methods []string
}

// Options configure an HTTPS-triggered function.
type Options struct {
	options.RuntimeOptions

	// Invoker sets the principals allowed to invoke the function. Only
	// meaningful for raw request functions.
	Invoker []string

	// CORS configures cross-origin handling for the function.
	CORS *CorsOptions
}

func (o Options) endpoint(funcName string, isCallable bool) (manifest.Endpoint, error) {
	endpoint, err := o.RuntimeOptions.Endpoint(funcName)
	if err != nil {
		return manifest.Endpoint{}, err
	}
	if isCallable {
		endpoint.CallableTrigger = &manifest.CallableTrigger{}
	} else {
		endpoint.HTTPSTrigger = &manifest.HTTPSTrigger{Invoker: o.Invoker}
	}
	return endpoint, nil
}

// AuthContext carries the verified identity of the caller.
type AuthContext struct {
	// UID is the caller's user ID.
	UID string

	// Token is the full set of verified identity claims.
	Token map[string]any
}

// AppCheckContext carries the verified app attestation of the caller.
type AppCheckContext struct {
	// AppID is the attested application ID.
	AppID string

	// Token is the full set of verified attestation claims.
	Token map[string]any
}

// CallableRequest is the parsed, verified request handed to a callable
// handler.
type CallableRequest[T any] struct {
	// Data is the decoded "data" field of the request body.
	Data T

	// Auth is set when the caller presented a valid identity token.
	Auth *AuthContext

	// App is set when the caller presented a valid attestation token.
	App *AppCheckContext

	// Raw is the underlying HTTP request, for headers and metadata.
	Raw *http.Request
}

// FunctionsErrorCode is the canonical error code on a callable error. Codes
// mirror the gRPC status names in kebab case.
type FunctionsErrorCode string

const (
	CodeOK                 FunctionsErrorCode = "ok"
	CodeCancelled          FunctionsErrorCode = "cancelled"
	CodeUnknown            FunctionsErrorCode = "unknown"
	CodeInvalidArgument    FunctionsErrorCode = "invalid-argument"
	CodeDeadlineExceeded   FunctionsErrorCode = "deadline-exceeded"
	CodeNotFound           FunctionsErrorCode = "not-found"
	CodeAlreadyExists      FunctionsErrorCode = "already-exists"
	CodePermissionDenied   FunctionsErrorCode = "permission-denied"
	CodeResourceExhausted  FunctionsErrorCode = "resource-exhausted"
	CodeFailedPrecondition FunctionsErrorCode = "failed-precondition"
	CodeAborted            FunctionsErrorCode = "aborted"
	CodeOutOfRange         FunctionsErrorCode = "out-of-range"
	CodeUnimplemented      FunctionsErrorCode = "unimplemented"
	CodeInternal           FunctionsErrorCode = "internal"
	CodeUnavailable        FunctionsErrorCode = "unavailable"
	CodeDataLoss           FunctionsErrorCode = "data-loss"
	CodeUnauthenticated    FunctionsErrorCode = "unauthenticated"
)

func (c FunctionsErrorCode) httpStatus() int {
	switch c {
	case CodeOK:
		return http.StatusOK
	case CodeCancelled:
		return 499
	case CodeInvalidArgument, CodeFailedPrecondition, CodeOutOfRange:
		return http.StatusBadRequest
	case CodeUnauthenticated:
		return http.StatusUnauthorized
	case CodePermissionDenied:
		return http.StatusForbidden
	case CodeNotFound:
		return http.StatusNotFound
	case CodeAlreadyExists, CodeAborted:
		return http.StatusConflict
	case CodeResourceExhausted:
		return http.StatusTooManyRequests
	case CodeUnimplemented:
		return http.StatusNotImplemented
	case CodeUnavailable:
		return http.StatusServiceUnavailable
	case CodeDeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// status renders the code in the SCREAMING_SNAKE form used on the wire.
func (c FunctionsErrorCode) status() string {
	return strings.ToUpper(strings.ReplaceAll(string(c), "-", "_"))
}

// HttpsError is an error a callable handler returns to send a structured
// error to the client. Any other error type is reported as INTERNAL without
// leaking its message.
type HttpsError struct {
	Code    FunctionsErrorCode
	Message string
	Details any
}

func (e *HttpsError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code.status(), e.Message)
}

// NewHttpsError builds an HttpsError with the given code and message.
func NewHttpsError(code FunctionsErrorCode, message string, details any) *HttpsError {
	return &HttpsError{Code: code, Message: message, Details: details}
}

// CallableHandler processes one verified callable request.
type CallableHandler[T any] func(ctx context.Context, req CallableRequest[T]) (any, error)

// CallableRegistration wires a callable handler under a function name.
type CallableRegistration[T any] struct {
	Name    string
	Options Options

	// Verifiers check the identity and attestation tokens. When left zero
	// inside the emulator, unverified decoding is used so local callers
	// still get claims.
	Verifiers callable.Verifiers

	Handler CallableHandler[T]
	Logger  logging.ServiceLogger
}

// OnCall declares a callable function. The handler runs only after the
// request shape and credentials check out; protocol failures are answered
// without invoking it.
func OnCall[T any](reg CallableRegistration[T]) error {
	if reg.Handler == nil {
		return errspkg.ErrHandlerRequired
	}
	endpoint, err := reg.Options.endpoint(reg.Name, true)
	if err != nil {
		return err
	}

	log := reg.Logger
	if log == nil {
		log = logging.Default()
	}
	verifiers := reg.Verifiers
	if verifiers.Auth == nil && verifiers.AppCheck == nil && configpkg.RunningInEmulator() {
		unverified := callable.UnverifiedVerifier{}
		verifiers = callable.Verifiers{Auth: unverified, AppCheck: unverified}
	}

	handler := callableHTTPHandler(reg.Handler, verifiers, log)
	if reg.Options.CORS != nil {
		handler = corsMiddleware(reg.Options.CORS, handler)
	}

	return runtimepkg.Default().Register(runtimepkg.FunctionInfo{
		Name:        reg.Name,
		Endpoint:    endpoint,
		HTTPHandler: handler,
	})
}

// RequestRegistration wires a raw http.Handler under a function name.
type RequestRegistration struct {
	Name    string
	Options Options
	Handler http.Handler
}

// OnRequest declares a function serving raw HTTPS requests.
func OnRequest(reg RequestRegistration) error {
	if reg.Handler == nil {
		return errspkg.ErrHandlerRequired
	}
	endpoint, err := reg.Options.endpoint(reg.Name, false)
	if err != nil {
		return err
	}
	handler := reg.Handler
	if reg.Options.CORS != nil {
		handler = corsMiddleware(reg.Options.CORS, handler)
	}
	return runtimepkg.Default().Register(runtimepkg.FunctionInfo{
		Name:        reg.Name,
		Endpoint:    endpoint,
		HTTPHandler: handler,
	})
}

func callableHTTPHandler[T any](handler CallableHandler[T], verifiers callable.Verifiers, log logging.ServiceLogger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeCallableError(w, NewHttpsError(CodeInvalidArgument, "Bad Request", nil))
			return
		}
		if !callable.ValidRequest(r, body, log) {
			writeCallableError(w, NewHttpsError(CodeInvalidArgument, "Bad Request", nil))
			return
		}

		verdict := callable.CheckTokens(r.Context(), r, verifiers, log)
		if verdict.Auth == callable.TokenStateInvalid || verdict.App == callable.TokenStateInvalid {
			writeCallableError(w, NewHttpsError(CodeUnauthenticated, "Unauthenticated", nil))
			return
		}

		var envelope struct {
			Data T `json:"data"`
		}
		if err := jsoncodec.Unmarshal(body, &envelope); err != nil {
			writeCallableError(w, NewHttpsError(CodeInvalidArgument, "Bad Request", nil))
			return
		}

		req := CallableRequest[T]{
			Data: envelope.Data,
			Raw:  r,
		}
		if verdict.Auth == callable.TokenStateValid {
			req.Auth = &AuthContext{
				UID:   cast.ToString(verdict.AuthToken["sub"]),
				Token: verdict.AuthToken,
			}
			if req.Auth.UID == "" {
				req.Auth.UID = cast.ToString(verdict.AuthToken["uid"])
			}
		}
		if verdict.App == callable.TokenStateValid {
			req.App = &AppCheckContext{
				AppID: cast.ToString(verdict.AppToken["sub"]),
				Token: verdict.AppToken,
			}
		}

		result, err := handler(r.Context(), req)
		if err != nil {
			httpsErr, ok := err.(*HttpsError)
			if !ok {
				log.Error("unhandled error from callable handler", err, nil)
				httpsErr = NewHttpsError(CodeInternal, "INTERNAL", nil)
			}
			writeCallableError(w, httpsErr)
			return
		}
		writeCallableJSON(w, http.StatusOK, map[string]any{"result": result})
	})
}

func writeCallableError(w http.ResponseWriter, err *HttpsError) {
	body := map[string]any{
		"message": err.Message,
		"status":  err.Code.status(),
	}
	if err.Details != nil {
		body["details"] = err.Details
	}
	writeCallableJSON(w, err.Code.httpStatus(), map[string]any{"error": body})
}

func writeCallableJSON(w http.ResponseWriter, status int, payload any) {
	encoded, err := jsoncodec.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(encoded)
}

func corsMiddleware(cors *CorsOptions, next http.Handler) http.Handler {
	origins := strings.Join(cors.Origins, ",")
	if origins == "" {
		origins = "*"
	}
	methods := strings.Join(cors.Methods, ",")

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origins)
		if methods != "" {
			w.Header().Set("Access-Control-Allow-Methods", methods)
		}
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization,X-Firebase-AppCheck")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
