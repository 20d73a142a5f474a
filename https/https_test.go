package https

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/night-fury-3/firebase-functions-go/internal/runtime/callable"
	"github.com/night-fury-3/firebase-functions-go/internal/runtime/jsoncodec"
	runtimepkg "github.com/night-fury-3/firebase-functions-go/internal/runtime"
)

type stubVerifier struct {
	claims map[string]any
	err    error
}

func (s stubVerifier) Verify(_ context.Context, _ string) (map[string]any, error) {
	return s.claims, s.err
}

type echoPayload struct {
	Text string `json:"text"`
}

func registerEcho(t *testing.T, verifiers callable.Verifiers) http.Handler {
	t.Helper()
	runtimepkg.Default().Reset()
	t.Cleanup(runtimepkg.Default().Reset)

	err := OnCall(CallableRegistration[echoPayload]{
		Name:      "echo",
		Verifiers: verifiers,
		Handler: func(_ context.Context, req CallableRequest[echoPayload]) (any, error) {
			out := map[string]any{"echo": req.Data.Text}
			if req.Auth != nil {
				out["uid"] = req.Auth.UID
			}
			return out, nil
		},
	})
	require.NoError(t, err)

	info, ok := runtimepkg.Default().Lookup("echo")
	require.True(t, ok)
	require.NotNil(t, info.HTTPHandler)
	require.NotNil(t, info.Endpoint.CallableTrigger)
	return info.HTTPHandler
}

func callableRequest(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var decoded map[string]any
	require.NoError(t, jsoncodec.Unmarshal(rec.Body.Bytes(), &decoded))
	return decoded
}

func TestOnCallSuccess(t *testing.T) {
	handler := registerEcho(t, callable.Verifiers{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callableRequest(`{"data":{"text":"hi"}}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Contains(t, body, "result")
}

func TestOnCallRejectsBadShape(t *testing.T) {
	handler := registerEcho(t, callable.Verifiers{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callableRequest(`{"data":1,"extra":2}`))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	errBody, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INVALID_ARGUMENT", errBody["status"])
}

func TestOnCallRejectsInvalidToken(t *testing.T) {
	handler := registerEcho(t, callable.Verifiers{
		Auth: stubVerifier{err: errors.New("expired")},
	})

	r := callableRequest(`{"data":{"text":"hi"}}`)
	r.Header.Set(callable.AuthorizationHeader, "Bearer badtoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	body := decodeBody(t, rec)
	errBody := body["error"].(map[string]any)
	assert.Equal(t, "UNAUTHENTICATED", errBody["status"])
}

func TestOnCallAttachesAuthContext(t *testing.T) {
	handler := registerEcho(t, callable.Verifiers{
		Auth: stubVerifier{claims: map[string]any{"sub": "user-1"}},
	})

	r := callableRequest(`{"data":{"text":"hi"}}`)
	r.Header.Set(callable.AuthorizationHeader, "Bearer goodtoken")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, r)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	result := body["result"].(map[string]any)
	assert.Equal(t, "user-1", result["uid"])
}

func TestOnCallMissingTokenIsAllowed(t *testing.T) {
	// MISSING is not INVALID: unauthenticated calls still reach the handler.
	handler := registerEcho(t, callable.Verifiers{
		Auth: stubVerifier{claims: map[string]any{"sub": "user-1"}},
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, callableRequest(`{"data":{"text":"hi"}}`))

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeBody(t, rec)["result"].(map[string]any)
	assert.NotContains(t, result, "uid")
}

func TestOnCallHandlerErrors(t *testing.T) {
	runtimepkg.Default().Reset()
	t.Cleanup(runtimepkg.Default().Reset)

	err := OnCall(CallableRegistration[any]{
		Name: "failing",
		Handler: func(_ context.Context, _ CallableRequest[any]) (any, error) {
			return nil, NewHttpsError(CodeNotFound, "no such record", nil)
		},
	})
	require.NoError(t, err)
	info, _ := runtimepkg.Default().Lookup("failing")

	rec := httptest.NewRecorder()
	info.HTTPHandler.ServeHTTP(rec, callableRequest(`{"data":null}`))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, "NOT_FOUND", errBody["status"])
	assert.Equal(t, "no such record", errBody["message"])
}

func TestOnCallMasksInternalErrors(t *testing.T) {
	runtimepkg.Default().Reset()
	t.Cleanup(runtimepkg.Default().Reset)

	err := OnCall(CallableRegistration[any]{
		Name: "crashing",
		Handler: func(_ context.Context, _ CallableRequest[any]) (any, error) {
			return nil, errors.New("secret database password leaked")
		},
	})
	require.NoError(t, err)
	info, _ := runtimepkg.Default().Lookup("crashing")

	rec := httptest.NewRecorder()
	info.HTTPHandler.ServeHTTP(rec, callableRequest(`{"data":null}`))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	errBody := decodeBody(t, rec)["error"].(map[string]any)
	assert.Equal(t, "INTERNAL", errBody["status"])
	assert.NotContains(t, rec.Body.String(), "secret database password")
}

func TestHttpsErrorStatusMapping(t *testing.T) {
	tests := []struct {
		code FunctionsErrorCode
		want int
	}{
		{CodeInvalidArgument, http.StatusBadRequest},
		{CodeUnauthenticated, http.StatusUnauthorized},
		{CodePermissionDenied, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeResourceExhausted, http.StatusTooManyRequests},
		{CodeInternal, http.StatusInternalServerError},
		{CodeUnavailable, http.StatusServiceUnavailable},
		{CodeDeadlineExceeded, http.StatusGatewayTimeout},
		{CodeCancelled, 499},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.code.httpStatus(), string(tt.code))
	}

	assert.Equal(t, "PERMISSION_DENIED", CodePermissionDenied.status())
	assert.Equal(t, "NOT_FOUND: nope", NewHttpsError(CodeNotFound, "nope", nil).Error())
}

func TestOnRequest(t *testing.T) {
	runtimepkg.Default().Reset()
	t.Cleanup(runtimepkg.Default().Reset)

	err := OnRequest(RequestRegistration{
		Name:    "raw",
		Options: Options{Invoker: []string{"public"}},
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusTeapot)
		}),
	})
	require.NoError(t, err)

	info, ok := runtimepkg.Default().Lookup("raw")
	require.True(t, ok)
	require.NotNil(t, info.Endpoint.HTTPSTrigger)
	assert.Equal(t, []string{"public"}, info.Endpoint.HTTPSTrigger.Invoker)

	rec := httptest.NewRecorder()
	info.HTTPHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestOnRequestCORS(t *testing.T) {
	runtimepkg.Default().Reset()
	t.Cleanup(runtimepkg.Default().Reset)

	err := OnRequest(RequestRegistration{
		Name: "cors",
		Options: Options{
			CORS: &CorsOptions{
				Origins: []string{"https://example.com"},
				Methods: []string{"GET", "POST"},
			},
		},
		Handler: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	})
	require.NoError(t, err)
	info, _ := runtimepkg.Default().Lookup("cors")

	// Preflight is answered by the middleware without reaching the handler.
	rec := httptest.NewRecorder()
	info.HTTPHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "GET,POST", rec.Header().Get("Access-Control-Allow-Methods"))

	rec = httptest.NewRecorder()
	info.HTTPHandler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
