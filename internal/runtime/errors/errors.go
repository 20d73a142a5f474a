// Package errors defines the sentinel errors returned by the functions SDK.
package errors

import sterrors "errors"

var (
	ErrFuncNameRequired   = sterrors.New("functions: function name is required")
	ErrHandlerRequired    = sterrors.New("functions: handler function is required")
	ErrEventTypeRequired  = sterrors.New("functions: event type is required")
	ErrTopicRequired      = sterrors.New("functions: pub/sub topic is required")
	ErrReferenceRequired  = sterrors.New("functions: database reference is required")
	ErrBucketRequired     = sterrors.New("functions: storage bucket is required")
	ErrRegistryRequired   = sterrors.New("functions: function registry is required")
	ErrFunctionRegistered = sterrors.New("functions: function name already registered")
)
