package batch

import "errors"

// Failure kinds of one batch request. Every kind is absorbed by the retry
// driver; none of them reaches the caller of a pipeline run.
var (
	// ErrBackendUnavailable covers transport errors, non-2xx responses and
	// timeouts.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrEmptyResponse means the backend answered with no text.
	ErrEmptyResponse = errors.New("empty response")

	// ErrMalformedResponse means no well-formed JSON array was found.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrShapeMismatch means the array length or element shape does not
	// match the request.
	ErrShapeMismatch = errors.New("response shape mismatch")

	// ErrMissingCredential means no credential is configured. It is not
	// retried.
	ErrMissingCredential = errors.New("missing credential")
)
