package service

import "errors"

// Error taxonomy for the ingestion pipeline and orchestrators. Handlers map
// these onto HTTP statuses: signature errors to 401, upstream errors to 502.
// Persistence failures are returned wrapped and surface as 500 so the sender
// retries the whole webhook.
var (
	// ErrMissingSignature is returned when a secret is configured but the
	// request carries no signature header
	ErrMissingSignature = errors.New("webhook signature missing")

	// ErrInvalidSignature is returned when the signature does not match the body
	ErrInvalidSignature = errors.New("webhook signature mismatch")

	// ErrUpstream is returned when a call to the aggregation provider fails
	// and no local fallback exists
	ErrUpstream = errors.New("aggregation provider request failed")
)
