// Package types holds the JSON envelopes every API response is wrapped
// in, kept free of transport code so handler tests can decode into
// them directly.
package types

// SuccessEnvelope wraps every 2xx payload under a "data" key.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public face of a failed request. Retryable tells the
// client whether resubmitting the same request can succeed, which the
// checkout page uses to decide between a retry prompt and a dead end.
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
	Details   any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every error payload under an "error" key.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
