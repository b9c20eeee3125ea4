package types

// APIError is the wire shape of a failed request. Message is the
// user-facing Spanish text; Code is the stable machine code.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
