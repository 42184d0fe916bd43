package types

// SuccessEnvelope wraps every 2xx JSON body.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public shape of a request failure. Details only carries
// field-level context for codes that allow it.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every non-2xx JSON body.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
