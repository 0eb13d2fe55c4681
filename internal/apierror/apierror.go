// Package apierror holds the only error envelopes the API writes. Handlers
// never put raw DB or driver errors in Detail.
package apierror

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
}

func New(msg string) *APIError {
	return &APIError{Detail: msg}
}

// ValidationError carries per-field failures for a rejected JSON body.
type ValidationError struct {
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "validation failed", Fields: fields}
}

// NewField is NewValidation for a single field.
func NewField(field, msg string) *ValidationError {
	return NewValidation(map[string]string{field: msg})
}
