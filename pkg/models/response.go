package models

// ErrorResponse is the JSON error body returned by every API endpoint.
// Error carries a stable machine-readable code; Hint is optional extra
// context safe to show to the operator.
type ErrorResponse struct {
	Error string `json:"error"`
	Hint  string `json:"hint,omitempty"`
}
