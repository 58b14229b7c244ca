package dto

// APIErrorResponse is the body of every non-2xx response. Limit and Count
// are only set for quota rejections.
type APIErrorResponse struct {
	Error   string       `json:"error"`
	Limit   *int         `json:"limit,omitempty"`
	Count   *int         `json:"count,omitempty"`
	Details []FieldError `json:"details,omitempty"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
