package handlers

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error" example:"session not found"`
}

// SuccessResponse is returned by endpoints that have nothing else to report
type SuccessResponse struct {
	Success bool   `json:"success" example:"true"`
	Message string `json:"message,omitempty"`
}
