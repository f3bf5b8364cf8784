package models

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success  bool   `json:"success"`
	Existing bool   `json:"existing,omitempty"`
	Message  string `json:"message,omitempty"`
}
