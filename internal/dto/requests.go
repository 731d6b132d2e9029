package dto

// ConnectRequest asks for a hosted-authorization session at the aggregation provider
type ConnectRequest struct {
	UserID    string   `json:"user_id" binding:"required"`
	Providers []string `json:"providers"`
}

// ConnectResponse carries the widget session the UI redirects the user to
type ConnectResponse struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id"`
	ExpiresIn int    `json:"expires_in"`
}

// DisconnectRequest asks to revoke one provider connection
type DisconnectRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Provider string `json:"provider" binding:"required"`
}

// WebhookResponse acknowledges an inbound webhook
type WebhookResponse struct {
	Received bool   `json:"received"`
	Updated  bool   `json:"updated"`
	Items    int    `json:"items,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// SuccessResponse represents a success response
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}
