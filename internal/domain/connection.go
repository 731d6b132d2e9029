package domain

import "time"

// ConnectionStatus represents the lifecycle state of a wearable provider connection
type ConnectionStatus string

const (
	ConnectionActive       ConnectionStatus = "active"
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionError        ConnectionStatus = "error"
)

// ConnectedProvider represents one user's authorization with one wearable provider.
// At most one record exists per (UserID, Provider); records are never physically
// deleted so the connection history stays auditable.
type ConnectedProvider struct {
	ID             string           `json:"id" db:"id"`
	UserID         string           `json:"user_id" db:"user_id"`
	Provider       string           `json:"provider" db:"provider"`
	ExternalUserID string           `json:"external_user_id" db:"external_user_id"`
	Status         ConnectionStatus `json:"status" db:"status"`
	ConnectedAt    time.Time        `json:"connected_at" db:"connected_at"`
	DisconnectedAt *time.Time       `json:"disconnected_at" db:"disconnected_at"`
	LastSyncAt     *time.Time       `json:"last_sync_at" db:"last_sync_at"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at" db:"updated_at"`
}

// IsActive reports whether the connection currently accepts data events
func (c ConnectedProvider) IsActive() bool {
	return c.Status == ConnectionActive
}
