package models

import "time"

// HealthResponse represents a basic health check response
// @Description Health check response
type HealthResponse struct {
	Status    string    `json:"status" example:"healthy"`                 // Health status
	Timestamp time.Time `json:"timestamp" example:"2023-01-01T00:00:00Z"` // Timestamp of the check
	Version   string    `json:"version" example:"1.0.0"`                  // Application version
}

// DBHealthResponse represents a database health check response
// @Description Database health check response
type DBHealthResponse struct {
	Status    string        `json:"status" example:"healthy"`                   // Health status
	Timestamp time.Time     `json:"timestamp" example:"2023-01-01T00:00:00Z"`   // Timestamp of the check
	Connected bool          `json:"connected" example:"true"`                   // Database connection status
	Latency   time.Duration `json:"latency" swaggertype:"string" example:"1ms"` // Database ping latency
	Error     string        `json:"error,omitempty" example:""`                 // Error message if any
}

// SessionResponse is returned when a form session is created or inspected.
// @Description Form session descriptor
type SessionResponse struct {
	SessionID string    `json:"sessionId" example:"8a6f3c1e-..."` // Session identifier
	CreatedAt time.Time `json:"createdAt"`                        // Creation timestamp
	ItemCount int       `json:"itemCount" example:"1"`            // Number of correspondence items
	ActiveID  int       `json:"activeId,omitempty" example:"1"`   // Active item id, 0 when empty
}

// ItemResponse wraps one correspondence item for the API.
// @Description Correspondence item state
type ItemResponse struct {
	Item     *CorrespondenceItem `json:"item"`
	Messages []PopoverMessage    `json:"messages,omitempty"`
}

// PopoverMessage is one validation-failure record shown in the message list.
// At most one message exists per (itemId, key) pair.
type PopoverMessage struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle"`
	Key      string `json:"key"`
	Group    string `json:"group,omitempty"`
	ItemID   int    `json:"itemId"`
}

// ValidationResponse reports the outcome of a validation pass.
// @Description Validation verdict and message list
type ValidationResponse struct {
	Valid    bool             `json:"valid"`
	Messages []PopoverMessage `json:"messages"`
}

// ErrorResponse is the generic error envelope.
// @Description Error payload
type ErrorResponse struct {
	Error string `json:"error" example:"item not found"`
}
