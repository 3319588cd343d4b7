package handlers

import (
	"time"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// IssueTokenRequest carries the subject the calling service has already
// authenticated.
type IssueTokenRequest struct {
	Subject string `json:"subject" binding:"required"`
}

// TokenResponse returns a freshly issued session token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	JTI         string    `json:"jti"`
	Subject     string    `json:"subject"`
	IssuedAt    time.Time `json:"issued_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// IntrospectResponse returns the claims of an accepted token.
type IntrospectResponse struct {
	Active    bool      `json:"active"`
	Subject   string    `json:"subject"`
	JTI       string    `json:"jti"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RevokeByIDRequest identifies a session to terminate administratively.
type RevokeByIDRequest struct {
	JTI       string     `json:"jti" binding:"required"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	Reason    string     `json:"reason,omitempty"`
}

// HealthResponse reports liveness plus the most recent sweep outcome.
type HealthResponse struct {
	Status           string     `json:"status"`
	StartedAt        time.Time  `json:"started_at"`
	LastSweepAt      *time.Time `json:"last_sweep_at,omitempty"`
	LastSweepDeleted int64      `json:"last_sweep_deleted"`
}
