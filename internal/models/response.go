// Package models - API response types and error handling.
// This file defines the outgoing API response structures with consistent formatting.
//
// Response Design Principles:
// - Consistent JSON structure across all endpoints
// - Optional fields use omitempty to reduce response size
// - Error information with machine-readable codes
// - RFC3339 timestamps for international compatibility
package models

import (
	"time"
)

// ChatResponse is the planner's answer to one chat message.
type ChatResponse struct {
	TripID    string      `json:"trip_id"`
	Reply     *Message    `json:"reply"`
	Context   TripContext `json:"context"`
	Trip      *Trip       `json:"trip"`
	Missing   []string    `json:"missing,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

type ListTripsResponse struct {
	Trips      []*Trip `json:"trips"`
	TotalCount int     `json:"total_count"`
}

type ListMessagesResponse struct {
	TripID     string     `json:"trip_id"`
	Messages   []*Message `json:"messages"`
	TotalCount int        `json:"total_count"`
}

type ListUsersResponse struct {
	Users      []*User `json:"users"`
	TotalCount int     `json:"total_count"`
}

// CreateUserResponse returns the raw token exactly once.
type CreateUserResponse struct {
	User    *User  `json:"user"`
	Token   string `json:"token"`
	Message string `json:"message"`
}

type FlightSearchResponse struct {
	Query      FlightSearchRequest `json:"query"`
	Flights    []Flight            `json:"flights"`
	TotalCount int                 `json:"total_count"`
	Cached     bool                `json:"cached"`
}

type AccommodationSearchResponse struct {
	Query          AccommodationSearchRequest `json:"query"`
	Accommodations []Accommodation            `json:"accommodations"`
	TotalCount     int                        `json:"total_count"`
	Nights         int                        `json:"nights"`
	Cached         bool                       `json:"cached"`
}

type DeleteTripResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ErrorResponse provides structured error information.
//
// Error Handling Design:
// - Consistent error structure across all endpoints
// - Machine-readable error codes for programmatic handling
// - Human-readable messages for user interfaces
// - Details map for field-specific validation errors
type ErrorResponse struct {
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Code      string            `json:"code,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	RequestID string            `json:"request_id,omitempty"`
}

// RateLimitErrorResponse is the body of a 429. Error carries the machine
// code and RetryAfter the whole seconds until the window resets.
type RateLimitErrorResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retryAfter"`
}

type HealthCheckResponse struct {
	Status     string                     `json:"status"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version,omitempty"`
	Uptime     string                     `json:"uptime,omitempty"`
	Components map[string]ComponentHealth `json:"components,omitempty"`
	Metrics    map[string]interface{}     `json:"metrics,omitempty"`
}

type ComponentHealth struct {
	Status    string                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

// Health Status Constants
const (
	StatusHealthy   = "healthy"   // All systems operational
	StatusUnhealthy = "unhealthy" // Major system issues
	StatusDegraded  = "degraded"  // Partial functionality
	StatusUnknown   = "unknown"   // Status indeterminate
)

// Standard HTTP Error Codes
//
// Error Code Strategy:
// - Upper-case with underscores for consistency
// - Maps to standard HTTP status codes
// - Machine-readable for client error handling
const (
	ErrorCodeNotFound           = "NOT_FOUND"           // 404: Resource doesn't exist
	ErrorCodeTripNotFound       = "TRIP_NOT_FOUND"      // 404: Trip doesn't exist
	ErrorCodeBadRequest         = "BAD_REQUEST"         // 400: Invalid request format
	ErrorCodeInvalidRequest     = "INVALID_REQUEST"     // 400: Invalid request data
	ErrorCodeValidation         = "VALIDATION_ERROR"    // 422: Input validation failed
	ErrorCodeInternalError      = "INTERNAL_ERROR"      // 500: Server-side error
	ErrorCodeUnauthorized       = "UNAUTHORIZED"        // 401: Authentication required
	ErrorCodeForbidden          = "FORBIDDEN"           // 403: Permission denied
	ErrorCodeConflict           = "CONFLICT"            // 409: Resource conflict
	ErrorCodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED" // 429: Quota exhausted
	ErrorCodeServiceUnavailable = "SERVICE_UNAVAILABLE" // 503: Service temporarily down
)

func NewErrorResponse(message string, code string) *ErrorResponse {
	return &ErrorResponse{
		Error:     "error",
		Message:   message,
		Code:      code,
		Timestamp: time.Now(),
	}
}

func NewRateLimitErrorResponse(retryAfter int) *RateLimitErrorResponse {
	return &RateLimitErrorResponse{
		Error:      ErrorCodeRateLimitExceeded,
		Message:    "Too many requests, please try again later.",
		RetryAfter: retryAfter,
	}
}

func NewHealthCheckResponse(status string) *HealthCheckResponse {
	return &HealthCheckResponse{
		Status:     status,
		Timestamp:  time.Now(),
		Components: make(map[string]ComponentHealth),
		Metrics:    make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddComponent(name, status, message string) {
	h.Components[name] = ComponentHealth{
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
		Details:   make(map[string]interface{}),
	}
}

func (h *HealthCheckResponse) AddMetric(name string, value interface{}) {
	h.Metrics[name] = value
}
