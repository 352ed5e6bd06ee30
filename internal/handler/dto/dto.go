// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/premiumbutcher/profile-api/internal/model"
)

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// Field names the offending field of an INVALID_FIELD error.
	Field string `json:"field,omitempty"`
}

// PointsResponse is the loyalty balance shown in the header.
type PointsResponse struct {
	Points int `json:"points"`
}

// DeleteDependentResponse echoes the removed household member.
type DeleteDependentResponse struct {
	Message string           `json:"message"`
	Member  *model.Dependent `json:"member"`
}

// StatusResponse is the body of GET /health.
type StatusResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Database  string    `json:"database"`
	Identity  string    `json:"identity"`
}

// InfoResponse is the body of GET /.
type InfoResponse struct {
	Service string `json:"service"`
	Version string `json:"version"`
}
