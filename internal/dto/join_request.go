package dto

import "github.com/noah-isme/seam-events-api/internal/models"

// RejectRequest carries the optional note attached to a rejection.
type RejectRequest struct {
	Note string `json:"note" validate:"max=500"`
}

// IncomingRequest is a join request shown in a teacher's inbox.
type IncomingRequest struct {
	models.JoinRequest
	ActivityTitle string `json:"activityTitle"`
}
