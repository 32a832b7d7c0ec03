package models

import "time"

// JoinRequestStatus captures workflow states for join requests.
type JoinRequestStatus string

const (
	JoinRequestPending  JoinRequestStatus = "pending"
	JoinRequestApproved JoinRequestStatus = "approved"
	JoinRequestRejected JoinRequestStatus = "rejected"
)

// JoinRequest is a student's request to attend an event.
type JoinRequest struct {
	ID          string            `json:"id"`
	Activity    string            `json:"activity"`
	Student     string            `json:"student"`
	Status      JoinRequestStatus `json:"status"`
	RequestedAt time.Time         `json:"requestedAt"`
	RespondedAt *time.Time        `json:"respondedAt"`
	RespondedBy *string           `json:"respondedBy"`
	Note        string            `json:"note"`
}

// IsPending reports whether the request still awaits a decision.
func (r JoinRequest) IsPending() bool {
	return r.Status == JoinRequestPending
}
