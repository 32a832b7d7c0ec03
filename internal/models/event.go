package models

import "time"

// Event is an activity a teacher publishes and students can join.
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Location      string    `json:"location"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags"`
	ImageURL      *string   `json:"imageUrl,omitempty"`
	MaxAttendees  int       `json:"maxAttendees"`
	AllowRequests bool      `json:"allowRequests"`
	Completed     bool      `json:"completed"`
	Attendees     []string  `json:"attendees"`
	CreatedBy     string    `json:"createdBy"`
}

// IsFull reports whether a capped event has reached its capacity.
func (e Event) IsFull() bool {
	return e.MaxAttendees > 0 && len(e.Attendees) >= e.MaxAttendees
}

// HasAttendee reports whether userID is on the attendee list.
func (e Event) HasAttendee(userID string) bool {
	for _, id := range e.Attendees {
		if id == userID {
			return true
		}
	}
	return false
}

// IsUpcoming reports whether the event is still ahead of now and not completed.
func (e Event) IsUpcoming(now time.Time) bool {
	return !e.Completed && e.Date.After(now)
}
