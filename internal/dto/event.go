package dto

import (
	"time"

	"github.com/noah-isme/seam-events-api/internal/models"
)

// DefaultEventCategory is assigned when a new event names no category.
const DefaultEventCategory = "general"

// CreateEventRequest payload for publishing an event.
type CreateEventRequest struct {
	Title         string    `json:"title" validate:"required,max=100"`
	Description   string    `json:"description"`
	Date          time.Time `json:"date"`
	Location      string    `json:"location"`
	Category      string    `json:"category"`
	Tags          []string  `json:"tags"`
	ImageURL      *string   `json:"imageUrl"`
	MaxAttendees  int       `json:"maxAttendees" validate:"min=0"`
	AllowRequests *bool     `json:"allowRequests"`
}

// UpdateEventRequest is a shallow patch; nil fields are left untouched.
type UpdateEventRequest struct {
	Title         *string    `json:"title" validate:"omitempty,max=100"`
	Description   *string    `json:"description"`
	Date          *time.Time `json:"date"`
	Location      *string    `json:"location"`
	Category      *string    `json:"category"`
	Tags          *[]string  `json:"tags"`
	ImageURL      *string    `json:"imageUrl"`
	MaxAttendees  *int       `json:"maxAttendees" validate:"omitempty,min=0"`
	AllowRequests *bool      `json:"allowRequests"`
	Completed     *bool      `json:"completed"`
}

// Event status filters.
const (
	EventStatusUpcoming = "upcoming"
	EventStatusPast     = "past"
)

// EventFilter narrows event listings. Zero values mean no filtering.
type EventFilter struct {
	Category string `form:"category"`
	Search   string `form:"search"`
	Status   string `form:"status" validate:"omitempty,oneof=upcoming past"`
}

// EventView decorates an event with derived fields for responses.
type EventView struct {
	models.Event
	IsFull bool `json:"isFull"`
}

// NewEventView builds the response view of e.
func NewEventView(e models.Event) EventView {
	return EventView{Event: e, IsFull: e.IsFull()}
}

// NewEventViews maps a slice of events to views.
func NewEventViews(events []models.Event) []EventView {
	views := make([]EventView, 0, len(events))
	for _, e := range events {
		views = append(views, NewEventView(e))
	}
	return views
}
