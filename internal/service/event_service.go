package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/seam-events-api/internal/dto"
	"github.com/noah-isme/seam-events-api/internal/models"
	"github.com/noah-isme/seam-events-api/internal/store"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
)

// EventConfig toggles optional event behaviour.
type EventConfig struct {
	CascadeRequestDelete bool
}

// EventService manages events published by teachers.
type EventService struct {
	store     dataStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	config    EventConfig
}

// NewEventService constructs an EventService.
func NewEventService(store dataStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger, config EventConfig) *EventService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &EventService{store: store, cache: cache, validator: validate, logger: logger, config: config}
}

// List returns all events matching filter in insertion order. The boolean
// reports whether the unfiltered list came from cache.
func (s *EventService) List(ctx context.Context, filter dto.EventFilter) ([]models.Event, bool, error) {
	if err := s.validator.Struct(filter); err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event filter")
	}

	events, hit := s.cache.Events(ctx)
	if !hit {
		err := s.store.View(ctx, "events.list", func(tx *store.Tx) error {
			var err error
			events, err = tx.Events()
			return err
		})
		if err != nil {
			return nil, false, storeFailure(ctx, s.logger, err, "failed to list events")
		}
		s.cache.StoreEvents(ctx, events)
	}

	return filterEvents(events, filter, time.Now().UTC()), hit, nil
}

// Get returns a single event.
func (s *EventService) Get(ctx context.Context, id string) (*models.Event, error) {
	var event models.Event
	err := s.store.View(ctx, "events.get", func(tx *store.Tx) error {
		events, err := tx.Events()
		if err != nil {
			return err
		}
		idx := findEvent(events, id)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		event = events[idx]
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to load event")
	}
	return &event, nil
}

// Create publishes a new event owned by the acting teacher.
func (s *EventService) Create(ctx context.Context, actor models.Actor, req dto.CreateEventRequest) (*models.Event, error) {
	if !actor.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can create events")
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}

	var event models.Event
	err := s.store.Update(ctx, "events.create", func(tx *store.Tx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		if findUserByID(users, actor.ID) < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "creator not found")
		}
		events, err := tx.Events()
		if err != nil {
			return err
		}
		event = newEvent(tx.NewID(store.PrefixEvent), actor.ID, req)
		tx.SetEvents(append(events, event))
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to create event")
	}

	s.invalidate(ctx)
	s.logger.Info("event created", zap.String("event_id", event.ID), zap.String("created_by", actor.ID))
	return &event, nil
}

// Update applies a shallow patch to an event owned by the actor.
func (s *EventService) Update(ctx context.Context, actor models.Actor, id string, req dto.UpdateEventRequest) (*models.Event, error) {
	if req.Title != nil {
		trimmed := strings.TrimSpace(*req.Title)
		req.Title = &trimmed
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	if req.Title != nil && *req.Title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "title cannot be empty")
	}

	var event models.Event
	err := s.store.Update(ctx, "events.update", func(tx *store.Tx) error {
		events, err := tx.Events()
		if err != nil {
			return err
		}
		idx := findEvent(events, id)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "event not found")
		}
		if events[idx].CreatedBy != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the creator can edit this event")
		}
		applyEventPatch(&events[idx], req)
		event = events[idx]
		tx.SetEvents(events)
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to update event")
	}

	s.invalidate(ctx)
	return &event, nil
}

// Delete removes an event owned by the actor. Deleting a missing event succeeds.
func (s *EventService) Delete(ctx context.Context, actor models.Actor, id string) error {
	removedRequests := 0
	err := s.store.Update(ctx, "events.delete", func(tx *store.Tx) error {
		events, err := tx.Events()
		if err != nil {
			return err
		}
		idx := findEvent(events, id)
		if idx < 0 {
			return nil
		}
		if events[idx].CreatedBy != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the creator can delete this event")
		}
		tx.SetEvents(append(events[:idx:idx], events[idx+1:]...))

		if !s.config.CascadeRequestDelete {
			return nil
		}
		requests, err := tx.JoinRequests()
		if err != nil {
			return err
		}
		kept := requests[:0:0]
		for _, r := range requests {
			if r.Activity == id {
				removedRequests++
				continue
			}
			kept = append(kept, r)
		}
		if removedRequests > 0 {
			tx.SetJoinRequests(kept)
		}
		return nil
	})
	if err != nil {
		return storeFailure(ctx, s.logger, err, "failed to delete event")
	}

	s.invalidate(ctx)
	if removedRequests > 0 {
		s.logger.Info("removed join requests of deleted event", zap.String("event_id", id), zap.Int("count", removedRequests))
	}
	return nil
}

func (s *EventService) invalidate(ctx context.Context) {
	s.cache.InvalidateEvents(ctx)
}

func newEvent(id, creatorID string, req dto.CreateEventRequest) models.Event {
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = dto.DefaultEventCategory
	}
	allowRequests := true
	if req.AllowRequests != nil {
		allowRequests = *req.AllowRequests
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	return models.Event{
		ID:            id,
		Title:         req.Title,
		Description:   req.Description,
		Date:          req.Date.UTC(),
		Location:      req.Location,
		Category:      category,
		Tags:          tags,
		ImageURL:      nonEmpty(req.ImageURL),
		MaxAttendees:  req.MaxAttendees,
		AllowRequests: allowRequests,
		Completed:     false,
		Attendees:     []string{},
		CreatedBy:     creatorID,
	}
}

func applyEventPatch(e *models.Event, req dto.UpdateEventRequest) {
	if req.Title != nil {
		e.Title = *req.Title
	}
	if req.Description != nil {
		e.Description = *req.Description
	}
	if req.Date != nil {
		e.Date = req.Date.UTC()
	}
	if req.Location != nil {
		e.Location = *req.Location
	}
	if req.Category != nil {
		e.Category = *req.Category
	}
	if req.Tags != nil {
		e.Tags = *req.Tags
		if e.Tags == nil {
			e.Tags = []string{}
		}
	}
	if req.ImageURL != nil {
		e.ImageURL = nonEmpty(req.ImageURL)
	}
	if req.MaxAttendees != nil {
		e.MaxAttendees = *req.MaxAttendees
	}
	if req.AllowRequests != nil {
		e.AllowRequests = *req.AllowRequests
	}
	if req.Completed != nil {
		e.Completed = *req.Completed
	}
}

func filterEvents(events []models.Event, filter dto.EventFilter, now time.Time) []models.Event {
	category := strings.TrimSpace(filter.Category)
	if strings.EqualFold(category, "all") {
		category = ""
	}
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if category != "" && !strings.EqualFold(e.Category, category) {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(e.Title), search) &&
			!strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		switch filter.Status {
		case dto.EventStatusUpcoming:
			if !e.IsUpcoming(now) {
				continue
			}
		case dto.EventStatusPast:
			if e.IsUpcoming(now) {
				continue
			}
		}
		out = append(out, e)
	}
	return out
}

func nonEmpty(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
