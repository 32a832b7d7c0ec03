package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/seam-events-api/internal/dto"
	"github.com/noah-isme/seam-events-api/internal/models"
	"github.com/noah-isme/seam-events-api/internal/store"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
)

// JoinRequestConfig toggles optional approval behaviour.
type JoinRequestConfig struct {
	EnforceCapacity bool
}

// JoinRequestService runs the request, approve and reject workflow.
type JoinRequestService struct {
	store     dataStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	config    JoinRequestConfig
}

// NewJoinRequestService constructs a JoinRequestService.
func NewJoinRequestService(store dataStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger, config JoinRequestConfig) *JoinRequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &JoinRequestService{store: store, cache: cache, validator: validate, logger: logger, config: config}
}

// Create files a pending request by the acting student for eventID.
func (s *JoinRequestService) Create(ctx context.Context, actor models.Actor, eventID string) (*models.JoinRequest, error) {
	if !actor.IsStudent() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only students can request to join")
	}

	var request models.JoinRequest
	err := s.store.Update(ctx, "requests.create", func(tx *store.Tx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		if findUserByID(users, actor.ID) < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		events, err := tx.Events()
		if err != nil {
			return err
		}
		idx := findEvent(events, eventID)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		if !events[idx].AllowRequests {
			return appErrors.Clone(appErrors.ErrRequestsDisabled, "")
		}

		requests, err := tx.JoinRequests()
		if err != nil {
			return err
		}
		for _, r := range requests {
			if r.Activity == eventID && r.Student == actor.ID {
				return appErrors.Clone(appErrors.ErrDuplicateRequest, "")
			}
		}

		request = models.JoinRequest{
			ID:          tx.NewID(store.PrefixJoinRequest),
			Activity:    eventID,
			Student:     actor.ID,
			Status:      models.JoinRequestPending,
			RequestedAt: tx.Now(),
		}
		tx.SetJoinRequests(append(requests, request))
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to create join request")
	}
	return &request, nil
}

// ListForEvent returns every request filed for eventID. Only the event's
// creator may list them; an unknown event yields an empty list.
func (s *JoinRequestService) ListForEvent(ctx context.Context, actor models.Actor, eventID string) ([]models.JoinRequest, error) {
	if !actor.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can list event requests")
	}

	var out []models.JoinRequest
	err := s.store.View(ctx, "requests.list_event", func(tx *store.Tx) error {
		events, err := tx.Events()
		if err != nil {
			return err
		}
		if idx := findEvent(events, eventID); idx >= 0 && events[idx].CreatedBy != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the event creator can list its requests")
		}
		requests, err := tx.JoinRequests()
		if err != nil {
			return err
		}
		out = make([]models.JoinRequest, 0)
		for _, r := range requests {
			if r.Activity == eventID {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to list event requests")
	}
	return out, nil
}

// ListForStudent returns every request filed by studentID.
func (s *JoinRequestService) ListForStudent(ctx context.Context, studentID string) ([]models.JoinRequest, error) {
	return s.list(ctx, "requests.list_student", func(r models.JoinRequest) bool {
		return r.Student == studentID
	})
}

// ListIncoming returns the requests for every event the acting teacher created,
// annotated with the event title.
func (s *JoinRequestService) ListIncoming(ctx context.Context, actor models.Actor) ([]dto.IncomingRequest, error) {
	if !actor.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers have an inbox")
	}

	var out []dto.IncomingRequest
	err := s.store.View(ctx, "requests.list_incoming", func(tx *store.Tx) error {
		events, err := tx.Events()
		if err != nil {
			return err
		}
		titles := make(map[string]string)
		for _, e := range events {
			if e.CreatedBy == actor.ID {
				titles[e.ID] = e.Title
			}
		}
		requests, err := tx.JoinRequests()
		if err != nil {
			return err
		}
		out = make([]dto.IncomingRequest, 0)
		for _, r := range requests {
			if title, ok := titles[r.Activity]; ok {
				out = append(out, dto.IncomingRequest{JoinRequest: r, ActivityTitle: title})
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to list incoming requests")
	}
	return out, nil
}

// Approve accepts a pending request and adds the student to the event's
// attendees in the same command.
func (s *JoinRequestService) Approve(ctx context.Context, actor models.Actor, requestID string) (*models.JoinRequest, error) {
	request, err := s.resolve(ctx, actor, requestID, "requests.approve", func(tx *store.Tx, r *models.JoinRequest, events []models.Event, eventIdx int) error {
		if eventIdx < 0 {
			return nil
		}
		event := &events[eventIdx]
		if event.HasAttendee(r.Student) {
			return nil
		}
		if s.config.EnforceCapacity && event.IsFull() {
			return appErrors.Clone(appErrors.ErrEventFull, "")
		}
		event.Attendees = append(event.Attendees, r.Student)
		tx.SetEvents(events)
		return nil
	}, models.JoinRequestApproved, "")
	if err != nil {
		return nil, err
	}

	s.cache.InvalidateEvents(ctx)
	s.logger.Info("join request approved", zap.String("request_id", request.ID), zap.String("event_id", request.Activity))
	return request, nil
}

// Reject declines a pending request, recording an optional note.
func (s *JoinRequestService) Reject(ctx context.Context, actor models.Actor, requestID string, req dto.RejectRequest) (*models.JoinRequest, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rejection payload")
	}
	return s.resolve(ctx, actor, requestID, "requests.reject", nil, models.JoinRequestRejected, strings.TrimSpace(req.Note))
}

type resolveHook func(tx *store.Tx, r *models.JoinRequest, events []models.Event, eventIdx int) error

func (s *JoinRequestService) resolve(ctx context.Context, actor models.Actor, requestID, op string, hook resolveHook, status models.JoinRequestStatus, note string) (*models.JoinRequest, error) {
	if !actor.IsTeacher() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can respond to requests")
	}

	var request models.JoinRequest
	err := s.store.Update(ctx, op, func(tx *store.Tx) error {
		requests, err := tx.JoinRequests()
		if err != nil {
			return err
		}
		idx := findJoinRequest(requests, requestID)
		if idx < 0 {
			return appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		r := &requests[idx]

		events, err := tx.Events()
		if err != nil {
			return err
		}
		eventIdx := findEvent(events, r.Activity)
		if eventIdx >= 0 && events[eventIdx].CreatedBy != actor.ID {
			return appErrors.Clone(appErrors.ErrForbidden, "only the event creator can respond to this request")
		}
		if !r.IsPending() {
			return appErrors.Clone(appErrors.ErrAlreadyProcessed, "")
		}

		if hook != nil {
			if err := hook(tx, r, events, eventIdx); err != nil {
				return err
			}
		}

		now := tx.Now()
		responder := actor.ID
		r.Status = status
		r.RespondedAt = &now
		r.RespondedBy = &responder
		r.Note = note
		request = *r
		tx.SetJoinRequests(requests)
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to resolve join request")
	}
	return &request, nil
}

func (s *JoinRequestService) list(ctx context.Context, op string, keep func(models.JoinRequest) bool) ([]models.JoinRequest, error) {
	var out []models.JoinRequest
	err := s.store.View(ctx, op, func(tx *store.Tx) error {
		requests, err := tx.JoinRequests()
		if err != nil {
			return err
		}
		out = make([]models.JoinRequest, 0)
		for _, r := range requests {
			if keep(r) {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, storeFailure(ctx, s.logger, err, "failed to list join requests")
	}
	return out, nil
}
