package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/seam-events-api/internal/dto"
	"github.com/noah-isme/seam-events-api/internal/models"
	"github.com/noah-isme/seam-events-api/internal/store"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
)

const seedPassword = "password"

// SeedResult reports which collections Seed populated.
type SeedResult struct {
	Users  bool `json:"users"`
	Events bool `json:"events"`
}

// MaintenanceService seeds demo data and wipes the store.
type MaintenanceService struct {
	store      dataStore
	cache      *CacheService
	logger     *zap.Logger
	bcryptCost int
}

// NewMaintenanceService constructs a MaintenanceService.
func NewMaintenanceService(store dataStore, cache *CacheService, logger *zap.Logger, bcryptCost int) *MaintenanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &MaintenanceService{store: store, cache: cache, logger: logger, bcryptCost: bcryptCost}
}

// Seed populates the demo teacher and student when no users exist, and two
// demo events owned by the first teacher when no events exist.
func (s *MaintenanceService) Seed(ctx context.Context) (SeedResult, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(seedPassword), s.bcryptCost)
	if err != nil {
		return SeedResult{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash seed password")
	}

	var result SeedResult
	err = s.store.Update(ctx, "seed", func(tx *store.Tx) error {
		result = SeedResult{}
		users, err := tx.Users()
		if err != nil {
			return err
		}
		if len(users) == 0 {
			users = []models.User{
				{ID: tx.NewID(store.PrefixUser), Name: "Alice Teacher", Email: "teacher@example.com", PasswordHash: string(hash), Role: models.RoleTeacher},
				{ID: tx.NewID(store.PrefixUser), Name: "Bob Student", Email: "student@example.com", PasswordHash: string(hash), Role: models.RoleStudent},
			}
			tx.SetUsers(users)
			result.Users = true
		}

		events, err := tx.Events()
		if err != nil {
			return err
		}
		if len(events) > 0 {
			return nil
		}
		teacherID := ""
		for _, u := range users {
			if u.Role == models.RoleTeacher {
				teacherID = u.ID
				break
			}
		}
		if teacherID == "" {
			return nil
		}
		now := tx.Now()
		tx.SetEvents([]models.Event{
			seedEvent(tx.NewID(store.PrefixEvent), teacherID, "Robotics Meetup", "Build & test", "Lab 1", 20, now.Add(24*time.Hour)),
			seedEvent(tx.NewID(store.PrefixEvent), teacherID, "Art Workshop", "Watercolors", "Studio", 15, now.Add(3*24*time.Hour)),
		})
		result.Events = true
		return nil
	})
	if err != nil {
		return SeedResult{}, storeFailure(ctx, s.logger, err, "failed to seed store")
	}

	if result.Events {
		s.cache.InvalidateEvents(ctx)
	}
	if result.Users || result.Events {
		s.logger.Info("seeded demo data", zap.Bool("users", result.Users), zap.Bool("events", result.Events))
	}
	return result, nil
}

// ResetAll removes every collection and the session marker.
func (s *MaintenanceService) ResetAll(ctx context.Context) error {
	err := s.store.Update(ctx, "reset", func(tx *store.Tx) error {
		tx.Reset()
		return nil
	})
	if err != nil {
		return storeFailure(ctx, s.logger, err, "failed to reset store")
	}
	s.cache.InvalidateEvents(ctx)
	s.logger.Warn("data store reset")
	return nil
}

func seedEvent(id, teacherID, title, description, location string, capacity int, date time.Time) models.Event {
	return models.Event{
		ID:            id,
		Title:         title,
		Description:   description,
		Date:          date,
		Location:      location,
		Category:      dto.DefaultEventCategory,
		Tags:          []string{},
		MaxAttendees:  capacity,
		AllowRequests: true,
		Attendees:     []string{},
		CreatedBy:     teacherID,
	}
}
