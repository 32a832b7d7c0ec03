package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/seam-events-api/internal/models"
	"github.com/noah-isme/seam-events-api/internal/store"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
	"github.com/noah-isme/seam-events-api/pkg/logger"
)

// dataStore is the command interface services use to reach the collections.
type dataStore interface {
	View(ctx context.Context, op string, fn func(*store.Tx) error) error
	Update(ctx context.Context, op string, fn func(*store.Tx) error) error
}

// storeFailure passes typed errors through and wraps anything else as internal.
func storeFailure(ctx context.Context, l *zap.Logger, err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	logger.FromContext(ctx, l).Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func findUserByID(users []models.User, id string) int {
	for i := range users {
		if users[i].ID == id {
			return i
		}
	}
	return -1
}

func findUserByEmail(users []models.User, email string) int {
	for i := range users {
		if users[i].Email == email {
			return i
		}
	}
	return -1
}

func findEvent(events []models.Event, id string) int {
	for i := range events {
		if events[i].ID == id {
			return i
		}
	}
	return -1
}

func findJoinRequest(requests []models.JoinRequest, id string) int {
	for i := range requests {
		if requests[i].ID == id {
			return i
		}
	}
	return -1
}
