package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/seam-events-api/internal/dto"
	"github.com/noah-isme/seam-events-api/internal/models"
	"github.com/noah-isme/seam-events-api/internal/store"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
	"github.com/noah-isme/seam-events-api/pkg/kv"
)

const testSecret = "test-secret"

type fixture struct {
	store       *store.Store
	auth        *AuthService
	events      *EventService
	requests    *JoinRequestService
	maintenance *MaintenanceService
	roster      *RosterService
	teacher     models.Actor
	student     models.Actor
}

type fixtureOptions struct {
	cache           *CacheService
	enforceCapacity bool
	cascadeDelete   bool
}

func newFixture(t *testing.T, opts fixtureOptions) *fixture {
	t.Helper()
	s := store.New(kv.NewMemoryStore(), store.Options{KeyPrefix: "seam_"})
	t.Cleanup(func() { _ = s.Close() })

	f := &fixture{
		store: s,
		auth: NewAuthService(s, nil, nil, AuthConfig{
			AccessTokenSecret: testSecret,
			AccessTokenExpiry: time.Hour,
			Issuer:            "test",
			BcryptCost:        bcrypt.MinCost,
		}),
		events:      NewEventService(s, opts.cache, nil, nil, EventConfig{CascadeRequestDelete: opts.cascadeDelete}),
		requests:    NewJoinRequestService(s, opts.cache, nil, nil, JoinRequestConfig{EnforceCapacity: opts.enforceCapacity}),
		maintenance: NewMaintenanceService(s, opts.cache, nil, bcrypt.MinCost),
		roster:      NewRosterService(s, nil),
	}

	_, err := f.maintenance.Seed(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.View(context.Background(), "fixture", func(tx *store.Tx) error {
		users, err := tx.Users()
		if err != nil {
			return err
		}
		for _, u := range users {
			switch u.Role {
			case models.RoleTeacher:
				f.teacher = models.Actor{ID: u.ID, Role: u.Role}
			case models.RoleStudent:
				f.student = models.Actor{ID: u.ID, Role: u.Role}
			}
		}
		return nil
	}))
	return f
}

func (f *fixture) seededEvents(t *testing.T) []models.Event {
	t.Helper()
	var events []models.Event
	require.NoError(t, f.store.View(context.Background(), "fixture", func(tx *store.Tx) error {
		var err error
		events, err = tx.Events()
		return err
	}))
	return events
}

func (f *fixture) registerTeacher(t *testing.T, name, email string) models.Actor {
	t.Helper()
	res, err := f.auth.Register(context.Background(), registerReq(name, email, models.RoleTeacher))
	require.NoError(t, err)
	return models.Actor{ID: res.User.ID, Role: res.User.Role}
}

func (f *fixture) registerStudent(t *testing.T, name, email string) models.Actor {
	t.Helper()
	res, err := f.auth.Register(context.Background(), registerReq(name, email, models.RoleStudent))
	require.NoError(t, err)
	return models.Actor{ID: res.User.ID, Role: res.User.Role}
}

func registerReq(name, email string, role models.UserRole) dto.RegisterRequest {
	return dto.RegisterRequest{Name: name, Email: email, Password: "secret", Role: role}
}

var errBackendDown = errors.New("backend down")

// brokenStore fails every command before running it.
type brokenStore struct{}

func (brokenStore) View(context.Context, string, func(*store.Tx) error) error {
	return errBackendDown
}

func (brokenStore) Update(context.Context, string, func(*store.Tx) error) error {
	return errBackendDown
}

type memoryCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	gets    int
	deletes int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletes++
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}
