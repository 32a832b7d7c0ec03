package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seam-events-api/internal/dto"
	"github.com/noah-isme/seam-events-api/internal/middleware"
	"github.com/noah-isme/seam-events-api/internal/models"
	"github.com/noah-isme/seam-events-api/internal/service"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error *appErrors.Error       `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

// testAuthenticate trusts X-Test-Role and X-Test-User in place of a bearer token.
func testAuthenticate(c *gin.Context) {
	role := c.GetHeader("X-Test-Role")
	if role == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": appErrors.ErrUnauthorized})
		return
	}
	userID := c.GetHeader("X-Test-User")
	if userID == "" {
		userID = "test-user"
	}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{
		UserID: userID,
		Role:   models.UserRole(role),
		Email:  userID + "@campus.test",
		Name:   "Test " + role,
	})
	c.Next()
}

func newTestRouter(routes Routes) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if routes.Authenticate == nil {
		routes.Authenticate = testAuthenticate
	}
	router := gin.New()
	router.Use(middleware.WithResponseMeta())
	routes.Register(router.Group("/api/v1"))
	return router
}

func performRequest(router http.Handler, method, path, role string, body interface{}) *httptest.ResponseRecorder {
	var payload []byte
	switch b := body.(type) {
	case nil:
	case string:
		payload = []byte(b)
	default:
		payload, _ = json.Marshal(b)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		req.Header.Set("X-Test-Role", role)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

type fakeAuthSrv struct {
	registerResp *dto.AuthResponse
	registerErr  error
	loginResp    *dto.AuthResponse
	loginErr     error
	session      *models.UserInfo
	logoutCalls  int
	lastRegister dto.RegisterRequest
}

func (f *fakeAuthSrv) Register(_ context.Context, req dto.RegisterRequest) (*dto.AuthResponse, error) {
	f.lastRegister = req
	return f.registerResp, f.registerErr
}

func (f *fakeAuthSrv) Login(context.Context, dto.LoginRequest) (*dto.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAuthSrv) Logout(context.Context) error {
	f.logoutCalls++
	return nil
}

func (f *fakeAuthSrv) CurrentUser(context.Context) (*models.UserInfo, error) {
	return f.session, nil
}

type fakeEventSrv struct {
	events     []models.Event
	hit        bool
	event      *models.Event
	err        error
	lastActor  models.Actor
	lastID     string
	lastFilter dto.EventFilter
	lastCreate dto.CreateEventRequest
	lastUpdate dto.UpdateEventRequest
}

func (f *fakeEventSrv) List(_ context.Context, filter dto.EventFilter) ([]models.Event, bool, error) {
	f.lastFilter = filter
	return f.events, f.hit, f.err
}

func (f *fakeEventSrv) Get(_ context.Context, id string) (*models.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeEventSrv) Create(_ context.Context, actor models.Actor, req dto.CreateEventRequest) (*models.Event, error) {
	f.lastActor = actor
	f.lastCreate = req
	return f.event, f.err
}

func (f *fakeEventSrv) Update(_ context.Context, actor models.Actor, id string, req dto.UpdateEventRequest) (*models.Event, error) {
	f.lastActor = actor
	f.lastID = id
	f.lastUpdate = req
	return f.event, f.err
}

func (f *fakeEventSrv) Delete(_ context.Context, actor models.Actor, id string) error {
	f.lastActor = actor
	f.lastID = id
	return f.err
}

type fakeRosterSrv struct {
	file       *dto.RosterFile
	err        error
	lastFormat dto.RosterFormat
}

func (f *fakeRosterSrv) Export(_ context.Context, _ models.Actor, _ string, format dto.RosterFormat) (*dto.RosterFile, error) {
	f.lastFormat = format
	return f.file, f.err
}

type fakeJoinRequestSrv struct {
	request    *models.JoinRequest
	requests   []models.JoinRequest
	incoming   []dto.IncomingRequest
	err        error
	lastActor  models.Actor
	lastID     string
	lastReject dto.RejectRequest
}

func (f *fakeJoinRequestSrv) Create(_ context.Context, actor models.Actor, eventID string) (*models.JoinRequest, error) {
	f.lastActor = actor
	f.lastID = eventID
	return f.request, f.err
}

func (f *fakeJoinRequestSrv) ListForEvent(_ context.Context, actor models.Actor, eventID string) ([]models.JoinRequest, error) {
	f.lastActor = actor
	f.lastID = eventID
	return f.requests, f.err
}

func (f *fakeJoinRequestSrv) ListForStudent(_ context.Context, studentID string) ([]models.JoinRequest, error) {
	f.lastID = studentID
	return f.requests, f.err
}

func (f *fakeJoinRequestSrv) ListIncoming(_ context.Context, actor models.Actor) ([]dto.IncomingRequest, error) {
	f.lastActor = actor
	return f.incoming, f.err
}

func (f *fakeJoinRequestSrv) Approve(_ context.Context, actor models.Actor, requestID string) (*models.JoinRequest, error) {
	f.lastActor = actor
	f.lastID = requestID
	return f.request, f.err
}

func (f *fakeJoinRequestSrv) Reject(_ context.Context, actor models.Actor, requestID string, req dto.RejectRequest) (*models.JoinRequest, error) {
	f.lastActor = actor
	f.lastID = requestID
	f.lastReject = req
	return f.request, f.err
}

type fakeMaintenanceSrv struct {
	resetCalls int
	seedCalls  int
	resetErr   error
}

func (f *fakeMaintenanceSrv) ResetAll(context.Context) error {
	f.resetCalls++
	return f.resetErr
}

func (f *fakeMaintenanceSrv) Seed(context.Context) (service.SeedResult, error) {
	f.seedCalls++
	return service.SeedResult{Users: true, Events: true}, nil
}
