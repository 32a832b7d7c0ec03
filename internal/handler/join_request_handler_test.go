package handler

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seam-events-api/internal/models"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
)

func requestRoutes(srv *fakeJoinRequestSrv) Routes {
	return Routes{
		Auth:     NewAuthHandler(&fakeAuthSrv{}),
		Events:   NewEventHandler(&fakeEventSrv{}, &fakeRosterSrv{}),
		Requests: NewJoinRequestHandler(srv),
	}
}

func TestJoinRequestHandlerCreateByStudent(t *testing.T) {
	srv := &fakeJoinRequestSrv{request: &models.JoinRequest{ID: "r_1", Activity: "e_1", Student: "test-user", Status: models.JoinRequestPending}}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodPost, "/api/v1/events/e_1/requests", string(models.RoleStudent), nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "e_1", srv.lastID)
	assert.Equal(t, models.Actor{ID: "test-user", Role: models.RoleStudent}, srv.lastActor)
}

func TestJoinRequestHandlerCreateForbiddenForTeachers(t *testing.T) {
	srv := &fakeJoinRequestSrv{}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodPost, "/api/v1/events/e_1/requests", string(models.RoleTeacher), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, srv.lastID)
}

func TestJoinRequestHandlerCreateDuplicate(t *testing.T) {
	srv := &fakeJoinRequestSrv{err: appErrors.ErrDuplicateRequest}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodPost, "/api/v1/events/e_1/requests", string(models.RoleStudent), nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrDuplicateRequest.Code, env.Error.Code)
}

func TestJoinRequestHandlerMineUsesCaller(t *testing.T) {
	srv := &fakeJoinRequestSrv{requests: []models.JoinRequest{{ID: "r_1"}}}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodGet, "/api/v1/requests/mine", string(models.RoleStudent), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test-user", srv.lastID)
}

func TestJoinRequestHandlerIncomingTeacherOnly(t *testing.T) {
	srv := &fakeJoinRequestSrv{}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodGet, "/api/v1/requests/incoming", string(models.RoleStudent), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = performRequest(router, http.MethodGet, "/api/v1/requests/incoming", string(models.RoleTeacher), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.RoleTeacher, srv.lastActor.Role)
}

func TestJoinRequestHandlerListForEventPassesActor(t *testing.T) {
	srv := &fakeJoinRequestSrv{requests: []models.JoinRequest{{ID: "r_1", Activity: "e_1"}}}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodGet, "/api/v1/events/e_1/requests", string(models.RoleTeacher), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "e_1", srv.lastID)
	assert.Equal(t, models.Actor{ID: "test-user", Role: models.RoleTeacher}, srv.lastActor)
}

func TestJoinRequestHandlerListForEventForeignEvent(t *testing.T) {
	srv := &fakeJoinRequestSrv{err: appErrors.Clone(appErrors.ErrForbidden, "only the event creator can list its requests")}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodGet, "/api/v1/events/e_1/requests", string(models.RoleTeacher), nil)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestJoinRequestHandlerApproveAlreadyProcessed(t *testing.T) {
	srv := &fakeJoinRequestSrv{err: appErrors.Clone(appErrors.ErrAlreadyProcessed, "request already approved")}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodPost, "/api/v1/requests/r_1/approve", string(models.RoleTeacher), nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "r_1", srv.lastID)
}

func TestJoinRequestHandlerRejectWithoutBody(t *testing.T) {
	srv := &fakeJoinRequestSrv{request: &models.JoinRequest{ID: "r_1", Status: models.JoinRequestRejected}}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodPost, "/api/v1/requests/r_1/reject", string(models.RoleTeacher), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, srv.lastReject.Note)
}

func TestJoinRequestHandlerRejectWithNote(t *testing.T) {
	srv := &fakeJoinRequestSrv{request: &models.JoinRequest{ID: "r_1", Status: models.JoinRequestRejected}}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodPost, "/api/v1/requests/r_1/reject", string(models.RoleTeacher), map[string]string{"note": "full up"})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "full up", srv.lastReject.Note)
}

func TestJoinRequestHandlerRejectMalformedBody(t *testing.T) {
	srv := &fakeJoinRequestSrv{}
	router := newTestRouter(requestRoutes(srv))

	rec := performRequest(router, http.MethodPost, "/api/v1/requests/r_1/reject", string(models.RoleTeacher), "{")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, srv.lastID)
}
