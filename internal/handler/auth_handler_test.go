package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/seam-events-api/internal/dto"
	"github.com/noah-isme/seam-events-api/internal/middleware"
	"github.com/noah-isme/seam-events-api/internal/models"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
)

func TestAuthHandlerRegisterRejectsMalformedJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAuthSrv{}
	handler := NewAuthHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString("{"))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Register(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrValidation.Code, env.Error.Code)
	assert.Empty(t, srv.lastRegister.Email)
}

func TestAuthHandlerRegisterCreated(t *testing.T) {
	gin.SetMode(gin.TestMode)
	srv := &fakeAuthSrv{registerResp: &dto.AuthResponse{
		AccessToken: "token",
		User:        models.UserInfo{ID: "u_1", Name: "Ada", Email: "ada@campus.test", Role: models.RoleTeacher},
	}}
	handler := NewAuthHandler(srv)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	payload := `{"name":"Ada","email":"ada@campus.test","password":"secret","role":"teacher"}`
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(payload))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Register(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.RoleTeacher, srv.lastRegister.Role)

	var res dto.AuthResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
	assert.Equal(t, "token", res.AccessToken)
	assert.Equal(t, "u_1", res.User.ID)
}

func TestAuthHandlerLoginPropagatesInvalidCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{loginErr: appErrors.ErrInvalidCredentials})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"x@y.z","password":"nope"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Error)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, env.Error.Code)
}

func TestAuthHandlerMeCombinesTokenAndSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	session := &models.UserInfo{ID: "u_other", Name: "Other", Email: "other@campus.test", Role: models.RoleStudent}
	handler := NewAuthHandler(&fakeAuthSrv{session: session})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u_1", Name: "Ada", Email: "ada@campus.test", Role: models.RoleTeacher})

	handler.Me(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var res dto.MeResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &res))
	assert.Equal(t, "u_1", res.User.ID)
	assert.Equal(t, models.RoleTeacher, res.User.Role)
	require.NotNil(t, res.Session)
	assert.Equal(t, "u_other", res.Session.ID)
}

func TestAuthHandlerMeWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewAuthHandler(&fakeAuthSrv{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/auth/me", nil)

	handler.Me(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerLogout(t *testing.T) {
	srv := &fakeAuthSrv{}
	router := newTestRouter(Routes{Auth: NewAuthHandler(srv), Events: NewEventHandler(&fakeEventSrv{}, &fakeRosterSrv{}), Requests: NewJoinRequestHandler(&fakeJoinRequestSrv{})})

	rec := performRequest(router, http.MethodPost, "/api/v1/auth/logout", string(models.RoleStudent), nil)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 1, srv.logoutCalls)
}
