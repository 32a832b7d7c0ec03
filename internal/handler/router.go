package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seam-events-api/internal/middleware"
	"github.com/noah-isme/seam-events-api/internal/models"
)

// Routes groups the handlers mounted under the API prefix.
type Routes struct {
	Auth     *AuthHandler
	Events   *EventHandler
	Requests *JoinRequestHandler
	// Admin is optional; the reset endpoint is only mounted when set and
	// requires a teacher token.
	Admin *AdminHandler
	// Authenticate must store *models.JWTClaims under middleware.ContextUserKey.
	Authenticate gin.HandlerFunc
}

// Register mounts every API route on group.
func (r Routes) Register(group *gin.RouterGroup) {
	teacher := middleware.RequireRoles(models.RoleTeacher)
	student := middleware.RequireRoles(models.RoleStudent)
	anyone := middleware.RequireRoles(models.RoleTeacher, models.RoleStudent)

	auth := group.Group("/auth")
	auth.POST("/register", r.Auth.Register)
	auth.POST("/login", r.Auth.Login)
	auth.POST("/logout", r.Authenticate, anyone, r.Auth.Logout)
	auth.GET("/me", r.Authenticate, anyone, r.Auth.Me)

	events := group.Group("/events")
	events.GET("", r.Events.List)
	events.GET("/:id", r.Events.Get)
	events.POST("", r.Authenticate, teacher, r.Events.Create)
	events.PATCH("/:id", r.Authenticate, teacher, r.Events.Update)
	events.DELETE("/:id", r.Authenticate, teacher, r.Events.Delete)
	events.GET("/:id/roster", r.Authenticate, teacher, r.Events.Roster)
	events.POST("/:id/requests", r.Authenticate, student, r.Requests.Create)
	events.GET("/:id/requests", r.Authenticate, teacher, r.Requests.ListForEvent)

	requests := group.Group("/requests", r.Authenticate)
	requests.GET("/mine", student, r.Requests.Mine)
	requests.GET("/incoming", teacher, r.Requests.Incoming)
	requests.POST("/:id/approve", teacher, r.Requests.Approve)
	requests.POST("/:id/reject", teacher, r.Requests.Reject)

	if r.Admin != nil {
		group.POST("/admin/reset", r.Authenticate, teacher, r.Admin.Reset)
	}
}
