package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/seam-events-api/internal/middleware"
	"github.com/noah-isme/seam-events-api/internal/models"
	appErrors "github.com/noah-isme/seam-events-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) (models.Actor, error) {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.Actor{}, appErrors.ErrUnauthorized
	}
	return claims.Actor(), nil
}
