package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/opencenters/catalog-api/internal/middleware"
	"github.com/opencenters/catalog-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	v, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := v.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
