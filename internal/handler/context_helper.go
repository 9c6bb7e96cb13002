package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/training-center-api/internal/middleware"
	"github.com/noah-isme/training-center-api/internal/models"
	appErrors "github.com/noah-isme/training-center-api/pkg/errors"
)

// actorFromContext describes the caller for audit records.
func actorFromContext(c *gin.Context) *models.Actor {
	actor := &models.Actor{
		IPAddress: c.ClientIP(),
		UserAgent: c.GetHeader("User-Agent"),
	}
	if claims := middleware.Claims(c); claims != nil {
		actor.UserID = claims.UserID
		actor.Role = claims.Role
	}
	return actor
}

func int64Param(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, name+" must be a positive integer")
	}
	return id, nil
}
