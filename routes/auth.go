package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"promptvault/services"
)

// RegisterAuthRoutes wires the session-token exchange. These endpoints stay
// outside the auth middleware so the shell can bootstrap a session.
func RegisterAuthRoutes(group *gin.RouterGroup, authService services.AuthServiceInterface) {
	group.GET("/auth/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"authRequired": authService.Enabled()})
	})

	group.POST("/auth/session", func(c *gin.Context) { CreateSession(c, authService) })
}

func CreateSession(c *gin.Context, authService services.AuthServiceInterface) {
	var body struct {
		AppKey string `json:"appKey"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tokenString, err := authService.IssueToken(body.AppKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": tokenString})
}
