package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"promptvault/services"
)

func RegisterGroupRoutes(group *gin.RouterGroup, groupService services.GroupServiceInterface) {
	group.GET("/groups", func(c *gin.Context) { GetGroups(c, groupService) })
	group.POST("/groups", func(c *gin.Context) { AddGroup(c, groupService) })
	group.PUT("/groups/:id", func(c *gin.Context) { RenameGroup(c, groupService) })
	group.DELETE("/groups/:id", func(c *gin.Context) { RemoveGroup(c, groupService) })

	group.POST("/groups/:id/prompts/:promptId", func(c *gin.Context) { AssignGroup(c, groupService) })
	group.DELETE("/prompts/:id/group", func(c *gin.Context) { ClearGroup(c, groupService) })
}

type groupNameBody struct {
	Name string `json:"name"`
}

func GetGroups(c *gin.Context, groupService services.GroupServiceInterface) {
	c.JSON(http.StatusOK, groupService.List())
}

func AddGroup(c *gin.Context, groupService services.GroupServiceInterface) {
	var body groupNameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := groupService.AddGroup(body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func RenameGroup(c *gin.Context, groupService services.GroupServiceInterface) {
	var body groupNameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	renamed, err := groupService.RenameGroup(c.Param("id"), body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, renamed)
}

func RemoveGroup(c *gin.Context, groupService services.GroupServiceInterface) {
	if err := groupService.RemoveGroup(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func AssignGroup(c *gin.Context, groupService services.GroupServiceInterface) {
	if err := groupService.AssignGroup(c.Param("id"), c.Param("promptId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func ClearGroup(c *gin.Context, groupService services.GroupServiceInterface) {
	if err := groupService.ClearGroup(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
