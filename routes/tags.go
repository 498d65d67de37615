package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"promptvault/services"
)

func RegisterTagRoutes(group *gin.RouterGroup, tagService services.TagServiceInterface) {
	group.GET("/tags", func(c *gin.Context) { GetTags(c, tagService) })
	group.POST("/tags", func(c *gin.Context) { AddTag(c, tagService) })
	group.PUT("/tags/:id", func(c *gin.Context) { RenameTag(c, tagService) })
	group.DELETE("/tags/:id", func(c *gin.Context) { RemoveTag(c, tagService) })

	group.POST("/tags/:id/prompts/:promptId", func(c *gin.Context) { AssignTag(c, tagService) })
	group.DELETE("/tags/:id/prompts/:promptId", func(c *gin.Context) { UnassignTag(c, tagService) })
}

type tagNameBody struct {
	Name string `json:"name"`
}

func GetTags(c *gin.Context, tagService services.TagServiceInterface) {
	c.JSON(http.StatusOK, tagService.List())
}

// AddTag finds or creates by name; an existing tag comes back unchanged and
// unassociated.
func AddTag(c *gin.Context, tagService services.TagServiceInterface) {
	var body tagNameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tag, err := tagService.AddTag(body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func RenameTag(c *gin.Context, tagService services.TagServiceInterface) {
	var body tagNameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tag, err := tagService.RenameTag(c.Param("id"), body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tag)
}

func RemoveTag(c *gin.Context, tagService services.TagServiceInterface) {
	if err := tagService.RemoveTag(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func AssignTag(c *gin.Context, tagService services.TagServiceInterface) {
	if err := tagService.AssignTag(c.Param("id"), c.Param("promptId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}

func UnassignTag(c *gin.Context, tagService services.TagServiceInterface) {
	if err := tagService.UnassignTag(c.Param("id"), c.Param("promptId")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{})
}
