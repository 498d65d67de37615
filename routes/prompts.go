package routes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"promptvault/services"
)

func RegisterPromptRoutes(group *gin.RouterGroup, index services.PromptIndexInterface, tagService services.TagServiceInterface, groupService services.GroupServiceInterface) {
	group.GET("/prompts", func(c *gin.Context) { GetPrompts(c, index) })
	group.POST("/prompts", func(c *gin.Context) { CreatePrompt(c, index) })
	group.POST("/prompts/refresh", func(c *gin.Context) { RefreshPrompts(c, index) })

	group.GET("/prompts/:id", func(c *gin.Context) { GetPromptById(c, index) })
	group.PUT("/prompts/:id", func(c *gin.Context) { UpdatePrompt(c, index) })
	group.DELETE("/prompts/:id", func(c *gin.Context) { DeletePrompt(c, index, tagService, groupService) })

	group.GET("/selection", func(c *gin.Context) { GetSelection(c, index) })
	group.PUT("/selection", func(c *gin.Context) { SetSelection(c, index) })
}

func GetPrompts(c *gin.Context, index services.PromptIndexInterface) {
	filter := services.ListFilter{
		Name:    c.Query("name"),
		TagID:   c.Query("tag"),
		GroupID: c.Query("group"),
	}
	if favorite := c.Query("favorite"); favorite != "" {
		isFavorite := favorite == "true"
		filter.Favorite = &isFavorite
	}
	c.JSON(http.StatusOK, index.List(filter))
}

func CreatePrompt(c *gin.Context, index services.PromptIndexInterface) {
	var req services.CreatePromptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt, err := index.Create(req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prompt)
}

func RefreshPrompts(c *gin.Context, index services.PromptIndexInterface) {
	if err := index.Refresh(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, index.List(services.ListFilter{}))
}

func GetPromptById(c *gin.Context, index services.PromptIndexInterface) {
	prompt, err := index.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

func UpdatePrompt(c *gin.Context, index services.PromptIndexInterface) {
	var partial map[string]interface{}
	if err := c.ShouldBindJSON(&partial); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt, err := index.Update(c.Param("id"), partial)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

func DeletePrompt(c *gin.Context, index services.PromptIndexInterface, tagService services.TagServiceInterface, groupService services.GroupServiceInterface) {
	id := c.Param("id")
	if err := index.Remove(id); err != nil {
		respondError(c, err)
		return
	}

	// association upkeep is explicit on every mutation path
	if err := tagService.DetachPrompt(id); err != nil {
		log.Printf("Warning: could not detach prompt %s from tags: %v", id, err)
	}
	if err := groupService.DetachPrompt(id); err != nil {
		log.Printf("Warning: could not detach prompt %s from groups: %v", id, err)
	}
	c.Status(http.StatusNoContent)
}

func GetSelection(c *gin.Context, index services.PromptIndexInterface) {
	prompt, ok := index.Selected()
	if !ok {
		c.JSON(http.StatusOK, gin.H{"selected": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"selected": prompt})
}

func SetSelection(c *gin.Context, index services.PromptIndexInterface) {
	var body struct {
		ID string `json:"id"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := index.Select(body.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": body.ID})
}
