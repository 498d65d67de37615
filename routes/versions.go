package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"promptvault/services"
)

func RegisterVersionRoutes(group *gin.RouterGroup, versionService services.VersionServiceInterface, flushService services.FlushServiceInterface) {
	group.POST("/prompts/:id/versions", func(c *gin.Context) { CreateVersion(c, versionService) })
	group.PUT("/prompts/:id/versions/:date", func(c *gin.Context) { RenameVersion(c, versionService) })
	group.POST("/prompts/:id/versions/:date/select", func(c *gin.Context) { SelectVersion(c, versionService) })
	group.DELETE("/prompts/:id/versions/:date", func(c *gin.Context) { DeleteVersion(c, versionService) })

	group.PUT("/prompts/:id/content", func(c *gin.Context) { EditContent(c, versionService, flushService) })
}

type versionNameBody struct {
	Name string `json:"name"`
}

func CreateVersion(c *gin.Context, versionService services.VersionServiceInterface) {
	var body versionNameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt, err := versionService.CreateVersion(c.Param("id"), body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prompt)
}

func RenameVersion(c *gin.Context, versionService services.VersionServiceInterface) {
	var body versionNameBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt, err := versionService.RenameVersion(c.Param("id"), c.Param("date"), body.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

// SelectVersion promotes the version to current; it is a mutation, not a
// read. Viewing without promoting goes through the compare endpoint.
func SelectVersion(c *gin.Context, versionService services.VersionServiceInterface) {
	prompt, err := versionService.SelectVersion(c.Param("id"), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

func DeleteVersion(c *gin.Context, versionService services.VersionServiceInterface) {
	prompt, err := versionService.DeleteVersion(c.Param("id"), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}

// EditContent rewrites the current version's content. By default the write
// is debounced through the flush service so typing coalesces into one
// durable write per quiet period; flush=true forces an immediate write.
func EditContent(c *gin.Context, versionService services.VersionServiceInterface, flushService services.FlushServiceInterface) {
	var body struct {
		Content string `json:"content"`
		Flush   bool   `json:"flush"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	if body.Flush {
		prompt, err := versionService.EditCurrentContent(id, body.Content)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, prompt)
		return
	}

	flushService.QueueEdit(id, body.Content)
	c.JSON(http.StatusAccepted, gin.H{"queued": true})
}
