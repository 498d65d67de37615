package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"promptvault/services"
)

func RegisterNoteRoutes(group *gin.RouterGroup, noteService services.NoteServiceInterface) {
	group.POST("/prompts/:id/notes", func(c *gin.Context) { AddNote(c, noteService) })
	group.DELETE("/prompts/:id/notes/:date", func(c *gin.Context) { DeleteNote(c, noteService) })
}

func AddNote(c *gin.Context, noteService services.NoteServiceInterface) {
	var body struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	prompt, err := noteService.AddNote(c.Param("id"), body.Content)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, prompt)
}

func DeleteNote(c *gin.Context, noteService services.NoteServiceInterface) {
	prompt, err := noteService.DeleteNote(c.Param("id"), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, prompt)
}
