package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"promptvault/services"
)

func RegisterCompareRoutes(group *gin.RouterGroup, compareService services.CompareServiceInterface) {
	group.GET("/prompts/:id/compare/:date", func(c *gin.Context) { ComparePromptVersion(c, compareService) })
}

// ComparePromptVersion returns the target version next to the current one
// without changing which version is active.
func ComparePromptVersion(c *gin.Context, compareService services.CompareServiceInterface) {
	comparison, err := compareService.Compare(c.Param("id"), c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, comparison)
}
