package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"driveline/utils"
)

// Health handles GET /health with the latest monitored snapshot.
func Health(c *gin.Context) {
	status := utils.GetHealthStatus()
	code := http.StatusOK
	if !status.Postgres {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, status)
}
