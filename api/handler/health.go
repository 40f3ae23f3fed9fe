package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/a11yaudit/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Reports browser slot utilisation and degrades status when > 80% of slots
// are in use.
func Health(slots *Slots, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		active, max := slots.Active(), slots.Max()

		status := "healthy"
		if max > 0 && active > int(float64(max)*0.8) {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:       status,
			Uptime:       time.Since(startTime).Round(time.Second).String(),
			ActiveAudits: active,
			MaxAudits:    max,
			Version:      Version,
		})
	}
}
