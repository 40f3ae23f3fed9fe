package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/a11yaudit/models"
	"github.com/use-agent/a11yaudit/snapshot"
)

// Snapshot returns a handler for POST /api/v1/snapshot.
// It renders the page once and returns the markup matched by each selector.
func Snapshot(render snapshot.Renderer, slots *Slots) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SnapshotRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, err)
			return
		}

		if err := slots.Acquire(c.Request.Context()); err != nil {
			respondSnapshotError(c, err)
			return
		}
		defer slots.Release()

		elements, err := snapshot.Take(c.Request.Context(), render, req.URL, req.Selectors)
		if err != nil {
			respondSnapshotError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.SnapshotResponse{Success: true, Elements: elements})
	}
}

func respondSnapshotError(c *gin.Context, err error) {
	ae := toAuditError(err)
	c.JSON(mapErrorToStatus(ae), models.SnapshotResponse{Success: false, Error: ae.ToDetail()})
}
