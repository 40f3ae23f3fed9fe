package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/a11yaudit/discovery"
	"github.com/use-agent/a11yaudit/models"
)

// Discover returns a handler for POST /api/v1/discover.
// It lists the pages of a site from its sitemaps or homepage links.
func Discover(d *discovery.Discoverer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.DiscoverRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, err)
			return
		}

		site, err := d.Discover(c.Request.Context(), req.URL)
		if err != nil {
			ae := toAuditError(err)
			c.JSON(mapErrorToStatus(ae), models.DiscoverResponse{Success: false, Error: ae.ToDetail()})
			return
		}

		c.JSON(http.StatusOK, models.DiscoverResponse{
			Success: true,
			Site:    site,
			Total:   len(site.URLs),
		})
	}
}
