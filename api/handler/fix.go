package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/a11yaudit/config"
	"github.com/use-agent/a11yaudit/llm"
	"github.com/use-agent/a11yaudit/models"
)

// Fix returns a handler for POST /api/v1/fix.
//
// Request-supplied LLM settings (BYOK) override the server configuration.
func Fix(client *llm.Client, cfg config.LLMConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.FixRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			invalidInput(c, err)
			return
		}

		params := llm.Params{
			APIKey:      firstNonEmpty(req.LLMAPIKey, cfg.APIKey),
			Model:       firstNonEmpty(req.LLMModel, cfg.Model),
			BaseURL:     firstNonEmpty(req.LLMBaseURL, cfg.BaseURL),
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		}

		res, err := client.SuggestFix(c.Request.Context(), llm.Finding{
			Rule:    req.Rule,
			Message: req.Message,
			HTML:    req.HTML,
		}, params)
		if err != nil {
			ae := toAuditError(err)
			c.JSON(mapErrorToStatus(ae), models.FixResponse{Success: false, Error: ae.ToDetail()})
			return
		}

		c.JSON(http.StatusOK, models.FixResponse{
			Success:   true,
			FixedHTML: res.FixedHTML,
			Usage:     res.Usage,
		})
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
