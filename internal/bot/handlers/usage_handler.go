package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edgard/linerelay/internal/logger"
	"github.com/edgard/linerelay/internal/usage"
)

// NewUsageHandler creates the GET /usage handler returning the month-to-date
// usage summary.
func NewUsageHandler(deps HandlerDeps) gin.HandlerFunc {
	log := deps.Logger.With("handler", "usage")

	return func(c *gin.Context) {
		window := usage.MonthToDate(deps.now())

		summary, err := deps.Usage.Fetch(c.Request.Context(), window)
		deps.Metrics.UsageFetched(err)
		if err != nil {
			log.ErrorContext(c, "Failed to fetch usage", "error", err, "request_id", logger.GetRequestID(c))
			c.JSON(http.StatusInternalServerError, gin.H{"message": "Internal server error"})
			return
		}

		c.JSON(http.StatusOK, summary)
	}
}
