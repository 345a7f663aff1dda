package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardbazaar/cardbazaar/backend/internal/services"
)

type RefreshHandler struct {
	refreshWorker *services.RefreshWorker
}

func NewRefreshHandler(refreshWorker *services.RefreshWorker) *RefreshHandler {
	return &RefreshHandler{
		refreshWorker: refreshWorker,
	}
}

// RunRefresh triggers one scheduler run and returns its per-set report.
// Intended for invocation by an external cron; no body required.
func (h *RefreshHandler) RunRefresh(c *gin.Context) {
	report := h.refreshWorker.RunOnce(c.Request.Context())
	c.JSON(http.StatusOK, report)
}

// GetRefreshStatus returns the last run report and the next run time.
func (h *RefreshHandler) GetRefreshStatus(c *gin.Context) {
	status := h.refreshWorker.GetStatus()
	c.JSON(http.StatusOK, status)
}
