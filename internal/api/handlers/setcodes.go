package handlers

import (
	"encoding/csv"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cardbazaar/cardbazaar/backend/internal/services"
)

type SetCodeHandler struct {
	catalog *services.CatalogService
	sync    *services.SetCodeSyncService
}

func NewSetCodeHandler(catalog *services.CatalogService, sync *services.SetCodeSyncService) *SetCodeHandler {
	return &SetCodeHandler{
		catalog: catalog,
		sync:    sync,
	}
}

// SyncSetCodes pulls the spreadsheet and applies codes to the catalog.
func (h *SetCodeHandler) SyncSetCodes(c *gin.Context) {
	report := h.sync.Sync(c.Request.Context())
	c.JSON(http.StatusOK, report)
}

// ExportSetCodesCSV serves the set-code report as a CSV download.
func (h *SetCodeHandler) ExportSetCodesCSV(c *gin.Context) {
	rows, err := h.catalog.SetCodeRows()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="setcodes.csv"`)

	w := csv.NewWriter(c.Writer)
	_ = w.Write([]string{"set_id", "set_name", "set_code", "count"})
	for _, row := range rows {
		_ = w.Write([]string{row.SetID, row.SetName, row.SetCode, strconv.Itoa(row.Count)})
	}
	w.Flush()
}
