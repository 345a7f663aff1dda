package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cardbazaar/cardbazaar/backend/internal/services"
)

type SetHandler struct {
	catalog  *services.CatalogService
	snapshot *services.SnapshotService
}

func NewSetHandler(catalog *services.CatalogService, snapshot *services.SnapshotService) *SetHandler {
	return &SetHandler{
		catalog:  catalog,
		snapshot: snapshot,
	}
}

// ListSets returns the derived set groups with staleness and counts.
func (h *SetHandler) ListSets(c *gin.Context) {
	groups, err := h.catalog.SetGroups()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sets":  groups,
		"total": len(groups),
	})
}

// GetSetCards returns all catalog records of one set group.
func (h *SetHandler) GetSetCards(c *gin.Context) {
	setID := c.Param("id")
	if setID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "set id is required"})
		return
	}

	cards, err := h.catalog.CardsForSet(setID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if len(cards) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "set not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"set_id": setID,
		"cards":  cards,
		"count":  len(cards),
	})
}

// GetCardHistory returns a card's append-only price history.
func (h *SetHandler) GetCardHistory(c *gin.Context) {
	cardID := c.Param("id")
	if cardID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "card id is required"})
		return
	}

	points, err := h.snapshot.GetHistory(cardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"card_id": cardID,
		"history": points,
	})
}
