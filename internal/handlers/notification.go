// internal/handlers/notification.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tallerpiolin/inventory-backend/internal/models"
	"github.com/tallerpiolin/inventory-backend/internal/services"
	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

const defaultPruneDays = 30

type NotificationHandler struct {
	ledger *services.NotificationService
}

func NewNotificationHandler(ledger *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{ledger: ledger}
}

// GET /notifications?filter=todas|stock|ventas|errores|<kind>
func (h *NotificationHandler) GetNotifications(c *gin.Context) {
	items := h.ledger.ListByKind(models.KindFilter(c.Query("filter")))

	utils.SuccessResponseWithMeta(c, items, gin.H{
		"total":  len(items),
		"unread": h.ledger.Unread(),
	})
}

// GET /notifications/unread
func (h *NotificationHandler) GetUnreadCount(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"unread": h.ledger.Unread(),
	})
}

// PUT /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	n, err := h.ledger.MarkRead(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, n)
}

// PUT /notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	count, err := h.ledger.MarkAllRead(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"updated": count})
}

// DELETE /notifications/:id
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.ledger.Remove(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": 1})
}

// DELETE /notifications/read
func (h *NotificationHandler) DeleteRead(c *gin.Context) {
	count, err := h.ledger.RemoveAllRead(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": count})
}

// DELETE /notifications
func (h *NotificationHandler) DeleteAll(c *gin.Context) {
	count, err := h.ledger.RemoveAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": count})
}

type pruneRequest struct {
	Days int `json:"days"`
}

// POST /notifications/prune {"days": 30}
func (h *NotificationHandler) Prune(c *gin.Context) {
	req := pruneRequest{Days: defaultPruneDays}
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	count, err := h.ledger.PruneOlderThan(c.Request.Context(), time.Duration(req.Days)*24*time.Hour)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{"deleted": count})
}
