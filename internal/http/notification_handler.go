package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"yard-service/internal/http/response"
	"yard-service/internal/service"
)

func (h *Handler) listNotifications(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	notifications, err := h.notificationService.List(c.Request.Context(), principal, service.ListNotificationsInput{
		IsRead: queryOptionalBool(c, "isRead"),
		Type:   c.Query("type"),
		Page:   queryInt(c, "page"),
		Limit:  queryInt(c, "limit"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Notifications retrieved successfully", notifications)
}

func (h *Handler) createNotification(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		RecipientID    string `json:"recipientId"`
		Type           string `json:"type"`
		Title          string `json:"title"`
		Message        string `json:"message"`
		TruckRequestID string `json:"truckRequestId"`
	}
	if !bindJSON(c, &req) {
		return
	}

	notification, err := h.notificationService.Create(c.Request.Context(), principal, service.CreateNotificationInput{
		RecipientID:    req.RecipientID,
		Type:           req.Type,
		Title:          req.Title,
		Message:        req.Message,
		TruckRequestID: req.TruckRequestID,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, "Notification created successfully", notification)
}

func (h *Handler) markNotificationRead(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	notification, err := h.notificationService.MarkRead(c.Request.Context(), principal, c.Param("id"))
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Notification marked as read", notification)
}

func (h *Handler) deleteNotification(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	if err := h.notificationService.Delete(c.Request.Context(), principal, c.Param("id")); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Notification deleted successfully", nil)
}

func (h *Handler) markAllNotificationsRead(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "All notifications marked as read", gin.H{"updatedCount": updated})
}
