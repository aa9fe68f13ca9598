package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"yard-service/internal/http/middleware"
	"yard-service/internal/http/response"
	"yard-service/internal/model"
	"yard-service/internal/service"
)

func (h *Handler) signIn(c *gin.Context) {
	claims, ok := middleware.Claims(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required")
		return
	}

	user, created, err := h.userService.SignIn(c.Request.Context(), service.SignInInput{
		Email: claims.Email,
		Name:  claims.Name,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	if created {
		response.Success(c, http.StatusCreated, "User created successfully", user)
		return
	}
	response.Success(c, http.StatusOK, "Signed in successfully", user)
}

func (h *Handler) logout(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var tokenID string
	var expiresAt time.Time
	if claims, ok := middleware.Claims(c); ok {
		tokenID = claims.ID
		if claims.ExpiresAt != nil {
			expiresAt = claims.ExpiresAt.Time
		}
	}

	if err := h.userService.Logout(c.Request.Context(), principal, tokenID, expiresAt); err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Logged out successfully", nil)
}

func (h *Handler) listUsers(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	users, err := h.userService.ListUsers(c.Request.Context(), principal, service.ListUsersInput{
		Role:       c.Query("role"),
		Department: c.Query("department"),
		IsActive:   queryOptionalBool(c, "isActive"),
		Page:       queryInt(c, "page"),
		Limit:      queryInt(c, "limit"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Users retrieved successfully", users)
}

func (h *Handler) updateUser(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		Role       string `json:"role"`
		Department string `json:"department"`
		IsActive   *bool  `json:"isActive"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), principal, c.Param("id"), service.UpdateUserInput{
		Role:       req.Role,
		Department: req.Department,
		IsActive:   req.IsActive,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "User updated successfully", user)
}

func (h *Handler) getProfile(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(c.Request.Context(), principal)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Profile retrieved successfully", profile)
}

func (h *Handler) updateProfile(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req struct {
		Name        *string                        `json:"name"`
		Phone       *string                        `json:"phone"`
		Preferences *model.NotificationPreferences `json:"preferences"`
	}
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), principal, service.UpdateProfileInput{
		Name:        req.Name,
		Phone:       req.Phone,
		Preferences: req.Preferences,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Profile updated successfully", user)
}

type deviceTokenRequest struct {
	DeviceToken string `json:"deviceToken"`
}

func (h *Handler) addDeviceToken(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req deviceTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	count, err := h.userService.AddDeviceToken(c.Request.Context(), principal, req.DeviceToken)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Device token added successfully", gin.H{"tokenCount": count})
}

func (h *Handler) removeDeviceToken(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	var req deviceTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	count, err := h.userService.RemoveDeviceToken(c.Request.Context(), principal, req.DeviceToken)
	if err != nil {
		h.handleError(c, err)
		return
	}

	response.Success(c, http.StatusOK, "Device token removed successfully", gin.H{"tokenCount": count})
}
