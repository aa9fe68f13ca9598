package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"yard-service/internal/http/response"
	"yard-service/internal/model"
	"yard-service/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func dashboard[T any](h *Handler, load func(context.Context, model.Principal) (T, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := h.principal(c)
		if !ok {
			return
		}

		data, err := load(c.Request.Context(), principal)
		if err != nil {
			h.handleError(c, err)
			return
		}

		response.Success(c, http.StatusOK, "Dashboard data retrieved successfully", data)
	}
}

func (h *Handler) loaderDashboard(c *gin.Context) {
	dashboard(h, h.reportService.LoaderDashboard)(c)
}

func (h *Handler) dispatcherDashboard(c *gin.Context) {
	dashboard(h, h.reportService.DispatcherDashboard)(c)
}

func (h *Handler) switcherDashboard(c *gin.Context) {
	dashboard(h, h.reportService.SwitcherDashboard)(c)
}

func (h *Handler) driverDashboard(c *gin.Context) {
	dashboard(h, h.reportService.DriverDashboard)(c)
}

func (h *Handler) adminDashboard(c *gin.Context) {
	dashboard(h, h.reportService.AdminDashboard)(c)
}

func (h *Handler) exportReport(c *gin.Context) {
	principal, ok := h.principal(c)
	if !ok {
		return
	}

	buf, filename, err := h.reportService.Export(c.Request.Context(), principal, service.ExportInput{
		From: c.Query("from"),
		To:   c.Query("to"),
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
