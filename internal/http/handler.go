package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"yard-service/internal/http/middleware"
	"yard-service/internal/http/response"
	"yard-service/internal/model"
	"yard-service/internal/service"
)

type Handler struct {
	requestService      *service.RequestService
	yardService         *service.YardService
	fleetService        *service.FleetService
	notificationService *service.NotificationService
	userService         *service.UserService
	reportService       *service.ReportService
	log                 zerolog.Logger
}

func NewHandler(
	requestService *service.RequestService,
	yardService *service.YardService,
	fleetService *service.FleetService,
	notificationService *service.NotificationService,
	userService *service.UserService,
	reportService *service.ReportService,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		requestService:      requestService,
		yardService:         yardService,
		fleetService:        fleetService,
		notificationService: notificationService,
		userService:         userService,
		reportService:       reportService,
		log:                 log,
	}
}

// Register mounts the API. authMiddleware verifies the token; userMiddleware resolves
// the caller to an active user and is skipped only by sign-in.
func (h *Handler) Register(r *gin.Engine, authMiddleware, userMiddleware gin.HandlerFunc) {
	api := r.Group("/api", authMiddleware)
	api.POST("/auth/sign-in", h.signIn)

	protected := api.Group("/", userMiddleware)
	protected.POST("/auth/logout", h.logout)

	requests := protected.Group("/truck-requests")
	{
		requests.GET("", middleware.RequireOperation(service.OpRequestList), h.listRequests)
		requests.POST("", middleware.RequireOperation(service.OpRequestCreate), h.createRequest)
		requests.GET("/:id", middleware.RequireOperation(service.OpRequestList), h.getRequest)
		requests.PUT("/:id/assign", middleware.RequireOperation(service.OpRequestAssign), h.assignRequest)
		requests.PUT("/:id/status", middleware.RequireOperation(service.OpRequestUpdateStatus), h.updateRequestStatus)
	}

	yard := protected.Group("/yard")
	{
		yard.GET("/bays", middleware.RequireOperation(service.OpBayList), h.listBays)
		yard.POST("/bays", middleware.RequireOperation(service.OpBayCreate), h.createBay)
		yard.PUT("/bays/:id/assign", middleware.RequireOperation(service.OpBayAssign), h.assignBay)
		yard.GET("/movements", middleware.RequireOperation(service.OpMovementList), h.listMovements)
		yard.POST("/movements", middleware.RequireOperation(service.OpMovementRecord), h.recordMovement)
		yard.GET("/queue", middleware.RequireOperation(service.OpQueueGet), h.getQueue)
		yard.PUT("/queue", middleware.RequireOperation(service.OpQueueReprioritize), h.updateQueue)
	}

	protected.GET("/trucks", middleware.RequireOperation(service.OpTruckList), h.listTrucks)
	protected.POST("/trucks", middleware.RequireOperation(service.OpTruckCreate), h.createTruck)
	protected.GET("/drivers", middleware.RequireOperation(service.OpDriverList), h.listDrivers)
	protected.POST("/drivers", middleware.RequireOperation(service.OpDriverCreate), h.createDriver)

	notifications := protected.Group("/notifications")
	{
		notifications.GET("", middleware.RequireOperation(service.OpNotificationInbox), h.listNotifications)
		notifications.POST("", middleware.RequireOperation(service.OpNotificationCreate), h.createNotification)
		notifications.PUT("/mark-all-read", middleware.RequireOperation(service.OpNotificationInbox), h.markAllNotificationsRead)
		notifications.PUT("/:id", middleware.RequireOperation(service.OpNotificationInbox), h.markNotificationRead)
		notifications.DELETE("/:id", middleware.RequireOperation(service.OpNotificationInbox), h.deleteNotification)
	}

	admin := protected.Group("/admin")
	{
		admin.GET("/users", middleware.RequireOperation(service.OpUserList), h.listUsers)
		admin.PUT("/users/:id", middleware.RequireOperation(service.OpUserUpdate), h.updateUser)
	}

	user := protected.Group("/user", middleware.RequireOperation(service.OpUserProfile))
	{
		user.GET("/profile", h.getProfile)
		user.PUT("/profile", h.updateProfile)
		user.POST("/device-token", h.addDeviceToken)
		user.DELETE("/device-token", h.removeDeviceToken)
	}

	dashboard := protected.Group("/dashboard")
	{
		dashboard.GET("/loader", middleware.RequireOperation(service.OpDashboardLoader), h.loaderDashboard)
		dashboard.GET("/dispatcher", middleware.RequireOperation(service.OpDashboardDispatcher), h.dispatcherDashboard)
		dashboard.GET("/switcher", middleware.RequireOperation(service.OpDashboardSwitcher), h.switcherDashboard)
		dashboard.GET("/driver", middleware.RequireOperation(service.OpDashboardDriver), h.driverDashboard)
		dashboard.GET("/admin", middleware.RequireOperation(service.OpDashboardAdmin), h.adminDashboard)
	}

	protected.GET("/reports/export", middleware.RequireOperation(service.OpReportExport), h.exportReport)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		response.Error(c, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, service.ErrPermissionDenied):
		response.Error(c, http.StatusForbidden, "Access denied")
	case errors.Is(err, service.ErrNotFound):
		response.Error(c, http.StatusNotFound, errorMessage(err))
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrBayOccupied),
		errors.Is(err, service.ErrUnavailable):
		response.Error(c, http.StatusBadRequest, errorMessage(err))
	case errors.Is(err, service.ErrConflict):
		response.Error(c, http.StatusConflict, errorMessage(err))
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("handler error")
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "Internal server error")
	}
}

// errorMessage drops a leading sentinel prefix and capitalises the rest.
func errorMessage(err error) string {
	message := err.Error()
	for _, sentinel := range []error{service.ErrInvalidInput, service.ErrInvalidTransition, service.ErrConflict} {
		if trimmed := strings.TrimPrefix(message, sentinel.Error()+": "); trimmed != message {
			message = trimmed
			break
		}
	}
	r, size := utf8.DecodeRuneInString(message)
	if r == utf8.RuneError {
		return message
	}
	return string(unicode.ToUpper(r)) + message[size:]
}

func (h *Handler) principal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, "Authentication required")
	}
	return principal, ok
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		response.Error(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func queryInt(c *gin.Context, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}

func queryBool(c *gin.Context, key string) bool {
	value, _ := strconv.ParseBool(c.Query(key))
	return value
}

func queryOptionalBool(c *gin.Context, key string) *bool {
	raw, ok := c.GetQuery(key)
	if !ok {
		return nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return nil
	}
	return &value
}
