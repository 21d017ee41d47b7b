package handlers

import (
	"context"
	"log"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/linkpulse/linkpulse/app/dto"
	businessflow "github.com/linkpulse/linkpulse/business_flow"
	"github.com/linkpulse/linkpulse/utils"
)

// NotificationHandlerInterface defines the contract for notification handlers
type NotificationHandlerInterface interface {
	ListNotifications(c fiber.Ctx) error
	MarkRead(c fiber.Ctx) error
	MarkAllRead(c fiber.Ctx) error
}

// NotificationHandler handles notification HTTP requests
type NotificationHandler struct {
	notificationFlow businessflow.NotificationFlow
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notificationFlow businessflow.NotificationFlow) *NotificationHandler {
	return &NotificationHandler{notificationFlow: notificationFlow}
}

func (h *NotificationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *NotificationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListNotifications lists the caller's notifications
// @Summary List Notifications
// @Tags Notifications
// @Produce json
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=dto.ListNotificationsResponse} "Notifications"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/notifications [get]
func (h *NotificationHandler) ListNotifications(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	limit, offset := paginationParams(c)

	ctx, cancel := h.createRequestContext(c, "/api/v1/notifications")
	defer cancel()

	result, err := h.notificationFlow.ListNotifications(ctx, userID, limit, offset)
	if err != nil {
		log.Println("List notifications failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list notifications", "LIST_NOTIFICATIONS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Notifications retrieved successfully", result)
}

// MarkRead marks one notification read
// @Summary Mark Notification Read
// @Tags Notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} dto.APIResponse "Marked read"
// @Failure 404 {object} dto.APIResponse "Notification not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	notificationID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid notification id", "INVALID_NOTIFICATION_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/notifications/"+c.Params("id")+"/read")
	defer cancel()

	if err := h.notificationFlow.MarkRead(ctx, userID, uint(notificationID)); err != nil {
		if businessflow.IsNotificationNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Notification not found", "NOTIFICATION_NOT_FOUND", nil)
		}
		log.Println("Mark notification read failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to mark notification read", "MARK_READ_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Notification marked read", nil)
}

// MarkAllRead marks every unread notification of the caller read
// @Summary Mark All Notifications Read
// @Tags Notifications
// @Produce json
// @Success 200 {object} dto.APIResponse "Marked read"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/notifications/read-all [post]
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/notifications/read-all")
	defer cancel()

	if err := h.notificationFlow.MarkAllRead(ctx, userID); err != nil {
		log.Println("Mark all notifications read failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to mark notifications read", "MARK_ALL_READ_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "All notifications marked read", nil)
}

func (h *NotificationHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *NotificationHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, clientIP(c))
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	return ctx, cancel
}
