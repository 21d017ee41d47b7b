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

// AnalyticsHandlerInterface defines the contract for analytics handlers
type AnalyticsHandlerInterface interface {
	LinkStats(c fiber.Ctx) error
	PlatformClicks(c fiber.Ctx) error
	GroupStats(c fiber.Ctx) error
	ExportLinkClicks(c fiber.Ctx) error
}

// AnalyticsHandler handles analytics HTTP requests
type AnalyticsHandler struct {
	analyticsFlow businessflow.AnalyticsFlow
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsFlow businessflow.AnalyticsFlow) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsFlow: analyticsFlow}
}

func (h *AnalyticsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AnalyticsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// LinkStats returns aggregate analytics for one link
// @Summary Link Stats
// @Description Per-platform click counts plus recent click events for a link
// @Tags Analytics
// @Produce json
// @Param id path int true "Link ID"
// @Param recent query int false "Number of recent clicks to include"
// @Success 200 {object} dto.APIResponse{data=dto.LinkStatsResponse} "Stats"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/links/{id}/stats [get]
func (h *AnalyticsHandler) LinkStats(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	linkID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid link id", "INVALID_LINK_ID", nil)
	}

	recent := 10
	if v := c.Query("recent"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 100 {
			recent = n
		}
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/links/"+c.Params("id")+"/stats")
	defer cancel()

	result, err := h.analyticsFlow.LinkStats(ctx, userID, uint(linkID), recent)
	if err != nil {
		return h.analyticsError(c, err, "Link stats failed", "LINK_STATS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Stats retrieved successfully", result)
}

// PlatformClicks lists clicks from one platform bucket
// @Summary Platform Clicks
// @Tags Analytics
// @Produce json
// @Param id path int true "Link ID"
// @Param platform path string true "Platform tag"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} dto.APIResponse{data=[]dto.ClickDTO} "Clicks"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/links/{id}/clicks/{platform} [get]
func (h *AnalyticsHandler) PlatformClicks(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	linkID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid link id", "INVALID_LINK_ID", nil)
	}

	limit, offset := paginationParams(c)

	ctx, cancel := h.createRequestContext(c, "/api/v1/links/"+c.Params("id")+"/clicks/"+c.Params("platform"))
	defer cancel()

	result, err := h.analyticsFlow.PlatformClicks(ctx, userID, uint(linkID), c.Params("platform"), limit, offset)
	if err != nil {
		return h.analyticsError(c, err, "Platform clicks failed", "PLATFORM_CLICKS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Clicks retrieved successfully", result)
}

// GroupStats compares the variants of one A/B group
// @Summary Group Stats
// @Tags Analytics
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} dto.APIResponse{data=dto.GroupStatsResponse} "Group stats"
// @Failure 404 {object} dto.APIResponse "Group not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/groups/{groupId}/stats [get]
func (h *AnalyticsHandler) GroupStats(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	groupID := c.Params("groupId")
	if groupID == "" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Group id is required", "INVALID_GROUP_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/groups/"+groupID+"/stats")
	defer cancel()

	result, err := h.analyticsFlow.GroupStats(ctx, userID, groupID)
	if err != nil {
		if businessflow.IsGroupNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Group not found", "GROUP_NOT_FOUND", nil)
		}
		return h.analyticsError(c, err, "Group stats failed", "GROUP_STATS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Group stats retrieved successfully", result)
}

// ExportLinkClicks downloads the link's click history as an Excel workbook
// @Summary Export Link Clicks
// @Tags Analytics
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Link ID"
// @Success 200 {file} binary "Excel file"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/links/{id}/export [get]
func (h *AnalyticsHandler) ExportLinkClicks(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	linkID, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid link id", "INVALID_LINK_ID", nil)
	}

	ctx, cancel := h.createRequestContextWithTimeout(c, "/api/v1/links/"+c.Params("id")+"/export", 60*time.Second)
	defer cancel()

	filename, content, err := h.analyticsFlow.ExportLinkClicksExcel(ctx, userID, uint(linkID))
	if err != nil {
		return h.analyticsError(c, err, "Export failed", "EXPORT_FAILED")
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(content)
}

func (h *AnalyticsHandler) analyticsError(c fiber.Ctx, err error, logMessage, fallbackCode string) error {
	if businessflow.IsLinkNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Link not found", "LINK_NOT_FOUND", nil)
	}
	if businessflow.IsLinkAccessDenied(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Link access denied", "LINK_ACCESS_DENIED", nil)
	}
	log.Println(logMessage, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, logMessage, fallbackCode, nil)
}

func paginationParams(c fiber.Ctx) (limit, offset int) {
	limit = 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}

func (h *AnalyticsHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *AnalyticsHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, clientIP(c))
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	return ctx, cancel
}
