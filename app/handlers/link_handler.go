package handlers

import (
	"context"
	"log"
	"regexp"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/linkpulse/linkpulse/app/dto"
	businessflow "github.com/linkpulse/linkpulse/business_flow"
	"github.com/linkpulse/linkpulse/utils"
)

// LinkHandlerInterface defines the contract for link management handlers
type LinkHandlerInterface interface {
	CreateLink(c fiber.Ctx) error
	CreateABTest(c fiber.Ctx) error
	ListLinks(c fiber.Ctx) error
	GetLink(c fiber.Ctx) error
	UpdateLink(c fiber.Ctx) error
	DeleteLink(c fiber.Ctx) error
}

// LinkHandler handles link management HTTP requests
type LinkHandler struct {
	linkFlow  businessflow.LinkFlow
	validator *validator.Validate
}

// NewLinkHandler creates a new link handler
func NewLinkHandler(linkFlow businessflow.LinkFlow) *LinkHandler {
	h := &LinkHandler{
		linkFlow:  linkFlow,
		validator: validator.New(),
	}
	h.registerCustomValidators()
	return h
}

var aliasFormatPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func (h *LinkHandler) registerCustomValidators() {
	h.validator.RegisterValidation("alias_format", func(fl validator.FieldLevel) bool {
		return aliasFormatPattern.MatchString(fl.Field().String())
	})
}

func (h *LinkHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *LinkHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// CreateLink handles link creation
// @Summary Create Link
// @Description Create a new tracked short link
// @Tags Links
// @Accept json
// @Produce json
// @Param request body dto.CreateLinkRequest true "Link creation data"
// @Success 201 {object} dto.APIResponse{data=dto.LinkDTO} "Link created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 409 {object} dto.APIResponse "Custom alias already taken"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/links [post]
func (h *LinkHandler) CreateLink(c fiber.Ctx) error {
	var req dto.CreateLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	metadata := h.clientMetadata(c)

	ctx, cancel := h.createRequestContext(c, "/api/v1/links")
	defer cancel()

	result, err := h.linkFlow.CreateLink(ctx, userID, &req, metadata)
	if err != nil {
		if businessflow.IsAliasTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Custom alias already taken", "ALIAS_TAKEN", nil)
		}
		if businessflow.IsAliasInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Custom alias is invalid", "ALIAS_INVALID", nil)
		}
		if businessflow.IsInvalidURL(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "URL is invalid", "INVALID_URL", nil)
		}

		log.Println("Link creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Link creation failed", "LINK_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Link created successfully", result)
}

// CreateABTest handles A/B variant group creation
// @Summary Create A/B Test
// @Description Create multiple link variants sharing one group id
// @Tags Links
// @Accept json
// @Produce json
// @Param request body dto.CreateABTestRequest true "Variant definitions"
// @Success 201 {object} dto.APIResponse{data=[]dto.LinkDTO} "Variants created"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/links/ab-test [post]
func (h *LinkHandler) CreateABTest(c fiber.Ctx) error {
	var req dto.CreateABTestRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	metadata := h.clientMetadata(c)

	ctx, cancel := h.createRequestContext(c, "/api/v1/links/ab-test")
	defer cancel()

	result, err := h.linkFlow.CreateABTest(ctx, userID, &req, metadata)
	if err != nil {
		if businessflow.IsAliasTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Custom alias already taken", "ALIAS_TAKEN", nil)
		}
		if businessflow.IsInvalidURL(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "URL is invalid", "INVALID_URL", nil)
		}

		log.Println("A/B test creation failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "A/B test creation failed", "AB_TEST_CREATION_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "A/B test created successfully", result)
}

// ListLinks lists the caller's links
// @Summary List Links
// @Description List links owned by the authenticated user, optionally filtered by search text or tag
// @Tags Links
// @Produce json
// @Param search query string false "Search in title, url, description"
// @Param tag query string false "Filter by tag"
// @Success 200 {object} dto.APIResponse{data=dto.ListLinksResponse} "Links"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/links [get]
func (h *LinkHandler) ListLinks(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	search := c.Query("search")
	tag := c.Query("tag")

	ctx, cancel := h.createRequestContext(c, "/api/v1/links")
	defer cancel()

	result, err := h.linkFlow.ListLinks(ctx, userID, search, tag)
	if err != nil {
		log.Println("List links failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list links", "LIST_LINKS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Links retrieved successfully", result)
}

// GetLink returns one link with its click total
// @Summary Get Link
// @Tags Links
// @Produce json
// @Param id path int true "Link ID"
// @Success 200 {object} dto.APIResponse{data=dto.LinkDTO} "Link"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/links/{id} [get]
func (h *LinkHandler) GetLink(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	linkID, err := h.linkIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid link id", "INVALID_LINK_ID", nil)
	}

	ctx, cancel := h.createRequestContext(c, "/api/v1/links/"+c.Params("id"))
	defer cancel()

	result, err := h.linkFlow.GetLink(ctx, userID, linkID)
	if err != nil {
		return h.linkError(c, err, "Get link failed", "GET_LINK_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Link retrieved successfully", result)
}

// UpdateLink updates link fields
// @Summary Update Link
// @Tags Links
// @Accept json
// @Produce json
// @Param id path int true "Link ID"
// @Param request body dto.UpdateLinkRequest true "Fields to update"
// @Success 200 {object} dto.APIResponse{data=dto.LinkDTO} "Updated link"
// @Failure 400 {object} dto.APIResponse "Validation error"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Failure 409 {object} dto.APIResponse "Custom alias already taken"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/links/{id} [put]
func (h *LinkHandler) UpdateLink(c fiber.Ctx) error {
	var req dto.UpdateLinkRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		var validationErrors []string
		for _, err := range err.(validator.ValidationErrors) {
			validationErrors = append(validationErrors, getValidationErrorMessage(err))
		}
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationErrors)
	}

	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	linkID, err := h.linkIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid link id", "INVALID_LINK_ID", nil)
	}

	metadata := h.clientMetadata(c)

	ctx, cancel := h.createRequestContext(c, "/api/v1/links/"+c.Params("id"))
	defer cancel()

	result, err := h.linkFlow.UpdateLink(ctx, userID, linkID, &req, metadata)
	if err != nil {
		if businessflow.IsAliasTaken(err) {
			return h.ErrorResponse(c, fiber.StatusConflict, "Custom alias already taken", "ALIAS_TAKEN", nil)
		}
		if businessflow.IsAliasInvalid(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Custom alias is invalid", "ALIAS_INVALID", nil)
		}
		if businessflow.IsInvalidURL(err) {
			return h.ErrorResponse(c, fiber.StatusBadRequest, "URL is invalid", "INVALID_URL", nil)
		}
		return h.linkError(c, err, "Update link failed", "UPDATE_LINK_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Link updated successfully", result)
}

// DeleteLink removes a link and its analytics
// @Summary Delete Link
// @Tags Links
// @Produce json
// @Param id path int true "Link ID"
// @Success 200 {object} dto.APIResponse "Link deleted"
// @Failure 404 {object} dto.APIResponse "Link not found"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /api/v1/links/{id} [delete]
func (h *LinkHandler) DeleteLink(c fiber.Ctx) error {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User ID not found in context", "MISSING_USER_ID", nil)
	}

	linkID, err := h.linkIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid link id", "INVALID_LINK_ID", nil)
	}

	metadata := h.clientMetadata(c)

	ctx, cancel := h.createRequestContext(c, "/api/v1/links/"+c.Params("id"))
	defer cancel()

	if err := h.linkFlow.DeleteLink(ctx, userID, linkID, metadata); err != nil {
		return h.linkError(c, err, "Delete link failed", "DELETE_LINK_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Link deleted successfully", nil)
}

// linkError maps shared link business errors to HTTP responses
func (h *LinkHandler) linkError(c fiber.Ctx, err error, logMessage, fallbackCode string) error {
	if businessflow.IsLinkNotFound(err) {
		return h.ErrorResponse(c, fiber.StatusNotFound, "Link not found", "LINK_NOT_FOUND", nil)
	}
	if businessflow.IsLinkAccessDenied(err) {
		return h.ErrorResponse(c, fiber.StatusForbidden, "Link access denied", "LINK_ACCESS_DENIED", nil)
	}
	log.Println(logMessage, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, logMessage, fallbackCode, nil)
}

func (h *LinkHandler) linkIDParam(c fiber.Ctx) (uint, error) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}

func (h *LinkHandler) clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(clientIP(c), c.Get("User-Agent"))
	metadata.SetRequestID(c.Get("X-Request-ID"))
	return metadata
}

func (h *LinkHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *LinkHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, clientIP(c))
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	return ctx, cancel
}
