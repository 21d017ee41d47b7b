package handlers

import (
	"context"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/linkpulse/linkpulse/app/middleware"
	businessflow "github.com/linkpulse/linkpulse/business_flow"
	"github.com/linkpulse/linkpulse/utils"
)

// RedirectHandlerInterface defines the contract for the public visit endpoint
type RedirectHandlerInterface interface {
	Visit(c fiber.Ctx) error
}

type RedirectHandler struct {
	flow businessflow.VisitFlow
}

func NewRedirectHandler(flow businessflow.VisitFlow) RedirectHandlerInterface {
	return &RedirectHandler{flow: flow}
}

// Visit resolves a public link identifier, records the click and redirects
// @Summary Visit Link
// @Description Resolve a tracking id or custom alias, record the click and redirect to the destination
// @Tags Links
// @Produce json
// @Param identifier path string true "Tracking id or custom alias"
// @Success 302 {string} string "Redirect"
// @Failure 404 {object} any
// @Failure 500 {object} any
// @Router /links/t/{identifier} [get]
func (h *RedirectHandler) Visit(c fiber.Ctx) error {
	identifier := c.Params("identifier")
	if identifier == "" {
		return c.Status(fiber.StatusBadRequest).SendString("invalid link")
	}

	metadata := businessflow.NewClientMetadata(clientIP(c), c.Get("User-Agent"))
	metadata.Referrer = c.Get("Referer")
	metadata.SetRequestID(c.Get("X-Request-ID"))

	ctx, cancel := h.createRequestContext(c, "/links/t/"+identifier)
	defer cancel()

	result, err := h.flow.Visit(ctx, identifier, metadata)
	if err != nil {
		if businessflow.IsLinkNotFound(err) {
			return c.Status(fiber.StatusNotFound).SendString("not found")
		}
		log.Println("Visit link failed", err)
		return c.Status(fiber.StatusInternalServerError).SendString("internal error")
	}

	if result.Recorded {
		middleware.RecordClick(result.Platform.String())
	}
	if result.Milestone != 0 {
		middleware.RecordMilestone(result.Milestone)
	}

	c.Redirect().Status(fiber.StatusFound).To(result.TargetURL)
	return nil
}

func (h *RedirectHandler) createRequestContext(c fiber.Ctx, endpoint string) (context.Context, context.CancelFunc) {
	return h.createRequestContextWithTimeout(c, endpoint, 10*time.Second)
}

func (h *RedirectHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, clientIP(c))
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	return ctx, cancel
}
