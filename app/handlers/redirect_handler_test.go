package handlers

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	businessflow "github.com/linkpulse/linkpulse/business_flow"
	"github.com/linkpulse/linkpulse/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type visitFlowStub struct {
	metadata *businessflow.ClientMetadata
	result   *businessflow.VisitResult
	err      error
}

func (s *visitFlowStub) Visit(ctx context.Context, identifier string, metadata *businessflow.ClientMetadata) (*businessflow.VisitResult, error) {
	s.metadata = metadata
	return s.result, s.err
}

func newVisitTestApp(stub *visitFlowStub) *fiber.App {
	app := fiber.New()
	app.Get("/links/t/:identifier", NewRedirectHandler(stub).Visit)
	return app
}

func TestVisitClientIP(t *testing.T) {
	t.Run("ForwardedForPrefersFirstEntry", func(t *testing.T) {
		stub := &visitFlowStub{result: &businessflow.VisitResult{
			TargetURL: "https://example.com/landing",
			Platform:  models.PlatformDirect,
			Recorded:  true,
		}}
		app := newVisitTestApp(stub)

		req := httptest.NewRequest("GET", "/links/t/abc123", nil)
		req.Header.Set("X-Forwarded-For", "198.51.100.7, 203.0.113.9")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusFound, resp.StatusCode)
		assert.Equal(t, "https://example.com/landing", resp.Header.Get("Location"))
		require.NotNil(t, stub.metadata)
		assert.Equal(t, "198.51.100.7", stub.metadata.IPAddress)
	})

	t.Run("NoForwardedHeaderUsesConnectionAddress", func(t *testing.T) {
		stub := &visitFlowStub{result: &businessflow.VisitResult{
			TargetURL: "https://example.com/landing",
			Platform:  models.PlatformDirect,
		}}
		app := newVisitTestApp(stub)

		resp, err := app.Test(httptest.NewRequest("GET", "/links/t/abc123", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		require.NotNil(t, stub.metadata)
		assert.Equal(t, "0.0.0.0", stub.metadata.IPAddress)
	})

	t.Run("BlankForwardedHeaderUsesConnectionAddress", func(t *testing.T) {
		stub := &visitFlowStub{result: &businessflow.VisitResult{
			TargetURL: "https://example.com/landing",
			Platform:  models.PlatformDirect,
		}}
		app := newVisitTestApp(stub)

		req := httptest.NewRequest("GET", "/links/t/abc123", nil)
		req.Header.Set("X-Forwarded-For", "  ,203.0.113.9")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.NotNil(t, stub.metadata)
		assert.Equal(t, "0.0.0.0", stub.metadata.IPAddress)
	})

	t.Run("UnknownLinkIs404", func(t *testing.T) {
		stub := &visitFlowStub{err: businessflow.ErrLinkNotFound}
		app := newVisitTestApp(stub)

		resp, err := app.Test(httptest.NewRequest("GET", "/links/t/missing", nil))
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	})
}
