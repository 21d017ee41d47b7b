package businessflow

import (
	"testing"

	"github.com/linkpulse/linkpulse/app/services"
	"github.com/stretchr/testify/assert"
)

func TestSignalExtractor(t *testing.T) {
	t.Run("NilCollaboratorsDegradeGracefully", func(t *testing.T) {
		extractor := NewSignalExtractor(nil, nil)

		signals := extractor.Extract("203.0.113.10", "https://t.me/x", "Mozilla/5.0")
		assert.Equal(t, "203.0.113.10", signals.IP)
		assert.Equal(t, "https://t.me/x", signals.Referrer)
		assert.Equal(t, "Mozilla/5.0", signals.UserAgent)
		assert.Equal(t, "desktop", signals.DeviceType)
		assert.Empty(t, signals.Country)
		assert.Empty(t, signals.ISP)
	})

	t.Run("AgentServiceFillsDeviceInfo", func(t *testing.T) {
		extractor := NewSignalExtractor(nil, services.NewAgentService())

		signals := extractor.Extract("203.0.113.10", "",
			"Mozilla/5.0 (iPhone; CPU iPhone OS 16_0 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/16.0 Mobile/15E148 Safari/604.1")
		assert.Equal(t, "mobile", signals.DeviceType)
		assert.NotEmpty(t, signals.Browser)
	})

	t.Run("EmptyInputStaysEmpty", func(t *testing.T) {
		extractor := NewSignalExtractor(nil, services.NewAgentService())

		signals := extractor.Extract("", "", "")
		assert.Empty(t, signals.IP)
		assert.Equal(t, "desktop", signals.DeviceType)
	})
}
