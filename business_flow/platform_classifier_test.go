package businessflow

import (
	"testing"

	"github.com/linkpulse/linkpulse/models"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPlatform(t *testing.T) {
	const desktopAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Firefox/120.0"

	t.Run("EmptyReferrerIsDirect", func(t *testing.T) {
		assert.Equal(t, models.PlatformDirect, ClassifyPlatform("", desktopAgent))
		assert.Equal(t, models.PlatformDirect, ClassifyPlatform("   ", desktopAgent))
	})

	t.Run("EmptyReferrerIgnoresAgentHints", func(t *testing.T) {
		// Direct wins over any user-agent signal
		assert.Equal(t, models.PlatformDirect, ClassifyPlatform("", "WhatsApp/2.23.20 A"))
	})

	t.Run("ReferrerDomains", func(t *testing.T) {
		cases := map[string]models.PlatformTag{
			"https://www.facebook.com/some/post": models.PlatformFacebook,
			"https://m.fb.com/story":             models.PlatformFacebook,
			"https://twitter.com/status/123":     models.PlatformTwitter,
			"https://x.com/status/123":           models.PlatformTwitter,
			"https://www.instagram.com/p/abc":    models.PlatformInstagram,
			"https://web.whatsapp.com/":          models.PlatformWhatsapp,
			"https://www.linkedin.com/feed":      models.PlatformLinkedin,
			"https://www.tiktok.com/@user":       models.PlatformTiktok,
			"https://www.youtube.com/watch?v=x":  models.PlatformYoutube,
			"https://youtu.be/x":                 models.PlatformYoutube,
			"https://t.me/channel/42":            models.PlatformTelegram,
			"https://mail.google.com/mail/u/0":   models.PlatformEmail,
			"https://outlook.com/owa":            models.PlatformEmail,
			"https://mail.yahoo.com/d/folders":   models.PlatformEmail,
			"https://news.ycombinator.com/item":  models.PlatformOther,
			"https://example.com/blog":           models.PlatformOther,
		}
		for referrer, want := range cases {
			assert.Equal(t, want, ClassifyPlatform(referrer, desktopAgent), "referrer %q", referrer)
		}
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		assert.Equal(t, models.PlatformFacebook, ClassifyPlatform("https://WWW.FACEBOOK.COM/post", desktopAgent))
	})

	t.Run("FirstMatchWins", func(t *testing.T) {
		// A referrer mentioning both domains classifies by rule order
		ref := "https://www.facebook.com/share?u=https://twitter.com/status"
		assert.Equal(t, models.PlatformFacebook, ClassifyPlatform(ref, desktopAgent))
	})

	t.Run("AgentFallbacks", func(t *testing.T) {
		// Non-empty referrer with no domain match, classified by user-agent
		assert.Equal(t, models.PlatformWhatsapp, ClassifyPlatform("https://unknown.example/x", "WhatsApp/2.23.20 A"))
		assert.Equal(t, models.PlatformTelegram, ClassifyPlatform("https://unknown.example/x", "TelegramBot (like TwitterBot)"))
	})

	t.Run("AlwaysReturnsValidTag", func(t *testing.T) {
		referrers := []string{"", "garbage", "https://a.b.c/d?e=f", "\x00\xff", "https://x.com"}
		agents := []string{"", desktopAgent, "WhatsApp", "\t\n"}
		for _, ref := range referrers {
			for _, agent := range agents {
				tag := ClassifyPlatform(ref, agent)
				assert.True(t, tag.IsValid(), "referrer %q agent %q produced %q", ref, agent, tag)
			}
		}
	})
}

func TestMatchMilestone(t *testing.T) {
	t.Run("ExactThresholds", func(t *testing.T) {
		for _, m := range ClickMilestones {
			assert.Equal(t, m, matchMilestone(int64(m)))
		}
	})

	t.Run("NearMisses", func(t *testing.T) {
		for _, total := range []int64{0, 1, 4, 6, 99, 101, 499, 501, 9999, 10001} {
			assert.Zero(t, matchMilestone(total), "total %d", total)
		}
	})
}
