package businessflow

import (
	"strings"

	"github.com/linkpulse/linkpulse/models"
)

// platformRule is one classifier entry. Referrer substrings are checked
// first; for a fixed subset a user-agent substring also matches.
type platformRule struct {
	tag         models.PlatformTag
	referrerSub []string
	agentSub    []string
}

// Rules are ordered; the first match wins. A referrer containing both
// facebook.com and twitter.com classifies as facebook.
var platformRules = []platformRule{
	{tag: models.PlatformFacebook, referrerSub: []string{"facebook.com", "fb.com"}},
	{tag: models.PlatformTwitter, referrerSub: []string{"twitter.com", "x.com"}},
	{tag: models.PlatformInstagram, referrerSub: []string{"instagram.com"}},
	{tag: models.PlatformWhatsapp, referrerSub: []string{"whatsapp.com"}, agentSub: []string{"whatsapp"}},
	{tag: models.PlatformLinkedin, referrerSub: []string{"linkedin.com"}},
	{tag: models.PlatformTiktok, referrerSub: []string{"tiktok.com"}},
	{tag: models.PlatformYoutube, referrerSub: []string{"youtube.com", "youtu.be"}},
	{tag: models.PlatformTelegram, referrerSub: []string{"t.me"}, agentSub: []string{"telegram"}},
	{tag: models.PlatformEmail, referrerSub: []string{"mail.google.com", "outlook.com", "yahoo.com"}},
}

// ClassifyPlatform maps untrusted referrer and user-agent strings to a
// platform tag. Pure and total: it never fails, and always returns a member
// of the closed tag set. An empty referrer is direct traffic regardless of
// user-agent hints.
func ClassifyPlatform(referrer, userAgent string) models.PlatformTag {
	if strings.TrimSpace(referrer) == "" {
		return models.PlatformDirect
	}

	ref := strings.ToLower(referrer)
	agent := strings.ToLower(userAgent)

	for _, rule := range platformRules {
		for _, sub := range rule.referrerSub {
			if strings.Contains(ref, sub) {
				return rule.tag
			}
		}
		for _, sub := range rule.agentSub {
			if strings.Contains(agent, sub) {
				return rule.tag
			}
		}
	}

	return models.PlatformOther
}
