// Package models contains domain entities and business models for the link tracking system
package models

// PlatformTag classifies the traffic source of a click. The set is fixed and
// closed: analytics buckets exist for every tag and for no other value.
type PlatformTag string

const (
	PlatformFacebook  PlatformTag = "facebook"
	PlatformTwitter   PlatformTag = "twitter"
	PlatformInstagram PlatformTag = "instagram"
	PlatformWhatsapp  PlatformTag = "whatsapp"
	PlatformLinkedin  PlatformTag = "linkedin"
	PlatformTiktok    PlatformTag = "tiktok"
	PlatformYoutube   PlatformTag = "youtube"
	PlatformTelegram  PlatformTag = "telegram"
	PlatformEmail     PlatformTag = "email"
	PlatformDirect    PlatformTag = "direct"
	PlatformOther     PlatformTag = "other"
)

// AllPlatformTags returns every platform tag in classifier precedence order,
// with direct and other last. Analytics responses include a bucket for each.
func AllPlatformTags() []PlatformTag {
	return []PlatformTag{
		PlatformFacebook,
		PlatformTwitter,
		PlatformInstagram,
		PlatformWhatsapp,
		PlatformLinkedin,
		PlatformTiktok,
		PlatformYoutube,
		PlatformTelegram,
		PlatformEmail,
		PlatformDirect,
		PlatformOther,
	}
}

// IsValid reports whether t belongs to the closed platform tag set.
func (t PlatformTag) IsValid() bool {
	switch t {
	case PlatformFacebook, PlatformTwitter, PlatformInstagram, PlatformWhatsapp,
		PlatformLinkedin, PlatformTiktok, PlatformYoutube, PlatformTelegram,
		PlatformEmail, PlatformDirect, PlatformOther:
		return true
	}
	return false
}

func (t PlatformTag) String() string { return string(t) }
