package models

import "time"

// Link is the central tracked entity. TrackingID is the system-generated short
// code; CustomAlias is an optional user-chosen one. Both are globally unique
// and resolve through the same public route.
// GroupID ties sibling A/B variants of the same destination together; when
// absent the link is its own group.
type Link struct {
	ID          uint    `gorm:"primaryKey" json:"id"`
	TrackingID  string  `gorm:"size:16;not null;uniqueIndex:uk_links_tracking_id" json:"tracking_id"`
	CustomAlias *string `gorm:"size:64;uniqueIndex:uk_links_custom_alias" json:"custom_alias,omitempty"`
	GroupID     *string `gorm:"size:36;index:idx_links_group_id" json:"group_id,omitempty"`

	UserID uint  `gorm:"not null;index:idx_links_user_id" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID;references:ID" json:"-"`

	URL         string   `gorm:"type:text;not null" json:"url"`
	Title       string   `gorm:"size:100;not null" json:"title"`
	Description *string  `gorm:"size:500" json:"description,omitempty"`
	Tags        []string `gorm:"serializer:json;type:text" json:"tags"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_links_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName returns the table name for Link
func (Link) TableName() string { return "links" }

// EffectiveGroupID returns the group the link belongs to: the explicit GroupID
// when present, otherwise the link's own tracking id.
func (l *Link) EffectiveGroupID() string {
	if l.GroupID != nil && *l.GroupID != "" {
		return *l.GroupID
	}
	return l.TrackingID
}

// LinkFilter provides filter fields for repository queries
type LinkFilter struct {
	ID            *uint
	TrackingID    *string
	CustomAlias   *string
	GroupID       *string
	UserID        *uint
	Tag           *string
	Search        *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
