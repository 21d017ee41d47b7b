package models

import "time"

// Notification type constants
const (
	NotificationTypeMilestone = "milestone"
	NotificationTypeSystem    = "system"
	NotificationTypeOther     = "other"
)

// Notification records a milestone achievement (or system message) for a
// user. For milestone notifications the unique index on
// (link_id, milestone, type) is the idempotency guard: a second concurrent
// insert for the same threshold fails at the storage layer instead of racing.
type Notification struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	UserID uint  `gorm:"not null;index:idx_notifications_user_id" json:"user_id"`
	User   *User `gorm:"foreignKey:UserID;references:ID" json:"-"`

	Type    string `gorm:"size:16;not null;default:milestone;uniqueIndex:uk_notifications_link_milestone_type,priority:3" json:"type"`
	Message string `gorm:"type:text;not null" json:"message"`

	LinkID    *uint   `gorm:"index:idx_notifications_link_id;uniqueIndex:uk_notifications_link_milestone_type,priority:1" json:"link_id,omitempty"`
	GroupID   *string `gorm:"size:36" json:"group_id,omitempty"`
	Milestone *int    `gorm:"uniqueIndex:uk_notifications_link_milestone_type,priority:2" json:"milestone,omitempty"`

	Read *bool `gorm:"default:false;index:idx_notifications_read" json:"read"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_notifications_created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName returns the table name for Notification
func (Notification) TableName() string { return "notifications" }

// NotificationFilter provides filter fields for repository queries
type NotificationFilter struct {
	ID            *uint
	UserID        *uint
	Type          *string
	LinkID        *uint
	GroupID       *string
	Milestone     *int
	Read          *bool
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
