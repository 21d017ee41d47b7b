package models

import "time"

// PlatformClick is the per-platform bucket copy of a click event. Each
// recorded click is written to exactly one bucket (its classified platform)
// and once to the flat LinkClick list, in the same transaction, so the flat
// list length always equals the sum of all bucket lengths for a link.
// Ordering within a bucket is insertion order.
type PlatformClick struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	LinkID uint  `gorm:"not null;index:idx_platform_clicks_link_platform,priority:1" json:"link_id"`
	Link   *Link `gorm:"foreignKey:LinkID;references:ID" json:"-"`

	Platform PlatformTag `gorm:"size:16;not null;index:idx_platform_clicks_link_platform,priority:2" json:"platform"`

	IP        string `gorm:"size:64" json:"ip"`
	Referrer  string `gorm:"type:text" json:"referrer"`
	UserAgent string `gorm:"type:text" json:"user_agent"`

	Country   string  `gorm:"size:64" json:"country"`
	City      string  `gorm:"size:64" json:"city"`
	Region    string  `gorm:"size:64" json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ISP       string  `gorm:"size:128" json:"isp"`

	DeviceType string `gorm:"size:16" json:"device_type"`
	Browser    string `gorm:"size:32" json:"browser"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_platform_clicks_created_at" json:"created_at"`
}

// TableName returns the table name for PlatformClick
func (PlatformClick) TableName() string { return "platform_clicks" }

// PlatformClickFilter provides filter fields for repository queries
type PlatformClickFilter struct {
	ID            *uint
	LinkID        *uint
	Platform      *PlatformTag
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
