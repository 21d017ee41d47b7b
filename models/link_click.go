package models

import "time"

// LinkClick is one resolved, classified visit stored in the flat per-link
// list. Every click lands here exactly once regardless of platform; the
// per-platform copy lives in PlatformClick. Rows are immutable once written
// and are only bulk-deleted together with the parent link.
type LinkClick struct {
	ID     uint  `gorm:"primaryKey" json:"id"`
	LinkID uint  `gorm:"not null;index:idx_link_clicks_link_id" json:"link_id"`
	Link   *Link `gorm:"foreignKey:LinkID;references:ID" json:"-"`

	Platform PlatformTag `gorm:"size:16;not null" json:"platform"`

	IP        string `gorm:"size:64" json:"ip"`
	Referrer  string `gorm:"type:text" json:"referrer"`
	UserAgent string `gorm:"type:text" json:"user_agent"`

	// Resolved client signals; empty when lookup degrades.
	Country   string  `gorm:"size:64" json:"country"`
	City      string  `gorm:"size:64" json:"city"`
	Region    string  `gorm:"size:64" json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	ISP       string  `gorm:"size:128" json:"isp"`

	DeviceType string `gorm:"size:16" json:"device_type"`
	Browser    string `gorm:"size:32" json:"browser"`

	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP;index:idx_link_clicks_created_at" json:"created_at"`
}

// TableName returns the table name for LinkClick
func (LinkClick) TableName() string { return "link_clicks" }

// DailyClickCount is one day's click total in a time-series aggregate
type DailyClickCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// LinkClickFilter provides filter fields for repository queries
type LinkClickFilter struct {
	ID            *uint
	LinkID        *uint
	Platform      *PlatformTag
	Country       *string
	DeviceType    *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
}
