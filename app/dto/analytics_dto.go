package dto

import "time"

// ClickDTO represents a single recorded click for API responses
type ClickDTO struct {
	ID         uint      `json:"id"`
	Platform   string    `json:"platform"`
	IP         string    `json:"ip,omitempty"`
	Referrer   string    `json:"referrer,omitempty"`
	Country    string    `json:"country,omitempty"`
	City       string    `json:"city,omitempty"`
	Region     string    `json:"region,omitempty"`
	ISP        string    `json:"isp,omitempty"`
	DeviceType string    `json:"device_type,omitempty"`
	Browser    string    `json:"browser,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// LinkStatsResponse represents aggregate analytics for a single link
type LinkStatsResponse struct {
	LinkID       uint             `json:"link_id"`
	TrackingID   string           `json:"tracking_id"`
	Title        string           `json:"title"`
	TotalClicks  int64            `json:"total_clicks"`
	Platforms    map[string]int64 `json:"platforms"`
	Devices      map[string]int64 `json:"devices,omitempty"`
	Browsers     map[string]int64 `json:"browsers,omitempty"`
	Countries    map[string]int64 `json:"countries,omitempty"`
	Daily        []DailyCount     `json:"daily,omitempty"`
	RecentClicks []ClickDTO       `json:"recent_clicks,omitempty"`
}

// DailyCount is one day's total in the click time-series
type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// GroupStatsVariant represents one variant's share of an A/B group
type GroupStatsVariant struct {
	LinkID      uint    `json:"link_id"`
	TrackingID  string  `json:"tracking_id"`
	Title       string  `json:"title"`
	TotalClicks int64   `json:"total_clicks"`
	Share       float64 `json:"share"`
}

// GroupStatsResponse represents aggregate analytics across an A/B group
type GroupStatsResponse struct {
	GroupID     string              `json:"group_id"`
	TotalClicks int64               `json:"total_clicks"`
	Platforms   map[string]int64    `json:"platforms"`
	Variants    []GroupStatsVariant `json:"variants"`
}
