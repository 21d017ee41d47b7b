package dto

import "time"

// CreateLinkRequest represents the payload for creating a short link
type CreateLinkRequest struct {
	URL         string   `json:"url" validate:"required,url,max=2048"`
	Title       string   `json:"title" validate:"required,max=100"`
	Description *string  `json:"description,omitempty" validate:"omitempty,max=500"`
	Tags        []string `json:"tags,omitempty" validate:"omitempty,dive,max=32"`
	CustomAlias *string  `json:"custom_alias,omitempty" validate:"omitempty,min=3,max=64,alias_format"`
	GroupID     *string  `json:"group_id,omitempty" validate:"omitempty,uuid"`
}

// CreateABTestRequest represents the payload for creating a set of links
// sharing one group id for split testing
type CreateABTestRequest struct {
	Variants []CreateLinkRequest `json:"variants" validate:"required,min=2,max=10,dive"`
}

// UpdateLinkRequest represents the payload for updating a short link
type UpdateLinkRequest struct {
	URL         *string   `json:"url,omitempty" validate:"omitempty,url,max=2048"`
	Title       *string   `json:"title,omitempty" validate:"omitempty,max=100"`
	Description *string   `json:"description,omitempty" validate:"omitempty,max=500"`
	Tags        *[]string `json:"tags,omitempty" validate:"omitempty,dive,max=32"`
	CustomAlias *string   `json:"custom_alias,omitempty" validate:"omitempty,min=3,max=64,alias_format"`
}

// LinkDTO represents link data for API responses
type LinkDTO struct {
	ID          uint      `json:"id"`
	TrackingID  string    `json:"tracking_id"`
	CustomAlias *string   `json:"custom_alias,omitempty"`
	GroupID     *string   `json:"group_id,omitempty"`
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	ShortURL    string    `json:"short_url"`
	TotalClicks int64     `json:"total_clicks"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ListLinksResponse represents a page of links
type ListLinksResponse struct {
	Links []LinkDTO `json:"links"`
	Total int64     `json:"total"`
}
