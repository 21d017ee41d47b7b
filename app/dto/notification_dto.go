package dto

import "time"

// NotificationDTO represents notification data for API responses
type NotificationDTO struct {
	ID        uint      `json:"id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	LinkID    *uint     `json:"link_id,omitempty"`
	GroupID   *string   `json:"group_id,omitempty"`
	Milestone *int      `json:"milestone,omitempty"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}

// ListNotificationsResponse represents a page of notifications
type ListNotificationsResponse struct {
	Notifications []NotificationDTO `json:"notifications"`
	Unread        int64             `json:"unread"`
}

// MarkReadRequest marks a single notification as read
type MarkReadRequest struct {
	NotificationID uint `json:"notification_id" validate:"required"`
}
