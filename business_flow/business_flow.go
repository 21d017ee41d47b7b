// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/linkpulse/linkpulse/app/dto"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/utils"
)

const RequestIDKey = "X-Request-ID"

// ClientMetadata holds all client-related information for audit logging and session tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	Referrer   string            `json:"referrer,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToAuthUserDTO converts a user model to AuthUserDTO for authentication responses
func ToAuthUserDTO(user models.User) dto.AuthUserDTO {
	return dto.AuthUserDTO{
		ID:              user.ID,
		UUID:            user.UUID.String(),
		Username:        user.Username,
		Email:           user.Email,
		Credits:         user.Credits,
		IsEmailVerified: user.IsEmailVerified,
		IsActive:        user.IsActive,
		CreatedAt:       user.CreatedAt.Format(time.RFC3339),
	}
}

// ToLinkDTO converts a link model to LinkDTO. baseURL is the public origin
// used to render the short URL; totalClicks is supplied by the caller because
// the model itself carries no aggregate.
func ToLinkDTO(link models.Link, baseURL string, totalClicks int64) dto.LinkDTO {
	identifier := link.TrackingID
	if link.CustomAlias != nil && *link.CustomAlias != "" {
		identifier = *link.CustomAlias
	}
	return dto.LinkDTO{
		ID:          link.ID,
		TrackingID:  link.TrackingID,
		CustomAlias: link.CustomAlias,
		GroupID:     link.GroupID,
		URL:         link.URL,
		Title:       link.Title,
		Description: link.Description,
		Tags:        link.Tags,
		ShortURL:    baseURL + "/links/l/" + identifier,
		TotalClicks: totalClicks,
		CreatedAt:   link.CreatedAt,
		UpdatedAt:   link.UpdatedAt,
	}
}

// ToClickDTO converts a flat click event to ClickDTO
func ToClickDTO(click models.LinkClick) dto.ClickDTO {
	return dto.ClickDTO{
		ID:         click.ID,
		Platform:   click.Platform.String(),
		IP:         click.IP,
		Referrer:   click.Referrer,
		Country:    click.Country,
		City:       click.City,
		Region:     click.Region,
		ISP:        click.ISP,
		DeviceType: click.DeviceType,
		Browser:    click.Browser,
		CreatedAt:  click.CreatedAt,
	}
}

// ToNotificationDTO converts a notification model to NotificationDTO
func ToNotificationDTO(n models.Notification) dto.NotificationDTO {
	return dto.NotificationDTO{
		ID:        n.ID,
		Type:      n.Type,
		Message:   n.Message,
		LinkID:    n.LinkID,
		GroupID:   n.GroupID,
		Milestone: n.Milestone,
		Read:      utils.IsTrue(n.Read),
		CreatedAt: n.CreatedAt,
	}
}
