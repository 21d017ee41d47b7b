package services

import (
	uaparser "github.com/mileusna/useragent"
)

// DeviceInfo holds the parsed device classification of a user-agent string
type DeviceInfo struct {
	Type    string // desktop, mobile, tablet, bot
	Browser string
}

// AgentService classifies user-agent strings. Pure and total: unknown or
// empty input falls back to desktop with no browser name.
type AgentService interface {
	Parse(userAgent string) DeviceInfo
}

type AgentServiceImpl struct{}

func NewAgentService() AgentService {
	return &AgentServiceImpl{}
}

func (s *AgentServiceImpl) Parse(userAgent string) DeviceInfo {
	info := DeviceInfo{Type: "desktop"}
	if userAgent == "" {
		return info
	}

	ua := uaparser.Parse(userAgent)
	switch {
	case ua.Bot:
		info.Type = "bot"
	case ua.Mobile:
		info.Type = "mobile"
	case ua.Tablet:
		info.Type = "tablet"
	}
	info.Browser = ua.Name

	return info
}
