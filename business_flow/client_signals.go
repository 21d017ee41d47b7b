package businessflow

import (
	"github.com/linkpulse/linkpulse/app/services"
)

// ClientSignals is everything the click recorder knows about the visitor.
// Fields are best-effort: a failed or unavailable lookup leaves them zero.
type ClientSignals struct {
	IP         string
	Referrer   string
	UserAgent  string
	Country    string
	City       string
	Region     string
	Latitude   float64
	Longitude  float64
	ISP        string
	DeviceType string
	Browser    string
}

// SignalExtractor derives client signals from raw request values
type SignalExtractor interface {
	Extract(ip, referrer, userAgent string) ClientSignals
}

type SignalExtractorImpl struct {
	geo   services.GeoService
	agent services.AgentService
}

func NewSignalExtractor(geo services.GeoService, agent services.AgentService) SignalExtractor {
	return &SignalExtractorImpl{geo: geo, agent: agent}
}

// Extract never fails. Collaborator lookups are local reads; any degraded
// collaborator just yields empty fields so recording can proceed.
func (e *SignalExtractorImpl) Extract(ip, referrer, userAgent string) ClientSignals {
	signals := ClientSignals{
		IP:         ip,
		Referrer:   referrer,
		UserAgent:  userAgent,
		DeviceType: "desktop",
	}

	if e.geo != nil {
		loc := e.geo.Lookup(ip)
		signals.Country = loc.Country
		signals.City = loc.City
		signals.Region = loc.Region
		signals.Latitude = loc.Latitude
		signals.Longitude = loc.Longitude
		signals.ISP = loc.ISP
	}

	if e.agent != nil {
		device := e.agent.Parse(userAgent)
		signals.DeviceType = device.Type
		signals.Browser = device.Browser
	}

	return signals
}
