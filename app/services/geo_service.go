package services

import (
	"fmt"
	"log"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoLocation holds the result of a geo lookup. Zero value means unknown.
type GeoLocation struct {
	Country   string
	Region    string
	City      string
	Latitude  float64
	Longitude float64
	ISP       string
}

// GeoService resolves an IP address to a location. Lookups are local reads
// against an mmdb snapshot; there is no network call on the click path.
type GeoService interface {
	Lookup(ip string) GeoLocation
	Close() error
}

// GeoServiceImpl implements GeoService on top of a MaxMind database file
type GeoServiceImpl struct {
	cityDB *geoip2.Reader
	ispDB  *geoip2.Reader
}

// NewGeoService opens the mmdb files. Either path may be empty; missing
// databases degrade to empty lookup results instead of failing startup.
func NewGeoService(cityDBPath, ispDBPath string) (GeoService, error) {
	svc := &GeoServiceImpl{}

	if cityDBPath != "" {
		db, err := geoip2.Open(cityDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open city geo database: %w", err)
		}
		svc.cityDB = db
	}

	if ispDBPath != "" {
		db, err := geoip2.Open(ispDBPath)
		if err != nil {
			if svc.cityDB != nil {
				_ = svc.cityDB.Close()
			}
			return nil, fmt.Errorf("failed to open isp geo database: %w", err)
		}
		svc.ispDB = db
	}

	if svc.cityDB == nil && svc.ispDB == nil {
		log.Println("geo: no databases configured, lookups will return empty results")
	}

	return svc, nil
}

// Lookup never fails: malformed IPs and reader errors yield an empty result.
func (s *GeoServiceImpl) Lookup(ip string) GeoLocation {
	var loc GeoLocation

	parsed := net.ParseIP(ip)
	if parsed == nil {
		return loc
	}

	if s.cityDB != nil {
		if record, err := s.cityDB.City(parsed); err == nil && record != nil {
			loc.Country = record.Country.Names["en"]
			loc.City = record.City.Names["en"]
			if len(record.Subdivisions) > 0 {
				loc.Region = record.Subdivisions[0].Names["en"]
			}
			loc.Latitude = record.Location.Latitude
			loc.Longitude = record.Location.Longitude
		}
	}

	if s.ispDB != nil {
		if record, err := s.ispDB.ISP(parsed); err == nil && record != nil {
			loc.ISP = record.ISP
		}
	}

	return loc
}

func (s *GeoServiceImpl) Close() error {
	if s.cityDB != nil {
		if err := s.cityDB.Close(); err != nil {
			return err
		}
	}
	if s.ispDB != nil {
		if err := s.ispDB.Close(); err != nil {
			return err
		}
	}
	return nil
}
