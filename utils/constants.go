package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds (86400 seconds = 24 hours)
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Link constants
const (
	// TrackingIDLength is the length of generated tracking identifiers
	TrackingIDLength = 10

	// MinAliasLength is the minimum accepted custom alias length
	MinAliasLength = 3

	// MaxAliasLength is the maximum accepted custom alias length
	MaxAliasLength = 64

	// SignupCredits is the credit balance granted to new accounts
	SignupCredits = 10
)
