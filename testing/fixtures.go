// Package testing provides test utilities and database setup for testing the link tracking system
package testing

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/utils"
	"golang.org/x/crypto/bcrypt"
)

// TestFixtures provides helper methods for creating test data
type TestFixtures struct {
	DB *TestDB
}

// NewTestFixtures creates a new test fixtures instance
func NewTestFixtures(db *TestDB) *TestFixtures {
	return &TestFixtures{DB: db}
}

// CreateTestUser creates an active user with a bcrypt-hashed password
func (tf *TestFixtures) CreateTestUser() (*models.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte("TestPass123"), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	suffix := rand.Intn(1000000)
	user := &models.User{
		UUID:            uuid.New(),
		Username:        fmt.Sprintf("testuser%d", suffix),
		Email:           fmt.Sprintf("test%d@example.com", suffix),
		PasswordHash:    string(hashedPassword),
		Credits:         utils.SignupCredits,
		IsEmailVerified: utils.ToPtr(true),
		IsActive:        utils.ToPtr(true),
		CreatedAt:       utils.UTCNow(),
		UpdatedAt:       utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(user).Error; err != nil {
		return nil, fmt.Errorf("failed to create test user: %w", err)
	}
	return user, nil
}

// CreateTestLink creates a link for the given user with a random tracking id
func (tf *TestFixtures) CreateTestLink(userID uint) (*models.Link, error) {
	link := &models.Link{
		TrackingID: randomTrackingID(),
		UserID:     userID,
		URL:        "https://example.com/landing",
		Title:      "Test Link",
		Tags:       []string{"test"},
		CreatedAt:  utils.UTCNow(),
		UpdatedAt:  utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create test link: %w", err)
	}
	return link, nil
}

// CreateTestLinkWithAlias creates a link carrying a custom alias
func (tf *TestFixtures) CreateTestLinkWithAlias(userID uint, alias string) (*models.Link, error) {
	link := &models.Link{
		TrackingID:  randomTrackingID(),
		CustomAlias: &alias,
		UserID:      userID,
		URL:         "https://example.com/landing",
		Title:       "Aliased Link",
		CreatedAt:   utils.UTCNow(),
		UpdatedAt:   utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(link).Error; err != nil {
		return nil, fmt.Errorf("failed to create aliased test link: %w", err)
	}
	return link, nil
}

// CreateABTestGroup creates n variants of a link bound by one group id
func (tf *TestFixtures) CreateABTestGroup(userID uint, n int) ([]*models.Link, error) {
	groupID := uuid.New().String()
	links := make([]*models.Link, 0, n)
	for i := 0; i < n; i++ {
		link := &models.Link{
			TrackingID: randomTrackingID(),
			GroupID:    &groupID,
			UserID:     userID,
			URL:        fmt.Sprintf("https://example.com/variant/%d", i),
			Title:      fmt.Sprintf("Variant %d", i),
			CreatedAt:  utils.UTCNow(),
			UpdatedAt:  utils.UTCNow(),
		}
		if err := tf.DB.DB.Create(link).Error; err != nil {
			return nil, fmt.Errorf("failed to create variant %d: %w", i, err)
		}
		links = append(links, link)
	}
	return links, nil
}

// CreateTestClick writes a click pair (flat record plus platform bucket) the
// way the visit pipeline does, without going through the flow.
func (tf *TestFixtures) CreateTestClick(linkID uint, platform models.PlatformTag) (*models.LinkClick, error) {
	now := utils.UTCNow()
	click := &models.LinkClick{
		LinkID:     linkID,
		Platform:   platform,
		IP:         "203.0.113.10",
		Referrer:   "https://" + platform.String() + ".example",
		UserAgent:  "Mozilla/5.0 (test)",
		DeviceType: "desktop",
		Browser:    "Firefox",
		CreatedAt:  now,
	}
	if err := tf.DB.DB.Create(click).Error; err != nil {
		return nil, fmt.Errorf("failed to create test click: %w", err)
	}

	bucket := &models.PlatformClick{
		LinkID:     linkID,
		Platform:   platform,
		IP:         click.IP,
		Referrer:   click.Referrer,
		UserAgent:  click.UserAgent,
		DeviceType: click.DeviceType,
		Browser:    click.Browser,
		CreatedAt:  now,
	}
	if err := tf.DB.DB.Create(bucket).Error; err != nil {
		return nil, fmt.Errorf("failed to create test platform click: %w", err)
	}

	return click, nil
}

// CreateTestNotification creates a milestone notification for a link
func (tf *TestFixtures) CreateTestNotification(userID, linkID uint, milestone int) (*models.Notification, error) {
	notification := &models.Notification{
		UserID:    userID,
		Type:      models.NotificationTypeMilestone,
		Message:   fmt.Sprintf("Your link reached %d clicks!", milestone),
		LinkID:    &linkID,
		Milestone: &milestone,
		Read:      utils.ToPtr(false),
		CreatedAt: utils.UTCNow(),
		UpdatedAt: utils.UTCNow(),
	}

	if err := tf.DB.DB.Create(notification).Error; err != nil {
		return nil, fmt.Errorf("failed to create test notification: %w", err)
	}
	return notification, nil
}

const trackingIDAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

func randomTrackingID() string {
	b := make([]byte, utils.TrackingIDLength)
	for i := range b {
		b[i] = trackingIDAlphabet[rand.Intn(len(trackingIDAlphabet))]
	}
	return string(b)
}
