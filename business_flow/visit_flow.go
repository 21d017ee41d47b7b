package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/linkpulse/linkpulse/app/services"
	"github.com/linkpulse/linkpulse/config"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/repository"
	"github.com/linkpulse/linkpulse/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// VisitFlow resolves a public link identifier, records the click, checks
// milestones and returns the redirect target.
// Public flow, no authentication required.
//
// The redirect target is returned whenever the link resolves. Recording and
// milestone failures are logged and suppressed; they must never hold up the
// visitor. Only an unresolvable identifier or a failed lookup surfaces as an
// error.
type VisitFlow interface {
	Visit(ctx context.Context, identifier string, metadata *ClientMetadata) (*VisitResult, error)
}

// VisitResult reports what happened to one inbound click. TargetURL is
// always set. Recorded is false when click persistence failed and the event
// was dropped from analytics. Milestone is non-zero only when this click
// landed the total exactly on a threshold and won the notification insert.
type VisitResult struct {
	TargetURL string
	Platform  models.PlatformTag
	Recorded  bool
	Milestone int
}

type VisitFlowImpl struct {
	db               *gorm.DB
	linkRepo         repository.LinkRepository
	clickRepo        repository.LinkClickRepository
	platformRepo     repository.PlatformClickRepository
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
	extractor        SignalExtractor
	notificationSvc  services.NotificationService
	rc               *redis.Client
	cacheConfig      *config.CacheConfig
}

func NewVisitFlow(
	db *gorm.DB,
	linkRepo repository.LinkRepository,
	clickRepo repository.LinkClickRepository,
	platformRepo repository.PlatformClickRepository,
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
	extractor SignalExtractor,
	notificationSvc services.NotificationService,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) VisitFlow {
	return &VisitFlowImpl{
		db:               db,
		linkRepo:         linkRepo,
		clickRepo:        clickRepo,
		platformRepo:     platformRepo,
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		extractor:        extractor,
		notificationSvc:  notificationSvc,
		rc:               rc,
		cacheConfig:      cacheConfig,
	}
}

func (f *VisitFlowImpl) Visit(ctx context.Context, identifier string, metadata *ClientMetadata) (*VisitResult, error) {
	link, err := f.resolve(ctx, identifier)
	if err != nil {
		return nil, NewBusinessError("LINK_LOOKUP_FAILED", "Failed to lookup link", err)
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}

	result := &VisitResult{TargetURL: link.URL}

	// Extraction and classification are pure and never fail.
	signals := f.extractor.Extract(metadata.IPAddress, metadata.Referrer, metadata.UserAgent)
	result.Platform = ClassifyPlatform(metadata.Referrer, metadata.UserAgent)

	total, err := f.recordClick(ctx, link.ID, result.Platform, signals)
	if err != nil {
		log.Printf("visit: failed to record click for link %d: %v", link.ID, err)
		return result, nil
	}
	result.Recorded = true

	if milestone := matchMilestone(total); milestone != 0 {
		result.Milestone = f.fireMilestone(ctx, link, milestone)
	}

	return result, nil
}

// resolve looks the identifier up in cache first, then both namespaces in
// the database. Cache errors are ignored.
func (f *VisitFlowImpl) resolve(ctx context.Context, identifier string) (*models.Link, error) {
	cacheKey := f.cacheKey("link:" + identifier)
	if f.rc != nil {
		if bs, err := f.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var link models.Link
			if err := json.Unmarshal(bs, &link); err == nil && link.ID != 0 {
				return &link, nil
			}
		}
	}

	link, err := f.linkRepo.ByTrackingIDOrAlias(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if link == nil {
		return nil, nil
	}

	if f.rc != nil {
		if bs, err := json.Marshal(link); err == nil {
			_ = f.rc.Set(ctx, cacheKey, bs, f.cacheTTL()).Err()
		}
	}

	return link, nil
}

// recordClick appends the event to the flat click list and the platform
// bucket in one transaction, then reads the post-write bucket totals inside
// the same transaction. Both rows commit or neither does, so the flat list
// length always equals the sum of the bucket sizes.
func (f *VisitFlowImpl) recordClick(ctx context.Context, linkID uint, platform models.PlatformTag, signals ClientSignals) (int64, error) {
	var total int64

	err := repository.WithTransaction(ctx, f.db, func(txCtx context.Context) error {
		now := utils.UTCNow()

		flat := &models.LinkClick{
			LinkID:     linkID,
			Platform:   platform,
			IP:         signals.IP,
			Referrer:   signals.Referrer,
			UserAgent:  signals.UserAgent,
			Country:    signals.Country,
			City:       signals.City,
			Region:     signals.Region,
			Latitude:   signals.Latitude,
			Longitude:  signals.Longitude,
			ISP:        signals.ISP,
			DeviceType: signals.DeviceType,
			Browser:    signals.Browser,
			CreatedAt:  now,
		}
		if err := f.clickRepo.Save(txCtx, flat); err != nil {
			return fmt.Errorf("failed to save click event: %w", err)
		}

		bucket := &models.PlatformClick{
			LinkID:     linkID,
			Platform:   platform,
			IP:         signals.IP,
			Referrer:   signals.Referrer,
			UserAgent:  signals.UserAgent,
			Country:    signals.Country,
			City:       signals.City,
			Region:     signals.Region,
			Latitude:   signals.Latitude,
			Longitude:  signals.Longitude,
			ISP:        signals.ISP,
			DeviceType: signals.DeviceType,
			Browser:    signals.Browser,
			CreatedAt:  now,
		}
		if err := f.platformRepo.Save(txCtx, bucket); err != nil {
			return fmt.Errorf("failed to save platform click: %w", err)
		}

		counts, err := f.platformRepo.CountsByLink(txCtx, linkID)
		if err != nil {
			return fmt.Errorf("failed to count platform clicks: %w", err)
		}
		for _, c := range counts {
			total += c
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return total, nil
}

// fireMilestone creates the milestone notification and emails the owner.
// The unique index on (link_id, milestone, type) makes the insert a no-op
// when another request got there first. Returns the milestone value when
// this request won the insert, 0 otherwise. Never returns an error: every
// failure here is logged and swallowed.
func (f *VisitFlowImpl) fireMilestone(ctx context.Context, link *models.Link, milestone int) int {
	notification := &models.Notification{
		UserID:    link.UserID,
		Type:      models.NotificationTypeMilestone,
		Message:   fmt.Sprintf("Your link %q reached %d clicks!", link.Title, milestone),
		LinkID:    &link.ID,
		GroupID:   link.GroupID,
		Milestone: &milestone,
	}

	created, err := f.notificationRepo.CreateMilestone(ctx, notification)
	if err != nil {
		log.Printf("visit: failed to create milestone %d notification for link %d: %v", milestone, link.ID, err)
		return 0
	}
	if !created {
		return 0
	}

	owner, err := f.userRepo.ByID(ctx, link.UserID)
	if err != nil || owner == nil {
		log.Printf("visit: milestone %d recorded but owner %d of link %d not found", milestone, link.UserID, link.ID)
		return milestone
	}

	if err := f.notificationSvc.SendMilestoneEmail(owner.Email, owner.Username, link.Title, milestone); err != nil {
		log.Printf("visit: failed to send milestone %d email for link %d: %v", milestone, link.ID, err)
	}

	return milestone
}

func (f *VisitFlowImpl) cacheKey(suffix string) string {
	if f.cacheConfig != nil && f.cacheConfig.RedisPrefix != "" {
		return f.cacheConfig.RedisPrefix + suffix
	}
	return suffix
}

func (f *VisitFlowImpl) cacheTTL() time.Duration {
	if f.cacheConfig != nil && f.cacheConfig.DefaultTTL > 0 {
		return f.cacheConfig.DefaultTTL
	}
	return time.Hour
}
