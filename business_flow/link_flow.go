package businessflow

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log"
	"math/big"
	"net/url"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/linkpulse/linkpulse/app/dto"
	"github.com/linkpulse/linkpulse/config"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/repository"
	"github.com/linkpulse/linkpulse/utils"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// LinkFlow covers the authenticated link management operations: create,
// list, read, update, delete, and A/B variant groups.
type LinkFlow interface {
	CreateLink(ctx context.Context, userID uint, req *dto.CreateLinkRequest, metadata *ClientMetadata) (*dto.LinkDTO, error)
	CreateABTest(ctx context.Context, userID uint, req *dto.CreateABTestRequest, metadata *ClientMetadata) ([]dto.LinkDTO, error)
	GetLink(ctx context.Context, userID, linkID uint) (*dto.LinkDTO, error)
	ListLinks(ctx context.Context, userID uint, search, tag string) (*dto.ListLinksResponse, error)
	UpdateLink(ctx context.Context, userID, linkID uint, req *dto.UpdateLinkRequest, metadata *ClientMetadata) (*dto.LinkDTO, error)
	DeleteLink(ctx context.Context, userID, linkID uint, metadata *ClientMetadata) error
}

const trackingIDCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const trackingIDMaxAttempts = 5

var aliasPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,64}$`)

type LinkFlowImpl struct {
	db           *gorm.DB
	linkRepo     repository.LinkRepository
	clickRepo    repository.LinkClickRepository
	platformRepo repository.PlatformClickRepository
	auditRepo    repository.AuditLogRepository
	rc           *redis.Client
	cacheConfig  *config.CacheConfig
	baseURL      string
}

func NewLinkFlow(
	db *gorm.DB,
	linkRepo repository.LinkRepository,
	clickRepo repository.LinkClickRepository,
	platformRepo repository.PlatformClickRepository,
	auditRepo repository.AuditLogRepository,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
	baseURL string,
) LinkFlow {
	return &LinkFlowImpl{
		db:           db,
		linkRepo:     linkRepo,
		clickRepo:    clickRepo,
		platformRepo: platformRepo,
		auditRepo:    auditRepo,
		rc:           rc,
		cacheConfig:  cacheConfig,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

func (s *LinkFlowImpl) CreateLink(ctx context.Context, userID uint, req *dto.CreateLinkRequest, metadata *ClientMetadata) (*dto.LinkDTO, error) {
	if req == nil {
		return nil, NewBusinessError("VALIDATION_ERROR", "Request body is required", nil)
	}
	if err := validateTargetURL(req.URL); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, ErrTitleRequired
	}

	link, err := s.createOne(ctx, userID, req)
	if err != nil {
		return nil, err
	}

	s.audit(ctx, userID, models.AuditActionLinkCreated,
		fmt.Sprintf("Link %q created with tracking id %s", link.Title, link.TrackingID), metadata)

	out := ToLinkDTO(*link, s.baseURL, 0)
	return &out, nil
}

// CreateABTest creates every variant under one generated group id. All
// variants commit or none do.
func (s *LinkFlowImpl) CreateABTest(ctx context.Context, userID uint, req *dto.CreateABTestRequest, metadata *ClientMetadata) ([]dto.LinkDTO, error) {
	if req == nil || len(req.Variants) < 2 {
		return nil, NewBusinessError("VALIDATION_ERROR", "at least two variants are required", nil)
	}

	groupID := uuid.New().String()

	links := make([]*models.Link, 0, len(req.Variants))
	err := repository.WithTransaction(ctx, s.db, func(txCtx context.Context) error {
		for i := range req.Variants {
			variant := req.Variants[i]
			if err := validateTargetURL(variant.URL); err != nil {
				return err
			}
			variant.GroupID = &groupID
			link, err := s.createOne(txCtx, userID, &variant)
			if err != nil {
				return err
			}
			links = append(links, link)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, userID, models.AuditActionLinkCreated,
		fmt.Sprintf("A/B group %s created with %d variants", groupID, len(links)), metadata)

	out := make([]dto.LinkDTO, 0, len(links))
	for _, link := range links {
		out = append(out, ToLinkDTO(*link, s.baseURL, 0))
	}
	return out, nil
}

// createOne validates the alias, generates a tracking id and persists the
// link. Callers hold any transaction in ctx.
func (s *LinkFlowImpl) createOne(ctx context.Context, userID uint, req *dto.CreateLinkRequest) (*models.Link, error) {
	var alias *string
	if req.CustomAlias != nil && *req.CustomAlias != "" {
		normalized := strings.TrimSpace(*req.CustomAlias)
		if !aliasPattern.MatchString(normalized) {
			return nil, ErrAliasInvalid
		}
		taken, err := s.identifierTaken(ctx, normalized)
		if err != nil {
			return nil, NewBusinessError("ALIAS_CHECK_FAILED", "Failed to check alias availability", err)
		}
		if taken {
			return nil, ErrAliasTaken
		}
		alias = &normalized
	}

	lockLinkGen()
	defer unlockLinkGen()

	trackingID, err := s.generateTrackingID(ctx)
	if err != nil {
		return nil, err
	}

	link := &models.Link{
		TrackingID:  trackingID,
		CustomAlias: alias,
		GroupID:     req.GroupID,
		UserID:      userID,
		URL:         req.URL,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Tags:        normalizeTags(req.Tags),
	}
	if err := s.linkRepo.Save(ctx, link); err != nil {
		return nil, NewBusinessError("CREATE_LINK_FAILED", "Failed to create link", err)
	}

	return link, nil
}

func (s *LinkFlowImpl) GetLink(ctx context.Context, userID, linkID uint) (*dto.LinkDTO, error) {
	link, err := s.ownedLink(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}

	total, err := s.clickRepo.CountByLink(ctx, linkID)
	if err != nil {
		return nil, NewBusinessError("LINK_STATS_FAILED", "Failed to count link clicks", err)
	}

	out := ToLinkDTO(*link, s.baseURL, total)
	return &out, nil
}

func (s *LinkFlowImpl) ListLinks(ctx context.Context, userID uint, search, tag string) (*dto.ListLinksResponse, error) {
	links, err := s.linkRepo.ListByUser(ctx, userID, search, tag)
	if err != nil {
		return nil, NewBusinessError("LIST_LINKS_FAILED", "Failed to list links", err)
	}

	out := make([]dto.LinkDTO, 0, len(links))
	for _, link := range links {
		total, err := s.clickRepo.CountByLink(ctx, link.ID)
		if err != nil {
			return nil, NewBusinessError("LINK_STATS_FAILED", "Failed to count link clicks", err)
		}
		out = append(out, ToLinkDTO(*link, s.baseURL, total))
	}

	return &dto.ListLinksResponse{Links: out, Total: int64(len(out))}, nil
}

func (s *LinkFlowImpl) UpdateLink(ctx context.Context, userID, linkID uint, req *dto.UpdateLinkRequest, metadata *ClientMetadata) (*dto.LinkDTO, error) {
	if req == nil || (req.URL == nil && req.Title == nil && req.Description == nil && req.Tags == nil && req.CustomAlias == nil) {
		return nil, ErrLinkUpdateEmpty
	}

	link, err := s.ownedLink(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}

	staleIdentifiers := []string{link.TrackingID}
	if link.CustomAlias != nil {
		staleIdentifiers = append(staleIdentifiers, *link.CustomAlias)
	}

	if req.URL != nil {
		if err := validateTargetURL(*req.URL); err != nil {
			return nil, err
		}
		link.URL = *req.URL
	}
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return nil, ErrTitleRequired
		}
		link.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		link.Description = req.Description
	}
	if req.Tags != nil {
		link.Tags = normalizeTags(*req.Tags)
	}
	if req.CustomAlias != nil {
		normalized := strings.TrimSpace(*req.CustomAlias)
		if normalized == "" {
			link.CustomAlias = nil
		} else {
			if !aliasPattern.MatchString(normalized) {
				return nil, ErrAliasInvalid
			}
			if link.CustomAlias == nil || *link.CustomAlias != normalized {
				taken, err := s.identifierTaken(ctx, normalized)
				if err != nil {
					return nil, NewBusinessError("ALIAS_CHECK_FAILED", "Failed to check alias availability", err)
				}
				if taken {
					return nil, ErrAliasTaken
				}
			}
			link.CustomAlias = &normalized
		}
	}

	link.UpdatedAt = utils.UTCNow()
	if err := s.linkRepo.Update(ctx, link); err != nil {
		return nil, NewBusinessError("UPDATE_LINK_FAILED", "Failed to update link", err)
	}

	s.invalidateCache(ctx, staleIdentifiers)
	s.audit(ctx, userID, models.AuditActionLinkUpdated,
		fmt.Sprintf("Link %d updated", link.ID), metadata)

	total, err := s.clickRepo.CountByLink(ctx, linkID)
	if err != nil {
		total = 0
	}
	out := ToLinkDTO(*link, s.baseURL, total)
	return &out, nil
}

func (s *LinkFlowImpl) DeleteLink(ctx context.Context, userID, linkID uint, metadata *ClientMetadata) error {
	link, err := s.ownedLink(ctx, userID, linkID)
	if err != nil {
		return err
	}

	staleIdentifiers := []string{link.TrackingID}
	if link.CustomAlias != nil {
		staleIdentifiers = append(staleIdentifiers, *link.CustomAlias)
	}

	if err := s.linkRepo.Delete(ctx, linkID); err != nil {
		return NewBusinessError("DELETE_LINK_FAILED", "Failed to delete link", err)
	}

	s.invalidateCache(ctx, staleIdentifiers)
	s.audit(ctx, userID, models.AuditActionLinkDeleted,
		fmt.Sprintf("Link %d (%s) deleted", link.ID, link.TrackingID), metadata)

	return nil
}

// ownedLink loads the link and enforces ownership
func (s *LinkFlowImpl) ownedLink(ctx context.Context, userID, linkID uint) (*models.Link, error) {
	link, err := s.linkRepo.ByID(ctx, linkID)
	if err != nil {
		return nil, NewBusinessError("LINK_LOOKUP_FAILED", "Failed to lookup link", err)
	}
	if link == nil {
		return nil, ErrLinkNotFound
	}
	if link.UserID != userID {
		return nil, ErrLinkAccessDenied
	}
	return link, nil
}

// identifierTaken checks both the alias and tracking-id namespaces so a new
// alias can never shadow an existing link.
func (s *LinkFlowImpl) identifierTaken(ctx context.Context, identifier string) (bool, error) {
	existing, err := s.linkRepo.ByTrackingIDOrAlias(ctx, identifier)
	if err != nil {
		return false, err
	}
	return existing != nil, nil
}

func (s *LinkFlowImpl) generateTrackingID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < trackingIDMaxAttempts; attempt++ {
		candidate, err := randomTrackingID(utils.TrackingIDLength)
		if err != nil {
			return "", NewBusinessError("TRACKING_ID_GEN_FAILED", "Failed to generate tracking id", err)
		}
		taken, err := s.identifierTaken(ctx, candidate)
		if err != nil {
			return "", NewBusinessError("TRACKING_ID_GEN_FAILED", "Failed to check tracking id availability", err)
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", ErrTrackingExhausted
}

func randomTrackingID(length int) (string, error) {
	out := make([]byte, length)
	max := big.NewInt(int64(len(trackingIDCharset)))
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = trackingIDCharset[n.Int64()]
	}
	return string(out), nil
}

// normalizeTags trims whitespace and drops empties and duplicates,
// preserving first-seen order.
func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return tags
	}
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func validateTargetURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidURL
	}
	if parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

// invalidateCache drops resolver cache entries for the given identifiers.
// Best-effort: a cache miss later just falls through to the database.
func (s *LinkFlowImpl) invalidateCache(ctx context.Context, identifiers []string) {
	if s.rc == nil {
		return
	}
	prefix := ""
	if s.cacheConfig != nil {
		prefix = s.cacheConfig.RedisPrefix
	}
	for _, id := range identifiers {
		_ = s.rc.Del(ctx, prefix+"link:"+id).Err()
	}
}

// audit writes a best-effort audit row; failures are logged and ignored.
func (s *LinkFlowImpl) audit(ctx context.Context, userID uint, action, description string, metadata *ClientMetadata) {
	row := &models.AuditLog{
		UserID:      &userID,
		Action:      action,
		Description: &description,
		Success:     utils.ToPtr(true),
	}
	if metadata != nil {
		if metadata.IPAddress != "" {
			row.IPAddress = &metadata.IPAddress
		}
		if metadata.UserAgent != "" {
			row.UserAgent = &metadata.UserAgent
		}
		if metadata.RequestID != "" {
			row.RequestID = &metadata.RequestID
		}
		if bs, err := json.Marshal(metadata); err == nil {
			row.Metadata = bs
		}
	}
	if err := s.auditRepo.Save(ctx, row); err != nil {
		log.Printf("link: failed to write audit log for action %s: %v", action, err)
	}
}
