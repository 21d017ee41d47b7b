package businessflow

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/linkpulse/linkpulse/app/dto"
	"github.com/linkpulse/linkpulse/config"
	"github.com/linkpulse/linkpulse/models"
	"github.com/linkpulse/linkpulse/repository"
	"github.com/redis/go-redis/v9"
	"github.com/xuri/excelize/v2"
)

// AnalyticsFlow serves click analytics for link owners: per-link stats,
// per-platform click listings, A/B group comparisons and Excel export.
type AnalyticsFlow interface {
	LinkStats(ctx context.Context, userID, linkID uint, recentLimit int) (*dto.LinkStatsResponse, error)
	PlatformClicks(ctx context.Context, userID, linkID uint, platform string, limit, offset int) ([]dto.ClickDTO, error)
	GroupStats(ctx context.Context, userID uint, groupID string) (*dto.GroupStatsResponse, error)
	ExportLinkClicksExcel(ctx context.Context, userID, linkID uint) (string, []byte, error)
}

// statsCacheTTL keeps hot dashboards cheap without letting counts lag far
// behind the click stream.
const statsCacheTTL = 30 * time.Second

// statsTimeSeriesDays bounds the daily series returned with link stats.
const statsTimeSeriesDays = 30

func toDailyDTO(rows []models.DailyClickCount) []dto.DailyCount {
	out := make([]dto.DailyCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.DailyCount{Date: row.Date, Count: row.Count})
	}
	return out
}

type AnalyticsFlowImpl struct {
	linkRepo     repository.LinkRepository
	clickRepo    repository.LinkClickRepository
	platformRepo repository.PlatformClickRepository
	rc           *redis.Client
	cacheConfig  *config.CacheConfig
}

func NewAnalyticsFlow(
	linkRepo repository.LinkRepository,
	clickRepo repository.LinkClickRepository,
	platformRepo repository.PlatformClickRepository,
	rc *redis.Client,
	cacheConfig *config.CacheConfig,
) AnalyticsFlow {
	return &AnalyticsFlowImpl{
		linkRepo:     linkRepo,
		clickRepo:    clickRepo,
		platformRepo: platformRepo,
		rc:           rc,
		cacheConfig:  cacheConfig,
	}
}

func (s *AnalyticsFlowImpl) LinkStats(ctx context.Context, userID, linkID uint, recentLimit int) (*dto.LinkStatsResponse, error) {
	link, err := s.ownedLink(ctx, userID, linkID)
	if err != nil {
		return nil, err
	}

	cacheKey := s.cacheKey(fmt.Sprintf("stats:link:%d:%d", linkID, recentLimit))
	if s.rc != nil {
		if bs, err := s.rc.Get(ctx, cacheKey).Bytes(); err == nil && len(bs) > 0 {
			var out dto.LinkStatsResponse
			if err := json.Unmarshal(bs, &out); err == nil {
				return &out, nil
			}
		}
	}

	counts, err := s.platformRepo.CountsByLink(ctx, linkID)
	if err != nil {
		return nil, NewBusinessError("LINK_STATS_FAILED", "Failed to aggregate platform clicks", err)
	}

	var total int64
	platforms := make(map[string]int64, len(counts))
	for tag, c := range counts {
		platforms[tag.String()] = c
		total += c
	}

	devices, err := s.clickRepo.CountsByField(ctx, linkID, "device_type")
	if err != nil {
		return nil, NewBusinessError("LINK_STATS_FAILED", "Failed to aggregate device breakdown", err)
	}
	browsers, err := s.clickRepo.CountsByField(ctx, linkID, "browser")
	if err != nil {
		return nil, NewBusinessError("LINK_STATS_FAILED", "Failed to aggregate browser breakdown", err)
	}
	countries, err := s.clickRepo.CountsByField(ctx, linkID, "country")
	if err != nil {
		return nil, NewBusinessError("LINK_STATS_FAILED", "Failed to aggregate country breakdown", err)
	}
	daily, err := s.clickRepo.DailyCounts(ctx, linkID, statsTimeSeriesDays)
	if err != nil {
		return nil, NewBusinessError("LINK_STATS_FAILED", "Failed to aggregate daily clicks", err)
	}

	out := &dto.LinkStatsResponse{
		LinkID:      link.ID,
		TrackingID:  link.TrackingID,
		Title:       link.Title,
		TotalClicks: total,
		Platforms:   platforms,
		Devices:     devices,
		Browsers:    browsers,
		Countries:   countries,
		Daily:       toDailyDTO(daily),
	}

	if recentLimit > 0 {
		recent, err := s.clickRepo.ListByLink(ctx, linkID, recentLimit, 0)
		if err != nil {
			return nil, NewBusinessError("LINK_STATS_FAILED", "Failed to list recent clicks", err)
		}
		out.RecentClicks = make([]dto.ClickDTO, 0, len(recent))
		for _, click := range recent {
			out.RecentClicks = append(out.RecentClicks, ToClickDTO(*click))
		}
	}

	if s.rc != nil {
		if bs, err := json.Marshal(out); err == nil {
			_ = s.rc.Set(ctx, cacheKey, bs, statsCacheTTL).Err()
		}
	}

	return out, nil
}

func (s *AnalyticsFlowImpl) PlatformClicks(ctx context.Context, userID, linkID uint, platform string, limit, offset int) ([]dto.ClickDTO, error) {
	if _, err := s.ownedLink(ctx, userID, linkID); err != nil {
		return nil, err
	}

	tag := models.PlatformTag(strings.ToLower(platform))
	if !tag.IsValid() {
		return nil, NewBusinessErrorf("VALIDATION_ERROR", "unknown platform %q", nil, platform)
	}

	clicks, err := s.platformRepo.ListByLinkAndPlatform(ctx, linkID, tag, limit, offset)
	if err != nil {
		return nil, NewBusinessError("PLATFORM_CLICKS_FAILED", "Failed to list platform clicks", err)
	}

	out := make([]dto.ClickDTO, 0, len(clicks))
	for _, click := range clicks {
		out = append(out, dto.ClickDTO{
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
		})
	}
	return out, nil
}

// GroupStats compares the variants of one A/B group. Every listed link must
// belong to the caller.
func (s *AnalyticsFlowImpl) GroupStats(ctx context.Context, userID uint, groupID string) (*dto.GroupStatsResponse, error) {
	links, err := s.linkRepo.ListByGroup(ctx, groupID)
	if err != nil {
		return nil, NewBusinessError("GROUP_STATS_FAILED", "Failed to list group links", err)
	}
	if len(links) == 0 {
		return nil, ErrGroupNotFound
	}

	linkIDs := make([]uint, 0, len(links))
	for _, link := range links {
		if link.UserID != userID {
			return nil, ErrLinkAccessDenied
		}
		linkIDs = append(linkIDs, link.ID)
	}

	counts, err := s.platformRepo.CountsByLinks(ctx, linkIDs)
	if err != nil {
		return nil, NewBusinessError("GROUP_STATS_FAILED", "Failed to aggregate group clicks", err)
	}

	var groupTotal int64
	platforms := make(map[string]int64, len(counts))
	for tag, c := range counts {
		platforms[tag.String()] = c
		groupTotal += c
	}

	variants := make([]dto.GroupStatsVariant, 0, len(links))
	for _, link := range links {
		total, err := s.clickRepo.CountByLink(ctx, link.ID)
		if err != nil {
			return nil, NewBusinessError("GROUP_STATS_FAILED", "Failed to count variant clicks", err)
		}
		share := 0.0
		if groupTotal > 0 {
			share = float64(total) / float64(groupTotal)
		}
		variants = append(variants, dto.GroupStatsVariant{
			LinkID:      link.ID,
			TrackingID:  link.TrackingID,
			Title:       link.Title,
			TotalClicks: total,
			Share:       share,
		})
	}

	return &dto.GroupStatsResponse{
		GroupID:     groupID,
		TotalClicks: groupTotal,
		Platforms:   platforms,
		Variants:    variants,
	}, nil
}

// ExportLinkClicksExcel writes one sheet per platform plus a flat sheet of
// every click, and returns the file name and content.
func (s *AnalyticsFlowImpl) ExportLinkClicksExcel(ctx context.Context, userID, linkID uint) (string, []byte, error) {
	link, err := s.ownedLink(ctx, userID, linkID)
	if err != nil {
		return "", nil, err
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	header := []string{"id", "platform", "ip", "referrer", "country", "city", "region", "isp", "device_type", "browser", "created_at"}

	flat, err := s.clickRepo.ListByLink(ctx, linkID, 0, 0)
	if err != nil {
		return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to list clicks", err)
	}

	allSheet := "all_clicks"
	xl.SetSheetName(xl.GetSheetName(0), allSheet)
	_ = xl.SetSheetRow(allSheet, "A1", &header)
	for ri, click := range flat {
		record := clickRecord(click.ID, click.Platform, click.IP, click.Referrer, click.Country, click.City, click.Region, click.ISP, click.DeviceType, click.Browser, click.CreatedAt)
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(allSheet, cellRef, &record)
	}

	for _, tag := range models.AllPlatformTags() {
		clicks, err := s.platformRepo.ListByLinkAndPlatform(ctx, linkID, tag, 0, 0)
		if err != nil {
			return "", nil, NewBusinessError("EXPORT_FAILED", "Failed to list platform clicks", err)
		}
		if len(clicks) == 0 {
			continue
		}
		name := sanitizeSheetName(tag.String())
		_, _ = xl.NewSheet(name)
		_ = xl.SetSheetRow(name, "A1", &header)
		for ri, click := range clicks {
			record := clickRecord(click.ID, click.Platform, click.IP, click.Referrer, click.Country, click.City, click.Region, click.ISP, click.DeviceType, click.Browser, click.CreatedAt)
			cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
			_ = xl.SetSheetRow(name, cellRef, &record)
		}
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}
	filename := fmt.Sprintf("link_%s_clicks.xlsx", link.TrackingID)
	return filename, buf.Bytes(), nil
}

func clickRecord(id uint, platform models.PlatformTag, ip, referrer, country, city, region, isp, deviceType, browser string, createdAt time.Time) []string {
	return []string{
		strconv.FormatUint(uint64(id), 10),
		platform.String(),
		ip,
		referrer,
		country,
		city,
		region,
		isp,
		deviceType,
		browser,
		createdAt.UTC().Format(time.RFC3339),
	}
}

func (s *AnalyticsFlowImpl) ownedLink(ctx context.Context, userID, linkID uint) (*models.Link, error) {
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

func (s *AnalyticsFlowImpl) cacheKey(suffix string) string {
	if s.cacheConfig != nil && s.cacheConfig.RedisPrefix != "" {
		return s.cacheConfig.RedisPrefix + suffix
	}
	return suffix
}

func sanitizeSheetName(name string) string {
	// Excel sheet names cannot contain: : \ / ? * [ ] and must be <= 31 chars
	replacer := strings.NewReplacer(":", "_", "\\", "_", "/", "_", "?", "_", "*", "_", "[", "_", "]", "_")
	safe := strings.TrimSpace(replacer.Replace(name))
	if len(safe) > 31 {
		safe = safe[:31]
	}
	if safe == "" {
		return "Sheet"
	}
	return safe
}
