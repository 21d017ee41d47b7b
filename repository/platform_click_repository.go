package repository

import (
	"context"
	"fmt"

	"github.com/linkpulse/linkpulse/models"
	"gorm.io/gorm"
)

// PlatformClickRepositoryImpl implements PlatformClickRepository
type PlatformClickRepositoryImpl struct {
	*BaseRepository[models.PlatformClick, models.PlatformClickFilter]
}

func NewPlatformClickRepository(db *gorm.DB) PlatformClickRepository {
	return &PlatformClickRepositoryImpl{BaseRepository: NewBaseRepository[models.PlatformClick, models.PlatformClickFilter](db)}
}

func (r *PlatformClickRepositoryImpl) applyFilter(db *gorm.DB, f models.PlatformClickFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.LinkID != nil {
		db = db.Where("link_id = ?", *f.LinkID)
	}
	if f.Platform != nil {
		db = db.Where("platform = ?", *f.Platform)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *PlatformClickRepositoryImpl) ByFilter(ctx context.Context, filter models.PlatformClickFilter, orderBy string, limit, offset int) ([]*models.PlatformClick, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PlatformClick{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.PlatformClick
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PlatformClickRepositoryImpl) Count(ctx context.Context, filter models.PlatformClickFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.PlatformClick{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PlatformClickRepositoryImpl) Exists(ctx context.Context, filter models.PlatformClickFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *PlatformClickRepositoryImpl) ListByLinkAndPlatform(ctx context.Context, linkID uint, platform models.PlatformTag, limit, offset int) ([]*models.PlatformClick, error) {
	filter := models.PlatformClickFilter{LinkID: &linkID, Platform: &platform}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

type platformCountRow struct {
	Platform models.PlatformTag
	Total    int64
}

// CountsByLink returns bucket sizes for every platform of the closed set,
// including zero-valued buckets, so callers never have to guess which tags
// exist.
func (r *PlatformClickRepositoryImpl) CountsByLink(ctx context.Context, linkID uint) (map[models.PlatformTag]int64, error) {
	db := r.getDB(ctx)
	var rows []platformCountRow
	err := db.Model(&models.PlatformClick{}).
		Select("platform, COUNT(*) AS total").
		Where("link_id = ?", linkID).
		Group("platform").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count platform clicks for link %d: %w", linkID, err)
	}

	counts := make(map[models.PlatformTag]int64, len(models.AllPlatformTags()))
	for _, tag := range models.AllPlatformTags() {
		counts[tag] = 0
	}
	for _, row := range rows {
		counts[row.Platform] = row.Total
	}
	return counts, nil
}

// CountsByLinks aggregates bucket sizes across a set of links, used for A/B
// group stats.
func (r *PlatformClickRepositoryImpl) CountsByLinks(ctx context.Context, linkIDs []uint) (map[models.PlatformTag]int64, error) {
	counts := make(map[models.PlatformTag]int64, len(models.AllPlatformTags()))
	for _, tag := range models.AllPlatformTags() {
		counts[tag] = 0
	}
	if len(linkIDs) == 0 {
		return counts, nil
	}

	db := r.getDB(ctx)
	var rows []platformCountRow
	err := db.Model(&models.PlatformClick{}).
		Select("platform, COUNT(*) AS total").
		Where("link_id IN ?", linkIDs).
		Group("platform").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count platform clicks for links: %w", err)
	}

	for _, row := range rows {
		counts[row.Platform] = row.Total
	}
	return counts, nil
}

func (r *PlatformClickRepositoryImpl) DeleteByLink(ctx context.Context, linkID uint) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	err = db.Where("link_id = ?", linkID).Delete(&models.PlatformClick{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete platform clicks for link %d: %w", linkID, err)
	}

	return nil
}
