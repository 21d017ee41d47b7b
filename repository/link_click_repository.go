package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/linkpulse/linkpulse/models"
	"gorm.io/gorm"
)

// LinkClickRepositoryImpl implements LinkClickRepository
type LinkClickRepositoryImpl struct {
	*BaseRepository[models.LinkClick, models.LinkClickFilter]
}

func NewLinkClickRepository(db *gorm.DB) LinkClickRepository {
	return &LinkClickRepositoryImpl{BaseRepository: NewBaseRepository[models.LinkClick, models.LinkClickFilter](db)}
}

func (r *LinkClickRepositoryImpl) applyFilter(db *gorm.DB, f models.LinkClickFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.LinkID != nil {
		db = db.Where("link_id = ?", *f.LinkID)
	}
	if f.Platform != nil {
		db = db.Where("platform = ?", *f.Platform)
	}
	if f.Country != nil {
		db = db.Where("country = ?", *f.Country)
	}
	if f.DeviceType != nil {
		db = db.Where("device_type = ?", *f.DeviceType)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *LinkClickRepositoryImpl) ByFilter(ctx context.Context, filter models.LinkClickFilter, orderBy string, limit, offset int) ([]*models.LinkClick, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.LinkClick{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.LinkClick
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LinkClickRepositoryImpl) Count(ctx context.Context, filter models.LinkClickFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.LinkClick{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LinkClickRepositoryImpl) Exists(ctx context.Context, filter models.LinkClickFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *LinkClickRepositoryImpl) ListByLink(ctx context.Context, linkID uint, limit, offset int) ([]*models.LinkClick, error) {
	filter := models.LinkClickFilter{LinkID: &linkID}
	return r.ByFilter(ctx, filter, "created_at DESC", limit, offset)
}

func (r *LinkClickRepositoryImpl) CountByLink(ctx context.Context, linkID uint) (int64, error) {
	return r.Count(ctx, models.LinkClickFilter{LinkID: &linkID})
}

// breakdownColumns are the only signal columns CountsByField may group by.
var breakdownColumns = map[string]bool{
	"device_type": true,
	"browser":     true,
	"country":     true,
}

func (r *LinkClickRepositoryImpl) CountsByField(ctx context.Context, linkID uint, field string) (map[string]int64, error) {
	if !breakdownColumns[field] {
		return nil, fmt.Errorf("unsupported breakdown column %q", field)
	}

	db := r.getDB(ctx)
	var rows []struct {
		Value string
		Total int64
	}
	err := db.Model(&models.LinkClick{}).
		Select(field+" AS value, COUNT(*) AS total").
		Where("link_id = ?", linkID).
		Group(field).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate clicks by %s for link %d: %w", field, linkID, err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Value] = row.Total
	}
	return counts, nil
}

func (r *LinkClickRepositoryImpl) DailyCounts(ctx context.Context, linkID uint, days int) ([]models.DailyClickCount, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.LinkClick{}).
		Select("DATE(created_at) AS date, COUNT(*) AS count").
		Where("link_id = ?", linkID)
	if days > 0 {
		query = query.Where("created_at >= ?", time.Now().UTC().AddDate(0, 0, -days))
	}

	var rows []models.DailyClickCount
	if err := query.Group("DATE(created_at)").Order("date ASC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate daily clicks for link %d: %w", linkID, err)
	}
	return rows, nil
}

func (r *LinkClickRepositoryImpl) DeleteByLink(ctx context.Context, linkID uint) error {
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

	err = db.Where("link_id = ?", linkID).Delete(&models.LinkClick{}).Error
	if err != nil {
		return fmt.Errorf("failed to delete clicks for link %d: %w", linkID, err)
	}

	return nil
}
