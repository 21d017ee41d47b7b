package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/linkpulse/linkpulse/models"
	"gorm.io/gorm"
)

// LinkRepositoryImpl implements LinkRepository
type LinkRepositoryImpl struct {
	*BaseRepository[models.Link, models.LinkFilter]
}

func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &LinkRepositoryImpl{BaseRepository: NewBaseRepository[models.Link, models.LinkFilter](db)}
}

func (r *LinkRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Link, error) {
	db := r.getDB(ctx)
	var row models.Link
	if err := db.Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ByTrackingIDOrAlias resolves a public identifier against both namespaces in
// one query. The two namespaces must never overlap; if a tracking id and a
// custom alias of two different links ever collide we log an alarm and serve
// the tracking-id match so the redirect still happens.
func (r *LinkRepositoryImpl) ByTrackingIDOrAlias(ctx context.Context, identifier string) (*models.Link, error) {
	db := r.getDB(ctx)
	var rows []*models.Link
	err := db.Model(&models.Link{}).
		Where("tracking_id = ? OR custom_alias = ?", identifier, identifier).
		Limit(2).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, nil
	case 1:
		return rows[0], nil
	default:
		log.Printf("ALARM: identifier %q matches multiple links (ids %d, %d), namespaces overlap", identifier, rows[0].ID, rows[1].ID)
		for _, row := range rows {
			if row.TrackingID == identifier {
				return row, nil
			}
		}
		return rows[0], nil
	}
}

func (r *LinkRepositoryImpl) applyFilter(db *gorm.DB, f models.LinkFilter) *gorm.DB {
	if f.ID != nil {
		db = db.Where("id = ?", *f.ID)
	}
	if f.TrackingID != nil {
		db = db.Where("tracking_id = ?", *f.TrackingID)
	}
	if f.CustomAlias != nil {
		db = db.Where("custom_alias = ?", *f.CustomAlias)
	}
	if f.GroupID != nil {
		db = db.Where("group_id = ?", *f.GroupID)
	}
	if f.UserID != nil {
		db = db.Where("user_id = ?", *f.UserID)
	}
	if f.Tag != nil {
		db = db.Where("tags LIKE ?", "%\""+*f.Tag+"\"%")
	}
	if f.Search != nil {
		pattern := "%" + *f.Search + "%"
		db = db.Where("title LIKE ? OR url LIKE ? OR description LIKE ?", pattern, pattern, pattern)
	}
	if f.CreatedAfter != nil {
		db = db.Where("created_at >= ?", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		db = db.Where("created_at < ?", *f.CreatedBefore)
	}
	return db
}

func (r *LinkRepositoryImpl) ByFilter(ctx context.Context, filter models.LinkFilter, orderBy string, limit, offset int) ([]*models.Link, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Link{}), filter)
	if orderBy != "" {
		query = query.Order(orderBy)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}
	var rows []*models.Link
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *LinkRepositoryImpl) Count(ctx context.Context, filter models.LinkFilter) (int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Link{}), filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *LinkRepositoryImpl) Exists(ctx context.Context, filter models.LinkFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

func (r *LinkRepositoryImpl) ListByUser(ctx context.Context, userID uint, search, tag string) ([]*models.Link, error) {
	filter := models.LinkFilter{UserID: &userID}
	if search != "" {
		filter.Search = &search
	}
	if tag != "" {
		filter.Tag = &tag
	}
	return r.ByFilter(ctx, filter, "created_at DESC", 0, 0)
}

func (r *LinkRepositoryImpl) ListByGroup(ctx context.Context, groupID string) ([]*models.Link, error) {
	filter := models.LinkFilter{GroupID: &groupID}
	return r.ByFilter(ctx, filter, "created_at ASC", 0, 0)
}

func (r *LinkRepositoryImpl) Update(ctx context.Context, link *models.Link) error {
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

	err = db.Save(link).Error
	if err != nil {
		return fmt.Errorf("failed to update link: %w", err)
	}

	return nil
}

// Delete removes the link together with its click rows so per-platform bucket
// counts and the flat click list stay consistent after removal.
func (r *LinkRepositoryImpl) Delete(ctx context.Context, linkID uint) error {
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

	if err = db.Where("link_id = ?", linkID).Delete(&models.PlatformClick{}).Error; err != nil {
		return fmt.Errorf("failed to delete platform clicks: %w", err)
	}
	if err = db.Where("link_id = ?", linkID).Delete(&models.LinkClick{}).Error; err != nil {
		return fmt.Errorf("failed to delete link clicks: %w", err)
	}
	if err = db.Delete(&models.Link{}, linkID).Error; err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}

	return nil
}
