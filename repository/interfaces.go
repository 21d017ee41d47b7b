// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/linkpulse/linkpulse/models"
)

// RepositoryContext key for transaction in context
type contextKey string

const TxContextKey contextKey = "tx"

type Repository[T any, F any] interface {
	ByID(ctx context.Context, id uint) (*T, error)
	ByFilter(ctx context.Context, filter F, orderBy string, limit, offset int) ([]*T, error)
	Save(ctx context.Context, entity *T) error
	SaveBatch(ctx context.Context, entities []*T) error
	Count(ctx context.Context, filter F) (int64, error)
	Exists(ctx context.Context, filter F) (bool, error)
}

// UserRepository defines operations for users
type UserRepository interface {
	Repository[models.User, models.UserFilter]
	ByEmail(ctx context.Context, email string) (*models.User, error)
	ByUsername(ctx context.Context, username string) (*models.User, error)
	ByUUID(ctx context.Context, uuid string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID uint) error
}

// LinkRepository defines operations for links
type LinkRepository interface {
	Repository[models.Link, models.LinkFilter]
	// ByTrackingIDOrAlias resolves a public identifier against both the
	// tracking id and custom alias namespaces in a single query.
	ByTrackingIDOrAlias(ctx context.Context, identifier string) (*models.Link, error)
	ListByUser(ctx context.Context, userID uint, search, tag string) ([]*models.Link, error)
	ListByGroup(ctx context.Context, groupID string) ([]*models.Link, error)
	Update(ctx context.Context, link *models.Link) error
	// Delete removes the link and cascades deletion of its click analytics.
	Delete(ctx context.Context, linkID uint) error
}

// LinkClickRepository defines operations for the flat click list
type LinkClickRepository interface {
	Repository[models.LinkClick, models.LinkClickFilter]
	ListByLink(ctx context.Context, linkID uint, limit, offset int) ([]*models.LinkClick, error)
	CountByLink(ctx context.Context, linkID uint) (int64, error)
	// CountsByField groups a link's clicks by one of the signal columns
	// (device_type, browser, country). Empty values are bucketed as "".
	CountsByField(ctx context.Context, linkID uint, field string) (map[string]int64, error)
	// DailyCounts returns per-day click totals for the last `days` days,
	// oldest first. Days without clicks are omitted.
	DailyCounts(ctx context.Context, linkID uint, days int) ([]models.DailyClickCount, error)
	DeleteByLink(ctx context.Context, linkID uint) error
}

// PlatformClickRepository defines operations for the per-platform buckets
type PlatformClickRepository interface {
	Repository[models.PlatformClick, models.PlatformClickFilter]
	ListByLinkAndPlatform(ctx context.Context, linkID uint, platform models.PlatformTag, limit, offset int) ([]*models.PlatformClick, error)
	// CountsByLink returns per-platform bucket sizes with every tag of the
	// closed set present, zero-valued buckets included.
	CountsByLink(ctx context.Context, linkID uint) (map[models.PlatformTag]int64, error)
	CountsByLinks(ctx context.Context, linkIDs []uint) (map[models.PlatformTag]int64, error)
	DeleteByLink(ctx context.Context, linkID uint) error
}

// NotificationRepository defines operations for notifications
type NotificationRepository interface {
	Repository[models.Notification, models.NotificationFilter]
	FindMilestone(ctx context.Context, linkID uint, milestone int) (*models.Notification, error)
	// CreateMilestone inserts a milestone notification guarded by the
	// (link_id, milestone, type) unique index. It reports false when the row
	// already existed, which callers treat as "already notified".
	CreateMilestone(ctx context.Context, notification *models.Notification) (bool, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.Notification, error)
	MarkRead(ctx context.Context, notificationID, userID uint) error
	MarkAllRead(ctx context.Context, userID uint) error
}

// AuditLogRepository defines operations for audit logs
type AuditLogRepository interface {
	Repository[models.AuditLog, models.AuditLogFilter]
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]*models.AuditLog, error)
	ListByAction(ctx context.Context, action string, limit, offset int) ([]*models.AuditLog, error)
}
