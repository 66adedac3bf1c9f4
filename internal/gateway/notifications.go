// internal/gateway/notifications.go
package gateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallerpiolin/inventory-backend/internal/models"
)

type notificationRepo struct {
	conn
}

func (r *notificationRepo) List(ctx context.Context, limit int) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.do(ctx, "list", "", func(tx *gorm.DB) error {
		query := tx.Order("created_at DESC")
		if limit > 0 {
			query = query.Limit(limit)
		}
		return query.Find(&notifications).Error
	})
	return notifications, err
}

func (r *notificationRepo) Create(ctx context.Context, n *models.Notification) error {
	return r.do(ctx, "create", "", func(tx *gorm.DB) error {
		return tx.Create(n).Error
	})
}

func (r *notificationRepo) MarkRead(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var notification models.Notification
	err := r.do(ctx, "mark_read", id.String(), func(tx *gorm.DB) error {
		result := tx.Model(&models.Notification{}).Where("id = ?", id).Update("leida", true)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.First(&notification, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &notification, nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context) (int64, error) {
	var affected int64
	err := r.do(ctx, "mark_all_read", "", func(tx *gorm.DB) error {
		result := tx.Model(&models.Notification{}).Where("leida = ?", false).Update("leida", true)
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

func (r *notificationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.do(ctx, "delete", id.String(), func(tx *gorm.DB) error {
		result := tx.Delete(&models.Notification{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *notificationRepo) DeleteRead(ctx context.Context) (int64, error) {
	return r.deleteWhere(ctx, "delete_read", "leida = ?", true)
}

func (r *notificationRepo) DeleteAll(ctx context.Context) (int64, error) {
	var affected int64
	err := r.do(ctx, "delete_all", "", func(tx *gorm.DB) error {
		result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Notification{})
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

func (r *notificationRepo) DeleteBefore(ctx context.Context, t time.Time) (int64, error) {
	return r.deleteWhere(ctx, "delete_before", "created_at < ?", t)
}

func (r *notificationRepo) deleteWhere(ctx context.Context, op, cond string, args ...interface{}) (int64, error) {
	var affected int64
	err := r.do(ctx, op, "", func(tx *gorm.DB) error {
		result := tx.Where(cond, args...).Delete(&models.Notification{})
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}
