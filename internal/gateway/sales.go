// internal/gateway/sales.go
package gateway

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallerpiolin/inventory-backend/internal/models"
)

type saleRepo struct {
	conn
}

// List returns sales newest first along with the total matching the filter.
func (r *saleRepo) List(ctx context.Context, filter models.SaleFilter) ([]models.Sale, int64, error) {
	var (
		sales []models.Sale
		total int64
	)
	err := r.do(ctx, "list", "", func(tx *gorm.DB) error {
		query := tx.Model(&models.Sale{})
		if filter.From != nil {
			query = query.Where("fecha >= ?", *filter.From)
		}
		if filter.To != nil {
			query = query.Where("fecha <= ?", *filter.To)
		}

		if err := query.Count(&total).Error; err != nil {
			return err
		}

		query = query.Order("fecha DESC")
		if filter.Offset > 0 {
			query = query.Offset(filter.Offset)
		}
		if filter.Limit > 0 {
			query = query.Limit(filter.Limit)
		}
		return query.Find(&sales).Error
	})
	return sales, total, err
}

func (r *saleRepo) Create(ctx context.Context, s *models.Sale) error {
	return r.do(ctx, "create", "", func(tx *gorm.DB) error {
		return tx.Create(s).Error
	})
}

func (r *saleRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.do(ctx, "delete", id.String(), func(tx *gorm.DB) error {
		result := tx.Delete(&models.Sale{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *saleRepo) DeleteAll(ctx context.Context) (int64, error) {
	var affected int64
	err := r.do(ctx, "delete_all", "", func(tx *gorm.DB) error {
		result := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.Sale{})
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}
