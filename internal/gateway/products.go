// internal/gateway/products.go
package gateway

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallerpiolin/inventory-backend/internal/models"
)

type productRepo struct {
	conn
}

func (r *productRepo) withLabels(tx *gorm.DB) *gorm.DB {
	return tx.Preload("Category").Preload("Brand")
}

func (r *productRepo) List(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.do(ctx, "list", "", func(tx *gorm.DB) error {
		return r.withLabels(tx).Where("activo = ?", true).Order("nombre ASC").Find(&products).Error
	})
	return products, err
}

// Search matches active products whose name or description contains term,
// or whose barcode equals it.
func (r *productRepo) Search(ctx context.Context, term string) ([]models.Product, error) {
	term = strings.TrimSpace(term)
	pattern := "%" + escapeLike(term) + "%"

	var products []models.Product
	err := r.do(ctx, "search", "", func(tx *gorm.DB) error {
		return r.withLabels(tx).
			Where("activo = ?", true).
			Where("nombre ILIKE ? OR descripcion ILIKE ? OR codigo_barras = ?", pattern, pattern, term).
			Order("nombre ASC").
			Find(&products).Error
	})
	return products, err
}

func (r *productRepo) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.do(ctx, "get", id.String(), func(tx *gorm.DB) error {
		return r.withLabels(tx).First(&product, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByBarcode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	err := r.do(ctx, "find_by_barcode", code, func(tx *gorm.DB) error {
		return r.withLabels(tx).
			Where("activo = ? AND codigo_barras = ?", true, code).
			First(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) FindByName(ctx context.Context, name string) (*models.Product, error) {
	var product models.Product
	err := r.do(ctx, "find_by_name", name, func(tx *gorm.DB) error {
		return r.withLabels(tx).
			Where("activo = ? AND LOWER(nombre) = LOWER(?)", true, strings.TrimSpace(name)).
			First(&product).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) Create(ctx context.Context, p *models.Product) error {
	return r.do(ctx, "create", "", func(tx *gorm.DB) error {
		if err := tx.Omit("Category", "Brand").Create(p).Error; err != nil {
			return err
		}
		return r.withLabels(tx).First(p, "id = ?", p.ID).Error
	})
}

func (r *productRepo) Update(ctx context.Context, id uuid.UUID, u models.ProductUpdate) (*models.Product, error) {
	var product models.Product
	err := r.do(ctx, "update", id.String(), func(tx *gorm.DB) error {
		if updates := u.Columns(); len(updates) > 0 {
			result := tx.Model(&models.Product{}).Where("id = ?", id).Updates(updates)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}
		}
		return r.withLabels(tx).First(&product, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepo) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	inactive := false
	return r.Update(ctx, id, models.ProductUpdate{Active: &inactive})
}

func (r *productRepo) SoftDeleteAll(ctx context.Context) (int64, error) {
	var affected int64
	err := r.do(ctx, "soft_delete_all", "", func(tx *gorm.DB) error {
		result := tx.Model(&models.Product{}).Where("activo = ?", true).Update("activo", false)
		affected = result.RowsAffected
		return result.Error
	})
	return affected, err
}

// DecrementStock is a single conditional UPDATE, so two concurrent sales
// cannot both consume the same units.
func (r *productRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) (*models.Product, error) {
	var product models.Product
	err := r.do(ctx, "decrement_stock", id.String(), func(tx *gorm.DB) error {
		result := tx.Model(&models.Product{}).
			Where("id = ? AND activo = ? AND stock >= ?", id, true, qty).
			UpdateColumn("stock", gorm.Expr("stock - ?", qty))
		if result.Error != nil {
			return result.Error
		}

		if err := r.withLabels(tx).First(&product, "id = ?", id).Error; err != nil {
			return err
		}
		if result.RowsAffected == 0 {
			if !product.Active {
				return gorm.ErrRecordNotFound
			}
			return &models.InsufficientStockError{Available: product.Stock, Requested: qty}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &product, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
