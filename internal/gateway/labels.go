// internal/gateway/labels.go
package gateway

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/tallerpiolin/inventory-backend/internal/models"
)

type categoryRepo struct {
	conn
}

func (r *categoryRepo) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	err := r.do(ctx, "list", "", func(tx *gorm.DB) error {
		return tx.Order("nombre ASC").Find(&categories).Error
	})
	return categories, err
}

func (r *categoryRepo) FindByName(ctx context.Context, name string) (*models.Category, error) {
	var category models.Category
	err := r.do(ctx, "find_by_name", name, func(tx *gorm.DB) error {
		return tx.Where("LOWER(nombre) = LOWER(?)", strings.TrimSpace(name)).First(&category).Error
	})
	if err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepo) Create(ctx context.Context, c *models.Category) error {
	return r.do(ctx, "create", "", func(tx *gorm.DB) error {
		return tx.Create(c).Error
	})
}

type brandRepo struct {
	conn
}

func (r *brandRepo) List(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	err := r.do(ctx, "list", "", func(tx *gorm.DB) error {
		return tx.Where("activo = ?", true).Order("nombre ASC").Find(&brands).Error
	})
	return brands, err
}

func (r *brandRepo) FindByName(ctx context.Context, name string) (*models.Brand, error) {
	var brand models.Brand
	err := r.do(ctx, "find_by_name", name, func(tx *gorm.DB) error {
		return tx.Where("LOWER(nombre) = LOWER(?)", strings.TrimSpace(name)).First(&brand).Error
	})
	if err != nil {
		return nil, err
	}
	return &brand, nil
}

func (r *brandRepo) Create(ctx context.Context, b *models.Brand) error {
	return r.do(ctx, "create", "", func(tx *gorm.DB) error {
		return tx.Create(b).Error
	})
}
