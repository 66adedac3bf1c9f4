// internal/models/product.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultMinStock applies when neither the product nor its category sets a threshold.
const DefaultMinStock = 5

type Product struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string          `json:"nombre" gorm:"column:nombre;size:100;not null"`
	Description string          `json:"descripcion" gorm:"column:descripcion;size:500"`
	Price       decimal.Decimal `json:"precio" gorm:"column:precio;type:decimal(12,2);not null"`
	Stock       int             `json:"stock" gorm:"column:stock;not null;default:0"`
	MinStock    int             `json:"stock_minimo" gorm:"column:stock_minimo;not null;default:5"`
	Barcode     *string         `json:"codigo_barras" gorm:"column:codigo_barras;size:18"`
	CategoryID  *uuid.UUID      `json:"tipo_id" gorm:"column:tipo_id;type:uuid"`
	BrandID     *uuid.UUID      `json:"marca_id" gorm:"column:marca_id;type:uuid"`
	Active      bool            `json:"activo" gorm:"column:activo;not null;default:true"`
	CreatedAt   time.Time       `json:"created_at"`

	// Relationships
	Category *Category `json:"tipos,omitempty" gorm:"foreignKey:CategoryID"`
	Brand    *Brand    `json:"marcas,omitempty" gorm:"foreignKey:BrandID"`
}

func (Product) TableName() string { return "productos" }

func (p *Product) GetID() uuid.UUID { return p.ID }

// BarcodeValue returns the barcode or "" when the product has none.
func (p *Product) BarcodeValue() string {
	if p.Barcode == nil {
		return ""
	}
	return *p.Barcode
}

func (p *Product) CategoryName() string {
	if p.Category == nil {
		return ""
	}
	return p.Category.Name
}

func (p *Product) BrandName() string {
	if p.Brand == nil {
		return ""
	}
	return p.Brand.Name
}

// ProductUpdate is a partial update. Nil fields are left untouched.
type ProductUpdate struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Stock       *int
	MinStock    *int
	Barcode     *string
	CategoryID  *uuid.UUID
	BrandID     *uuid.UUID
	Active      *bool
}

// Columns maps the update to store column names.
func (u ProductUpdate) Columns() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["nombre"] = *u.Name
	}
	if u.Description != nil {
		updates["descripcion"] = *u.Description
	}
	if u.Price != nil {
		updates["precio"] = *u.Price
	}
	if u.Stock != nil {
		updates["stock"] = *u.Stock
	}
	if u.MinStock != nil {
		updates["stock_minimo"] = *u.MinStock
	}
	if u.Barcode != nil {
		updates["codigo_barras"] = *u.Barcode
	}
	if u.CategoryID != nil {
		updates["tipo_id"] = *u.CategoryID
	}
	if u.BrandID != nil {
		updates["marca_id"] = *u.BrandID
	}
	if u.Active != nil {
		updates["activo"] = *u.Active
	}
	return updates
}

// Apply copies the set fields onto p.
func (u ProductUpdate) Apply(p *Product) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Price != nil {
		p.Price = *u.Price
	}
	if u.Stock != nil {
		p.Stock = *u.Stock
	}
	if u.MinStock != nil {
		p.MinStock = *u.MinStock
	}
	if u.Barcode != nil {
		code := *u.Barcode
		p.Barcode = &code
	}
	if u.CategoryID != nil {
		id := *u.CategoryID
		p.CategoryID = &id
	}
	if u.BrandID != nil {
		id := *u.BrandID
		p.BrandID = &id
	}
	if u.Active != nil {
		p.Active = *u.Active
	}
}

// Category is a product type ("tipo").
type Category struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name            string    `json:"nombre" gorm:"column:nombre;size:50;not null"`
	MinStockDefault *int      `json:"stock_minimo_default" gorm:"column:stock_minimo_default;default:5"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Category) TableName() string { return "tipos" }

type Brand struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name        string    `json:"nombre" gorm:"column:nombre;size:50;not null"`
	Description string    `json:"descripcion" gorm:"column:descripcion;size:255"`
	Active      bool      `json:"activo" gorm:"column:activo;not null;default:true"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Brand) TableName() string { return "marcas" }
