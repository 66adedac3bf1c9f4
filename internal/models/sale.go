// internal/models/sale.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Sale keeps a snapshot of the product name and unit price at the time of sale,
// so history survives later edits or deactivation of the product.
type Sale struct {
	ID          uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	ProductID   *uuid.UUID      `json:"producto_id" gorm:"column:producto_id;type:uuid;index"`
	ProductName string          `json:"nombre_producto" gorm:"column:nombre_producto;size:100;not null"`
	Quantity    int             `json:"cantidad" gorm:"column:cantidad;not null"`
	UnitPrice   decimal.Decimal `json:"precio_unitario" gorm:"column:precio_unitario;type:decimal(12,2);not null"`
	Total       decimal.Decimal `json:"total" gorm:"column:total;type:decimal(14,2);not null"`
	Date        time.Time       `json:"fecha" gorm:"column:fecha;not null;index"`
}

func (Sale) TableName() string { return "ventas" }

func (s *Sale) GetID() uuid.UUID { return s.ID }

type SaleFilter struct {
	From   *time.Time
	To     *time.Time
	Offset int
	Limit  int
}
