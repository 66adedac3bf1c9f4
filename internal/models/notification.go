// internal/models/notification.go
package models

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID          uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Message     string           `json:"mensaje" gorm:"column:mensaje;type:text;not null"`
	Kind        NotificationKind `json:"tipo" gorm:"column:tipo;type:varchar(20);not null;index"`
	ProductName *string          `json:"producto_nombre" gorm:"column:producto_nombre;size:100"`
	Read        bool             `json:"leida" gorm:"column:leida;not null;default:false"`
	CreatedAt   time.Time        `json:"created_at" gorm:"index"`
}

func (Notification) TableName() string { return "notificaciones" }

func (n *Notification) GetID() uuid.UUID { return n.ID }

func (n *Notification) ProductNameValue() string {
	if n.ProductName == nil {
		return ""
	}
	return *n.ProductName
}
