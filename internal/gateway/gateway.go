// internal/gateway/gateway.go
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tallerpiolin/inventory-backend/internal/metrics"
	"github.com/tallerpiolin/inventory-backend/internal/models"
	"github.com/tallerpiolin/inventory-backend/internal/realtime"
)

const DefaultTimeout = 10 * time.Second

type ProductStore interface {
	// List returns the active catalog ordered by name.
	List(ctx context.Context) ([]models.Product, error)
	Search(ctx context.Context, term string) ([]models.Product, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
	FindByBarcode(ctx context.Context, code string) (*models.Product, error)
	FindByName(ctx context.Context, name string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, id uuid.UUID, u models.ProductUpdate) (*models.Product, error)
	SoftDelete(ctx context.Context, id uuid.UUID) (*models.Product, error)
	SoftDeleteAll(ctx context.Context) (int64, error)
	// DecrementStock subtracts qty only while stock covers it.
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) (*models.Product, error)
}

type CategoryStore interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByName(ctx context.Context, name string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
}

type BrandStore interface {
	List(ctx context.Context) ([]models.Brand, error)
	FindByName(ctx context.Context, name string) (*models.Brand, error)
	Create(ctx context.Context, b *models.Brand) error
}

type SaleStore interface {
	List(ctx context.Context, filter models.SaleFilter) ([]models.Sale, int64, error)
	Create(ctx context.Context, s *models.Sale) error
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteAll(ctx context.Context) (int64, error)
}

type NotificationStore interface {
	List(ctx context.Context, limit int) ([]models.Notification, error)
	Create(ctx context.Context, n *models.Notification) error
	MarkRead(ctx context.Context, id uuid.UUID) (*models.Notification, error)
	MarkAllRead(ctx context.Context) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	DeleteRead(ctx context.Context) (int64, error)
	DeleteAll(ctx context.Context) (int64, error)
	DeleteBefore(ctx context.Context, t time.Time) (int64, error)
}

// Feed is the realtime side of the store.
type Feed interface {
	Subscribe(table string, fn realtime.Handler) *realtime.Subscription
}

// Gateway groups the typed collections over one store connection.
type Gateway struct {
	Products      ProductStore
	Categories    CategoryStore
	Brands        BrandStore
	Sales         SaleStore
	Notifications NotificationStore
	Feed          Feed
}

func New(db *gorm.DB, timeout time.Duration, feed Feed) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Gateway{
		Products:      &productRepo{conn{db: db, timeout: timeout, table: "productos", entity: "product"}},
		Categories:    &categoryRepo{conn{db: db, timeout: timeout, table: "tipos", entity: "category"}},
		Brands:        &brandRepo{conn{db: db, timeout: timeout, table: "marcas", entity: "brand"}},
		Sales:         &saleRepo{conn{db: db, timeout: timeout, table: "ventas", entity: "sale"}},
		Notifications: &notificationRepo{conn{db: db, timeout: timeout, table: "notificaciones", entity: "notification"}},
		Feed:          feed,
	}
}

type conn struct {
	db      *gorm.DB
	timeout time.Duration
	table   string
	entity  string
}

// do runs fn with a bounded context and maps its error into the error taxonomy.
func (c conn) do(ctx context.Context, op, id string, fn func(tx *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	err := c.translate(op, id, fn(c.db.WithContext(ctx)), ctx.Err())
	metrics.ObserveStoreCall(c.table, op, start, err)
	return err
}

func (c conn) translate(op, id string, err, ctxErr error) error {
	if err == nil {
		return nil
	}

	var (
		nf *models.NotFoundError
		is *models.InsufficientStockError
		re *models.RemoteError
	)
	switch {
	case errors.As(err, &nf), errors.As(err, &is), errors.As(err, &re):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &models.NotFoundError{Entity: c.entity, ID: id}
	case errors.Is(err, context.DeadlineExceeded), errors.Is(ctxErr, context.DeadlineExceeded):
		return &models.RemoteError{Op: c.table + "." + op, Message: "request timed out after " + c.timeout.String(), Err: err}
	default:
		return &models.RemoteError{Op: c.table + "." + op, Message: err.Error(), Err: err}
	}
}

// IsDuplicate reports whether err came from a unique constraint violation.
func IsDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}
