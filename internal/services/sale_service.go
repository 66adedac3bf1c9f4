// internal/services/sale_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/i18n"
	"github.com/tallerpiolin/inventory-backend/internal/metrics"
	"github.com/tallerpiolin/inventory-backend/internal/models"
)

// MaxSaleQuantity bounds a single sale line.
const MaxSaleQuantity = 999999

// ProductCache receives products whose stock changed.
type ProductCache interface {
	Put(p models.Product)
}

type SaleService struct {
	products gateway.ProductStore
	sales    gateway.SaleStore
	notifier Notifier
	monitor  *StockMonitor
	catalog  ProductCache
	lang     string
	now      func() time.Time
}

type SellRequest struct {
	ProductID uuid.UUID `json:"producto_id" validate:"required"`
	Quantity  int       `json:"cantidad" validate:"required,min=1,max=999999"`
}

type SaleResult struct {
	Sale    *models.Sale    `json:"venta"`
	Product *models.Product `json:"producto"`
}

func NewSaleService(gw *gateway.Gateway, notifier Notifier, monitor *StockMonitor, catalog ProductCache, lang string) *SaleService {
	return &SaleService{
		products: gw.Products,
		sales:    gw.Sales,
		notifier: notifier,
		monitor:  monitor,
		catalog:  catalog,
		lang:     lang,
		now:      time.Now,
	}
}

// Sell records a sale and takes its quantity out of stock. The decrement is
// conditional on stock still covering the quantity; when it fails the sale
// record is deleted again.
func (s *SaleService) Sell(ctx context.Context, productID uuid.UUID, quantity int) (*SaleResult, error) {
	result, productName, err := s.sell(ctx, productID, quantity)
	if err != nil {
		metrics.SaleFailed(err)
		notifyError(ctx, s.notifier, i18n.T(s.lang, i18n.KeySaleFailed, Describe(s.lang, err)), productName)
		return nil, err
	}

	metrics.SaleCompleted(quantity)
	notify(ctx, s.notifier, i18n.T(s.lang, i18n.KeySaleSuccess, quantity, result.Product.Name), models.NotificationKindSuccess, result.Product.Name)

	if s.catalog != nil {
		s.catalog.Put(*result.Product)
	}
	if s.monitor != nil {
		if _, err := s.monitor.Check(ctx, *result.Product); err != nil {
			logrus.WithError(err).WithField("product", result.Product.Name).Warn("Stock check after sale failed")
		}
	}
	return result, nil
}

func (s *SaleService) sell(ctx context.Context, productID uuid.UUID, quantity int) (*SaleResult, string, error) {
	if quantity <= 0 || quantity > MaxSaleQuantity {
		return nil, "", models.NewValidationError(i18n.T(s.lang, i18n.KeyValidationQuantity))
	}

	product, err := s.products.Get(ctx, productID)
	if err != nil {
		return nil, "", err
	}
	if !product.Active {
		return nil, product.Name, &models.NotFoundError{Entity: "product", ID: productID.String()}
	}
	if product.Stock < quantity {
		return nil, product.Name, &models.InsufficientStockError{Available: product.Stock, Requested: quantity}
	}

	sale := &models.Sale{
		ProductID:   &product.ID,
		ProductName: product.Name,
		Quantity:    quantity,
		UnitPrice:   product.Price,
		Total:       product.Price.Mul(decimal.NewFromInt(int64(quantity))),
		Date:        s.now(),
	}
	if err := s.sales.Create(ctx, sale); err != nil {
		return nil, product.Name, fmt.Errorf("failed to record sale: %w", err)
	}

	updated, err := s.products.DecrementStock(ctx, product.ID, quantity)
	if err != nil {
		s.compensate(ctx, sale, err)
		return nil, product.Name, err
	}

	return &SaleResult{Sale: sale, Product: updated}, product.Name, nil
}

// compensate deletes a sale whose stock update failed. A failed delete
// leaves the sale recorded with stock untouched; it is only logged.
func (s *SaleService) compensate(ctx context.Context, sale *models.Sale, cause error) {
	err := s.sales.Delete(context.WithoutCancel(ctx), sale.ID)
	metrics.SaleCompensated(err == nil)

	fields := logrus.Fields{
		"sale_id":  sale.ID,
		"product":  sale.ProductName,
		"quantity": sale.Quantity,
		"cause":    cause.Error(),
	}
	if err != nil {
		fields["error"] = err.Error()
		logrus.WithFields(fields).Error("Sale recorded without stock decrement; compensating delete failed")
		return
	}
	logrus.WithFields(fields).Warn("Sale rolled back after stock update failed")
}

func (s *SaleService) List(ctx context.Context, filter models.SaleFilter) ([]models.Sale, int64, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, 0, models.NewValidationError("la fecha final es anterior a la inicial")
	}
	return s.sales.List(ctx, filter)
}

// LastWeek returns every sale from the last seven days, newest first.
func (s *SaleService) LastWeek(ctx context.Context) ([]models.Sale, error) {
	from := s.now().AddDate(0, 0, -7)
	sales, _, err := s.sales.List(ctx, models.SaleFilter{From: &from})
	return sales, err
}

// DayRange turns calendar days into an inclusive time range in loc.
// Either bound may be empty.
func DayRange(from, to string, loc *time.Location) (*time.Time, *time.Time, error) {
	var start, end *time.Time
	if from != "" {
		t, err := time.ParseInLocation(time.DateOnly, from, loc)
		if err != nil {
			return nil, nil, models.NewValidationError(fmt.Sprintf("fecha inválida: %s", from))
		}
		start = &t
	}
	if to != "" {
		t, err := time.ParseInLocation(time.DateOnly, to, loc)
		if err != nil {
			return nil, nil, models.NewValidationError(fmt.Sprintf("fecha inválida: %s", to))
		}
		t = t.AddDate(0, 0, 1).Add(-time.Millisecond)
		end = &t
	}
	return start, end, nil
}
