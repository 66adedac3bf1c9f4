// internal/services/backup_service.go
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tallerpiolin/inventory-backend/internal/config"
	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/i18n"
	"github.com/tallerpiolin/inventory-backend/internal/models"
)

// Backup document, field names as written by every client since version 2.0.
type BackupDocument struct {
	Products      []BackupProduct      `json:"productos"`
	Sales         []BackupSale         `json:"ventas"`
	Notifications []BackupNotification `json:"notificaciones"`
	BackupDate    string               `json:"fechaRespaldo"`
	Version       string               `json:"version"`
	BusinessName  string               `json:"nombreNegocio"`
	Origin        string               `json:"origen"`
	Metadata      BackupMetadata       `json:"metadata"`
}

// Time is the moment the document was exported.
func (d *BackupDocument) Time() time.Time {
	t, err := time.Parse(time.RFC3339, d.BackupDate)
	if err != nil {
		return time.Now()
	}
	return t
}

type BackupProduct struct {
	ID          string          `json:"id"`
	Name        string          `json:"nombre"`
	Category    string          `json:"tipo"`
	Brand       string          `json:"marca"`
	Description string          `json:"descripcion"`
	Price       decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	MinStock    int             `json:"stockMinimo"`
	Barcode     string          `json:"codigo_barras"`
	CreatedAt   string          `json:"created_at"`
}

type BackupSale struct {
	ID          string          `json:"id"`
	ProductName string          `json:"nombreProducto"`
	Quantity    int             `json:"cantidad"`
	UnitPrice   decimal.Decimal `json:"precioUnitario"`
	Total       decimal.Decimal `json:"total"`
	Date        string          `json:"fecha"`
}

type BackupNotification struct {
	ID          string `json:"id"`
	Message     string `json:"mensaje"`
	Kind        string `json:"tipo"`
	ProductName string `json:"producto_nombre"`
	Read        bool   `json:"leida"`
	CreatedAt   string `json:"created_at"`
}

type BackupMetadata struct {
	TotalProducts      int `json:"totalProductos"`
	TotalSales         int `json:"totalVentas"`
	TotalNotifications int `json:"totalNotificaciones"`
}

type ImportResult struct {
	ImportedProducts  int `json:"importedProducts"`
	SkippedDuplicates int `json:"skippedDuplicates"`
	FailedProducts    int `json:"failedProducts"`
	ImportedSales     int `json:"importedSales"`
	FailedSales       int `json:"failedSales"`
}

func (r *ImportResult) Failed() bool {
	return r.FailedProducts > 0 || r.FailedSales > 0
}

// importProduct and importSale accept the snake_case spellings older
// exports used next to the current camelCase ones.
type importProduct struct {
	Name           string          `json:"nombre"`
	Category       string          `json:"tipo"`
	Brand          string          `json:"marca"`
	Description    string          `json:"descripcion"`
	Price          decimal.Decimal `json:"precio"`
	Stock          int             `json:"stock"`
	MinStock       *int            `json:"stockMinimo"`
	MinStockLegacy *int            `json:"stock_minimo"`
	Barcode        string          `json:"codigo_barras"`
}

type importSale struct {
	ProductName       string           `json:"nombreProducto"`
	ProductNameLegacy string           `json:"nombre_producto"`
	Quantity          *int             `json:"cantidad"`
	UnitPrice         *decimal.Decimal `json:"precioUnitario"`
	UnitPriceLegacy   *decimal.Decimal `json:"precio_unitario"`
	Total             *decimal.Decimal `json:"total"`
	Date              string           `json:"fecha"`
}

// CatalogRestorer is the catalog as seen by import and clear.
type CatalogRestorer interface {
	// Restore creates a product without per-item ledger entries.
	Restore(ctx context.Context, in ProductInput) (*models.Product, error)
	Forget()
}

type BackupService struct {
	products      gateway.ProductStore
	sales         gateway.SaleStore
	notifications gateway.NotificationStore
	catalog       CatalogRestorer
	ledger        *NotificationService
	storage       *StorageService
	business      config.BusinessConfig
	now           func() time.Time
}

func NewBackupService(gw *gateway.Gateway, catalog CatalogRestorer, ledger *NotificationService, storage *StorageService, business config.BusinessConfig) *BackupService {
	return &BackupService{
		products:      gw.Products,
		sales:         gw.Sales,
		notifications: gw.Notifications,
		catalog:       catalog,
		ledger:        ledger,
		storage:       storage,
		business:      business,
		now:           time.Now,
	}
}

// Export snapshots the active catalog with the full sales and notification history.
func (s *BackupService) Export(ctx context.Context) (*BackupDocument, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to export products: %w", err)
	}
	sales, _, err := s.sales.List(ctx, models.SaleFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to export sales: %w", err)
	}
	notifications, err := s.notifications.List(ctx, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to export notifications: %w", err)
	}

	doc := &BackupDocument{
		Products:      make([]BackupProduct, 0, len(products)),
		Sales:         make([]BackupSale, 0, len(sales)),
		Notifications: make([]BackupNotification, 0, len(notifications)),
		BackupDate:    s.now().UTC().Format(time.RFC3339),
		Version:       s.business.BackupVersion,
		BusinessName:  s.business.Name,
		Origin:        s.business.BackupOrigin,
		Metadata: BackupMetadata{
			TotalProducts:      len(products),
			TotalSales:         len(sales),
			TotalNotifications: len(notifications),
		},
	}

	for _, p := range products {
		doc.Products = append(doc.Products, BackupProduct{
			ID:          p.ID.String(),
			Name:        p.Name,
			Category:    p.CategoryName(),
			Brand:       p.BrandName(),
			Description: p.Description,
			Price:       p.Price,
			Stock:       p.Stock,
			MinStock:    p.MinStock,
			Barcode:     p.BarcodeValue(),
			CreatedAt:   p.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	for _, sale := range sales {
		doc.Sales = append(doc.Sales, BackupSale{
			ID:          sale.ID.String(),
			ProductName: sale.ProductName,
			Quantity:    sale.Quantity,
			UnitPrice:   sale.UnitPrice,
			Total:       sale.Total,
			Date:        sale.Date.UTC().Format(time.RFC3339),
		})
	}
	for _, n := range notifications {
		doc.Notifications = append(doc.Notifications, BackupNotification{
			ID:          n.ID.String(),
			Message:     n.Message,
			Kind:        string(n.Kind),
			ProductName: n.ProductNameValue(),
			Read:        n.Read,
			CreatedAt:   n.CreatedAt.UTC().Format(time.RFC3339),
		})
	}

	return doc, nil
}

// FileName is respaldo_<business>_<YYYY-MM-DD>_<HH-MM-SS>.json.
func (s *BackupService) FileName(at time.Time) string {
	business := strings.Join(strings.Fields(s.business.Name), "_")
	return fmt.Sprintf("respaldo_%s_%s.json", business, at.Format("2006-01-02_15-04-05"))
}

func (s *BackupService) Encode(doc *BackupDocument) ([]byte, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return data, nil
}

// Upload exports and stores the document, returning where it went.
func (s *BackupService) Upload(ctx context.Context) (*UploadResult, error) {
	doc, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	data, err := s.Encode(doc)
	if err != nil {
		return nil, err
	}

	result, err := s.storage.Put(ctx, FolderBackups, s.FileName(s.now()), "application/json", data)
	if err != nil {
		s.notifyFailed(ctx, err)
		return nil, err
	}
	if s.storage.Remote() {
		if url, err := s.storage.PresignedURL(result.Key, 24*time.Hour); err == nil {
			result.URL = url
		}
	}

	notify(ctx, s.ledger, i18n.T(s.business.Locale, i18n.KeyBackupUploaded, result.Key), models.NotificationKindInfo, "")
	return result, nil
}

// Import re-creates products and sales from a backup document. Products whose
// name is already active are skipped. Item failures are counted, never fatal.
func (s *BackupService) Import(ctx context.Context, data []byte) (*ImportResult, error) {
	products, sales, err := s.parse(data)
	if err != nil {
		s.notifyFailed(ctx, err)
		return nil, err
	}

	result := &ImportResult{}
	imported := make(map[string]uuid.UUID, len(products))

	for i, raw := range products {
		entry := logrus.WithField("index", i)

		var item importProduct
		if err := json.Unmarshal(raw, &item); err != nil {
			entry.WithError(err).Warn("Skipping unreadable backup product")
			result.FailedProducts++
			continue
		}
		entry = entry.WithField("product", item.Name)

		_, err := s.products.FindByName(ctx, strings.TrimSpace(item.Name))
		switch {
		case err == nil:
			result.SkippedDuplicates++
			continue
		case !models.IsNotFound(err):
			entry.WithError(err).Warn("Duplicate lookup failed during import")
			result.FailedProducts++
			continue
		}

		p, err := s.catalog.Restore(ctx, item.input())
		if err != nil {
			entry.WithError(err).Warn("Failed to import product")
			result.FailedProducts++
			continue
		}
		imported[strings.ToLower(p.Name)] = p.ID
		result.ImportedProducts++
	}

	for i, raw := range sales {
		var item importSale
		if err := json.Unmarshal(raw, &item); err != nil {
			logrus.WithField("index", i).WithError(err).Warn("Skipping unreadable backup sale")
			result.FailedSales++
			continue
		}

		sale, err := item.sale(s.now())
		if err != nil {
			logrus.WithField("index", i).WithError(err).Warn("Skipping invalid backup sale")
			result.FailedSales++
			continue
		}
		if id, ok := imported[strings.ToLower(sale.ProductName)]; ok {
			sale.ProductID = &id
		}
		if err := s.sales.Create(ctx, sale); err != nil {
			logrus.WithField("index", i).WithError(err).Warn("Failed to import sale")
			result.FailedSales++
			continue
		}
		result.ImportedSales++
	}

	kind := models.NotificationKindSuccess
	if result.Failed() {
		kind = models.NotificationKindWarning
	}
	notify(ctx, s.ledger, i18n.T(s.business.Locale, i18n.KeyBackupImportSummary,
		result.ImportedProducts, result.SkippedDuplicates, result.FailedProducts,
		result.ImportedSales, result.FailedSales), kind, "")

	return result, nil
}

func (s *BackupService) parse(data []byte) ([]json.RawMessage, []json.RawMessage, error) {
	invalid := models.NewValidationError(i18n.T(s.business.Locale, i18n.KeyBackupInvalid))

	var doc struct {
		Products json.RawMessage `json:"productos"`
		Sales    json.RawMessage `json:"ventas"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, invalid
	}

	products, ok := rawList(doc.Products)
	if !ok {
		return nil, nil, invalid
	}
	sales, ok := rawList(doc.Sales)
	if !ok && len(doc.Sales) > 0 && string(doc.Sales) != "null" {
		return nil, nil, invalid
	}
	return products, sales, nil
}

// rawList splits a JSON array into its elements.
func rawList(raw json.RawMessage) ([]json.RawMessage, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, false
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}
	return items, true
}

func (p importProduct) input() ProductInput {
	in := ProductInput{
		Name:        p.Name,
		Category:    p.Category,
		Brand:       p.Brand,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		Barcode:     p.Barcode,
	}
	// Only a missing threshold falls back to the category default; an explicit 0 is kept.
	in.MinStock = p.MinStock
	if in.MinStock == nil {
		in.MinStock = p.MinStockLegacy
	}
	return in
}

func (s importSale) sale(now time.Time) (*models.Sale, error) {
	name := strings.TrimSpace(s.ProductName)
	if name == "" {
		name = strings.TrimSpace(s.ProductNameLegacy)
	}
	if name == "" {
		return nil, errors.New("sale has no product name")
	}

	quantity := 1
	if s.Quantity != nil {
		quantity = *s.Quantity
	}
	if quantity <= 0 {
		return nil, fmt.Errorf("invalid quantity %d", quantity)
	}

	unitPrice := s.UnitPrice
	if unitPrice == nil {
		unitPrice = s.UnitPriceLegacy
	}
	if unitPrice == nil || unitPrice.IsNegative() {
		return nil, errors.New("sale has no unit price")
	}

	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))
	if s.Total != nil {
		total = *s.Total
	}

	date := now
	if s.Date != "" {
		parsed, err := time.Parse(time.RFC3339, s.Date)
		if err != nil {
			return nil, fmt.Errorf("invalid sale date %q: %w", s.Date, err)
		}
		date = parsed
	}

	return &models.Sale{
		ProductName: name,
		Quantity:    quantity,
		UnitPrice:   *unitPrice,
		Total:       total,
		Date:        date,
	}, nil
}

// ClearAll deletes sales and notifications and deactivates every product.
func (s *BackupService) ClearAll(ctx context.Context) error {
	if _, err := s.sales.DeleteAll(ctx); err != nil {
		s.notifyFailed(ctx, err)
		return fmt.Errorf("failed to delete sales: %w", err)
	}
	if _, err := s.ledger.RemoveAll(ctx); err != nil {
		s.notifyFailed(ctx, err)
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	if _, err := s.products.SoftDeleteAll(ctx); err != nil {
		s.notifyFailed(ctx, err)
		return fmt.Errorf("failed to deactivate products: %w", err)
	}
	s.catalog.Forget()

	notify(ctx, s.ledger, i18n.T(s.business.Locale, i18n.KeyDataCleared), models.NotificationKindWarning, "")
	return nil
}

func (s *BackupService) notifyFailed(ctx context.Context, err error) {
	locale := s.business.Locale
	notifyError(ctx, s.ledger, i18n.T(locale, i18n.KeyError)+": "+Describe(locale, err), "")
}
