// internal/services/catalog_service.go
package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/tallerpiolin/inventory-backend/internal/cache"
	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/i18n"
	"github.com/tallerpiolin/inventory-backend/internal/models"
	"github.com/tallerpiolin/inventory-backend/internal/realtime"
	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

const autoBrandDescription = "Creada automáticamente"

type CatalogService struct {
	products   gateway.ProductStore
	categories gateway.CategoryStore
	brands     gateway.BrandStore
	notifier   Notifier
	monitor    *StockMonitor
	lang       string

	view         *cache.List[models.Product]
	categoryView *cache.List[models.Category]
	brandView    *cache.List[models.Brand]
	now          func() time.Time
	randomDigits func(n int) int
}

type ProductInput struct {
	Name        string          `json:"nombre" validate:"required,min=2,max=100"`
	Category    string          `json:"tipo" validate:"max=50"`
	Brand       string          `json:"marca" validate:"max=50"`
	Description string          `json:"descripcion" validate:"max=500"`
	Price       decimal.Decimal `json:"precio" validate:"gt=0,lte=99999999"`
	Stock       int             `json:"stock" validate:"min=0,max=999999"`
	MinStock    *int            `json:"stock_minimo" validate:"omitnil,min=0,max=999999"`
	Barcode     string          `json:"codigo_barras" validate:"omitempty,barcode"`
}

// ProductUpdateInput is a partial update; nil fields are left unchanged.
// An empty category, brand or barcode also leaves the current value.
type ProductUpdateInput struct {
	Name        *string          `json:"nombre" validate:"omitnil,min=2,max=100"`
	Category    *string          `json:"tipo" validate:"omitnil,max=50"`
	Brand       *string          `json:"marca" validate:"omitnil,max=50"`
	Description *string          `json:"descripcion" validate:"omitnil,max=500"`
	Price       *decimal.Decimal `json:"precio" validate:"omitnil,gt=0,lte=99999999"`
	Stock       *int             `json:"stock" validate:"omitnil,min=0,max=999999"`
	MinStock    *int             `json:"stock_minimo" validate:"omitnil,min=0,max=999999"`
	Barcode     *string          `json:"codigo_barras" validate:"omitempty,barcode"`
}

// ProductResult is a saved product plus any non-blocking warnings.
type ProductResult struct {
	Product  *models.Product `json:"producto"`
	Warnings []string        `json:"advertencias,omitempty"`
}

type BarcodeCheck struct {
	Exists  bool            `json:"exists"`
	Product *models.Product `json:"producto,omitempty"`
}

func NewCatalogService(gw *gateway.Gateway, notifier Notifier, monitor *StockMonitor, lang string) *CatalogService {
	return &CatalogService{
		products:   gw.Products,
		categories: gw.Categories,
		brands:     gw.Brands,
		notifier:   notifier,
		monitor:    monitor,
		lang:       lang,
		view: cache.New(
			func(p *models.Product) uuid.UUID { return p.ID },
			func(a, b models.Product) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
			0,
		),
		categoryView: cache.New(
			func(c *models.Category) uuid.UUID { return c.ID },
			func(a, b models.Category) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
			0,
		),
		brandView: cache.New(
			func(b *models.Brand) uuid.UUID { return b.ID },
			func(a, b models.Brand) int { return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)) },
			0,
		),
		now:          time.Now,
		randomDigits: rand.Intn,
	}
}

// Load fills the views from the store and runs a stock check over the catalog.
func (s *CatalogService) Load(ctx context.Context) error {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load categories: %w", err)
	}
	brands, err := s.brands.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load brands: %w", err)
	}
	products, err := s.products.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to load products: %w", err)
	}

	s.categoryView.Reset(categories)
	s.brandView.Reset(brands)
	s.view.Reset(products)

	if s.monitor != nil {
		if _, err := s.monitor.Check(ctx, products...); err != nil {
			logrus.WithError(err).Warn("Stock check after catalog load failed")
		}
	}
	return nil
}

// List returns the cached active catalog ordered by name.
func (s *CatalogService) List() []models.Product {
	return s.view.Snapshot()
}

func (s *CatalogService) ListCategories() []models.Category {
	return s.categoryView.Snapshot()
}

func (s *CatalogService) ListBrands() []models.Brand {
	return s.brandView.Filter(func(b *models.Brand) bool { return b.Active })
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, &models.NotFoundError{Entity: "product", ID: id.String()}
	}
	return p, nil
}

func (s *CatalogService) FindByBarcode(ctx context.Context, code string) (*models.Product, error) {
	if !utils.IsBarcode(code) {
		return nil, models.NewValidationError(i18n.T(s.lang, i18n.KeyValidationBarcode))
	}
	return s.products.FindByBarcode(ctx, code)
}

func (s *CatalogService) Create(ctx context.Context, in ProductInput) (*ProductResult, error) {
	p, err := s.create(ctx, in)
	if err != nil {
		notifyFailure(ctx, s.notifier, i18n.T(s.lang, i18n.KeyProductSaveFailed, Describe(s.lang, err)), err, in.Name)
		return nil, err
	}

	notify(ctx, s.notifier, i18n.T(s.lang, i18n.KeyProductCreated, p.Name), models.NotificationKindInfo, p.Name)
	s.checkStock(ctx, *p)
	return &ProductResult{Product: p, Warnings: s.warnings(p)}, nil
}

// Restore creates a product without ledger entries. Used by backup import,
// which reports one summary instead.
func (s *CatalogService) Restore(ctx context.Context, in ProductInput) (*models.Product, error) {
	return s.create(ctx, in)
}

func (s *CatalogService) create(ctx context.Context, in ProductInput) (*models.Product, error) {
	in.sanitize()
	if err := utils.ValidateStruct(&in); err != nil {
		return nil, models.NewValidationError(utils.ValidationMessages(err)...)
	}

	barcode := in.Barcode
	if barcode != "" {
		if err := s.ensureBarcodeFree(ctx, barcode, nil); err != nil {
			return nil, err
		}
	} else {
		generated, err := s.GenerateBarcode(ctx)
		if err != nil {
			return nil, err
		}
		barcode = generated
	}

	category, err := s.findOrCreateCategory(ctx, in.Category)
	if err != nil {
		return nil, err
	}
	brand, err := s.findOrCreateBrand(ctx, in.Brand)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price.Round(2),
		Stock:       in.Stock,
		MinStock:    effectiveMinStock(in.MinStock, category),
		Barcode:     &barcode,
		Active:      true,
	}
	if category != nil {
		product.CategoryID = &category.ID
	}
	if brand != nil {
		product.BrandID = &brand.ID
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	s.Put(*product)
	return product, nil
}

func (s *CatalogService) Update(ctx context.Context, id uuid.UUID, in ProductUpdateInput) (*ProductResult, error) {
	p, err := s.update(ctx, id, in)
	if err != nil {
		name := ""
		if in.Name != nil {
			name = *in.Name
		}
		notifyFailure(ctx, s.notifier, i18n.T(s.lang, i18n.KeyProductSaveFailed, Describe(s.lang, err)), err, name)
		return nil, err
	}

	notify(ctx, s.notifier, i18n.T(s.lang, i18n.KeyProductUpdated, p.Name), models.NotificationKindInfo, p.Name)
	s.checkStock(ctx, *p)
	return &ProductResult{Product: p, Warnings: s.warnings(p)}, nil
}

func (s *CatalogService) update(ctx context.Context, id uuid.UUID, in ProductUpdateInput) (*models.Product, error) {
	in.sanitize()
	if err := utils.ValidateStruct(&in); err != nil {
		return nil, models.NewValidationError(utils.ValidationMessages(err)...)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	u := models.ProductUpdate{
		Name:        in.Name,
		Description: in.Description,
		Stock:       in.Stock,
		MinStock:    in.MinStock,
	}
	if in.Price != nil {
		price := in.Price.Round(2)
		u.Price = &price
	}
	if in.Barcode != nil && *in.Barcode != "" && *in.Barcode != current.BarcodeValue() {
		if err := s.ensureBarcodeFree(ctx, *in.Barcode, &id); err != nil {
			return nil, err
		}
		u.Barcode = in.Barcode
	}
	if in.Category != nil && *in.Category != "" {
		category, err := s.findOrCreateCategory(ctx, *in.Category)
		if err != nil {
			return nil, err
		}
		u.CategoryID = &category.ID
	}
	if in.Brand != nil && *in.Brand != "" {
		brand, err := s.findOrCreateBrand(ctx, *in.Brand)
		if err != nil {
			return nil, err
		}
		u.BrandID = &brand.ID
	}

	updated, err := s.products.Update(ctx, id, u)
	if err != nil {
		return nil, fmt.Errorf("failed to update product: %w", err)
	}

	s.Put(*updated)
	return updated, nil
}

// SoftDelete deactivates the product. Sales keep their reference.
func (s *CatalogService) SoftDelete(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.softDelete(ctx, id)
	if err != nil {
		notifyFailure(ctx, s.notifier, i18n.T(s.lang, i18n.KeyProductSaveFailed, Describe(s.lang, err)), err, "")
		return nil, err
	}

	s.view.Remove(id)
	notify(ctx, s.notifier, i18n.T(s.lang, i18n.KeyProductDeleted, p.Name), models.NotificationKindInfo, p.Name)
	return p, nil
}

func (s *CatalogService) softDelete(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	// Already inactive products are as absent as unknown ones.
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.products.SoftDelete(ctx, id)
}

// CheckBarcodeUnique reports whether an active product other than exclude holds code.
func (s *CatalogService) CheckBarcodeUnique(ctx context.Context, code string, exclude *uuid.UUID) (BarcodeCheck, error) {
	p, err := s.products.FindByBarcode(ctx, code)
	if models.IsNotFound(err) {
		return BarcodeCheck{}, nil
	}
	if err != nil {
		return BarcodeCheck{}, err
	}
	if exclude != nil && p.ID == *exclude {
		return BarcodeCheck{}, nil
	}
	return BarcodeCheck{Exists: true, Product: p}, nil
}

func (s *CatalogService) ensureBarcodeFree(ctx context.Context, code string, exclude *uuid.UUID) error {
	check, err := s.CheckBarcodeUnique(ctx, code, exclude)
	if err != nil {
		return err
	}
	if check.Exists {
		return &models.ConflictError{Barcode: code, ProductID: check.Product.ID, ProductName: check.Product.Name}
	}
	return nil
}

// GenerateBarcode returns a 13 digit code no active product holds:
// "7", six digits of the millisecond clock, then six random digits.
func (s *CatalogService) GenerateBarcode(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", &models.RemoteError{Op: "productos.generate_barcode", Message: err.Error(), Err: err}
		}

		code := fmt.Sprintf("7%06d%06d", s.now().UnixMilli()%1_000_000, s.randomDigits(1_000_000))
		_, err := s.products.FindByBarcode(ctx, code)
		if models.IsNotFound(err) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func (s *CatalogService) findOrCreateCategory(ctx context.Context, name string) (*models.Category, error) {
	if name == "" {
		return nil, nil
	}

	found, err := s.categories.FindByName(ctx, name)
	if err == nil {
		s.categoryView.Upsert(*found)
		return found, nil
	}
	if !models.IsNotFound(err) {
		return nil, err
	}

	defaultMin := models.DefaultMinStock
	category := &models.Category{Name: name, MinStockDefault: &defaultMin}
	if err := s.categories.Create(ctx, category); err != nil {
		if !gateway.IsDuplicate(err) {
			return nil, fmt.Errorf("failed to create category: %w", err)
		}
		// Created concurrently under the same name.
		if category, err = s.categories.FindByName(ctx, name); err != nil {
			return nil, err
		}
	}

	s.categoryView.Upsert(*category)
	return category, nil
}

func (s *CatalogService) findOrCreateBrand(ctx context.Context, name string) (*models.Brand, error) {
	if name == "" {
		return nil, nil
	}

	found, err := s.brands.FindByName(ctx, name)
	if err == nil {
		s.brandView.Upsert(*found)
		return found, nil
	}
	if !models.IsNotFound(err) {
		return nil, err
	}

	brand := &models.Brand{Name: name, Description: autoBrandDescription, Active: true}
	if err := s.brands.Create(ctx, brand); err != nil {
		if !gateway.IsDuplicate(err) {
			return nil, fmt.Errorf("failed to create brand: %w", err)
		}
		if brand, err = s.brands.FindByName(ctx, name); err != nil {
			return nil, err
		}
	}

	s.brandView.Upsert(*brand)
	return brand, nil
}

// Put records a product written elsewhere, such as a sale's stock update.
func (s *CatalogService) Put(p models.Product) {
	if !p.Active {
		s.view.Remove(p.ID)
		return
	}
	s.hydrate(&p)
	s.view.Upsert(p)
}

// Forget empties the catalog view after a bulk deactivation.
func (s *CatalogService) Forget() {
	s.view.Reset(nil)
}

// ApplyChange merges a realtime change on productos, tipos or marcas.
func (s *CatalogService) ApplyChange(c realtime.Change) error {
	switch c.Table {
	case "tipos":
		_, err := s.categoryView.Apply(c)
		return err
	case "marcas":
		_, err := s.brandView.Apply(c)
		return err
	case "productos":
		if c.Kind == realtime.Inserted {
			var p models.Product
			if err := c.DecodeNew(&p); err != nil {
				return err
			}
			if !p.Active {
				return nil
			}
		}
		res, err := s.view.Apply(c)
		if err != nil || !res.Changed || res.After == nil {
			return err
		}
		if !res.After.Active {
			s.view.Remove(res.After.ID)
			return nil
		}
		s.hydrate(res.After)
		s.view.Update(*res.After)
		return nil
	}
	return nil
}

func (s *CatalogService) hydrate(p *models.Product) {
	if p.CategoryID != nil {
		if c, ok := s.categoryView.Get(*p.CategoryID); ok {
			p.Category = &c
		}
	}
	if p.BrandID != nil {
		if b, ok := s.brandView.Get(*p.BrandID); ok {
			p.Brand = &b
		}
	}
}

func (s *CatalogService) checkStock(ctx context.Context, p models.Product) {
	if s.monitor == nil {
		return
	}
	if _, err := s.monitor.Check(ctx, p); err != nil {
		logrus.WithError(err).WithField("product", p.Name).Warn("Stock check failed")
	}
}

// warnings lists conditions worth showing that do not block the write.
func (s *CatalogService) warnings(p *models.Product) []string {
	var out []string
	if p.MinStock > p.Stock {
		out = append(out, i18n.T(s.lang, i18n.KeyProductMinStockWarning, p.MinStock, p.Stock))
	}
	return out
}

func effectiveMinStock(explicit *int, category *models.Category) int {
	switch {
	case explicit != nil:
		return *explicit
	case category != nil && category.MinStockDefault != nil:
		return *category.MinStockDefault
	default:
		return models.DefaultMinStock
	}
}

func (in *ProductInput) sanitize() {
	in.Name = utils.SanitizeText(in.Name)
	in.Category = utils.SanitizeText(in.Category)
	in.Brand = utils.SanitizeText(in.Brand)
	in.Description = utils.SanitizeText(in.Description)
	in.Barcode = strings.TrimSpace(in.Barcode)
}

func (in *ProductUpdateInput) sanitize() {
	for _, field := range []**string{&in.Name, &in.Category, &in.Brand, &in.Description} {
		if *field != nil {
			clean := utils.SanitizeText(**field)
			*field = &clean
		}
	}
	if in.Barcode != nil {
		code := strings.TrimSpace(*in.Barcode)
		if code == "" {
			in.Barcode = nil
		} else {
			in.Barcode = &code
		}
	}
}
