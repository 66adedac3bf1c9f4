package services

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/models"
	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

func (suite *ServiceTestSuite) TestCreateProduct() {
	suite.store.SeedCategory(models.Category{Name: "Filtros", MinStockDefault: intPtr(3)})

	res, err := suite.catalog.Create(suite.ctx, ProductInput{
		Name:     "  Filtro <b>de</b> aceite ",
		Category: "filtros",
		Brand:    "Bosch",
		Price:    decimal.NewFromInt(5000),
		Stock:    10,
	})
	require.NoError(suite.T(), err)

	p := res.Product
	assert.Equal(suite.T(), "Filtro bde/b aceite", p.Name)
	assert.Equal(suite.T(), 3, p.MinStock, "category default applies")
	assert.True(suite.T(), p.Active)
	assert.True(suite.T(), utils.IsBarcode(p.BarcodeValue()), "a barcode is generated")
	assert.Equal(suite.T(), "Filtros", p.CategoryName())
	assert.Equal(suite.T(), "Bosch", p.BrandName())
	assert.Empty(suite.T(), res.Warnings)

	assert.Len(suite.T(), suite.store.AllCategories(), 1, "existing category reused case-insensitively")
	brands := suite.store.AllBrands()
	require.Len(suite.T(), brands, 1)
	assert.Equal(suite.T(), autoBrandDescription, brands[0].Description)

	assert.Len(suite.T(), suite.catalog.List(), 1)
	info := suite.notificationsOfKind(models.NotificationKindInfo)
	require.Len(suite.T(), info, 1)
	assert.Equal(suite.T(), "Producto agregado al inventario: Filtro bde/b aceite", info[0].Message)
}

func (suite *ServiceTestSuite) TestCreateProduct_DefaultMinStock() {
	res, err := suite.catalog.Create(suite.ctx, ProductInput{Name: "Bujía", Price: decimal.NewFromInt(1200), Stock: 20})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), models.DefaultMinStock, res.Product.MinStock)

	res, err = suite.catalog.Create(suite.ctx, ProductInput{Name: "Bujía iridio", Price: decimal.NewFromInt(4200), Stock: 20, MinStock: intPtr(0)})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, res.Product.MinStock, "explicit zero wins")
}

func (suite *ServiceTestSuite) TestCreateProduct_ShortBarcodeMakesNoRemoteCall() {
	_, err := suite.catalog.Create(suite.ctx, ProductInput{
		Name:    "Amortiguador",
		Price:   decimal.NewFromInt(25000),
		Stock:   4,
		Barcode: "123",
	})

	var ve *models.ValidationError
	require.ErrorAs(suite.T(), err, &ve)
	assert.Contains(suite.T(), ve.Messages, "El código de barras debe tener entre 8 y 18 dígitos numéricos")
	assert.Zero(suite.T(), suite.store.TotalCalls())
}

func (suite *ServiceTestSuite) TestCreateProduct_ValidationMessages() {
	_, err := suite.catalog.Create(suite.ctx, ProductInput{Name: "A", Price: decimal.Zero, Stock: -1})

	var ve *models.ValidationError
	require.ErrorAs(suite.T(), err, &ve)
	assert.Len(suite.T(), ve.Messages, 3)
	assert.Contains(suite.T(), ve.Messages, "nombre debe tener al menos 2 caracteres")
	assert.Contains(suite.T(), ve.Messages, "precio debe ser mayor que 0")
	assert.Contains(suite.T(), ve.Messages, "stock debe ser al menos 0")
	assert.Zero(suite.T(), suite.store.TotalCalls())
}

func (suite *ServiceTestSuite) TestCreateProduct_BarcodeConflict() {
	suite.seedProduct("Pastillas de freno", 18000, 6, 2, "7501234567890")

	_, err := suite.catalog.Create(suite.ctx, ProductInput{
		Name:    "Discos de freno",
		Price:   decimal.NewFromInt(32000),
		Stock:   2,
		Barcode: "7501234567890",
	})

	var ce *models.ConflictError
	require.ErrorAs(suite.T(), err, &ce)
	assert.Equal(suite.T(), "Pastillas de freno", ce.ProductName)
	assert.Zero(suite.T(), suite.store.Calls("productos.create"))

	errs := suite.notificationsOfKind(models.NotificationKindError)
	require.Len(suite.T(), errs, 1)
	assert.Contains(suite.T(), errs[0].Message, `ya está asignado al producto "Pastillas de freno"`)
}

func (suite *ServiceTestSuite) TestCreateProduct_MinStockAboveStockWarns() {
	res, err := suite.catalog.Create(suite.ctx, ProductInput{
		Name:     "Correa de distribución",
		Price:    decimal.NewFromInt(15000),
		Stock:    1,
		MinStock: intPtr(4),
	})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), res.Warnings, 1)
	assert.Equal(suite.T(), "El stock mínimo (4) es mayor que el stock actual (1)", res.Warnings[0])
}

func (suite *ServiceTestSuite) TestCreateProduct_RemoteFailureNotifies() {
	suite.store.Fail("productos.create", &models.RemoteError{Op: "productos.create", Message: "connection refused"})

	_, err := suite.catalog.Create(suite.ctx, ProductInput{Name: "Radiador", Price: decimal.NewFromInt(90000), Stock: 1})

	var re *models.RemoteError
	require.ErrorAs(suite.T(), err, &re)
	errs := suite.notificationsOfKind(models.NotificationKindError)
	require.Len(suite.T(), errs, 1)
	assert.Contains(suite.T(), errs[0].Message, "connection refused")
	assert.Empty(suite.T(), suite.catalog.List())
}

// racingCategories creates the row and then reports a unique violation,
// as when another client inserted the same name first.
type racingCategories struct {
	gateway.CategoryStore
}

func (r racingCategories) Create(ctx context.Context, c *models.Category) error {
	if err := r.CategoryStore.Create(ctx, &models.Category{Name: c.Name, MinStockDefault: c.MinStockDefault}); err != nil {
		return err
	}
	return &models.RemoteError{Op: "tipos.create", Message: "duplicate key", Err: gorm.ErrDuplicatedKey}
}

func (suite *ServiceTestSuite) TestCreateProduct_CategoryRaceRetriedAsLookup() {
	gw := suite.store.Gateway()
	gw.Categories = racingCategories{gw.Categories}
	catalog := NewCatalogService(gw, suite.ledger, nil, "es")

	res, err := catalog.Create(suite.ctx, ProductInput{Name: "Aceite 10W40", Category: "Lubricantes", Price: decimal.NewFromInt(7000), Stock: 12})
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), res.Product.CategoryID)

	categories := suite.store.AllCategories()
	require.Len(suite.T(), categories, 1)
	assert.Equal(suite.T(), categories[0].ID, *res.Product.CategoryID)

	assert.Len(suite.T(), catalog.ListCategories(), 1)
	cached := catalog.List()
	require.Len(suite.T(), cached, 1)
	assert.Equal(suite.T(), "Lubricantes", cached[0].CategoryName())
}

func (suite *ServiceTestSuite) TestUpdateProduct() {
	p := suite.seedProduct("Filtro de aire", 6000, 5, 2, "7500000000011")

	res, err := suite.catalog.Update(suite.ctx, p.ID, ProductUpdateInput{
		Price:   decimalPtr(6500),
		Stock:   intPtr(0),
		Brand:   strPtr("Mann"),
		Barcode: strPtr(""),
	})
	require.NoError(suite.T(), err)

	assert.True(suite.T(), decimal.NewFromInt(6500).Equal(res.Product.Price))
	assert.Equal(suite.T(), 0, res.Product.Stock)
	assert.Equal(suite.T(), "7500000000011", res.Product.BarcodeValue(), "empty barcode leaves it unchanged")
	assert.Equal(suite.T(), "Mann", res.Product.BrandName())
	assert.Equal(suite.T(), "Filtro de aire", res.Product.Name)

	critical := suite.notificationsOfKind(models.NotificationKindCritical)
	require.Len(suite.T(), critical, 1)
	assert.Equal(suite.T(), "Filtro de aire - Stock: 0/2", critical[0].Message)
}

func (suite *ServiceTestSuite) TestUpdateProduct_BarcodeConflict() {
	suite.seedProduct("Termostato", 9000, 3, 1, "7500000000028")
	p := suite.seedProduct("Bomba de agua", 31000, 2, 1, "7500000000035")

	_, err := suite.catalog.Update(suite.ctx, p.ID, ProductUpdateInput{Barcode: strPtr("7500000000028")})

	var ce *models.ConflictError
	require.ErrorAs(suite.T(), err, &ce)
	assert.Zero(suite.T(), suite.store.Calls("productos.update"))

	// Keeping its own barcode is not a conflict.
	_, err = suite.catalog.Update(suite.ctx, p.ID, ProductUpdateInput{Barcode: strPtr("7500000000035"), Stock: intPtr(9)})
	require.NoError(suite.T(), err)
}

func (suite *ServiceTestSuite) TestUpdateProduct_InactiveIsNotFound() {
	p := suite.seedProduct("Manguera", 3000, 3, 1, "")
	_, err := suite.catalog.SoftDelete(suite.ctx, p.ID)
	require.NoError(suite.T(), err)

	_, err = suite.catalog.Update(suite.ctx, p.ID, ProductUpdateInput{Stock: intPtr(5)})
	assert.True(suite.T(), models.IsNotFound(err))
}

func (suite *ServiceTestSuite) TestSoftDelete() {
	p := suite.seedProduct("Batería 12V", 65000, 2, 1, "7500000000042")
	require.NoError(suite.T(), suite.catalog.Load(suite.ctx))
	require.Len(suite.T(), suite.catalog.List(), 1)

	deleted, err := suite.catalog.SoftDelete(suite.ctx, p.ID)
	require.NoError(suite.T(), err)

	assert.False(suite.T(), deleted.Active)
	assert.False(suite.T(), suite.productByID(p.ID).Active)
	assert.Empty(suite.T(), suite.catalog.List())
	assert.Len(suite.T(), suite.store.AllProducts(), 1, "soft delete keeps the row")

	check, err := suite.catalog.CheckBarcodeUnique(suite.ctx, "7500000000042", nil)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), check.Exists, "inactive products release their barcode")
}

func (suite *ServiceTestSuite) TestSoftDelete_InactiveIsNotFound() {
	p := suite.seedProduct("Bombillo H4", 2500, 8, 2, "")
	_, err := suite.catalog.SoftDelete(suite.ctx, p.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), suite.notificationsOfKind(models.NotificationKindInfo), 1)

	_, err = suite.catalog.SoftDelete(suite.ctx, p.ID)
	assert.True(suite.T(), models.IsNotFound(err))
	assert.Equal(suite.T(), 1, suite.store.Calls("productos.soft_delete"))
	assert.Len(suite.T(), suite.notificationsOfKind(models.NotificationKindInfo), 1)
}

func (suite *ServiceTestSuite) TestCheckBarcodeUnique() {
	a := suite.seedProduct("Rótula", 11000, 4, 1, "7500000000059")
	b := suite.seedProduct("Terminal", 8000, 4, 1, "7500000000066")

	check, err := suite.catalog.CheckBarcodeUnique(suite.ctx, a.BarcodeValue(), nil)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), check.Exists)
	assert.Equal(suite.T(), a.ID, check.Product.ID)

	check, err = suite.catalog.CheckBarcodeUnique(suite.ctx, a.BarcodeValue(), &a.ID)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), check.Exists)

	check, err = suite.catalog.CheckBarcodeUnique(suite.ctx, a.BarcodeValue(), &b.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), check.Exists)

	check, err = suite.catalog.CheckBarcodeUnique(suite.ctx, "7599999999999", nil)
	require.NoError(suite.T(), err)
	assert.False(suite.T(), check.Exists)
}

func (suite *ServiceTestSuite) TestGenerateBarcode_RetriesOnCollision() {
	suite.setClock(time.UnixMilli(1_700_000_123_456))
	digits := []int{1, 1, 2}
	suite.catalog.randomDigits = func(int) int {
		d := digits[0]
		digits = digits[1:]
		return d
	}
	suite.seedProduct("Sensor", 22000, 1, 1, "7123456000001")

	code, err := suite.catalog.GenerateBarcode(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "7123456000002", code)
	assert.Equal(suite.T(), 3, suite.store.Calls("productos.find_by_barcode"))
	assert.True(suite.T(), utils.IsBarcode(code))
}

func (suite *ServiceTestSuite) TestGenerateBarcode_RemoteError() {
	suite.store.Fail("productos.find_by_barcode", &models.RemoteError{Message: "timeout"})

	_, err := suite.catalog.GenerateBarcode(suite.ctx)
	var re *models.RemoteError
	assert.True(suite.T(), errors.As(err, &re))
}

func decimalPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}
