package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/models"
)

// staleProducts answers Get with an old snapshot of the product.
type staleProducts struct {
	gateway.ProductStore
	snapshot models.Product
}

func (s staleProducts) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p := s.snapshot
	return &p, nil
}

func (suite *ServiceTestSuite) TestSell_OilFilterScenario() {
	res, err := suite.catalog.Create(suite.ctx, ProductInput{
		Name:     "Oil Filter",
		Price:    decimal.NewFromInt(5000),
		Stock:    10,
		MinStock: intPtr(2),
	})
	require.NoError(suite.T(), err)
	id := res.Product.ID

	sold, err := suite.sales.Sell(suite.ctx, id, 3)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 7, sold.Product.Stock)
	assert.Equal(suite.T(), 7, suite.productByID(id).Stock)
	assert.True(suite.T(), decimal.NewFromInt(15000).Equal(sold.Sale.Total))
	assert.True(suite.T(), decimal.NewFromInt(5000).Equal(sold.Sale.UnitPrice))
	assert.Equal(suite.T(), "Oil Filter", sold.Sale.ProductName)
	require.Len(suite.T(), suite.store.AllSales(), 1)

	_, err = suite.sales.Sell(suite.ctx, id, 8)
	var is *models.InsufficientStockError
	require.ErrorAs(suite.T(), err, &is)
	assert.Equal(suite.T(), 7, is.Available)
	assert.Equal(suite.T(), 8, is.Requested)

	assert.Equal(suite.T(), 7, suite.productByID(id).Stock)
	assert.Len(suite.T(), suite.store.AllSales(), 1, "no sale recorded for the failed attempt")

	success := suite.notificationsOfKind(models.NotificationKindSuccess)
	require.Len(suite.T(), success, 1)
	assert.Equal(suite.T(), "Venta: 3x Oil Filter", success[0].Message)

	errs := suite.notificationsOfKind(models.NotificationKindError)
	require.Len(suite.T(), errs, 1)
	assert.Equal(suite.T(), "Error al procesar la venta: Stock insuficiente. Disponible: 7, Solicitado: 8", errs[0].Message)

	cached, ok := suite.catalog.view.Get(id)
	require.True(suite.T(), ok)
	assert.Equal(suite.T(), 7, cached.Stock, "catalog view follows the sale")
}

func (suite *ServiceTestSuite) TestSell_ExactStock() {
	p := suite.seedProduct("Empaque", 2500, 4, 1, "")

	res, err := suite.sales.Sell(suite.ctx, p.ID, 4)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, res.Product.Stock)

	critical := suite.notificationsOfKind(models.NotificationKindCritical)
	require.Len(suite.T(), critical, 1)
	assert.Equal(suite.T(), "Empaque - Stock: 0/1", critical[0].Message)
}

func (suite *ServiceTestSuite) TestSell_InvalidQuantity() {
	p := suite.seedProduct("Tornillo", 100, 50, 5, "")

	for _, q := range []int{0, -2} {
		_, err := suite.sales.Sell(suite.ctx, p.ID, q)
		assert.True(suite.T(), models.IsValidation(err))
	}
	assert.Zero(suite.T(), suite.store.Calls("productos.get"))
	assert.Zero(suite.T(), suite.store.Calls("ventas.create"))

	failed := suite.notificationsOfKind(models.NotificationKindError)
	require.Len(suite.T(), failed, 2)
	assert.Equal(suite.T(), "Error al procesar la venta: La cantidad debe ser mayor que cero", failed[0].Message)
}

func (suite *ServiceTestSuite) TestSell_NotFound() {
	_, err := suite.sales.Sell(suite.ctx, uuid.New(), 1)
	assert.True(suite.T(), models.IsNotFound(err))

	p := suite.seedProduct("Descontinuado", 100, 5, 1, "")
	_, err = suite.catalog.SoftDelete(suite.ctx, p.ID)
	require.NoError(suite.T(), err)

	_, err = suite.sales.Sell(suite.ctx, p.ID, 1)
	assert.True(suite.T(), models.IsNotFound(err))
	assert.Empty(suite.T(), suite.store.AllSales())
}

func (suite *ServiceTestSuite) TestSell_CompensatesFailedDecrement() {
	p := suite.seedProduct("Alternador", 120000, 2, 1, "")
	suite.store.Fail("productos.decrement_stock", &models.RemoteError{Op: "productos.decrement_stock", Message: "connection reset"})

	_, err := suite.sales.Sell(suite.ctx, p.ID, 1)

	var re *models.RemoteError
	require.ErrorAs(suite.T(), err, &re)
	assert.Equal(suite.T(), 1, suite.store.Calls("ventas.create"))
	assert.Equal(suite.T(), 1, suite.store.Calls("ventas.delete"))
	assert.Empty(suite.T(), suite.store.AllSales())
	assert.Equal(suite.T(), 2, suite.productByID(p.ID).Stock)
	assert.Len(suite.T(), suite.notificationsOfKind(models.NotificationKindError), 1)
}

func (suite *ServiceTestSuite) TestSell_FailedCompensationKeepsOriginalError() {
	p := suite.seedProduct("Motor de arranque", 95000, 2, 1, "")
	suite.store.Fail("productos.decrement_stock", &models.RemoteError{Message: "connection reset"})
	suite.store.Fail("ventas.delete", &models.RemoteError{Message: "connection reset"})

	_, err := suite.sales.Sell(suite.ctx, p.ID, 1)

	var re *models.RemoteError
	require.ErrorAs(suite.T(), err, &re)
	assert.Equal(suite.T(), "connection reset", re.Message)
	assert.Len(suite.T(), suite.store.AllSales(), 1, "left for manual reconciliation")
	assert.Equal(suite.T(), 2, suite.productByID(p.ID).Stock)
}

func (suite *ServiceTestSuite) TestSell_ConcurrentSaleWinsDecrement() {
	p := suite.seedProduct("Faro", 40000, 1, 0, "")
	gw := suite.store.Gateway()

	// Another sale takes the last unit between our stock check and decrement.
	_, err := gw.Products.DecrementStock(suite.ctx, p.ID, 1)
	require.NoError(suite.T(), err)
	stale := staleProducts{ProductStore: gw.Products, snapshot: p}
	gw.Products = stale
	sales := NewSaleService(gw, suite.ledger, nil, nil, "es")

	_, err = sales.Sell(suite.ctx, p.ID, 1)

	var is *models.InsufficientStockError
	require.ErrorAs(suite.T(), err, &is)
	assert.Empty(suite.T(), suite.store.AllSales(), "compensated")
	assert.Equal(suite.T(), 0, suite.productByID(p.ID).Stock)
}

func (suite *ServiceTestSuite) TestListSales() {
	now := suite.setClock(time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	p := suite.seedProduct("Liquido de frenos", 3500, 100, 5, "")

	for i := 0; i < 3; i++ {
		_, err := suite.sales.Sell(suite.ctx, p.ID, i+1)
		require.NoError(suite.T(), err)
		*now = now.AddDate(0, 0, 3)
	}

	all, total, err := suite.sales.List(suite.ctx, models.SaleFilter{Limit: 2})
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 3, total)
	require.Len(suite.T(), all, 2)
	assert.Equal(suite.T(), 3, all[0].Quantity, "newest first")

	from, to, err := DayRange("2024-06-13", "2024-06-13", time.UTC)
	require.NoError(suite.T(), err)
	day, _, err := suite.sales.List(suite.ctx, models.SaleFilter{From: from, To: to})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), day, 1)
	assert.Equal(suite.T(), 2, day[0].Quantity)

	week, err := suite.sales.LastWeek(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), week, 2)

	_, _, err = suite.sales.List(suite.ctx, models.SaleFilter{From: to, To: from})
	assert.True(suite.T(), models.IsValidation(err))
}

func (suite *ServiceTestSuite) TestDayRange() {
	from, to, err := DayRange("2024-01-31", "2024-02-01", time.UTC)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), *from)
	assert.Equal(suite.T(), time.Date(2024, 2, 1, 23, 59, 59, int(999*time.Millisecond), time.UTC), *to)

	from, to, err = DayRange("", "", time.UTC)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), from)
	assert.Nil(suite.T(), to)

	_, _, err = DayRange("31/01/2024", "", time.UTC)
	assert.True(suite.T(), models.IsValidation(err))
}
