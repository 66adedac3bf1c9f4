package services

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallerpiolin/inventory-backend/internal/gateway/memstore"
	"github.com/tallerpiolin/inventory-backend/internal/models"
)

func (suite *ServiceTestSuite) seedCatalogWithSale() {
	_, err := suite.catalog.Create(suite.ctx, ProductInput{
		Name: "Filtro de aceite", Category: "Filtros", Brand: "Bosch",
		Price: decimal.NewFromInt(5000), Stock: 10, MinStock: intPtr(2), Barcode: "7500000000080",
	})
	require.NoError(suite.T(), err)
	res, err := suite.catalog.Create(suite.ctx, ProductInput{
		Name: "Aceite 20W50", Category: "Lubricantes",
		Price: decimal.RequireFromString("4500.50"), Stock: 24, MinStock: intPtr(6),
	})
	require.NoError(suite.T(), err)
	_, err = suite.sales.Sell(suite.ctx, res.Product.ID, 2)
	require.NoError(suite.T(), err)
}

func (suite *ServiceTestSuite) TestExport() {
	suite.setClock(time.Date(2024, 7, 1, 15, 4, 5, 0, time.UTC))
	suite.seedCatalogWithSale()

	doc, err := suite.backup.Export(suite.ctx)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), "2.2", doc.Version)
	assert.Equal(suite.T(), "TallerPiolin", doc.BusinessName)
	assert.Equal(suite.T(), "supabase", doc.Origin)
	assert.Equal(suite.T(), "2024-07-01T15:04:05Z", doc.BackupDate)
	assert.Equal(suite.T(), 2, doc.Metadata.TotalProducts)
	assert.Equal(suite.T(), 1, doc.Metadata.TotalSales)
	assert.Equal(suite.T(), len(doc.Notifications), doc.Metadata.TotalNotifications)

	require.Len(suite.T(), doc.Products, 2)
	oil := doc.Products[0]
	assert.Equal(suite.T(), "Aceite 20W50", oil.Name)
	assert.Equal(suite.T(), "Lubricantes", oil.Category)
	assert.Equal(suite.T(), 22, oil.Stock)
	assert.Equal(suite.T(), 6, oil.MinStock)

	require.Len(suite.T(), doc.Sales, 1)
	assert.True(suite.T(), decimal.RequireFromString("9001").Equal(doc.Sales[0].Total))

	data, err := suite.backup.Encode(doc)
	require.NoError(suite.T(), err)

	var raw map[string]interface{}
	require.NoError(suite.T(), json.Unmarshal(data, &raw))
	for _, key := range []string{"productos", "ventas", "notificaciones", "fechaRespaldo", "version", "nombreNegocio", "origen", "metadata"} {
		assert.Contains(suite.T(), raw, key)
	}
	meta := raw["metadata"].(map[string]interface{})
	assert.Contains(suite.T(), meta, "totalProductos")
	assert.Contains(suite.T(), meta, "totalVentas")
	assert.Contains(suite.T(), meta, "totalNotificaciones")
}

func (suite *ServiceTestSuite) TestFileName() {
	at := time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	assert.Equal(suite.T(), "respaldo_TallerPiolin_2024-03-05_14-07-09.json", suite.backup.FileName(at))

	named := testBusiness
	named.Name = "Taller  El Piolín"
	svc := NewBackupService(suite.store.Gateway(), suite.catalog, suite.ledger, suite.storage, named)
	assert.Equal(suite.T(), "respaldo_Taller_El_Piolín_2024-03-05_14-07-09.json", svc.FileName(at))
}

func (suite *ServiceTestSuite) TestImportRoundTrip() {
	suite.seedCatalogWithSale()
	doc, err := suite.backup.Export(suite.ctx)
	require.NoError(suite.T(), err)
	data, err := suite.backup.Encode(doc)
	require.NoError(suite.T(), err)

	target := memstore.New()
	gw := target.Gateway()
	ledger := NewNotificationService(gw.Notifications)
	catalog := NewCatalogService(gw, ledger, nil, "es")
	backup := NewBackupService(gw, catalog, ledger, suite.storage, testBusiness)

	result, err := backup.Import(suite.ctx, data)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), &ImportResult{ImportedProducts: 2, ImportedSales: 1}, result)

	products := target.AllProducts()
	require.Len(suite.T(), products, 2)
	byName := map[string]models.Product{}
	for _, p := range products {
		byName[p.Name] = p
	}
	filter := byName["Filtro de aceite"]
	assert.Equal(suite.T(), "7500000000080", filter.BarcodeValue())
	assert.Equal(suite.T(), 2, filter.MinStock)
	assert.Equal(suite.T(), 10, filter.Stock)
	assert.True(suite.T(), decimal.RequireFromString("4500.50").Equal(byName["Aceite 20W50"].Price))
	assert.Len(suite.T(), target.AllCategories(), 2)
	assert.Len(suite.T(), target.AllBrands(), 1)

	sales := target.AllSales()
	require.Len(suite.T(), sales, 1)
	assert.Equal(suite.T(), 2, sales[0].Quantity)
	require.NotNil(suite.T(), sales[0].ProductID)
	assert.Equal(suite.T(), byName["Aceite 20W50"].ID, *sales[0].ProductID)
	assert.Equal(suite.T(), 22, byName["Aceite 20W50"].Stock, "imported sales do not touch stock")

	info := 0
	for _, n := range target.AllNotifications() {
		if n.Kind == models.NotificationKindInfo {
			info++
		}
	}
	assert.Zero(suite.T(), info, "no per-product entries during import")
	success := 0
	for _, n := range target.AllNotifications() {
		if n.Kind == models.NotificationKindSuccess {
			success++
			assert.True(suite.T(), strings.HasPrefix(n.Message, "Importación completada: 2 productos importados"))
		}
	}
	assert.Equal(suite.T(), 1, success)

	again, err := backup.Import(suite.ctx, data)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 0, again.ImportedProducts)
	assert.Equal(suite.T(), 2, again.SkippedDuplicates)
	assert.Equal(suite.T(), 1, again.ImportedSales, "sales are not deduplicated")
	assert.Len(suite.T(), target.AllProducts(), 2)
}

func (suite *ServiceTestSuite) TestImportLegacyFieldsAndDefaults() {
	suite.setClock(time.Date(2024, 8, 2, 10, 0, 0, 0, time.UTC))
	data := []byte(`{
		"productos": [
			{"nombre": "Refrigerante", "precio": "4500", "stock": 3, "stock_minimo": 2},
			{"nombre": "Sin precio", "stock": 1},
			{"nombre": "Cero", "precio": 100, "stock": 1, "stockMinimo": 0},
			"not an object"
		],
		"ventas": [
			{"nombre_producto": "Refrigerante", "precio_unitario": 4500},
			{"nombreProducto": "Llanta", "cantidad": 2, "precioUnitario": 30000, "total": 55000, "fecha": "2024-01-15T10:30:00Z"},
			{"cantidad": 1, "precioUnitario": 10}
		]
	}`)

	result, err := suite.backup.Import(suite.ctx, data)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), &ImportResult{ImportedProducts: 2, FailedProducts: 2, ImportedSales: 2, FailedSales: 1}, result)

	for _, p := range suite.store.AllProducts() {
		switch p.Name {
		case "Refrigerante":
			assert.Equal(suite.T(), 2, p.MinStock)
		case "Cero":
			assert.Zero(suite.T(), p.MinStock, "explicit zero threshold is kept")
		}
	}

	sales := suite.store.AllSales()
	require.Len(suite.T(), sales, 2)
	byName := map[string]models.Sale{}
	for _, sale := range sales {
		byName[sale.ProductName] = sale
	}
	coolant := byName["Refrigerante"]
	assert.Equal(suite.T(), 1, coolant.Quantity)
	assert.True(suite.T(), decimal.NewFromInt(4500).Equal(coolant.Total))
	assert.Equal(suite.T(), time.Date(2024, 8, 2, 10, 0, 0, 0, time.UTC), coolant.Date)
	assert.NotNil(suite.T(), coolant.ProductID)

	tyre := byName["Llanta"]
	assert.True(suite.T(), decimal.NewFromInt(55000).Equal(tyre.Total), "explicit total kept")
	assert.Equal(suite.T(), time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC), tyre.Date.UTC())
	assert.Nil(suite.T(), tyre.ProductID)

	assert.Len(suite.T(), suite.notificationsOfKind(models.NotificationKindWarning), 1)
}

func (suite *ServiceTestSuite) TestImportRejectsInvalidDocuments() {
	for _, doc := range []string{
		`not json`,
		`{"ventas": []}`,
		`{"productos": {"nombre": "x"}}`,
		`{"productos": null}`,
		`{"productos": [], "ventas": "x"}`,
	} {
		_, err := suite.backup.Import(suite.ctx, []byte(doc))
		assert.True(suite.T(), models.IsValidation(err), doc)
	}
	assert.Zero(suite.T(), suite.store.Calls("productos.create"))
	assert.Zero(suite.T(), suite.store.Calls("ventas.create"))
	assert.Len(suite.T(), suite.notificationsOfKind(models.NotificationKindError), 5)
}

func (suite *ServiceTestSuite) TestImportRoundTripKeepsZeroThreshold() {
	_, err := suite.catalog.Create(suite.ctx, ProductInput{
		Name: "Arandela", Price: decimal.NewFromInt(50), Stock: 40, MinStock: intPtr(0),
	})
	require.NoError(suite.T(), err)

	doc, err := suite.backup.Export(suite.ctx)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), doc.Products, 1)
	assert.Zero(suite.T(), doc.Products[0].MinStock)
	data, err := suite.backup.Encode(doc)
	require.NoError(suite.T(), err)

	target := memstore.New()
	gw := target.Gateway()
	ledger := NewNotificationService(gw.Notifications)
	backup := NewBackupService(gw, NewCatalogService(gw, ledger, nil, "es"), ledger, suite.storage, testBusiness)

	_, err = backup.Import(suite.ctx, data)
	require.NoError(suite.T(), err)
	products := target.AllProducts()
	require.Len(suite.T(), products, 1)
	assert.Zero(suite.T(), products[0].MinStock)
}

func (suite *ServiceTestSuite) TestImportContinuesPastRemoteFailures() {
	suite.store.Fail("ventas.create", &models.RemoteError{Message: "down"})
	data := []byte(`{"productos": [{"nombre": "Tapón", "precio": 800, "stock": 5}], "ventas": [{"nombreProducto": "Tapón", "precioUnitario": 800}]}`)

	result, err := suite.backup.Import(suite.ctx, data)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, result.ImportedProducts)
	assert.Equal(suite.T(), 1, result.FailedSales)
}

func (suite *ServiceTestSuite) TestUploadWritesLocalFile() {
	suite.seedCatalogWithSale()

	result, err := suite.backup.Upload(suite.ctx)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), strings.HasPrefix(result.URL, "file://"))

	data, err := os.ReadFile(result.Key)
	require.NoError(suite.T(), err)
	var doc BackupDocument
	require.NoError(suite.T(), json.Unmarshal(data, &doc))
	assert.Len(suite.T(), doc.Products, 2)
}

func (suite *ServiceTestSuite) TestClearAll() {
	suite.seedCatalogWithSale()
	require.NotEmpty(suite.T(), suite.catalog.List())

	require.NoError(suite.T(), suite.backup.ClearAll(suite.ctx))

	assert.Empty(suite.T(), suite.store.AllSales())
	for _, p := range suite.store.AllProducts() {
		assert.False(suite.T(), p.Active)
	}
	assert.Empty(suite.T(), suite.catalog.List())

	notifications := suite.store.AllNotifications()
	require.Len(suite.T(), notifications, 1)
	assert.Equal(suite.T(), models.NotificationKindWarning, notifications[0].Kind)
	assert.Equal(suite.T(), "Base de datos limpiada completamente", notifications[0].Message)
	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterAll), 1)
}

func (suite *ServiceTestSuite) TestClearAll_FailureNotifies() {
	suite.seedCatalogWithSale()
	before := len(suite.store.AllNotifications())
	suite.store.Fail("ventas.delete_all", &models.RemoteError{Op: "ventas.delete_all", Message: "connection reset"})

	err := suite.backup.ClearAll(suite.ctx)
	require.Error(suite.T(), err)
	var remote *models.RemoteError
	assert.ErrorAs(suite.T(), err, &remote)

	assert.Len(suite.T(), suite.store.AllSales(), 1)
	assert.Len(suite.T(), suite.catalog.List(), 2)
	assert.Len(suite.T(), suite.store.AllNotifications(), before+1)

	failed := suite.notificationsOfKind(models.NotificationKindError)
	require.Len(suite.T(), failed, 1)
	assert.Equal(suite.T(), "Ocurrió un error: No se pudo completar la operación en la base de datos: connection reset", failed[0].Message)
}
