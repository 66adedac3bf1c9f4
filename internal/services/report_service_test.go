package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallerpiolin/inventory-backend/internal/models"
)

func (suite *ServiceTestSuite) TestSalesStats() {
	now := suite.setClock(time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC))
	pads := suite.seedProduct("Pastillas", 12000, 50, 5, "")
	oil := suite.seedProduct("Aceite", 4500, 50, 5, "")

	for _, sale := range []struct {
		id  models.Product
		qty int
	}{{pads, 2}, {oil, 5}, {pads, 1}} {
		_, err := suite.sales.Sell(suite.ctx, sale.id.ID, sale.qty)
		require.NoError(suite.T(), err)
		*now = now.AddDate(0, 0, 1)
	}

	stats, err := suite.reports.SalesStats(suite.ctx, nil, nil)
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 3, stats.TotalSales)
	assert.EqualValues(suite.T(), 8, stats.TotalUnits)
	assert.True(suite.T(), decimal.NewFromInt(58500).Equal(stats.Revenue))
	require.Len(suite.T(), stats.TopProducts, 2)
	assert.Equal(suite.T(), "Aceite", stats.TopProducts[0].Name)
	assert.EqualValues(suite.T(), 3, stats.TopProducts[1].Units)
	assert.True(suite.T(), decimal.NewFromInt(36000).Equal(stats.TopProducts[1].Revenue))

	from, to, err := DayRange("2024-06-01", "2024-06-01", time.UTC)
	require.NoError(suite.T(), err)
	stats, err = suite.reports.SalesStats(suite.ctx, from, to)
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 1, stats.TotalSales)
	assert.EqualValues(suite.T(), 2, stats.TotalUnits)
}

func (suite *ServiceTestSuite) TestSalesStats_TopProductsCapped() {
	for i := 0; i < 12; i++ {
		p := suite.seedProduct(fmt.Sprintf("Repuesto %02d", i), 1000, 100, 1, "")
		_, err := suite.sales.Sell(suite.ctx, p.ID, i+1)
		require.NoError(suite.T(), err)
	}

	stats, err := suite.reports.SalesStats(suite.ctx, nil, nil)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), stats.TopProducts, 10)
	assert.Equal(suite.T(), "Repuesto 11", stats.TopProducts[0].Name)
	assert.EqualValues(suite.T(), 12, stats.TopProducts[0].Units)
}

func (suite *ServiceTestSuite) TestInventoryReport() {
	suite.seedProduct("Agotado", 1000, 0, 2, "")
	suite.seedProduct("Bajo", 2000, 6, 5, "")
	suite.seedProduct("Normal", 500, 40, 5, "")
	require.NoError(suite.T(), suite.catalog.Load(suite.ctx))

	report := suite.reports.InventoryReport()
	assert.Equal(suite.T(), 3, report.TotalProducts)
	assert.EqualValues(suite.T(), 46, report.TotalUnits)
	assert.True(suite.T(), decimal.NewFromInt(32000).Equal(report.InventoryValue))
	assert.Equal(suite.T(), 1, report.OutOfStock)
	require.Len(suite.T(), report.LowStock, 2)
	assert.Equal(suite.T(), "Agotado", report.LowStock[0].Product.Name)
	assert.Equal(suite.T(), models.StockLevelOut, report.LowStock[0].Level)
	assert.Equal(suite.T(), models.StockLevelLow, report.LowStock[1].Level)
}
