package services

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallerpiolin/inventory-backend/internal/models"
)

func (suite *ServiceTestSuite) TestResolve() {
	spark := suite.seedProduct("Bujía NGK", 3500, 20, 5, "12345678")
	suite.seedProduct("Filtro abc123", 5000, 8, 2, "7500000000073")
	require.NoError(suite.T(), suite.catalog.Load(suite.ctx))

	res, err := suite.resolver.Resolve(suite.ctx, "12345678")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), ResolveBarcode, res.Kind)
	assert.True(suite.T(), res.Exact)
	require.Len(suite.T(), res.Matches, 1)
	assert.Equal(suite.T(), spark.ID, res.Matches[0].ID)

	res, err = suite.resolver.Resolve(suite.ctx, "abc123")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), ResolveText, res.Kind)
	assert.False(suite.T(), res.Exact)
	require.Len(suite.T(), res.Matches, 1)
	assert.Equal(suite.T(), "Filtro abc123", res.Matches[0].Name)

	res, err = suite.resolver.Resolve(suite.ctx, "")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), ResolveAll, res.Kind)
	assert.Len(suite.T(), res.Matches, 2)
}

func (suite *ServiceTestSuite) TestResolve_UnknownBarcodeFallsBackToSearch() {
	suite.seedProduct("Junta 87654321", 900, 3, 1, "")

	res, err := suite.resolver.Resolve(suite.ctx, " 87654321 ")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), ResolveBarcode, res.Kind)
	assert.False(suite.T(), res.Exact)
	require.Len(suite.T(), res.Matches, 1, "text search over names still runs")
	assert.Equal(suite.T(), 1, suite.store.Calls("productos.find_by_barcode"))
	assert.Equal(suite.T(), 1, suite.store.Calls("productos.search"))
}

func (suite *ServiceTestSuite) TestResolve_CaseInsensitiveText() {
	suite.seedProduct("Bujía NGK", 3500, 20, 5, "")

	res, err := suite.resolver.Resolve(suite.ctx, "BUJÍA")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), ResolveText, res.Kind)
	assert.Len(suite.T(), res.Matches, 1)
}

func (suite *ServiceTestSuite) TestResolve_ShortNumberIsText() {
	res, err := suite.resolver.Resolve(suite.ctx, "1234567")
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), ResolveText, res.Kind)
	assert.Zero(suite.T(), suite.store.Calls("productos.find_by_barcode"))
}

func (suite *ServiceTestSuite) TestResolve_RemoteError() {
	suite.store.Fail("productos.find_by_barcode", &models.RemoteError{Message: "timeout"})

	_, err := suite.resolver.Resolve(suite.ctx, "12345678")
	assert.Error(suite.T(), err)
	assert.Zero(suite.T(), suite.store.Calls("productos.search"))
}
