package services

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallerpiolin/inventory-backend/internal/models"
	"github.com/tallerpiolin/inventory-backend/internal/realtime"
)

func (suite *ServiceTestSuite) TestLedgerLifecycle() {
	a, err := suite.ledger.Append(suite.ctx, "Venta: 1x Filtro", models.NotificationKindSuccess, "Filtro")
	require.NoError(suite.T(), err)
	_, err = suite.ledger.Append(suite.ctx, "Filtro - Stock: 1/5", models.NotificationKindMinimum, "Filtro")
	require.NoError(suite.T(), err)
	_, err = suite.ledger.Append(suite.ctx, "Error al procesar la venta", models.NotificationKindError, "")
	require.NoError(suite.T(), err)

	assert.False(suite.T(), a.Read)
	assert.Equal(suite.T(), 3, suite.ledger.Unread())

	_, err = suite.ledger.MarkRead(suite.ctx, a.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, suite.ledger.Unread())

	removed, err := suite.ledger.RemoveAllRead(suite.ctx)
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 1, removed)
	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterAll), 2)

	count, err := suite.ledger.MarkAllRead(suite.ctx)
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 2, count)
	assert.Zero(suite.T(), suite.ledger.Unread())

	_, err = suite.ledger.RemoveAll(suite.ctx)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), suite.ledger.ListByKind(""))
	assert.Empty(suite.T(), suite.store.AllNotifications())
}

func (suite *ServiceTestSuite) TestLedgerAppendValidation() {
	_, err := suite.ledger.Append(suite.ctx, "  ", models.NotificationKindInfo, "")
	assert.True(suite.T(), models.IsValidation(err))

	_, err = suite.ledger.Append(suite.ctx, "hola", models.NotificationKind("urgent"), "")
	assert.True(suite.T(), models.IsValidation(err))
	assert.Zero(suite.T(), suite.store.TotalCalls())
}

func (suite *ServiceTestSuite) TestListByKind() {
	for _, kind := range []models.NotificationKind{
		models.NotificationKindCritical, models.NotificationKindMinimum, models.NotificationKindLow,
		models.NotificationKindSuccess, models.NotificationKindError, models.NotificationKindInfo,
	} {
		_, err := suite.ledger.Append(suite.ctx, string(kind), kind, "")
		require.NoError(suite.T(), err)
	}
	calls := suite.store.TotalCalls()

	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterAll), 6)
	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterStock), 3)
	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterSales), 1)
	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterErrors), 1)
	assert.Len(suite.T(), suite.ledger.ListByKind("info"), 1)
	assert.Equal(suite.T(), calls, suite.store.TotalCalls(), "filtering is local")
}

func (suite *ServiceTestSuite) TestLedgerLoadAndPrune() {
	now := suite.setClock(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	suite.store.SeedNotification(models.Notification{Message: "viejo", Kind: models.NotificationKindInfo, CreatedAt: now.AddDate(0, 0, -40)})
	suite.store.SeedNotification(models.Notification{Message: "reciente", Kind: models.NotificationKindInfo, CreatedAt: now.AddDate(0, 0, -1)})

	require.NoError(suite.T(), suite.ledger.Load(suite.ctx))
	items := suite.ledger.ListByKind(models.KindFilterAll)
	require.Len(suite.T(), items, 2)
	assert.Equal(suite.T(), "reciente", items[0].Message, "newest first")

	pruned, err := suite.ledger.PruneOlderThan(suite.ctx, 30*24*time.Hour)
	require.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 1, pruned)
	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterAll), 1)
	assert.Len(suite.T(), suite.store.AllNotifications(), 1)
}

func (suite *ServiceTestSuite) TestLedgerApplyChange() {
	n := models.Notification{ID: uuid.New(), Message: "Bujía - Stock: 0/5", Kind: models.NotificationKindCritical, CreatedAt: time.Now()}
	row, err := json.Marshal(n)
	require.NoError(suite.T(), err)

	insert := realtime.Change{Table: "notificaciones", Kind: realtime.Inserted, New: row}
	require.NoError(suite.T(), suite.ledger.ApplyChange(insert))
	require.NoError(suite.T(), suite.ledger.ApplyChange(insert))
	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterAll), 1, "duplicate insert skipped")
	assert.Equal(suite.T(), 1, suite.ledger.Unread())

	n.Read = true
	row, err = json.Marshal(n)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.ledger.ApplyChange(realtime.Change{Table: "notificaciones", Kind: realtime.Updated, New: row}))
	assert.Zero(suite.T(), suite.ledger.Unread())

	other, err := json.Marshal(models.Notification{ID: uuid.New(), Message: "x", Kind: models.NotificationKindInfo})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.ledger.ApplyChange(realtime.Change{Table: "notificaciones", Kind: realtime.Updated, New: other}))
	require.NoError(suite.T(), suite.ledger.ApplyChange(realtime.Change{Table: "notificaciones", Kind: realtime.Deleted, Old: other}))
	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterAll), 1, "unknown ids ignored")

	require.NoError(suite.T(), suite.ledger.ApplyChange(realtime.Change{Table: "notificaciones", Kind: realtime.Deleted, Old: row}))
	assert.Empty(suite.T(), suite.ledger.ListByKind(models.KindFilterAll))
}

func (suite *ServiceTestSuite) TestStockAlertDedup() {
	now := suite.setClock(time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	pads := models.Product{Name: "Pastillas de freno", Stock: 1, MinStock: 5, Active: true}

	raised, err := suite.monitor.Check(suite.ctx, pads)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), raised, 1)
	assert.Equal(suite.T(), models.NotificationKindMinimum, raised[0].Kind)
	assert.Equal(suite.T(), "Pastillas de freno - Stock: 1/5", raised[0].Message)

	*now = now.Add(59 * time.Minute)
	raised, err = suite.monitor.Check(suite.ctx, pads)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), raised)
	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterStock), 1)

	*now = now.Add(2 * time.Minute)
	raised, err = suite.monitor.Check(suite.ctx, pads)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), raised, 1)
	assert.Len(suite.T(), suite.ledger.ListByKind(models.KindFilterStock), 2)
}

func (suite *ServiceTestSuite) TestStockMonitorLevels() {
	raised, err := suite.monitor.Check(suite.ctx,
		models.Product{Name: "Agotado", Stock: 0, MinStock: 3, Active: true},
		models.Product{Name: "Minimo", Stock: 3, MinStock: 3, Active: true},
		models.Product{Name: "Bajo", Stock: 6, MinStock: 5, Active: true},
		models.Product{Name: "Normal", Stock: 7, MinStock: 5, Active: true},
		models.Product{Name: "Inactivo", Stock: 0, MinStock: 5, Active: false},
	)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), raised, 3)

	kinds := map[string]models.NotificationKind{}
	for _, n := range raised {
		kinds[n.ProductNameValue()] = n.Kind
	}
	assert.Equal(suite.T(), models.NotificationKindCritical, kinds["Agotado"])
	assert.Equal(suite.T(), models.NotificationKindMinimum, kinds["Minimo"])
	assert.Equal(suite.T(), models.NotificationKindLow, kinds["Bajo"])
}

func (suite *ServiceTestSuite) TestStockMonitorAppendFailure() {
	suite.store.Fail("notificaciones.create", &models.RemoteError{Message: "down"})

	raised, err := suite.monitor.Check(suite.ctx, models.Product{Name: "Filtro", Stock: 0, MinStock: 2, Active: true})
	assert.Error(suite.T(), err)
	assert.Empty(suite.T(), raised)
}
