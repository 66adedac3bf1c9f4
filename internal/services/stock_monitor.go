// internal/services/stock_monitor.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/tallerpiolin/inventory-backend/internal/i18n"
	"github.com/tallerpiolin/inventory-backend/internal/models"
)

// AlertWindow is how long a stock alert for a product suppresses new ones.
const AlertWindow = 60 * time.Minute

// AlertLedger is the part of the ledger the stock monitor reads and writes.
type AlertLedger interface {
	Notifier
	ListByKind(filter models.KindFilter) []models.Notification
}

// StockMonitor raises low-stock alerts, at most one per product per window.
type StockMonitor struct {
	ledger AlertLedger
	window time.Duration
	lang   string
	now    func() time.Time
}

func NewStockMonitor(ledger AlertLedger, lang string) *StockMonitor {
	return &StockMonitor{
		ledger: ledger,
		window: AlertWindow,
		lang:   lang,
		now:    time.Now,
	}
}

// Check appends an alert for every active product at or below its alert
// threshold that has not been alerted on within the window.
func (m *StockMonitor) Check(ctx context.Context, products ...models.Product) ([]models.Notification, error) {
	var (
		raised []models.Notification
		errs   []error
	)

	for _, p := range products {
		if !p.Active {
			continue
		}
		kind, alert := models.ClassifyStock(p.Stock, p.MinStock).AlertKind()
		if !alert || m.recentlyAlerted(p.Name) {
			continue
		}

		message := i18n.T(m.lang, i18n.KeyStockAlert, p.Name, p.Stock, p.MinStock)
		n, err := m.ledger.Append(ctx, message, kind, p.Name)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		raised = append(raised, *n)
	}

	return raised, errors.Join(errs...)
}

func (m *StockMonitor) recentlyAlerted(productName string) bool {
	since := m.now().Add(-m.window)
	for _, n := range m.ledger.ListByKind(models.KindFilterStock) {
		if strings.EqualFold(n.ProductNameValue(), productName) && n.CreatedAt.After(since) {
			return true
		}
	}
	return false
}
