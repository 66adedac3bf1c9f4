// internal/services/services.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tallerpiolin/inventory-backend/internal/config"
	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/realtime"
)

const resyncTimeout = 30 * time.Second

// Services is the wired set of components over one gateway.
type Services struct {
	Ledger   *NotificationService
	Monitor  *StockMonitor
	Catalog  *CatalogService
	Sales    *SaleService
	Resolver *Resolver
	Reports  *ReportService
	Backup   *BackupService
	Labels   *LabelService
	Storage  *StorageService

	feed gateway.Feed
	subs []*realtime.Subscription
}

func New(gw *gateway.Gateway, storage *StorageService, business config.BusinessConfig) *Services {
	lang := business.Locale
	s := &Services{Storage: storage, feed: gw.Feed}

	s.Ledger = NewNotificationService(gw.Notifications)
	s.Monitor = NewStockMonitor(s.Ledger, lang)
	s.Catalog = NewCatalogService(gw, s.Ledger, s.Monitor, lang)
	s.Sales = NewSaleService(gw, s.Ledger, s.Monitor, s.Catalog, lang)
	s.Resolver = NewResolver(gw.Products, s.Catalog)
	s.Reports = NewReportService(gw.Sales, s.Catalog)
	s.Backup = NewBackupService(gw, s.Catalog, s.Ledger, storage, business)
	s.Labels = NewLabelService(s.Catalog, storage, lang)
	return s
}

// Load fills the catalog and ledger views. The ledger goes first so the
// catalog's stock check sees recent alerts.
func (s *Services) Load(ctx context.Context) error {
	return errors.Join(s.Ledger.Load(ctx), s.Catalog.Load(ctx))
}

// Subscribe feeds realtime changes into the views. A resync reloads both.
func (s *Services) Subscribe() {
	if s.feed == nil {
		return
	}

	s.subs = append(s.subs,
		s.feed.Subscribe("", func(c realtime.Change) {
			if c.Kind == realtime.Resync {
				s.resync()
				return
			}
			if err := s.Catalog.ApplyChange(c); err != nil {
				logChangeError(c, err)
			}
		}),
		s.feed.Subscribe("notificaciones", func(c realtime.Change) {
			if c.Kind == realtime.Resync {
				return
			}
			if err := s.Ledger.ApplyChange(c); err != nil {
				logChangeError(c, err)
			}
		}),
	)
}

func (s *Services) Unsubscribe() {
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs = nil
}

func (s *Services) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), resyncTimeout)
	defer cancel()

	if err := s.Load(ctx); err != nil {
		logrus.WithError(err).Error("Failed to reload views after realtime resync")
		return
	}
	logrus.Info("Views reloaded after realtime resync")
}

func logChangeError(c realtime.Change, err error) {
	logrus.WithFields(logrus.Fields{
		"table": c.Table,
		"type":  c.Kind,
	}).WithError(err).Warn("Failed to apply realtime change")
}
