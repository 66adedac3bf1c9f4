// internal/services/report_service.go
package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tallerpiolin/inventory-backend/internal/gateway"
	"github.com/tallerpiolin/inventory-backend/internal/models"
)

const topProductsLimit = 10

type ReportService struct {
	sales   gateway.SaleStore
	catalog Catalog
}

type SalesStats struct {
	From        *time.Time       `json:"from,omitempty"`
	To          *time.Time       `json:"to,omitempty"`
	TotalSales  int64            `json:"total_sales"`
	TotalUnits  int64            `json:"total_units"`
	Revenue     decimal.Decimal  `json:"revenue"`
	TopProducts []ProductSummary `json:"top_products"`
}

type ProductSummary struct {
	Name    string          `json:"nombre"`
	Units   int64           `json:"units"`
	Revenue decimal.Decimal `json:"revenue"`
}

type InventoryReport struct {
	TotalProducts  int               `json:"total_products"`
	TotalUnits     int64             `json:"total_units"`
	InventoryValue decimal.Decimal   `json:"inventory_value"`
	OutOfStock     int               `json:"out_of_stock"`
	LowStock       []LowStockProduct `json:"low_stock"`
}

type LowStockProduct struct {
	Product models.Product    `json:"producto"`
	Level   models.StockLevel `json:"level"`
}

func NewReportService(sales gateway.SaleStore, catalog Catalog) *ReportService {
	return &ReportService{sales: sales, catalog: catalog}
}

func (s *ReportService) SalesStats(ctx context.Context, from, to *time.Time) (*SalesStats, error) {
	sales, _, err := s.sales.List(ctx, models.SaleFilter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("failed to load sales: %w", err)
	}

	stats := &SalesStats{From: from, To: to, TotalSales: int64(len(sales))}
	byName := make(map[string]*ProductSummary)

	for _, sale := range sales {
		stats.TotalUnits += int64(sale.Quantity)
		stats.Revenue = stats.Revenue.Add(sale.Total)

		key := strings.ToLower(sale.ProductName)
		summary, ok := byName[key]
		if !ok {
			summary = &ProductSummary{Name: sale.ProductName}
			byName[key] = summary
		}
		summary.Units += int64(sale.Quantity)
		summary.Revenue = summary.Revenue.Add(sale.Total)
	}

	stats.TopProducts = make([]ProductSummary, 0, len(byName))
	for _, summary := range byName {
		stats.TopProducts = append(stats.TopProducts, *summary)
	}
	slices.SortFunc(stats.TopProducts, func(a, b ProductSummary) int {
		if c := cmp.Compare(b.Units, a.Units); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	if len(stats.TopProducts) > topProductsLimit {
		stats.TopProducts = stats.TopProducts[:topProductsLimit]
	}

	return stats, nil
}

// InventoryReport summarises the cached catalog.
func (s *ReportService) InventoryReport() *InventoryReport {
	products := s.catalog.List()
	report := &InventoryReport{
		TotalProducts: len(products),
		LowStock:      []LowStockProduct{},
	}

	for _, p := range products {
		report.TotalUnits += int64(p.Stock)
		report.InventoryValue = report.InventoryValue.Add(p.Price.Mul(decimal.NewFromInt(int64(p.Stock))))

		level := models.ClassifyStock(p.Stock, p.MinStock)
		if level == models.StockLevelOut {
			report.OutOfStock++
		}
		if level != models.StockLevelOK {
			report.LowStock = append(report.LowStock, LowStockProduct{Product: p, Level: level})
		}
	}

	slices.SortStableFunc(report.LowStock, func(a, b LowStockProduct) int {
		return cmp.Compare(a.Product.Stock, b.Product.Stock)
	})
	return report
}
