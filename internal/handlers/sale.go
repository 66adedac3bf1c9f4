// internal/handlers/sale.go
package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tallerpiolin/inventory-backend/internal/models"
	"github.com/tallerpiolin/inventory-backend/internal/services"
	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

type SaleHandler struct {
	sales   *services.SaleService
	reports *services.ReportService
	loc     *time.Location
}

func NewSaleHandler(sales *services.SaleService, reports *services.ReportService, loc *time.Location) *SaleHandler {
	if loc == nil {
		loc = time.Local
	}
	return &SaleHandler{sales: sales, reports: reports, loc: loc}
}

// POST /sales
func (h *SaleHandler) CreateSale(c *gin.Context) {
	var req services.SellRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.sales.Sell(c.Request.Context(), req.ProductID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// GET /sales?from=2024-01-01&to=2024-01-31&page=1&limit=100
func (h *SaleHandler) GetSales(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	from, to, err := services.DayRange(c.Query("from"), c.Query("to"), h.loc)
	if err != nil {
		respondError(c, err)
		return
	}

	sales, total, err := h.sales.List(c.Request.Context(), models.SaleFilter{
		From:   from,
		To:     to,
		Offset: params.Offset(),
		Limit:  params.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	result := utils.CreatePaginationResult(sales, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /sales/stats?from=&to=
func (h *SaleHandler) GetSalesStats(c *gin.Context) {
	from, to, err := services.DayRange(c.Query("from"), c.Query("to"), h.loc)
	if err != nil {
		respondError(c, err)
		return
	}

	stats, err := h.reports.SalesStats(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, stats)
}

// GET /reports/inventory
func (h *SaleHandler) GetInventoryReport(c *gin.Context) {
	utils.SuccessResponse(c, h.reports.InventoryReport())
}
