// internal/handlers/product.go
package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tallerpiolin/inventory-backend/internal/i18n"
	"github.com/tallerpiolin/inventory-backend/internal/services"
	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

type ProductHandler struct {
	catalog  *services.CatalogService
	resolver *services.Resolver
	labels   *services.LabelService
}

func NewProductHandler(catalog *services.CatalogService, resolver *services.Resolver, labels *services.LabelService) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		resolver: resolver,
		labels:   labels,
	}
}

// GET /products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	products := h.catalog.List()

	// Optional category filter
	if category := strings.TrimSpace(c.Query("tipo")); category != "" {
		filtered := products[:0:0]
		for _, p := range products {
			if strings.EqualFold(p.CategoryName(), category) {
				filtered = append(filtered, p)
			}
		}
		products = filtered
	}

	total := int64(len(products))
	start := min(max(params.Offset(), 0), len(products))
	end := min(start+params.Limit, len(products))

	result := utils.CreatePaginationResult(products[start:end], total, params)
	utils.PaginatedResponse(c, result)
}

// GET /products/search?q=
func (h *ProductHandler) SearchProducts(c *gin.Context) {
	res, err := h.resolver.Resolve(c.Request.Context(), c.Query("q"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, res)
}

// GET /products/barcode/:code
func (h *ProductHandler) GetProductByBarcode(c *gin.Context) {
	product, err := h.catalog.FindByBarcode(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"producto": product,
	})
}

// GET /products/barcode/:code/check?exclude=
func (h *ProductHandler) CheckBarcode(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	code := c.Param("code")
	if !utils.IsBarcode(code) {
		utils.ValidationErrorResponse(c, []string{i18n.T(lang, i18n.KeyValidationBarcode)}, nil)
		return
	}

	var exclude *uuid.UUID
	if excludeStr := c.Query("exclude"); excludeStr != "" {
		id, err := uuid.Parse(excludeStr)
		if err != nil {
			utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "exclude"), nil)
			return
		}
		exclude = &id
	}

	check, err := h.catalog.CheckBarcodeUnique(c.Request.Context(), code, exclude)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, check)
}

// POST /products/barcode/generate
func (h *ProductHandler) GenerateBarcode(c *gin.Context) {
	code, err := h.catalog.GenerateBarcode(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"codigo_barras": code,
	})
}

// GET /products/:id
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"producto": product,
	})
}

// GET /products/:id/label?size=pequeno|mediano|grande
func (h *ProductHandler) GetLabel(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	size := c.Query("size")
	data, product, err := h.labels.Render(c.Request.Context(), id, size)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+services.LabelFileName(product, size)+`"`)
	c.Data(http.StatusOK, "image/png", data)
}

// POST /products
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req services.ProductInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.catalog.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// PUT /products/:id
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req services.ProductUpdateInput
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.catalog.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// DELETE /products/:id
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	id, ok := parseID(c)
	if !ok {
		return
	}

	product, err := h.catalog.SoftDelete(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message":  i18n.T(lang, i18n.KeyProductDeleted, product.Name),
		"producto": product,
	})
}

// GET /categories
func (h *ProductHandler) GetCategories(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"tipos": h.catalog.ListCategories(),
	})
}

// GET /brands
func (h *ProductHandler) GetBrands(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"marcas": h.catalog.ListBrands(),
	})
}
