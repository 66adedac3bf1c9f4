// internal/services/label_service.go
package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/tallerpiolin/inventory-backend/internal/i18n"
	"github.com/tallerpiolin/inventory-backend/internal/label"
	"github.com/tallerpiolin/inventory-backend/internal/models"
)

// ProductLookup fetches one active product.
type ProductLookup interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type LabelService struct {
	products ProductLookup
	storage  *StorageService
	lang     string
}

func NewLabelService(products ProductLookup, storage *StorageService, lang string) *LabelService {
	return &LabelService{products: products, storage: storage, lang: lang}
}

// Render draws the label of an active product. Products without a barcode
// cannot be labelled.
func (s *LabelService) Render(ctx context.Context, id uuid.UUID, sizeName string) ([]byte, *models.Product, error) {
	size, err := label.ParseSize(sizeName)
	if err != nil {
		return nil, nil, models.NewValidationError(i18n.T(s.lang, i18n.KeyValidationLabel, sizeName))
	}

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if p.BarcodeValue() == "" {
		return nil, nil, models.NewValidationError(i18n.T(s.lang, i18n.KeyValidationBarcode))
	}

	data, err := label.Render(label.Label{Name: p.Name, Barcode: p.BarcodeValue(), Price: p.Price}, size)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to render label for %s: %w", p.ID, err)
	}
	return data, p, nil
}

// Store renders the label and saves it under the labels folder.
func (s *LabelService) Store(ctx context.Context, id uuid.UUID, sizeName string) (*UploadResult, error) {
	data, p, err := s.Render(ctx, id, sizeName)
	if err != nil {
		return nil, err
	}
	return s.storage.Put(ctx, FolderLabels, LabelFileName(p, sizeName), "image/png", data)
}

// LabelFileName is etiqueta_<barcode>_<size>.png.
func LabelFileName(p *models.Product, sizeName string) string {
	size, err := label.ParseSize(sizeName)
	if err != nil {
		size = label.Medium
	}
	return fmt.Sprintf("etiqueta_%s_%s.png", p.BarcodeValue(), strings.ToLower(string(size)))
}
