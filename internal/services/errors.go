// internal/services/errors.go
package services

import (
	"errors"
	"strings"

	"github.com/tallerpiolin/inventory-backend/internal/i18n"
	"github.com/tallerpiolin/inventory-backend/internal/models"
)

// Describe renders err as a message for the shop staff.
func Describe(lang string, err error) string {
	var (
		ve *models.ValidationError
		ce *models.ConflictError
		nf *models.NotFoundError
		is *models.InsufficientStockError
		re *models.RemoteError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return strings.Join(ve.Messages, "; ")
	case errors.As(err, &ce):
		return i18n.T(lang, i18n.KeyProductBarcodeConflict, ce.Barcode, ce.ProductName)
	case errors.As(err, &is):
		return i18n.T(lang, i18n.KeySaleInsufficientStock, is.Available, is.Requested)
	case errors.As(err, &nf):
		if nf.Entity == "notification" {
			return i18n.T(lang, i18n.KeyNotificationNotFound)
		}
		return i18n.T(lang, i18n.KeyProductNotFound)
	case errors.As(err, &re):
		return i18n.T(lang, i18n.KeyRemoteError, re.Message)
	default:
		return err.Error()
	}
}
