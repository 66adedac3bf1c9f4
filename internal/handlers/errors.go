// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tallerpiolin/inventory-backend/internal/i18n"
	"github.com/tallerpiolin/inventory-backend/internal/models"
	"github.com/tallerpiolin/inventory-backend/internal/services"
	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

// respondError maps the service error taxonomy onto the API envelope.
func respondError(c *gin.Context, err error) {
	lang := utils.GetLangFromContext(c)
	message := services.Describe(lang, err)

	var (
		ve *models.ValidationError
		ce *models.ConflictError
		nf *models.NotFoundError
		is *models.InsufficientStockError
		re *models.RemoteError
	)
	switch {
	case errors.As(err, &ve):
		utils.ValidationErrorResponse(c, ve.Messages, nil)
	case errors.As(err, &ce):
		utils.ConflictResponse(c, "BARCODE_CONFLICT", message, gin.H{
			"codigo_barras": ce.Barcode,
			"producto_id":   ce.ProductID,
			"nombre":        ce.ProductName,
		})
	case errors.As(err, &is):
		utils.ConflictResponse(c, "INSUFFICIENT_STOCK", message, gin.H{
			"disponible": is.Available,
			"solicitado": is.Requested,
		})
	case errors.As(err, &nf):
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
	case errors.As(err, &re):
		logrus.WithError(err).WithField("op", re.Op).Warn("Remote store call failed")
		utils.BadGatewayResponse(c, message)
	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("Unhandled request error")
		utils.InternalErrorResponse(c, message)
	}
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "id"), nil)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}
