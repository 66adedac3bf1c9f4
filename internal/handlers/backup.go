// internal/handlers/backup.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tallerpiolin/inventory-backend/internal/i18n"
	"github.com/tallerpiolin/inventory-backend/internal/services"
	"github.com/tallerpiolin/inventory-backend/internal/utils"
)

const maxBackupSize = 20 << 20

type BackupHandler struct {
	backup *services.BackupService
}

func NewBackupHandler(backup *services.BackupService) *BackupHandler {
	return &BackupHandler{backup: backup}
}

// GET /backup/export
func (h *BackupHandler) Export(c *gin.Context) {
	doc, err := h.backup.Export(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	data, err := h.backup.Encode(doc)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+h.backup.FileName(doc.Time())+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

// POST /backup/import
func (h *BackupHandler) Import(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBackupSize)

	data, err := c.GetRawData()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyBackupInvalid), err.Error())
		return
	}

	result, err := h.backup.Import(c.Request.Context(), data)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, result)
}

// POST /backup/upload
func (h *BackupHandler) Upload(c *gin.Context) {
	result, err := h.backup.Upload(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, result)
}

// POST /admin/clear?confirm=true
func (h *BackupHandler) ClearAll(c *gin.Context) {
	lang := utils.GetLangFromContext(c)
	if c.Query("confirm") != "true" {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationRequired, "confirm"), nil)
		return
	}

	if err := h.backup.ClearAll(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(lang, i18n.KeyDataCleared),
	})
}
