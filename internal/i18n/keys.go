// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Common
	KeySuccess = "success"
	KeyError   = "error"

	// Products
	KeyProductCreated         = "product.created"
	KeyProductUpdated         = "product.updated"
	KeyProductDeleted         = "product.deleted"
	KeyProductNotFound        = "product.not_found"
	KeyProductSaveFailed      = "product.save_failed"
	KeyProductBarcodeConflict = "product.barcode_conflict"
	KeyProductMinStockWarning = "product.min_stock_warning"

	// Sales
	KeySaleSuccess           = "sale.success"
	KeySaleFailed            = "sale.failed"
	KeySaleInsufficientStock = "sale.insufficient_stock"

	// Stock alerts
	KeyStockAlert = "stock.alert"

	// Notifications
	KeyNotificationNotFound = "notification.not_found"

	// Backup
	KeyBackupInvalid       = "backup.invalid"
	KeyBackupImportSummary = "backup.import_summary"
	KeyBackupImportFailed  = "backup.import_failed"
	KeyBackupExported      = "backup.exported"
	KeyBackupUploaded      = "backup.uploaded"
	KeyDataCleared         = "backup.data_cleared"

	// Remote store
	KeyRemoteError = "remote.error"

	// Validation
	KeyValidationInvalid  = "validation.invalid"
	KeyValidationRequired = "validation.required"
	KeyValidationMinLen   = "validation.min_len"
	KeyValidationMaxLen   = "validation.max_len"
	KeyValidationGt       = "validation.gt"
	KeyValidationMin      = "validation.min"
	KeyValidationMax      = "validation.max"
	KeyValidationBarcode  = "validation.barcode"
	KeyValidationQuantity = "validation.quantity"
	KeyValidationLabel    = "validation.label_size"
	KeyRateLimited        = "rate_limited"
)
