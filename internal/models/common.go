// internal/models/common.go
package models

import "strings"

// Enums
type NotificationKind string

const (
	NotificationKindCritical NotificationKind = "critico"
	NotificationKindMinimum  NotificationKind = "minimo"
	NotificationKindLow      NotificationKind = "bajo"
	NotificationKindSuccess  NotificationKind = "success"
	NotificationKindError    NotificationKind = "error"
	NotificationKindInfo     NotificationKind = "info"
	NotificationKindWarning  NotificationKind = "warning"
)

// IsStock reports whether the kind is one of the low-stock alert kinds.
func (k NotificationKind) IsStock() bool {
	switch k {
	case NotificationKindCritical, NotificationKindMinimum, NotificationKindLow:
		return true
	}
	return false
}

func (k NotificationKind) Valid() bool {
	switch k {
	case NotificationKindCritical, NotificationKindMinimum, NotificationKindLow,
		NotificationKindSuccess, NotificationKindError, NotificationKindInfo, NotificationKindWarning:
		return true
	}
	return false
}

// KindFilter selects notifications by group or exact kind.
type KindFilter string

const (
	KindFilterAll    KindFilter = "todas"
	KindFilterStock  KindFilter = "stock"
	KindFilterSales  KindFilter = "ventas"
	KindFilterErrors KindFilter = "errores"
)

func (f KindFilter) Match(k NotificationKind) bool {
	switch KindFilter(strings.ToLower(string(f))) {
	case "", KindFilterAll:
		return true
	case KindFilterStock:
		return k.IsStock()
	case KindFilterSales:
		return k == NotificationKindSuccess
	case KindFilterErrors:
		return k == NotificationKindError
	default:
		return string(k) == string(f)
	}
}

// StockLevel classifies a product against its minimum threshold.
type StockLevel string

const (
	StockLevelOut      StockLevel = "agotado"
	StockLevelCritical StockLevel = "critico"
	StockLevelLow      StockLevel = "bajo"
	StockLevelOK       StockLevel = "normal"
)

// LowStockFactor widens the alert window above the minimum threshold.
const LowStockFactor = 1.2

func ClassifyStock(stock, minStock int) StockLevel {
	switch {
	case stock <= 0:
		return StockLevelOut
	case stock <= minStock:
		return StockLevelCritical
	case float64(stock) <= float64(minStock)*LowStockFactor:
		return StockLevelLow
	default:
		return StockLevelOK
	}
}

// AlertKind maps a stock level to the notification kind used for its alert.
func (l StockLevel) AlertKind() (NotificationKind, bool) {
	switch l {
	case StockLevelOut:
		return NotificationKindCritical, true
	case StockLevelCritical:
		return NotificationKindMinimum, true
	case StockLevelLow:
		return NotificationKindLow, true
	}
	return "", false
}
