// internal/utils/validator.go
package utils

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/tallerpiolin/inventory-backend/internal/i18n"
)

var (
	validate       *validator.Validate
	barcodePattern = regexp.MustCompile(`^\d{8,18}$`)
	markupReplacer = strings.NewReplacer("<", "", ">", "")
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(jsonFieldName)
	validate.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	validate.RegisterValidation("barcode", validateBarcode)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// IsBarcode reports whether code is 8 to 18 digits.
func IsBarcode(code string) bool {
	return barcodePattern.MatchString(code)
}

// SanitizeText trims s and strips angle brackets.
func SanitizeText(s string) string {
	return strings.TrimSpace(markupReplacer.Replace(s))
}

func validateBarcode(fl validator.FieldLevel) bool {
	return IsBarcode(fl.Field().String())
}

func decimalValue(v reflect.Value) interface{} {
	if d, ok := v.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func jsonFieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return strings.ToLower(fld.Name)
	}
	return name
}

// Validation tags for common fields
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Message string `json:"message"`
}

func GetValidationErrors(err error) []ValidationError {
	var validationErrors []ValidationError

	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, ValidationError{
				Field:   e.Field(),
				Tag:     e.Tag(),
				Message: getValidationMessage(e),
			})
		}
	}

	return validationErrors
}

// ValidationMessages flattens validation failures into display messages.
func ValidationMessages(err error) []string {
	errs := GetValidationErrors(err)
	if len(errs) == 0 && err != nil {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(errs))
	for _, e := range errs {
		messages = append(messages, e.Message)
	}
	return messages
}

func getValidationMessage(e validator.FieldError) string {
	lang := i18n.DefaultLang
	isText := e.Kind() == reflect.String

	switch e.Tag() {
	case "required":
		return i18n.T(lang, i18n.KeyValidationRequired, e.Field())
	case "min", "gte":
		if isText {
			return i18n.T(lang, i18n.KeyValidationMinLen, e.Field(), e.Param())
		}
		return i18n.T(lang, i18n.KeyValidationMin, e.Field(), e.Param())
	case "max", "lte":
		if isText {
			return i18n.T(lang, i18n.KeyValidationMaxLen, e.Field(), e.Param())
		}
		return i18n.T(lang, i18n.KeyValidationMax, e.Field(), e.Param())
	case "gt":
		return i18n.T(lang, i18n.KeyValidationGt, e.Field(), e.Param())
	case "barcode":
		return i18n.T(lang, i18n.KeyValidationBarcode)
	default:
		return i18n.T(lang, i18n.KeyValidationInvalid, e.Field())
	}
}
