// internal/middleware/i18n.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tallerpiolin/inventory-backend/internal/i18n"
)

func I18nMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("lang", parseLanguage(c.GetHeader("Accept-Language")))
		c.Next()
	}
}

// parseLanguage picks the first supported language of an Accept-Language
// header such as "en-US,en;q=0.9,es;q=0.8".
func parseLanguage(header string) string {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.Split(part, ";")[0])
		if tag == "" {
			continue
		}

		// Convert regional codes like es-CR or en_GB
		base := strings.ToLower(strings.FieldsFunc(tag, func(r rune) bool { return r == '-' || r == '_' })[0])
		if i18n.Supported(base) {
			return base
		}
	}
	return i18n.DefaultLang
}
