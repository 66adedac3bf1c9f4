// internal/config/database.go
package config

import (
	"fmt"
)

// DSN is the libpq key/value connection string shared by gorm and the realtime listener.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Database, d.SSLMode,
	)
}

// Redacted is safe to log.
func (d *DatabaseConfig) Redacted() string {
	return fmt.Sprintf("%s@%s:%s/%s", d.User, d.Host, d.Port, d.Database)
}
