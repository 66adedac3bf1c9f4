// internal/database/connection.go
package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tallerpiolin/inventory-backend/internal/config"
	"github.com/tallerpiolin/inventory-backend/internal/models"
)

// changeTables are the tables whose row changes are published on the realtime channel.
var changeTables = []string{"tipos", "marcas", "productos", "ventas", "notificaciones"}

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
		// Unique violations surface as gorm.ErrDuplicatedKey
		TranslateError: true,
	}
	if cfg.LogLevel == "silent" {
		gormConfig.Logger = logger.Default.LogMode(logger.Silent)
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithField("dsn", cfg.Redacted()).Info("Database connection established successfully")
	return db, nil
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed successfully")
	}
}

// RunMigrations creates the schema, its indexes and the change-feed triggers on channel.
func RunMigrations(db *gorm.DB, channel string) error {
	logrus.Info("Running database migrations...")

	// gen_random_uuid()
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	// Run auto-migrations
	err := db.AutoMigrate(
		&models.Category{},
		&models.Brand{},
		&models.Product{},
		&models.Sale{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	if err := createChangeTriggers(db, channel); err != nil {
		return fmt.Errorf("failed to create change triggers: %w", err)
	}

	logrus.Info("Database migrations completed successfully")
	return nil
}

func createIndexes(db *gorm.DB) error {
	// Find-or-create of categories and brands relies on these being unique
	unique := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_tipos_nombre_lower ON tipos (LOWER(nombre))",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_marcas_nombre_lower ON marcas (LOWER(nombre))",
	}
	for _, index := range unique {
		if err := db.Exec(index).Error; err != nil {
			return fmt.Errorf("failed to create index %q: %w", index, err)
		}
	}

	indexes := []string{
		// Product indexes
		"CREATE INDEX IF NOT EXISTS idx_productos_activo_nombre ON productos (activo, LOWER(nombre))",
		"CREATE INDEX IF NOT EXISTS idx_productos_codigo_barras ON productos (codigo_barras) WHERE activo",
		"CREATE INDEX IF NOT EXISTS idx_productos_tipo ON productos (tipo_id)",
		"CREATE INDEX IF NOT EXISTS idx_productos_marca ON productos (marca_id)",

		// Sale indexes
		"CREATE INDEX IF NOT EXISTS idx_ventas_fecha_desc ON ventas (fecha DESC)",

		// Notification indexes
		"CREATE INDEX IF NOT EXISTS idx_notificaciones_created_desc ON notificaciones (created_at DESC)",
		"CREATE INDEX IF NOT EXISTS idx_notificaciones_no_leidas ON notificaciones (leida) WHERE NOT leida",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
			// Continue with other indexes instead of failing completely
		}
	}

	return nil
}

func createChangeTriggers(db *gorm.DB, channel string) error {
	if channel == "" {
		return nil
	}

	function := fmt.Sprintf(`CREATE OR REPLACE FUNCTION tallerpiolin_notify_change() RETURNS trigger AS $$
BEGIN
	PERFORM pg_notify(%s, json_build_object(
		'table', TG_TABLE_NAME,
		'type', TG_OP,
		'old', CASE WHEN TG_OP IN ('UPDATE', 'DELETE') THEN row_to_json(OLD) END,
		'new', CASE WHEN TG_OP IN ('INSERT', 'UPDATE') THEN row_to_json(NEW) END
	)::text);
	RETURN NULL;
END;
$$ LANGUAGE plpgsql`, quoteLiteral(channel))

	if err := db.Exec(function).Error; err != nil {
		return err
	}

	for _, table := range changeTables {
		statements := []string{
			fmt.Sprintf("DROP TRIGGER IF EXISTS %s_notify_change ON %s", table, table),
			fmt.Sprintf("CREATE TRIGGER %s_notify_change AFTER INSERT OR UPDATE OR DELETE ON %s FOR EACH ROW EXECUTE FUNCTION tallerpiolin_notify_change()", table, table),
		}
		for _, stmt := range statements {
			if err := db.Exec(stmt).Error; err != nil {
				return fmt.Errorf("table %s: %w", table, err)
			}
		}
	}
	return nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
