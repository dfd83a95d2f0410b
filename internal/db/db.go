package db

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"sfpark-collector/config"
	"sfpark-collector/internal/model"
)

// Driver names the backend selected for a connection string.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverSQLite   Driver = "sqlite"
)

// Models lists every table the collector writes, parents first.
func Models() []any {
	return []any{
		&model.Location{},
		&model.Availability{},
		&model.Rate{},
		&model.OperatingHours{},
	}
}

// Dialector picks the gorm dialector for a connection string.
//
//	postgres://..., postgresql://..., "host=... dbname=..."  -> postgres
//	sqlite:path, sqlite://path, file:..., *.db, :memory:     -> sqlite
func Dialector(dsn string) (gorm.Dialector, Driver, error) {
	s := strings.TrimSpace(dsn)
	lower := strings.ToLower(s)

	switch {
	case s == "":
		return nil, "", eris.New("db: empty connection string")
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return postgres.Open(s), DriverPostgres, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return sqlite.Open(s[len("sqlite://"):]), DriverSQLite, nil
	case strings.HasPrefix(lower, "sqlite:"):
		return sqlite.Open(s[len("sqlite:"):]), DriverSQLite, nil
	case strings.HasPrefix(lower, "file:"), s == ":memory:",
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), strings.HasSuffix(lower, ".sqlite3"):
		return sqlite.Open(s), DriverSQLite, nil
	case strings.Contains(lower, "host=") || strings.Contains(lower, "dbname="):
		return postgres.Open(s), DriverPostgres, nil
	default:
		return nil, "", eris.Errorf("db: unsupported connection string %q", redact(s))
	}
}

// Init opens the database named by dsn, configures the pool and creates the
// tables.
func Init(dsn string, cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dialector, driver, err := Dialector(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel(cfg.LogLevel)),
	})
	if err != nil {
		return nil, eris.Wrap(err, "db: connect")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, eris.Wrap(err, "db: get sql.DB")
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetimeMinutes > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)
	}

	zap.L().Info("running database migrations", zap.String("driver", string(driver)))
	if err := Migrate(db); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates or extends the collector tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return eris.Wrap(err, "db: automigrate")
	}
	return nil
}

func logLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

// redact hides the password of URL-style connection strings.
func redact(dsn string) string {
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return dsn
	}
	userinfo := dsn[scheme+3 : at]
	if i := strings.Index(userinfo, ":"); i >= 0 {
		return dsn[:scheme+3] + userinfo[:i] + ":***" + dsn[at:]
	}
	return dsn
}
