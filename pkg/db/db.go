package db

import (
	"fmt"

	"github.com/smallbiznis/billbook/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Module provides the gorm connection to the fx graph.
var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open connects to the configured storage backend. The same posting
// engine runs against either backend; the driver is the only difference.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	conn, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, err
	}

	log.Info("database connected",
		zap.String("driver", cfg.DBDriver),
	)
	return conn, nil
}

// OpenStandalone connects without the fx graph, for one-shot CLI
// commands like seeding.
func OpenStandalone(cfg config.Config) (*gorm.DB, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}
	return gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
}

func dialectorFor(cfg config.Config) (gorm.Dialector, error) {
	switch cfg.DBDriver {
	case "postgres":
		return postgres.Open(cfg.DBDSN), nil
	case "sqlite":
		return sqlite.Open(cfg.DBDSN), nil
	default:
		return nil, fmt.Errorf("unsupported db driver %q", cfg.DBDriver)
	}
}

// SupportsRowLocking reports whether the connected backend honors
// SELECT ... FOR UPDATE. SQLite serializes writers at the database
// level, so posting transactions are already mutually exclusive there.
func SupportsRowLocking(conn *gorm.DB) bool {
	if conn == nil {
		return false
	}
	return conn.Dialector.Name() == "postgres"
}
