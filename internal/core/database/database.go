package database

import (
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/teacher-contracts/internal"
	contractDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/contract"
	notificationDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/notification"
	templateDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/template"
	userDatamodel "github.com/frahmantamala/teacher-contracts/internal/core/datamodel/user"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	pgxDriverName    = "pgx"
	sqliteDriverName = "sqlite3"
)

// DB bundles the gorm handle used by repositories with an sqlx handle over
// the same pool for hand-written aggregate queries.
type DB struct {
	Gorm *gorm.DB
	SQLX *sqlx.DB
}

func (d *DB) Close() error {
	return d.SQLX.Close()
}

// Models lists every persisted row type.
func Models() []interface{} {
	return []interface{}{
		&userDatamodel.Department{},
		&userDatamodel.User{},
		&templateDatamodel.ContractTemplate{},
		&contractDatamodel.Contract{},
		&notificationDatamodel.Notification{},
	}
}

func Open(cfg internal.DatabaseConfig, lg *slog.Logger) (*DB, error) {
	gormCfg := &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Warn)}

	switch cfg.Driver {
	case DriverSQLite:
		db, err := openSQLite(cfg.Source, gormCfg)
		if err != nil {
			return nil, err
		}
		lg.Info("database opened", "driver", cfg.Driver)
		return db, nil
	case DriverPostgres, "":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	sqlxDB, err := sqlx.Connect(pgxDriverName, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	sqlxDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlxDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlxDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlxDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlxDB.DB}), gormCfg)
	if err != nil {
		_ = sqlxDB.Close()
		return nil, fmt.Errorf("failed to open gorm over pgx: %w", err)
	}

	lg.Info("database opened", "driver", DriverPostgres, "max_open_conns", cfg.MaxOpenConns)
	return &DB{Gorm: gormDB, SQLX: sqlxDB}, nil
}

// OpenInMemory returns a migrated SQLite database that lives as long as the
// returned handle.
func OpenInMemory() (*DB, error) {
	db, err := openSQLite(":memory:", &gorm.Config{Logger: gormLogger.Default.LogMode(gormLogger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := AutoMigrate(db.Gorm); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func openSQLite(source string, gormCfg *gorm.Config) (*DB, error) {
	gormDB, err := gorm.Open(sqlite.Open(source), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, err
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	return &DB{Gorm: gormDB, SQLX: sqlx.NewDb(sqlDB, sqliteDriverName)}, nil
}
