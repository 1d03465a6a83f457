package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrator 使用独立连接执行迁移，Close 时一并关闭
type Migrator struct {
	m *migrate.Migrate
}

func NewMigrator(driver, dsn, username, password string, l *zap.Logger) (*Migrator, error) {
	src, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	var m *migrate.Migrate
	switch driver {
	case "postgres":
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, err
		}
		drv, err := migratepg.WithInstance(db, &migratepg.Config{})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "postgres", drv)
		if err != nil {
			return nil, err
		}
	case "mysql":
		norm, err := NormalizeMySQLDSN(dsn, username, password, true)
		if err != nil {
			return nil, err
		}
		db, err := sql.Open("mysql", norm)
		if err != nil {
			return nil, err
		}
		drv, err := migratemysql.WithInstance(db, &migratemysql.Config{})
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate mysql: %w", err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "mysql", drv)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	if l != nil {
		m.Log = migrateLogger{l.Named("migrate").Sugar()}
	}
	return &Migrator{m: m}, nil
}

// Up 已是最新版本不算错误
func (mg *Migrator) Up() error {
	if err := mg.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Down 回退一个版本
func (mg *Migrator) Down() error {
	if err := mg.m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}

// Version 尚未迁移时返回 (0, false, nil)
func (mg *Migrator) Version() (uint, bool, error) {
	v, dirty, err := mg.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}

func (mg *Migrator) Close() error {
	srcErr, dbErr := mg.m.Close()
	return errors.Join(srcErr, dbErr)
}

type migrateLogger struct{ s *zap.SugaredLogger }

func (l migrateLogger) Printf(format string, v ...any) {
	l.s.Infof(strings.TrimRight(format, "\n"), v...)
}
func (l migrateLogger) Verbose() bool { return false }
