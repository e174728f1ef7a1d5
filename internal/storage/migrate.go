package storage

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/sirupsen/logrus"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator 管理資料庫結構遷移
//
// 唯一約束、級聯刪除與 matches 的運算式唯一索引無法以 AutoMigrate 表達，
// 因此結構以 SQL 遷移檔維護。
type Migrator struct {
	migrate *migrate.Migrate
	log     *logrus.Entry
}

// NewMigrator 以既有連線建立遷移管理器
func NewMigrator(db *sql.DB) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migrate: open source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("migrate: open database driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("migrate: create instance: %w", err)
	}

	return &Migrator{
		migrate: m,
		log:     logrus.WithField("component", "migrator"),
	}, nil
}

// Up 執行所有待處理的遷移
func (m *Migrator) Up() error {
	version, dirty, err := m.migrate.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("migrate: read version: %w", err)
	}
	if dirty {
		m.log.WithField("version", version).Warn("Database is dirty, forcing version")
		if err := m.migrate.Force(int(version)); err != nil {
			return fmt.Errorf("migrate: force version %d: %w", version, err)
		}
	}

	if err := m.migrate.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			m.log.Info("Database schema is up to date")
			return nil
		}
		return fmt.Errorf("migrate: up: %w", err)
	}

	newVersion, _, _ := m.migrate.Version()
	m.log.WithField("version", newVersion).Info("Database migrated")
	return nil
}

// Down 回滾全部遷移，僅供測試使用
func (m *Migrator) Down() error {
	if err := m.migrate.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: down: %w", err)
	}
	return nil
}

// Migrate 對連線執行所有遷移
//
// 不關閉 Migrator：其 database driver 與呼叫端共用同一個 *sql.DB。
func (db *PostgresDB) Migrate() error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}
	m, err := NewMigrator(sqlDB)
	if err != nil {
		return err
	}
	return m.Up()
}
