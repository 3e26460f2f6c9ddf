package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Storage wraps a gorm DB handle open against a SQLite file (or
// ":memory:" in tests). All entity CRUD in this package goes through
// the embedded *gorm.DB so every caller shares one connection pool.
type Storage struct {
	DB *gorm.DB
}

// Open creates the database directory (if needed), opens the SQLite
// file at path and runs AutoMigrate for every model in AllModels.
func Open(path string) (*Storage, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA foreign_keys=ON;")

	if path == ":memory:" {
		// SQLite's in-memory database is private to the connection that
		// created it; capping the pool at one connection keeps every
		// query on the same database instead of spawning empty siblings.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	if err := db.AutoMigrate(AllModels()...); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	return &Storage{DB: db}, nil
}

// Close releases the underlying SQL connection.
func (s *Storage) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Checkpoint forces a WAL checkpoint, writing every committed
// transaction into the main database file.
func (s *Storage) Checkpoint() error {
	return s.DB.Exec("PRAGMA wal_checkpoint(TRUNCATE);").Error
}

// GetString retrieves a single string setting, returning "" if absent.
func (s *Storage) GetString(key string) (string, error) {
	var row AppSetting
	err := s.DB.Where("key = ?", key).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", nil
		}
		return "", err
	}
	return row.Value, nil
}

// SetString upserts a single string setting.
func (s *Storage) SetString(key, val string) error {
	return s.DB.Save(&AppSetting{Key: key, Value: val}).Error
}
