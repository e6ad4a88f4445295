// Package modlog records moderation cases in SQLite.
package modlog

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/xgctrenches/xgcbot/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

// Recorder is what the moderation commands need from the case log.
type Recorder interface {
	Record(ctx context.Context, c *models.ModerationCase) error
	ForTarget(ctx context.Context, guildID, targetID string, limit int) ([]models.ModerationCase, error)
}

// Log is the gorm backed Recorder
type Log struct {
	db *gorm.DB
}

// Open connects to the SQLite file at dsn and migrates the case table.
func Open(dsn string) (*Log, error) {
	if dir := filepath.Dir(dsn); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "creating modlog directory")
		}
	}

	db, err := gorm.Open(sqlite.Dialector{
		DriverName: "sqlite",
		DSN:        dsn,
	}, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, errors.Wrap(err, "opening modlog")
	}

	if err := db.AutoMigrate(&models.ModerationCase{}); err != nil {
		return nil, errors.Wrap(err, "migrating modlog")
	}

	return &Log{db: db}, nil
}

// Record stores c, filling in the reference and timestamp when unset
func (l *Log) Record(ctx context.Context, c *models.ModerationCase) error {
	if c.Reference == "" {
		c.Reference = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	return errors.Wrap(l.db.WithContext(ctx).Create(c).Error, "recording case")
}

// ForTarget returns the newest cases against targetID first
func (l *Log) ForTarget(ctx context.Context, guildID, targetID string, limit int) ([]models.ModerationCase, error) {
	var cases []models.ModerationCase
	err := l.db.WithContext(ctx).
		Where("guild_id = ? AND target_id = ?", guildID, targetID).
		Order("created_at desc, id desc").
		Limit(limit).
		Find(&cases).Error
	return cases, errors.Wrap(err, "loading cases")
}

func (l *Log) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
