// Package sqlstore keeps client state in a single gorm table. sqlite is the
// default so a CLI profile survives restarts without any server; postgres is
// selected by DSN.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Entry is one stored key.
type Entry struct {
	Name      string `gorm:"primaryKey;size:255"`
	Value     string `gorm:"type:text;not null"`
	UpdatedAt time.Time
}

// TableName keeps the table name stable across gorm naming strategies.
func (Entry) TableName() string { return "client_kv" }

type Client struct {
	db *gorm.DB
}

// Open connects with the given driver ("sqlite" with a file path, "postgres"
// with a DSN) and migrates the table.
func Open(driver, target string) (*Client, error) {
	db, err := Dial(driver, target)
	if err != nil {
		return nil, err
	}
	return New(db)
}

// Dial opens a gorm connection without touching the schema.
func Dial(driver, target string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case "sqlite":
		dialector = sqlite.Open(target)
	case "postgres":
		dialector = postgres.New(postgres.Config{DSN: target, PreferSimpleProtocol: true})
	default:
		return nil, fmt.Errorf("sqlstore: unsupported driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("sqlstore: connect: %w", err)
	}
	return db, nil
}

// New wraps an existing connection.
func New(db *gorm.DB) (*Client, error) {
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("sqlstore: migrate: %w", err)
	}
	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *Client) Get(ctx context.Context, key string) (string, error) {
	var e Entry
	err := c.db.WithContext(ctx).Where("name = ?", key).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return e.Value, nil
}

func (c *Client) Set(ctx context.Context, key, value string) error {
	e := Entry{Name: key, Value: value, UpdatedAt: time.Now()}
	return c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
}

func (c *Client) Remove(ctx context.Context, key string) error {
	return c.db.WithContext(ctx).Where("name = ?", key).Delete(&Entry{}).Error
}
