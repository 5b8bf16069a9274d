package store

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Document is one row of the embedded database backend
type Document struct {
	Bucket    string `gorm:"primaryKey;size:64"`
	Key       string `gorm:"primaryKey;column:doc_key;size:255"`
	Body      []byte
	UpdatedAt time.Time
}

// OpenDB opens the sqlite database used by the embedded backend
func OpenDB(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&Document{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

// SQLStore keeps one bucket of documents in a shared sqlite database
type SQLStore struct {
	db     *gorm.DB
	bucket string
}

// NewSQLStore returns the store for one bucket
func NewSQLStore(db *gorm.DB, bucket string) *SQLStore {
	return &SQLStore{db: db, bucket: bucket}
}

// All reads every document of the bucket in one query
func (s *SQLStore) All() (map[string][]byte, error) {
	var rows []Document
	if err := s.db.Where("bucket = ?", s.bucket).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load bucket %s: %w", s.bucket, err)
	}
	out := make(map[string][]byte, len(rows))
	for _, r := range rows {
		out[r.Key] = r.Body
	}
	return out, nil
}

// Put upserts a document
func (s *SQLStore) Put(key string, value []byte) error {
	doc := Document{Bucket: s.bucket, Key: key, Body: value, UpdatedAt: time.Now()}
	err := s.db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Delete removes a document
func (s *SQLStore) Delete(key string) error {
	err := s.db.Where(&Document{Bucket: s.bucket, Key: key}).Delete(&Document{}).Error
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// Replace swaps the bucket contents inside one transaction so readers
// see either the old or the new set.
func (s *SQLStore) Replace(docs map[string][]byte) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("bucket = ?", s.bucket).Delete(&Document{}).Error; err != nil {
			return fmt.Errorf("clear bucket %s: %w", s.bucket, err)
		}
		now := time.Now()
		for k, v := range docs {
			doc := Document{Bucket: s.bucket, Key: k, Body: v, UpdatedAt: now}
			if err := tx.Create(&doc).Error; err != nil {
				return fmt.Errorf("insert %s/%s: %w", s.bucket, k, err)
			}
		}
		return nil
	})
}

// Close is a no-op; the shared database is closed by its owner
func (s *SQLStore) Close() error {
	return nil
}
