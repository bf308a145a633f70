package database

import (
	"context"
	stderrors "errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kbukum/draftkit/errors"
	"github.com/kbukum/draftkit/kv"
)

// KVStore keeps drafts in the draft_entries table.
type KVStore struct {
	db *DB
}

var _ kv.Store = (*KVStore)(nil)

// NewKVStore creates a KVStore on db. The table must exist, see DB.AutoMigrate.
func NewKVStore(db *DB) *KVStore {
	return &KVStore{db: db}
}

func (s *KVStore) Get(ctx context.Context, key string) (string, bool, error) {
	var entry DraftEntry
	err := s.db.WithContext(ctx).Where("draft_key = ?", key).Take(&entry).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, FromDatabase(err, "draft")
	}
	return entry.Value, true, nil
}

// Set upserts the entry for key.
func (s *KVStore) Set(ctx context.Context, key, value string) error {
	entry := DraftEntry{Key: key, Value: value}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "draft_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
	if err != nil {
		appErr := FromDatabase(err, "draft")
		if appErr.Retryable {
			return errors.StorageWrite(key, err)
		}
		return appErr
	}
	return nil
}

func (s *KVStore) Delete(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("draft_key = ?", key).Delete(&DraftEntry{}).Error
	if err != nil {
		return FromDatabase(err, "draft")
	}
	return nil
}

func (s *KVStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	if err := s.db.WithContext(ctx).Model(&DraftEntry{}).Order("draft_key").Pluck("draft_key", &keys).Error; err != nil {
		return nil, FromDatabase(err, "draft")
	}
	return keys, nil
}
