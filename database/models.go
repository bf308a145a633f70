package database

import "time"

// DraftEntry is one stored draft record. Key is the normalized draft key and
// Value the encoded record string.
type DraftEntry struct {
	Key       string    `gorm:"column:draft_key;primaryKey;size:256"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime;index"`
}

func (DraftEntry) TableName() string { return "draft_entries" }
