package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IngestBatch CSV 导入批次记录
type IngestBatch struct {
	ID          string    `gorm:"type:varchar(50);primaryKey" json:"id"`
	Source      string    `gorm:"type:varchar(100)" json:"source"`
	Encoding    string    `gorm:"type:varchar(20)" json:"encoding"`
	Total       int       `json:"total"`
	Inserted    int       `json:"inserted"`
	Skipped     int       `json:"skipped"`
	Quarantined int       `json:"quarantined"`
	CreatedBy   string    `gorm:"type:varchar(50)" json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName 指定表名
func (IngestBatch) TableName() string {
	return "ingest_batches"
}

// BeforeCreate 创建前钩子
func (b *IngestBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}
