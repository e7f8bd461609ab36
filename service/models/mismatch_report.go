package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// 不一致类型
const (
	MismatchKindEquipment = "equipment" // 同一订单对应多台设备
	MismatchKindCONS      = "cons"      // CONS 分级合计与 NOK 不符
	MismatchKindBreakdown = "breakdown" // 缺陷明细合计与 NOK 不符
)

// MismatchReport 定时巡检发现的数据不一致记录
type MismatchReport struct {
	ID         string          `gorm:"type:varchar(50);primaryKey" json:"id"`
	Kind       string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_mismatch_key" json:"kind"`
	Reference  string          `gorm:"type:varchar(60);not null;uniqueIndex:idx_mismatch_key" json:"reference"` // 订单号或记录ID
	OFA        string          `gorm:"type:varchar(30);index" json:"ofa"`
	Operator   string          `gorm:"type:varchar(20)" json:"operator,omitempty"`
	Equipments pq.StringArray  `gorm:"type:text" json:"equipments"`
	Breakdown  DefectBreakdown `gorm:"type:jsonb" json:"breakdown,omitempty"`
	Expected   int             `json:"expected"` // NOK
	Actual     int             `json:"actual"`   // 明细合计
	LastUpdate time.Time       `json:"last_update"`
	DetectedAt time.Time       `json:"detected_at"`
	Resolved   bool            `gorm:"default:false" json:"resolved"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TableName 指定表名
func (MismatchReport) TableName() string {
	return "mismatch_reports"
}

// BeforeCreate 创建前钩子
func (m *MismatchReport) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.DetectedAt.IsZero() {
		m.DetectedAt = time.Now()
	}
	return nil
}
