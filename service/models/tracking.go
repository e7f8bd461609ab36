/*
 * @module service/models/tracking
 * @description 质量跟踪数据模型，对应机加工跟踪表、后处理跟踪表、ERP工序表和缺陷代码表
 * @architecture 数据模型层
 * @documentReference dev_docs/scrap_tables.md
 * @stateFlow 外部录入 -> 只读查询 -> 流水线派生
 * @rules 跟踪表由外部系统写入，本服务只读；列名沿用既有库表
 * @dependencies gorm.io/gorm, time
 * @refs service/database/repository.go, service/pipeline/
 */

package models

import (
	"time"
)

// TrackingRecord 机加工质量跟踪记录 (uu_tracking)
type TrackingRecord struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Operator  *string   `gorm:"column:usr;type:varchar(20)" json:"operator"`
	Date      time.Time `gorm:"column:dte;index" json:"date"`
	Shift     int       `gorm:"column:shift" json:"shift"` // 0 早班 1 中班 2 夜班 3 周末
	Equipment string    `gorm:"column:pdc;type:varchar(30);index" json:"equipment"`
	QtyOK     int       `gorm:"column:qty_ok;default:0" json:"qty_ok"`
	QtyNOK    int       `gorm:"column:qty_ko;default:0" json:"qty_nok"`
	D0        int       `gorm:"column:d0;default:0" json:"a"` // A
	D1        int       `gorm:"column:d1;default:0" json:"c"` // C
	D2        int       `gorm:"column:d2;default:0" json:"o"` // O
	D3        int       `gorm:"column:d3;default:0" json:"r"` // R
	D4        int       `gorm:"column:d4;default:0" json:"m"` // M
	D5        int       `gorm:"column:d5;default:0" json:"u"` // U
	D6        int       `gorm:"column:d6;default:0" json:"d6"`
	Comment   string    `gorm:"column:comment;type:text" json:"comment"`
	OFA       string    `gorm:"column:ofa;type:varchar(30);index" json:"ofa"`
	Defaults  string    `gorm:"column:defaults;type:text" json:"defaults"` // 缺陷明细原文
}

// TableName 指定表名
func (TrackingRecord) TableName() string {
	return "uu_tracking"
}

// PostProcessingRecord 后处理质量跟踪记录 (pp_tracking)
type PostProcessingRecord struct {
	ID           int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OFA          string    `gorm:"column:ofa;type:varchar(30);index" json:"ofa"`
	Date         time.Time `gorm:"column:dte;index" json:"date"`
	Collaborator string    `gorm:"column:uusr;type:varchar(20)" json:"collaborator"`
	Operator     *string   `gorm:"column:usr;type:varchar(20)" json:"operator"`
	Shift        int       `gorm:"column:shift" json:"shift"`
	Operation    int       `gorm:"column:ope" json:"operation"`
	QtyOK        int       `gorm:"column:qty_ok;default:0" json:"qty_ok"`
	QtyNOK       int       `gorm:"column:qty_ko;default:0" json:"qty_nok"`
	Defaults     string    `gorm:"column:defaults;type:text" json:"defaults"`
	Comments     string    `gorm:"column:comments;type:text" json:"comments"`
}

// TableName 指定表名
func (PostProcessingRecord) TableName() string {
	return "pp_tracking"
}

// LotOperation ERP 批次工序记录 (ofas)
type LotOperation struct {
	ID             int64      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OFA            string     `gorm:"column:lot_refcompl;type:varchar(30);index" json:"ofa"`
	Equipment      string     `gorm:"column:fac_reference;type:varchar(30)" json:"equipment"`
	StepNumber     int        `gorm:"column:scs_step_number" json:"step_number"`
	TaskRef        string     `gorm:"column:tas_ref;type:varchar(30)" json:"task_ref"`
	Description    string     `gorm:"column:scs_short_descr;type:varchar(100)" json:"description"`
	QtyRelease     int        `gorm:"column:tal_release_qty;default:0" json:"qty_release"`
	QtyReject      int        `gorm:"column:tal_rejected_qty;default:0" json:"qty_reject"`
	BeginDate      *time.Time `gorm:"column:tal_begin_real_date" json:"begin_date"`
	EndDate        *time.Time `gorm:"column:tal_end_real_date" json:"end_date"`
	LotReleasedQty int        `gorm:"column:lot_released_qty;default:0" json:"lot_released_qty"`
	LotRejectedQty int        `gorm:"column:lot_reject_released_qty;default:0" json:"lot_rejected_qty"`
}

// TableName 指定表名
func (LotOperation) TableName() string {
	return "ofas"
}

// DefectReference 缺陷代码参考表 (prod_defaults)
type DefectReference struct {
	ID          int64  `gorm:"column:def_id;primaryKey;autoIncrement" json:"id"`
	Code        string `gorm:"column:def_name;type:varchar(20);uniqueIndex" json:"code"`
	Description string `gorm:"column:def_descr;type:varchar(100)" json:"description"`
	Domain      string `gorm:"column:def_domain;type:varchar(20)" json:"domain"`
}

// TableName 指定表名
func (DefectReference) TableName() string {
	return "prod_defaults"
}

// OrderEquipment 订单与设备的对应行，用于设备一致性核对
type OrderEquipment struct {
	Date      time.Time `gorm:"column:dte" json:"date"`
	Shift     int       `gorm:"column:shift" json:"shift"`
	Equipment string    `gorm:"column:pdc" json:"equipment"`
	OFA       string    `gorm:"column:ofa" json:"ofa"`
}
