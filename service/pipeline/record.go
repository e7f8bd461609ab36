/*
 * @module service/pipeline/record
 * @description 流水线行模型：原始跟踪行与标准化后的记录
 * @architecture 数据处理层 - 无状态批处理
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow 原始行 -> 标准化记录 -> 派生列 -> 过滤 -> 展开 -> 聚合
 * @rules 变换总是产生新切片，不修改输入
 * @dependencies scrap-quality-service/service/models
 * @refs service/pipeline/normalize.go, service/pipeline/filter.go
 */

package pipeline

import (
	"strconv"
	"time"

	"scrap-quality-service/service/models"
)

// 数据来源
const (
	SourceMachining      = "machining"
	SourcePostProcessing = "post_processing"
)

// 分组维度名称
const (
	DimYear         = "Year"
	DimWeek         = "Week"
	DimDate         = "Date"
	DimWeekday      = "Weekday"
	DimShift        = "Shift"
	DimTeam         = "Team"
	DimOperator     = "Operator"
	DimCollaborator = "Collaborator"
	DimEquipment    = "Equipment"
	DimOperation    = "Operation"
	DimOFA          = "OFA"
	DimType         = "Type"
	DimCONS         = "N° CONS"
	DimTool         = "Tool"
)

// RawRecord 存储层读出的原始跟踪行
type RawRecord struct {
	ID           int64
	Source       string
	OFA          string
	Date         time.Time // 零值表示日期缺失或无法解析
	Shift        int
	Operator     *string
	Collaborator string
	Equipment    string
	Operation    string
	OK           int
	NOK          int
	A            int
	R            int
	Defaults     string
	Comments     string
}

// Record 标准化后的跟踪记录
type Record struct {
	ID             int64                  `json:"id"`
	Source         string                 `json:"source"`
	OFA            string                 `json:"ofa"`
	Date           time.Time              `json:"date"`
	DateValid      bool                   `json:"date_valid"`
	Shift          int                    `json:"shift"`
	ShiftName      string                 `json:"shift_name"`
	Operator       string                 `json:"operator"`
	Collaborator   string                 `json:"collaborator,omitempty"`
	Equipment      string                 `json:"equipment"`
	Operation      string                 `json:"operation,omitempty"`
	OK             int                    `json:"ok"`
	NOK            int                    `json:"nok"`
	A              int                    `json:"a"`
	R              int                    `json:"r"`
	Breakdown      models.DefectBreakdown `json:"breakdown"`
	BreakdownValid bool                   `json:"breakdown_valid"`
	Comments       string                 `json:"comments"`
	Year           int                    `json:"year"`
	Week           int                    `json:"week"`
	Weekday        string                 `json:"weekday"`
	Team           int                    `json:"team"`

	EquipmentsPerOperator int  `json:"equipments_per_operator"`
	OperatorsPerEquipment int  `json:"operators_per_equipment"`
	Augmented             bool `json:"-"`
}

// Dimension 取记录在某一维度上的值
func (r Record) Dimension(name string) string {
	switch name {
	case DimYear:
		return strconv.Itoa(r.Year)
	case DimWeek:
		return strconv.Itoa(r.Week)
	case DimDate:
		return r.Date.Format("2006-01-02")
	case DimWeekday:
		return r.Weekday
	case DimShift:
		return r.ShiftName
	case DimTeam:
		return strconv.Itoa(r.Team)
	case DimOperator:
		return r.Operator
	case DimCollaborator:
		return r.Collaborator
	case DimEquipment:
		return r.Equipment
	case DimOperation:
		return r.Operation
	case DimOFA:
		return r.OFA
	}
	return ""
}

// Measures 记录的度量值
func (r Record) Measures() Measures {
	return Measures{OK: r.OK, NOK: r.NOK}
}

// dayKey 日期按天归一
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}
