/*
 * @module service/erp/lot_operations
 * @description ERP 批次工序整理：检验/清洗工序按出现顺序改名、工序别名映射、验证批次标记、无效批次剔除、按工序与设备汇总 NOK(%)
 * @architecture 数据处理层 - 无状态批处理
 * @documentReference dev_docs/scrap_erp.md
 * @stateFlow LotOperation -> 按批次分组改名 -> 别名 -> 标记/剔除 -> 周与比率
 * @rules 同一批次内按工序号倒序，第1个 CONTROLER 为 Ctrl F、第2个为 Visual、其余为 Dimensional；第1个 LAVER 为 Lavage F、其余为 Lavage Tribo
 * @dependencies scrap-quality-service/service/pipeline, scrap-quality-service/service/reference
 * @refs service/scrap/overall.go
 */

package erp

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"scrap-quality-service/service/models"
	"scrap-quality-service/service/pipeline"
	"scrap-quality-service/service/reference"
)

// 机加工工序
const (
	MachiningStep      = 10
	MachiningOperation = "Machining"
)

// 改名后的检验与清洗工序
const (
	OperationFinalControl = "Ctrl F"
	OperationVisual       = "Visual"
	OperationDimensional  = "Dimensional"
	OperationFinalWash    = "Lavage F"
	OperationTriboWash    = "Lavage Tribo"
)

// Operation 整理后的批次工序
type Operation struct {
	OFA           string    `json:"ofa"`
	Equipment     string    `json:"equipment"`
	Step          int       `json:"step"`
	TaskRef       string    `json:"task_ref"`
	Description   string    `json:"description"`
	Operation     string    `json:"operation"`
	OK            int       `json:"ok"`
	NOK           int       `json:"nok"`
	NOKPercent    float64   `json:"nok_percent"`
	Begin         time.Time `json:"begin_date"`
	End           time.Time `json:"end_date"`
	ValidationOFA bool      `json:"validation_ofa"`
	Year          int       `json:"year"`
	Week          int       `json:"week"`
}

// Dimension 分组维度取值
func (o Operation) Dimension(name string) string {
	switch name {
	case pipeline.DimOperation:
		return o.Operation
	case pipeline.DimEquipment:
		return o.Equipment
	case pipeline.DimOFA:
		return o.OFA
	case pipeline.DimYear:
		return strconv.Itoa(o.Year)
	case pipeline.DimWeek:
		return strconv.Itoa(o.Week)
	case pipeline.DimDate:
		return o.Begin.Format("2006-01-02")
	}
	return ""
}

// Measures 工序放行与报废数量
func (o Operation) Measures() pipeline.Measures {
	return pipeline.Measures{OK: o.OK, NOK: o.NOK}
}

// Dated 整理后的工序都有开工日期
func (o Operation) Dated() bool {
	return !o.Begin.IsZero()
}

// IsMachining 工序号为10且名称为机加工（或映射为 "10"）的工序
func (o Operation) IsMachining() bool {
	return o.Step == MachiningStep && (o.Operation == MachiningOperation || o.Operation == strconv.Itoa(MachiningStep))
}

// PrepareStats 整理统计
type PrepareStats struct {
	Total       int `json:"total"`
	Orders      int `json:"orders"`
	DroppedOFAs int `json:"dropped_ofas"`
}

// Prepare 整理 ERP 工序记录，剔除不完整的批次
// 剔除条件：任一工序在排除设备上；没有 Dimensional 工序；没有10号工序；开工或完工日期缺失；10号工序不是机加工
func Prepare(lots []models.LotOperation, catalog *reference.Catalog) ([]Operation, PrepareStats) {
	stats := PrepareStats{Total: len(lots)}

	byOFA := make(map[string][]models.LotOperation)
	var order []string
	for _, lot := range lots {
		ofa := strings.TrimSpace(lot.OFA)
		if _, ok := byOFA[ofa]; !ok {
			order = append(order, ofa)
		}
		byOFA[ofa] = append(byOFA[ofa], lot)
	}
	stats.Orders = len(order)

	validation := validationOrders(order)

	var out []Operation
	for _, ofa := range order {
		group := byOFA[ofa]
		sort.SliceStable(group, func(i, j int) bool { return group[i].StepNumber > group[j].StepNumber })

		ops := renameOperations(ofa, group, catalog)
		if dropOrder(ops, catalog) {
			stats.DroppedOFAs++
			continue
		}
		for i := range ops {
			ops[i].ValidationOFA = validation[ofa]
			ops[i].NOKPercent = pipeline.Ratio(ops[i].OK, ops[i].NOK)
			ops[i].Year, ops[i].Week = pipeline.CalendarWeek(ops[i].Begin)
		}
		out = append(out, ops...)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OFA != out[j].OFA {
			return out[i].OFA > out[j].OFA
		}
		return out[i].Step > out[j].Step
	})
	return out, stats
}

func renameOperations(ofa string, group []models.LotOperation, catalog *reference.Catalog) []Operation {
	controls, washes := 0, 0
	ops := make([]Operation, len(group))
	for i, lot := range group {
		description := strings.TrimSpace(lot.Description)
		name := description
		switch {
		case strings.HasSuffix(description, "CONTROLER"):
			switch controls {
			case 0:
				name = OperationFinalControl
			case 1:
				name = OperationVisual
			default:
				name = OperationDimensional
			}
			controls++
		case strings.HasSuffix(description, "LAVER"):
			if washes == 0 {
				name = OperationFinalWash
			} else {
				name = OperationTriboWash
			}
			washes++
		}

		op := Operation{
			OFA:         ofa,
			Equipment:   strings.TrimSpace(lot.Equipment),
			Step:        lot.StepNumber,
			TaskRef:     lot.TaskRef,
			Description: description,
			Operation:   catalog.ERPOperation(name),
			OK:          lot.QtyRelease,
			NOK:         lot.QtyReject,
		}
		if lot.BeginDate != nil {
			op.Begin = *lot.BeginDate
		}
		if lot.EndDate != nil {
			op.End = *lot.EndDate
		}
		ops[i] = op
	}
	return ops
}

func dropOrder(ops []Operation, catalog *reference.Catalog) bool {
	hasDimensional, hasMachiningStep := false, false
	for _, op := range ops {
		for _, excluded := range catalog.ERPExcludedEquipments {
			if op.Equipment == excluded {
				return true
			}
		}
		if op.Begin.IsZero() || op.End.IsZero() {
			return true
		}
		if op.Step == MachiningStep {
			if !op.IsMachining() {
				return true
			}
			hasMachiningStep = true
		}
		if op.Operation == OperationDimensional {
			hasDimensional = true
		}
	}
	return !hasDimensional || !hasMachiningStep
}

// validationOrders 存在 -2 或 -3 子批次的批次族，其 -1、-2、-3 都标记为验证批次
func validationOrders(orders []string) map[string]bool {
	marked := make(map[string]bool)
	for _, ofa := range orders {
		if len(ofa) < 2 || !(strings.HasSuffix(ofa, "-2") || strings.HasSuffix(ofa, "-3")) {
			continue
		}
		base := ofa[:len(ofa)-2]
		for _, suffix := range []string{"-1", "-2", "-3"} {
			marked[base+suffix] = true
		}
	}
	return marked
}

// AssignMachiningEquipment 把每个批次所有工序的设备替换为其机加工工序的设备
func AssignMachiningEquipment(ops []Operation) []Operation {
	machining := make(map[string]string)
	for _, op := range ops {
		if op.IsMachining() {
			machining[op.OFA] = op.Equipment
		}
	}
	out := make([]Operation, len(ops))
	for i, op := range ops {
		if equipment, ok := machining[op.OFA]; ok {
			op.Equipment = equipment
		}
		out[i] = op
	}
	return out
}

// Filter 按年份、周区间、设备过滤
func Filter(ops []Operation, spec pipeline.FilterSpec, catalog *reference.Catalog) []Operation {
	var out []Operation
	for _, op := range ops {
		if spec.Year != nil && op.Year != *spec.Year {
			continue
		}
		if spec.Week != nil && (op.Week < spec.Week[0] || op.Week > spec.Week[1]) {
			continue
		}
		if spec.Equipment != "" && !pipeline.MatchEquipment(catalog, op.Equipment, spec.Equipment) {
			continue
		}
		out = append(out, op)
	}
	return out
}

// OverallByOperation 按工序和机加工设备汇总 NOK(%)，只保留 order 中列出的工序并按其顺序输出
func OverallByOperation(ops []Operation, order []string) []pipeline.AggregatedRow {
	var kept []Operation
	for _, op := range ops {
		if contains(order, op.Operation) {
			kept = append(kept, op)
		}
	}
	rows := pipeline.Group(kept, pipeline.DimOperation, pipeline.DimEquipment)
	return pipeline.OrderBy(rows, pipeline.DimOperation, order)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
