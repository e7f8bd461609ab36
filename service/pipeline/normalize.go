/*
 * @module service/pipeline/normalize
 * @description 行标准化：操作员别名合并、班组分配、星期与生产周推导、缺陷明细解析与代码转名称
 * @architecture 数据处理层 - 无状态批处理
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow RawRecord -> Record
 * @rules 单行错误就地降级（日期缺失给占位星期、明细格式错误隔离为空明细），不中断整批
 * @dependencies scrap-quality-service/service/reference, scrap-quality-service/service/models
 * @refs service/pipeline/week.go, service/reference/defects.go
 */

package pipeline

import (
	"log/slog"
	"sort"
	"strings"

	"scrap-quality-service/service/models"
	"scrap-quality-service/service/reference"
)

// MissingOperator 操作员为空时的占位值
const MissingOperator = "NA"

// NormalizeStats 标准化统计
type NormalizeStats struct {
	Total        int `json:"total"`
	InvalidDates int `json:"invalid_dates"`
	Quarantined  int `json:"quarantined"`
	Aliased      int `json:"aliased"`
}

// Normalizer 行标准化器
type Normalizer struct {
	catalog  *reference.Catalog
	resolver *reference.Resolver
}

// NewNormalizer 创建行标准化器
func NewNormalizer(catalog *reference.Catalog, resolver *reference.Resolver) *Normalizer {
	return &Normalizer{catalog: catalog, resolver: resolver}
}

// Normalize 标准化一批原始行，结果按日期、班次倒序
// roster 为额外的已知操作员名单，与本批操作员一起用于别名合并
func (n *Normalizer) Normalize(raw []RawRecord, roster []string) ([]Record, NormalizeStats) {
	stats := NormalizeStats{Total: len(raw)}

	known := make(map[string]struct{}, len(raw)+len(roster)+len(n.catalog.OperatorRoster))
	for _, r := range raw {
		known[operatorOf(r.Operator)] = struct{}{}
	}
	for _, op := range roster {
		known[op] = struct{}{}
	}
	for _, op := range n.catalog.OperatorRoster {
		known[op] = struct{}{}
	}

	records := make([]Record, 0, len(raw))
	for _, r := range raw {
		rec := Record{
			ID:           r.ID,
			Source:       r.Source,
			OFA:          strings.TrimSpace(r.OFA),
			Shift:        r.Shift,
			ShiftName:    n.catalog.ShiftName(r.Shift),
			Collaborator: r.Collaborator,
			Equipment:    strings.TrimSpace(r.Equipment),
			Operation:    r.Operation,
			OK:           r.OK,
			NOK:          r.NOK,
			A:            r.A,
			R:            r.R,
			Comments:     r.Comments,
		}

		operator := operatorOf(r.Operator)
		rec.Operator = n.collapseAlias(operator, known)
		if rec.Operator != operator {
			stats.Aliased++
		}

		if r.Date.IsZero() {
			rec.Weekday = reference.MissingWeekday
			stats.InvalidDates++
			slog.Debug("跟踪记录日期缺失", "source", r.Source, "id", r.ID)
		} else {
			rec.Date = truncateDay(r.Date)
			rec.DateValid = true
			rec.Year, rec.Week = ProductionWeek(rec.Date, r.Shift)
			rec.Weekday = ProductionWeekday(rec.Date, r.Shift, n.catalog)
		}
		rec.Team = n.catalog.TeamFor(rec.Operator, rec.Week, r.Shift)

		breakdown, err := models.ParseBreakdown(r.Defaults)
		if err != nil {
			stats.Quarantined++
			rec.Breakdown = models.DefectBreakdown{}
			slog.Warn("缺陷明细格式错误，已隔离", "source", r.Source, "id", r.ID, "error", err)
		} else {
			rec.Breakdown = n.resolver.Resolve(breakdown)
			rec.BreakdownValid = true
		}

		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].Shift > records[j].Shift
	})
	return records, stats
}

// collapseAlias 以别名前缀开头且去掉前缀后是已知操作员时，改写为去掉前缀的名字
func (n *Normalizer) collapseAlias(operator string, known map[string]struct{}) string {
	prefix := n.catalog.AliasPrefix
	if prefix == "" || !strings.HasPrefix(operator, prefix) {
		return operator
	}
	suffix := strings.TrimPrefix(operator, prefix)
	if suffix == "" {
		return operator
	}
	if _, ok := known[suffix]; ok {
		return suffix
	}
	return operator
}

// Augment 预计算派生列：同一天同一班次每个操作员操作的设备数、每台设备的操作员数
func Augment(records []Record) []Record {
	equipmentsByOperator := make(map[string]map[string]struct{})
	operatorsByEquipment := make(map[string]map[string]struct{})

	for _, r := range records {
		opKey := dayKey(r.Date) + "|" + r.ShiftName + "|" + r.Operator
		if equipmentsByOperator[opKey] == nil {
			equipmentsByOperator[opKey] = make(map[string]struct{})
		}
		equipmentsByOperator[opKey][r.Equipment] = struct{}{}

		eqKey := dayKey(r.Date) + "|" + r.ShiftName + "|" + r.Equipment
		if operatorsByEquipment[eqKey] == nil {
			operatorsByEquipment[eqKey] = make(map[string]struct{})
		}
		operatorsByEquipment[eqKey][r.Operator] = struct{}{}
	}

	out := make([]Record, len(records))
	for i, r := range records {
		r.EquipmentsPerOperator = len(equipmentsByOperator[dayKey(r.Date)+"|"+r.ShiftName+"|"+r.Operator])
		r.OperatorsPerEquipment = len(operatorsByEquipment[dayKey(r.Date)+"|"+r.ShiftName+"|"+r.Equipment])
		r.Augmented = true
		out[i] = r
	}
	return out
}

// OperatorColors 按操作员最近一条记录所在班组取色
func OperatorColors(records []Record, catalog *reference.Catalog) map[string]string {
	latest := make(map[string]Record)
	for _, r := range records {
		if !r.DateValid {
			continue
		}
		prev, ok := latest[r.Operator]
		if !ok || r.Date.After(prev.Date) || (r.Date.Equal(prev.Date) && r.Shift >= prev.Shift) {
			latest[r.Operator] = r
		}
	}

	colors := make(map[string]string, len(latest))
	for operator, r := range latest {
		colors[operator] = catalog.TeamColor(r.Team)
	}
	return colors
}

// OperatorsByTeam 按最近班组排列的操作员顺序
func OperatorsByTeam(records []Record) []string {
	latest := make(map[string]Record)
	for _, r := range records {
		prev, ok := latest[r.Operator]
		if !ok || r.Date.After(prev.Date) {
			latest[r.Operator] = r
		}
	}
	operators := make([]string, 0, len(latest))
	for op := range latest {
		operators = append(operators, op)
	}
	sort.Slice(operators, func(i, j int) bool {
		ti, tj := latest[operators[i]].Team, latest[operators[j]].Team
		if ti != tj {
			return ti < tj
		}
		return operators[i] < operators[j]
	})
	return operators
}

func operatorOf(op *string) string {
	if op == nil || strings.TrimSpace(*op) == "" {
		return MissingOperator
	}
	return strings.TrimSpace(*op)
}
