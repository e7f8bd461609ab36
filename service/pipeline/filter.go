/*
 * @module service/pipeline/filter
 * @description 声明式过滤：年份、周区间、操作员、班次、班组、星期集合、设备（精确/设备族/设备组）、派生列
 * @architecture 数据处理层 - 无状态批处理
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow FilterSpec 解析 -> 按固定顺序逐项过滤
 * @rules 各条件为合取关系；缺省或 All 不过滤；未知键忽略；重复应用结果不变
 * @dependencies github.com/spf13/cast
 * @refs service/pipeline/normalize.go
 */

package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"scrap-quality-service/service/reference"

	"github.com/spf13/cast"
)

// ErrInvalidFilter 过滤参数无效
var ErrInvalidFilter = errors.New("过滤参数无效")

// 过滤键
const (
	KeyYear                  = "Year"
	KeyWeek                  = "Week"
	KeyOperator              = "Operator"
	KeyEquipment             = "Equipment"
	KeyShift                 = "Shift"
	KeyWeekday               = "Weekday"
	KeyTeam                  = "Team"
	KeyEquipmentsPerOperator = "Equipments per Operator"
	KeyOperatorsPerEquipment = "Operators per Equipment"
)

// All 不过滤
const All = "All"

// FilterSpec 过滤条件
type FilterSpec struct {
	Year                  *int     `json:"year,omitempty"`
	Week                  *[2]int  `json:"week,omitempty"`
	Operator              string   `json:"operator,omitempty"`
	Equipment             string   `json:"equipment,omitempty"`
	Shift                 string   `json:"shift,omitempty"`
	Team                  *int     `json:"team,omitempty"`
	Weekday               []string `json:"weekday,omitempty"`
	EquipmentsPerOperator []int    `json:"equipments_per_operator,omitempty"`
	OperatorsPerEquipment []int    `json:"operators_per_equipment,omitempty"`
}

// ParseFilterSpec 从键值映射解析过滤条件，未知键忽略
func ParseFilterSpec(values map[string]interface{}) (FilterSpec, error) {
	var spec FilterSpec

	if v, ok := values[KeyYear]; ok && !isAll(v) {
		year, err := cast.ToIntE(v)
		if err != nil {
			return spec, fmt.Errorf("%w: Year=%v", ErrInvalidFilter, v)
		}
		spec.Year = &year
	}

	if v, ok := values[KeyWeek]; ok && !isAll(v) {
		week, err := parseWeekRange(v)
		if err != nil {
			return spec, err
		}
		spec.Week = &week
	}

	if v, ok := values[KeyOperator]; ok && !isAll(v) {
		spec.Operator = strings.TrimSpace(cast.ToString(v))
	}
	if v, ok := values[KeyEquipment]; ok && !isAll(v) {
		spec.Equipment = strings.TrimSpace(cast.ToString(v))
	}
	if v, ok := values[KeyShift]; ok && !isAll(v) {
		spec.Shift = strings.TrimSpace(cast.ToString(v))
	}

	if v, ok := values[KeyTeam]; ok && !isAll(v) {
		team, err := cast.ToIntE(v)
		if err != nil {
			return spec, fmt.Errorf("%w: Team=%v", ErrInvalidFilter, v)
		}
		spec.Team = &team
	}

	if v, ok := values[KeyWeekday]; ok && v != nil {
		spec.Weekday = toStringList(v)
	}

	if v, ok := values[KeyEquipmentsPerOperator]; ok && !isAll(v) {
		list, err := toIntList(v)
		if err != nil {
			return spec, fmt.Errorf("%w: %s=%v", ErrInvalidFilter, KeyEquipmentsPerOperator, v)
		}
		spec.EquipmentsPerOperator = list
	}
	if v, ok := values[KeyOperatorsPerEquipment]; ok && !isAll(v) {
		list, err := toIntList(v)
		if err != nil {
			return spec, fmt.Errorf("%w: %s=%v", ErrInvalidFilter, KeyOperatorsPerEquipment, v)
		}
		spec.OperatorsPerEquipment = list
	}

	return spec, nil
}

func isAll(v interface{}) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		return s == "" || s == All
	}
	return false
}

// parseWeekRange 支持 [a,b]、"a-b"、"a,b"、"a"
func parseWeekRange(v interface{}) ([2]int, error) {
	var bounds []int
	if s, ok := v.(string); ok {
		s = strings.TrimSpace(s)
		sep := ","
		if strings.Contains(s, "-") {
			sep = "-"
		}
		for _, part := range strings.Split(s, sep) {
			n, err := cast.ToIntE(strings.TrimSpace(part))
			if err != nil {
				return [2]int{}, fmt.Errorf("%w: Week=%v", ErrInvalidFilter, v)
			}
			bounds = append(bounds, n)
		}
	} else {
		list, err := cast.ToIntSliceE(v)
		if err != nil {
			n, errInt := cast.ToIntE(v)
			if errInt != nil {
				return [2]int{}, fmt.Errorf("%w: Week=%v", ErrInvalidFilter, v)
			}
			list = []int{n}
		}
		bounds = list
	}

	switch len(bounds) {
	case 1:
		return [2]int{bounds[0], bounds[0]}, nil
	case 2:
		if bounds[0] > bounds[1] {
			return [2]int{}, fmt.Errorf("%w: 周区间起点大于终点 %d>%d", ErrInvalidFilter, bounds[0], bounds[1])
		}
		return [2]int{bounds[0], bounds[1]}, nil
	}
	return [2]int{}, fmt.Errorf("%w: Week 需要两个端点，实际 %d 个", ErrInvalidFilter, len(bounds))
}

func toStringList(v interface{}) []string {
	var raw []string
	if s, ok := v.(string); ok {
		raw = strings.Split(s, ",")
	} else {
		raw = cast.ToStringSlice(v)
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func toIntList(v interface{}) ([]int, error) {
	if s, ok := v.(string); ok {
		var out []int
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part == "" {
				continue
			}
			n, err := cast.ToIntE(part)
			if err != nil {
				return nil, err
			}
			out = append(out, n)
		}
		return out, nil
	}
	return cast.ToIntSliceE(v)
}

// FilterEngine 过滤引擎
type FilterEngine struct {
	catalog *reference.Catalog
}

// NewFilterEngine 创建过滤引擎
func NewFilterEngine(catalog *reference.Catalog) *FilterEngine {
	return &FilterEngine{catalog: catalog}
}

// Apply 按固定顺序应用过滤条件：精确匹配 -> 周区间 -> 星期集合 -> 设备类别 -> 派生列
func (e *FilterEngine) Apply(records []Record, spec FilterSpec) []Record {
	if spec.needsDerived() && !allAugmented(records) {
		records = Augment(records)
	}

	out := make([]Record, 0, len(records))
	for _, r := range records {
		if e.match(r, spec) {
			out = append(out, r)
		}
	}
	return out
}

func (e *FilterEngine) match(r Record, spec FilterSpec) bool {
	// 指定年份或周时，日期无法解析的记录不属于任何时间段
	if (spec.Year != nil || spec.Week != nil) && !r.DateValid {
		return false
	}
	if spec.Year != nil && r.Year != *spec.Year {
		return false
	}
	if spec.Operator != "" && r.Operator != spec.Operator {
		return false
	}
	if spec.Shift != "" && r.ShiftName != spec.Shift {
		return false
	}
	if spec.Team != nil && r.Team != *spec.Team {
		return false
	}
	if spec.Week != nil && (r.Week < spec.Week[0] || r.Week > spec.Week[1]) {
		return false
	}
	if len(spec.Weekday) > 0 && !containsString(spec.Weekday, r.Weekday) {
		return false
	}
	if spec.Equipment != "" && !MatchEquipment(e.catalog, r.Equipment, spec.Equipment) {
		return false
	}
	if len(spec.EquipmentsPerOperator) > 0 && !containsInt(spec.EquipmentsPerOperator, r.EquipmentsPerOperator) {
		return false
	}
	if len(spec.OperatorsPerEquipment) > 0 && !containsInt(spec.OperatorsPerEquipment, r.OperatorsPerEquipment) {
		return false
	}
	return true
}

// MatchEquipment 设备族按子串匹配，设备组按成员匹配，其余按原始编号或去掉单元后缀的编号匹配
func MatchEquipment(catalog *reference.Catalog, equipment, selected string) bool {
	if catalog.IsFamily(selected) {
		return strings.Contains(equipment, selected)
	}
	stripped := StripUnitSuffix(equipment)
	if members, ok := catalog.GroupMembers(selected); ok {
		return containsString(members, equipment) || containsString(members, stripped)
	}
	return equipment == selected || stripped == selected
}

func (s FilterSpec) needsDerived() bool {
	return len(s.EquipmentsPerOperator) > 0 || len(s.OperatorsPerEquipment) > 0
}

// WeekBounds 过滤条件中的周区间，未指定时取记录中出现的最小和最大周
func (s FilterSpec) WeekBounds(records []Record) (int, int, bool) {
	if s.Week != nil {
		return s.Week[0], s.Week[1], true
	}
	first := true
	var lo, hi int
	for _, r := range records {
		if !r.DateValid {
			continue
		}
		if first || r.Week < lo {
			lo = r.Week
		}
		if first || r.Week > hi {
			hi = r.Week
		}
		first = false
	}
	return lo, hi, !first
}

// Weeks 过滤条件覆盖的所有周
func (s FilterSpec) Weeks(records []Record) []int {
	lo, hi, ok := s.WeekBounds(records)
	if !ok {
		return nil
	}
	return WeekRange(lo, hi)
}

func allAugmented(records []Record) bool {
	for _, r := range records {
		if !r.Augmented {
			return false
		}
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

func containsInt(list []int, v int) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}

// Title 图表标题："{base} for weeks a to b and year y"
func Title(base string, spec FilterSpec) string {
	title := base
	if spec.Week != nil {
		if spec.Week[0] != spec.Week[1] {
			title += fmt.Sprintf(" for weeks %d to %d", spec.Week[0], spec.Week[1])
		} else {
			title += fmt.Sprintf(" for week %d", spec.Week[0])
		}
		if spec.Year != nil {
			title += fmt.Sprintf(" and year %d", *spec.Year)
		}
	} else if spec.Year != nil {
		title += fmt.Sprintf(" for year %d", *spec.Year)
	}
	return title
}

// FilterSummary 标题副行，列出非默认的过滤条件（年份、周不列出）
func FilterSummary(spec FilterSpec, catalog *reference.Catalog) string {
	var parts []string
	if spec.Operator != "" {
		parts = append(parts, KeyOperator+":"+spec.Operator)
	}
	if spec.Equipment != "" {
		parts = append(parts, KeyEquipment+":"+spec.Equipment)
	}
	if spec.Shift != "" {
		parts = append(parts, KeyShift+":"+spec.Shift)
	}
	if spec.Team != nil {
		parts = append(parts, fmt.Sprintf("%s:%d", KeyTeam, *spec.Team))
	}
	if len(spec.Weekday) > 0 && !sameStrings(spec.Weekday, catalog.Weekdays) {
		parts = append(parts, KeyWeekday+":"+strings.Join(spec.Weekday, ","))
	}
	if len(spec.EquipmentsPerOperator) > 0 && !sameInts(spec.EquipmentsPerOperator, catalog.EquipmentsPerOperatorOptions) {
		parts = append(parts, KeyEquipmentsPerOperator+":"+joinInts(spec.EquipmentsPerOperator))
	}
	if len(spec.OperatorsPerEquipment) > 0 {
		parts = append(parts, KeyOperatorsPerEquipment+":"+joinInts(spec.OperatorsPerEquipment))
	}
	if len(parts) == 0 {
		return ""
	}
	return "Filters: " + strings.Join(parts, ", ")
}

func sameStrings(a, b []string) bool {
	x := append([]string(nil), a...)
	y := append([]string(nil), b...)
	sort.Strings(x)
	sort.Strings(y)
	if len(x) != len(y) {
		return false
	}
	for i := range x {
		if x[i] != y[i] {
			return false
		}
	}
	return true
}

func sameInts(a, b []int) bool {
	set := make(map[int]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	other := make(map[int]struct{}, len(b))
	for _, v := range b {
		other[v] = struct{}{}
	}
	if len(set) != len(other) {
		return false
	}
	for v := range set {
		if _, ok := other[v]; !ok {
			return false
		}
	}
	return true
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = cast.ToString(v)
	}
	return strings.Join(parts, ",")
}
