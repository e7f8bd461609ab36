/*
 * @module service/pipeline/aggregate
 * @description 分组聚合与比率计算：按任意维度求和 OK/NOK/分类数量，补齐缺失分组并计算 NOK(%)
 * @architecture 数据处理层 - 无状态批处理
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow 行 -> 分组求和 -> 补齐 -> 比率
 * @rules 补齐的缺失分组 OK=1、NOK=0，比率为0；分母为0时比率为0，不产生 NaN
 * @dependencies 无
 * @refs service/pipeline/explode.go, service/pipeline/cons.go
 */

package pipeline

import (
	"sort"
	"strconv"
	"strings"

	"scrap-quality-service/service/reference"
)

// 补齐缺失分组时的默认值
const (
	FillOK  = 1
	FillNOK = 0
)

// Measures 可累加的度量
type Measures struct {
	OK    int `json:"ok"`
	NOK   int `json:"nok"`
	Count int `json:"count"`
	C     int `json:"c"`
	O     int `json:"o"`
	U     int `json:"u"`
}

func (m *Measures) add(o Measures) {
	m.OK += o.OK
	m.NOK += o.NOK
	m.Count += o.Count
	m.C += o.C
	m.O += o.O
	m.U += o.U
}

// Groupable 可参与分组的行
type Groupable interface {
	Dimension(name string) string
	Measures() Measures
	Dated() bool
}

// Dated 记录日期是否有效
func (r Record) Dated() bool {
	return r.DateValid
}

// AggregatedRow 分组聚合结果
type AggregatedRow struct {
	Keys map[string]string `json:"keys"`
	Measures
	Ratio  float64 `json:"ratio"`
	Filled bool    `json:"filled,omitempty"`
}

// Key 单个维度的取值
func (a AggregatedRow) Key(dim string) string {
	return a.Keys[dim]
}

// Ratio NOK / (OK + NOK) * 100，分母为0时返回0
func Ratio(ok, nok int) float64 {
	if ok+nok == 0 {
		return 0
	}
	return float64(nok) / float64(ok+nok) * 100
}

// Percent part / total * 100，total 为0时返回0
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func isTimeDim(dim string) bool {
	return dim == DimWeek || dim == DimWeekday || dim == DimDate || dim == DimYear
}

// Group 按给定维度分组求和；按时间维度分组时跳过日期无效的行
func Group[T Groupable](rows []T, dims ...string) []AggregatedRow {
	timeKeyed := false
	for _, d := range dims {
		if isTimeDim(d) {
			timeKeyed = true
		}
	}

	index := make(map[string]int)
	var out []AggregatedRow
	for _, row := range rows {
		if timeKeyed && !row.Dated() {
			continue
		}
		keys := make(map[string]string, len(dims))
		parts := make([]string, len(dims))
		for i, d := range dims {
			keys[d] = row.Dimension(d)
			parts[i] = keys[d]
		}
		id := strings.Join(parts, "\x1f")
		pos, ok := index[id]
		if !ok {
			pos = len(out)
			index[id] = pos
			out = append(out, AggregatedRow{Keys: keys})
		}
		out[pos].add(row.Measures())
	}

	for i := range out {
		out[i].Ratio = Ratio(out[i].OK, out[i].NOK)
	}
	SortRows(out, dims...)
	return out
}

// SortRows 按维度顺序排序，数字键按数值比较
func SortRows(rows []AggregatedRow, dims ...string) {
	sort.SliceStable(rows, func(i, j int) bool {
		for _, d := range dims {
			a, b := rows[i].Keys[d], rows[j].Keys[d]
			if a == b {
				continue
			}
			return lessKey(a, b)
		}
		return false
	})
}

func lessKey(a, b string) bool {
	x, errX := strconv.Atoi(a)
	y, errY := strconv.Atoi(b)
	if errX == nil && errY == nil {
		return x < y
	}
	return a < b
}

// Reindex 按给定键顺序输出单维度分组结果，缺失键以 OK=1、NOK=0 补齐；不在键列表中的分组丢弃
func Reindex(rows []AggregatedRow, dim string, keys []string) []AggregatedRow {
	byKey := make(map[string]AggregatedRow, len(rows))
	for _, r := range rows {
		byKey[r.Keys[dim]] = r
	}

	out := make([]AggregatedRow, 0, len(keys))
	for _, k := range keys {
		if r, ok := byKey[k]; ok {
			out = append(out, r)
			continue
		}
		out = append(out, AggregatedRow{
			Keys:     map[string]string{dim: k},
			Measures: Measures{OK: FillOK, NOK: FillNOK},
			Ratio:    Ratio(FillOK, FillNOK),
			Filled:   true,
		})
	}
	return out
}

// WeekKeys 周列表转为字符串键
func WeekKeys(weeks []int) []string {
	keys := make([]string, len(weeks))
	for i, w := range weeks {
		keys[i] = strconv.Itoa(w)
	}
	return keys
}

// OrderBy 按给定键顺序重排，未列出的键排在最后并保持原顺序
func OrderBy(rows []AggregatedRow, dim string, order []string) []AggregatedRow {
	rank := make(map[string]int, len(order))
	for i, k := range order {
		rank[k] = i
	}
	out := append([]AggregatedRow(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		ri, oki := rank[out[i].Keys[dim]]
		rj, okj := rank[out[j].Keys[dim]]
		switch {
		case oki && okj:
			return ri < rj
		case oki:
			return true
		default:
			return false
		}
	})
	return out
}

// Point 折线上的一个点
type Point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// Series 一条比率折线
type Series struct {
	Name   string  `json:"name"`
	Color  string  `json:"color,omitempty"`
	Hidden bool    `json:"hidden,omitempty"`
	Points []Point `json:"points"`
}

// Max 折线最大值
func (s Series) Max() float64 {
	max := 0.0
	for _, p := range s.Points {
		if p.Y > max {
			max = p.Y
		}
	}
	return max
}

// RatioSeries 满足条件的记录按周计算 NOK(%)，缺失周补齐为0
func RatioSeries(records []Record, weeks []int, name string, keep func(Record) bool) Series {
	var subset []Record
	for _, r := range records {
		if keep == nil || keep(r) {
			subset = append(subset, r)
		}
	}
	rows := Reindex(Group(subset, DimWeek), DimWeek, WeekKeys(weeks))
	series := Series{Name: name, Points: make([]Point, len(rows))}
	for i, r := range rows {
		series.Points[i] = Point{X: r.Keys[DimWeek], Y: r.Ratio}
	}
	return series
}

// TeamRatios 各班组每周 NOK(%)，附总体 NOK(%)
func TeamRatios(records []Record, weeks []int, catalog *reference.Catalog) []Series {
	var out []Series
	for _, team := range catalog.Teams() {
		team := team
		name := "Team " + strconv.Itoa(team) + " (%)"
		s := RatioSeries(records, weeks, "NOK "+name, func(r Record) bool { return r.Team == team })
		s.Color = catalog.TeamColors[name]
		s.Hidden = team == catalog.PinnedTeam
		out = append(out, s)
	}
	total := RatioSeries(records, weeks, "NOK (%)", nil)
	total.Color = catalog.GlobalColors["NOK (%)"]
	total.Hidden = true
	return append(out, total)
}

// ShiftRatios 各班次每周 NOK(%)
func ShiftRatios(records []Record, weeks []int, catalog *reference.Catalog) []Series {
	var out []Series
	for _, shift := range catalog.ShiftOrder {
		shift := shift
		s := RatioSeries(records, weeks, "NOK "+shift+" (%)", func(r Record) bool { return r.ShiftName == shift })
		s.Color = catalog.ShiftColors[shift]
		out = append(out, s)
	}
	total := RatioSeries(records, weeks, "NOK (%)", nil)
	total.Color = catalog.GlobalColors["NOK (%)"]
	total.Hidden = true
	return append(out, total)
}

// FamilyRatios 各设备族每周 NOK(%)，以及每台设备的 NOK(%)（默认隐藏）
func FamilyRatios(records []Record, weeks []int, catalog *reference.Catalog) []Series {
	var out []Series
	for _, family := range catalog.EquipmentFamilies {
		family := family
		s := RatioSeries(records, weeks, "NOK "+shortFamily(family)+" (%)", func(r Record) bool {
			return strings.Contains(r.Equipment, family)
		})
		s.Color = catalog.EquipmentColors[shortFamily(family)+" (%)"]
		out = append(out, s)
	}
	total := RatioSeries(records, weeks, "NOK (%)", nil)
	total.Color = catalog.GlobalColors["NOK (%)"]
	total.Hidden = true
	out = append(out, total)

	for _, equipment := range Distinct(records, DimEquipment) {
		equipment := equipment
		s := RatioSeries(records, weeks, equipment+" (%)", func(r Record) bool { return r.Equipment == equipment })
		s.Color = catalog.EquipmentColors[shortFamily(equipment)+" (%)"]
		s.Hidden = true
		out = append(out, s)
	}
	return out
}

func shortFamily(family string) string {
	if len(family) > 4 {
		return family[:4]
	}
	return family
}

// Distinct 某维度上出现的所有取值（排序后）
func Distinct[T Groupable](rows []T, dim string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		v := r.Dimension(dim)
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i], out[j]) })
	return out
}
