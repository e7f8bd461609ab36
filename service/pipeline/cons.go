/*
 * @module service/pipeline/cons
 * @description CONS 刀具代码展开：从备注中提取 #CONS-00<代码>#<C|O|U>#<数量>，按严重度拆分并与设备族 OK/NOK 交叉计算百分比
 * @architecture 数据处理层 - 无状态批处理
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow 记录备注 -> CONS 命中 -> 长表行 -> 按代码汇总 -> 设备族交叉 -> 排序
 * @rules 同一代码同一严重度多次出现时以最后一次为准；设备族代码清单取自未过滤的批次，设备族 OK/NOK 取自过滤后的原始记录
 * @dependencies regexp
 * @refs service/pipeline/aggregate.go, service/pipeline/mismatch.go
 */

package pipeline

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"scrap-quality-service/service/reference"
)

var consPattern = regexp.MustCompile(`#CONS-00(\d+)#([COU])#(\d+)`)

// 严重度
const (
	SeverityCritical    = "C"
	SeverityObservation = "O"
	SeverityMinor       = "U"
)

// CONS 排序键
const (
	SortNOK        = "NOK"
	SortNOKPercent = "NOK (%)"
	SortCPercent   = "C (%)"
	SortOPercent   = "O (%)"
	SortUPercent   = "U (%)"
	SortAlphabet   = "alphabet"
)

// CONSHit 一条备注中一个 CONS 代码的分级数量
type CONSHit struct {
	Code string `json:"code"`
	Tool string `json:"tool"`
	C    int    `json:"c"`
	O    int    `json:"o"`
	U    int    `json:"u"`
}

// Total C+O+U
func (h CONSHit) Total() int {
	return h.C + h.O + h.U
}

// ParseCONS 解析备注中的 CONS 标记，结果按代码排序
func ParseCONS(comment string, catalog *reference.Catalog) []CONSHit {
	matches := consPattern.FindAllStringSubmatch(comment, -1)
	if len(matches) == 0 {
		return nil
	}

	hits := make(map[string]*CONSHit)
	for _, m := range matches {
		code, class := m[1], m[2]
		qty, err := strconv.Atoi(m[3])
		if err != nil {
			continue
		}
		hit, ok := hits[code]
		if !ok {
			hit = &CONSHit{Code: code, Tool: catalog.ToolClass(code)}
			hits[code] = hit
		}
		switch class {
		case SeverityCritical:
			hit.C = qty
		case SeverityObservation:
			hit.O = qty
		case SeverityMinor:
			hit.U = qty
		}
	}

	out := make([]CONSHit, 0, len(hits))
	for _, h := range hits {
		out = append(out, *h)
	}
	sort.Slice(out, func(i, j int) bool { return lessKey(out[i].Code, out[j].Code) })
	return out
}

// CONSRow CONS 展开后的长表行
type CONSRow struct {
	Code   string `json:"code"`
	Tool   string `json:"tool"`
	C      int    `json:"c"`
	O      int    `json:"o"`
	U      int    `json:"u"`
	Record Record `json:"-"`
}

// Dimension CONS 代码和刀具类别取自展开行，其余维度取原记录
func (c CONSRow) Dimension(name string) string {
	switch name {
	case DimCONS:
		return c.Code
	case DimTool:
		return c.Tool
	}
	return c.Record.Dimension(name)
}

// Measures NOK = C + O + U
func (c CONSRow) Measures() Measures {
	total := c.C + c.O + c.U
	return Measures{NOK: total, Count: total, C: c.C, O: c.O, U: c.U}
}

// Dated 继承原记录的日期有效性
func (c CONSRow) Dated() bool {
	return c.Record.DateValid
}

// ExplodeCONS 把记录备注中的 CONS 标记展开为长表行
func ExplodeCONS(records []Record, catalog *reference.Catalog) []CONSRow {
	var rows []CONSRow
	for _, r := range records {
		for _, hit := range ParseCONS(r.Comments, catalog) {
			rows = append(rows, CONSRow{Code: hit.Code, Tool: hit.Tool, C: hit.C, O: hit.O, U: hit.U, Record: r})
		}
	}
	return rows
}

// RecordTools 一条记录涉及的刀具类别，去重后以逗号连接
func RecordTools(r Record, catalog *reference.Catalog) string {
	seen := make(map[string]struct{})
	var tools []string
	for _, hit := range ParseCONS(r.Comments, catalog) {
		if _, ok := seen[hit.Tool]; ok || hit.Tool == "" {
			continue
		}
		seen[hit.Tool] = struct{}{}
		tools = append(tools, hit.Tool)
	}
	sort.Strings(tools)
	return strings.Join(tools, ", ")
}

// FamilyCodes 每个设备族出现过的 CONS 代码
func FamilyCodes(rows []CONSRow, catalog *reference.Catalog) map[string][]string {
	out := make(map[string][]string, len(catalog.EquipmentFamilies))
	for _, family := range catalog.EquipmentFamilies {
		seen := make(map[string]struct{})
		codes := []string{}
		for _, row := range rows {
			if !strings.Contains(row.Record.Equipment, family) {
				continue
			}
			if _, ok := seen[row.Code]; ok {
				continue
			}
			seen[row.Code] = struct{}{}
			codes = append(codes, row.Code)
		}
		sort.Slice(codes, func(i, j int) bool { return lessKey(codes[i], codes[j]) })
		out[family] = codes
	}
	return out
}

// CONSStat 一个 CONS 代码的汇总
type CONSStat struct {
	Code       string  `json:"code"`
	C          int     `json:"c"`
	O          int     `json:"o"`
	U          int     `json:"u"`
	Total      int     `json:"total"`
	OKCONS     int     `json:"ok_cons"`
	NOKCONS    int     `json:"nok_cons"`
	CPercent   float64 `json:"c_percent"`
	OPercent   float64 `json:"o_percent"`
	UPercent   float64 `json:"u_percent"`
	NOKPercent float64 `json:"nok_percent"`
}

// CONSSummary 按 CONS 代码汇总 C/O/U，并以代码所属设备族的 OK+NOK 为分母计算百分比
// familyCodes 应来自未过滤的批次；records 为过滤后未展开的记录
func CONSSummary(rows []CONSRow, records []Record, familyCodes map[string][]string, catalog *reference.Catalog, sortKey string) ([]CONSStat, error) {
	index := make(map[string]int)
	var stats []CONSStat
	for _, row := range rows {
		pos, ok := index[row.Code]
		if !ok {
			pos = len(stats)
			index[row.Code] = pos
			stats = append(stats, CONSStat{Code: row.Code})
		}
		stats[pos].C += row.C
		stats[pos].O += row.O
		stats[pos].U += row.U
	}

	for _, family := range catalog.EquipmentFamilies {
		var ok, nok int
		for _, r := range records {
			if strings.Contains(r.Equipment, family) {
				ok += r.OK
				nok += r.NOK
			}
		}
		for _, code := range familyCodes[family] {
			if pos, found := index[code]; found {
				stats[pos].OKCONS += ok
				stats[pos].NOKCONS += nok
			}
		}
	}

	for i := range stats {
		s := &stats[i]
		s.Total = s.C + s.O + s.U
		denominator := s.OKCONS + s.NOKCONS
		s.CPercent = Percent(s.C, denominator)
		s.OPercent = Percent(s.O, denominator)
		s.UPercent = Percent(s.U, denominator)
		s.NOKPercent = s.CPercent + s.OPercent + s.UPercent
	}

	if err := SortCONS(stats, sortKey); err != nil {
		return nil, err
	}
	return stats, nil
}

// SortCONS 按排序键排序；除 alphabet 按代码升序外均为降序，空键按 NOK 排序
func SortCONS(stats []CONSStat, sortKey string) error {
	var metric func(CONSStat) float64
	switch sortKey {
	case "", SortNOK:
		metric = func(s CONSStat) float64 { return float64(s.Total) }
	case SortNOKPercent:
		metric = func(s CONSStat) float64 { return s.NOKPercent }
	case SortCPercent:
		metric = func(s CONSStat) float64 { return s.CPercent }
	case SortOPercent:
		metric = func(s CONSStat) float64 { return s.OPercent }
	case SortUPercent:
		metric = func(s CONSStat) float64 { return s.UPercent }
	case SortAlphabet:
		sort.SliceStable(stats, func(i, j int) bool { return lessKey(stats[i].Code, stats[j].Code) })
		return nil
	default:
		return fmt.Errorf("%w: sort=%s", ErrInvalidFilter, sortKey)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		a, b := metric(stats[i]), metric(stats[j])
		if a != b {
			return a > b
		}
		return lessKey(stats[i].Code, stats[j].Code)
	})
	return nil
}
