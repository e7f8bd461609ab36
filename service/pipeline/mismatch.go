/*
 * @module service/pipeline/mismatch
 * @description 数量一致性核对：CONS 分级合计与缺陷明细合计分别与 NOK 比较
 * @architecture 纯函数管道 - 无状态，无外部依赖
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow 记录 -> 核对 -> 不一致行（按日期倒序）
 * @rules 只报告不一致，不修改记录；明细无效的记录不参与明细核对
 * @dependencies sort
 * @refs cons.go, service/scrap/mismatches.go
 */

package pipeline

import (
	"sort"

	"scrap-quality-service/service/models"
	"scrap-quality-service/service/reference"
)

// MismatchRow 一条数量不一致的记录
type MismatchRow struct {
	Kind     string                 `json:"kind"`
	Record   Record                 `json:"record"`
	Expected int                    `json:"expected"`
	Actual   int                    `json:"actual"`
	Hits     []CONSHit              `json:"hits,omitempty"`
	Detail   models.DefectBreakdown `json:"detail,omitempty"`
}

// CONSMismatches C+O+U 合计加上 A、R 与 NOK 不符的记录
func CONSMismatches(records []Record, catalog *reference.Catalog) []MismatchRow {
	var out []MismatchRow
	for _, r := range records {
		hits := ParseCONS(r.Comments, catalog)
		actual := r.A + r.R
		for _, h := range hits {
			actual += h.Total()
		}
		if actual == r.NOK {
			continue
		}
		out = append(out, MismatchRow{
			Kind:     models.MismatchKindCONS,
			Record:   r,
			Expected: r.NOK,
			Actual:   actual,
			Hits:     hits,
		})
	}
	sortMismatches(out)
	return out
}

// BreakdownMismatches 缺陷明细合计与 NOK 不符的记录；被隔离或为空的明细不参与比较
func BreakdownMismatches(records []Record) []MismatchRow {
	var out []MismatchRow
	for _, r := range records {
		if !r.BreakdownValid || len(r.Breakdown) == 0 {
			continue
		}
		total := r.Breakdown.Total()
		if total == r.NOK {
			continue
		}
		out = append(out, MismatchRow{
			Kind:     models.MismatchKindBreakdown,
			Record:   r,
			Expected: r.NOK,
			Actual:   total,
			Detail:   r.Breakdown,
		})
	}
	sortMismatches(out)
	return out
}

func sortMismatches(rows []MismatchRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Record, rows[j].Record
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		if a.Shift != b.Shift {
			return a.Shift > b.Shift
		}
		return a.ID < b.ID
	})
}
