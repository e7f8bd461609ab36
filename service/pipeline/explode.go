/*
 * @module service/pipeline/explode
 * @description 缺陷明细展开：每条记录的每个缺陷类型一行
 * @architecture 纯函数管道 - 无状态，无外部依赖
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow 记录 -> 按缺陷标签展开 -> 分组汇总
 * @rules 明细无效或为空的记录不产生任何行；展开后合计等于明细合计
 * @dependencies sort
 * @refs aggregate.go, service/scrap/views.go
 */

package pipeline

import (
	"sort"
)

// TypeRow 缺陷明细展开后的长表行：一条记录的一个缺陷类型
type TypeRow struct {
	Type   string `json:"type"`
	Count  int    `json:"count"`
	Record Record `json:"-"`
}

// Dimension 缺陷类型维度取类型名，其余维度取原记录的值
func (t TypeRow) Dimension(name string) string {
	if name == DimType {
		return t.Type
	}
	return t.Record.Dimension(name)
}

// Measures 展开行只携带数量
func (t TypeRow) Measures() Measures {
	return Measures{Count: t.Count}
}

// Dated 继承原记录的日期有效性
func (t TypeRow) Dated() bool {
	return t.Record.DateValid
}

// ExplodeTypes 把每条记录的缺陷明细展开为 (记录, 类型, 数量) 行
// 明细被隔离或为空的记录不产生行，但仍保留在 OK/NOK 汇总中
func ExplodeTypes(records []Record) []TypeRow {
	var rows []TypeRow
	for _, r := range records {
		if !r.BreakdownValid || len(r.Breakdown) == 0 {
			continue
		}
		for _, label := range r.Breakdown.Keys() {
			rows = append(rows, TypeRow{Type: label, Count: r.Breakdown[label], Record: r})
		}
	}
	return rows
}

// TypeTotals 各缺陷类型的总数，按数量倒序、类型名升序
func TypeTotals(rows []TypeRow) []AggregatedRow {
	totals := Group(rows, DimType)
	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Count != totals[j].Count {
			return totals[i].Count > totals[j].Count
		}
		return totals[i].Keys[DimType] < totals[j].Keys[DimType]
	})
	return totals
}
