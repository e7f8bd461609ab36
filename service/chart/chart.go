/*
 * @module service/chart/chart
 * @description 图表组装：把聚合结果转换为与绘图库无关的图表描述（柱状、分组柱状、堆叠、比率折线、饼图、雷达、箱线、表格）
 * @architecture 输出层 - 纯函数
 * @documentReference dev_docs/scrap_charts.md
 * @stateFlow AggregatedRow/Series -> Trace -> Payload
 * @rules 比率折线画在右轴，右轴上限为可见折线最大值的1.1倍；标题含指定关键字时附加上限虚线
 * @dependencies scrap-quality-service/service/pipeline, scrap-quality-service/service/reference
 * @refs service/scrap/service.go
 */

package chart

import (
	"fmt"
	"sort"
	"strings"

	"scrap-quality-service/service/pipeline"
	"scrap-quality-service/service/reference"
)

// 图表类型
const (
	KindBar     = "bar"
	KindGrouped = "grouped_bar"
	KindStacked = "stacked_bar"
	KindPie     = "pie"
	KindRadar   = "radar"
	KindBox     = "box"
	KindTable   = "table"
)

// 坐标轴
const (
	AxisLeft  = "y"
	AxisRight = "y2"
)

// 度量名称
const (
	ValueOK    = "OK"
	ValueNOK   = "NOK"
	ValueCount = "NOK by Type"
	ValueC     = "C"
	ValueO     = "O"
	ValueU     = "U"
	ValueRatio = "NOK (%)"
)

const (
	defaultBarColor = "indianred"
	ceilingColor    = "red"
	fallbackColor   = "black"
	ceilingName     = "Ceil NOK (%)"
)

// Trace 一条数据序列
type Trace struct {
	Name   string    `json:"name"`
	Type   string    `json:"type"` // bar | line
	Axis   string    `json:"axis"`
	Color  string    `json:"color,omitempty"`
	Colors []string  `json:"colors,omitempty"`
	Dash   bool      `json:"dash,omitempty"`
	Hidden bool      `json:"hidden,omitempty"`
	X      []string  `json:"x"`
	Y      []float64 `json:"y"`
}

// BoxStat 箱线图的五数概括
type BoxStat struct {
	Name   string  `json:"name"`
	Min    float64 `json:"min"`
	Q1     float64 `json:"q1"`
	Median float64 `json:"median"`
	Q3     float64 `json:"q3"`
	Max    float64 `json:"max"`
	Count  int     `json:"count"`
}

// Payload 图表描述
type Payload struct {
	Title      string                   `json:"title"`
	Subtitle   string                   `json:"subtitle,omitempty"`
	Kind       string                   `json:"kind"`
	X          string                   `json:"x,omitempty"`
	Hue        string                   `json:"hue,omitempty"`
	Value      string                   `json:"value,omitempty"`
	XLabel     string                   `json:"x_label,omitempty"`
	YLabel     string                   `json:"y_label,omitempty"`
	Categories []string                 `json:"categories,omitempty"`
	Traces     []Trace                  `json:"traces,omitempty"`
	Boxes      []BoxStat                `json:"boxes,omitempty"`
	Columns    []string                 `json:"columns,omitempty"`
	Table      []map[string]interface{} `json:"table,omitempty"`
	Rows       []pipeline.AggregatedRow `json:"rows,omitempty"`
	Ceiling    *float64                 `json:"ceiling,omitempty"`
	Y2Max      float64                  `json:"y2_max,omitempty"`
}

// Value 取聚合行的某个度量
func Value(row pipeline.AggregatedRow, name string) float64 {
	switch name {
	case ValueOK:
		return float64(row.OK)
	case ValueNOK:
		return float64(row.NOK)
	case ValueCount:
		return float64(row.Count)
	case ValueC:
		return float64(row.C)
	case ValueO:
		return float64(row.O)
	case ValueU:
		return float64(row.U)
	case ValueRatio:
		return row.Ratio
	}
	return 0
}

// Bar 单序列柱状图
func Bar(title string, rows []pipeline.AggregatedRow, x, value, xLabel string) Payload {
	trace := Trace{Name: value, Type: "bar", Axis: AxisLeft, Color: defaultBarColor}
	for _, r := range rows {
		trace.X = append(trace.X, r.Key(x))
		trace.Y = append(trace.Y, Value(r, value))
	}
	return Payload{
		Title:      title,
		Kind:       KindBar,
		X:          x,
		Value:      value,
		XLabel:     xLabel,
		YLabel:     value,
		Categories: trace.X,
		Traces:     []Trace{trace},
		Rows:       rows,
	}
}

// GroupedBar 按 hue 维度拆分的堆叠柱状图，标题不含排除关键字时附加上限虚线
func GroupedBar(title string, rows []pipeline.AggregatedRow, x, hue, value, xLabel string, colors Palette, catalog *reference.Catalog) Payload {
	p := grouped(title, rows, x, hue, value, colors)
	p.Kind = KindGrouped
	p.XLabel = xLabel
	p.YLabel = value

	if ceiling, ok := catalog.Ceiling(baseTitle(title)); ok {
		p.Ceiling = &ceiling
		line := Trace{Name: ceilingName, Type: "line", Axis: AxisRight, Color: ceilingColor, Dash: true, Hidden: true, X: p.Categories}
		for range p.Categories {
			line.Y = append(line.Y, ceiling)
		}
		p.Traces = append(p.Traces, line)
	}
	return p
}

// baseTitle 去掉 " for week..." 后缀，年份中的数字不参与上限关键字匹配
func baseTitle(title string) string {
	if i := strings.Index(title, " for week"); i >= 0 {
		return title[:i]
	}
	if i := strings.Index(title, " for year"); i >= 0 {
		return title[:i]
	}
	return title
}

func grouped(title string, rows []pipeline.AggregatedRow, x, hue, value string, colors Palette) Payload {
	p := Payload{Title: title, X: x, Hue: hue, Value: value, Rows: rows, Categories: categories(rows, x)}

	index := make(map[string]int)
	for _, r := range rows {
		name := r.Key(hue)
		pos, ok := index[name]
		if !ok {
			pos = len(p.Traces)
			index[name] = pos
			p.Traces = append(p.Traces, Trace{Name: name, Type: "bar", Axis: AxisLeft, Color: colors.Color(name)})
		}
		p.Traces[pos].X = append(p.Traces[pos].X, r.Key(x))
		p.Traces[pos].Y = append(p.Traces[pos].Y, Value(r, value))
	}
	return p
}

// Stacked 同一行的多个度量堆叠（如 CONS 的 U/O/C）
func Stacked(title string, rows []pipeline.AggregatedRow, x string, values []string, xLabel, yLabel string, colors Palette) Payload {
	p := Payload{Title: title, Kind: KindStacked, X: x, XLabel: xLabel, YLabel: yLabel, Rows: rows}
	p.Categories = make([]string, 0, len(rows))
	for _, r := range rows {
		p.Categories = append(p.Categories, r.Key(x))
	}
	for _, v := range values {
		trace := Trace{Name: v, Type: "bar", Axis: AxisLeft, Color: colors.Color(v), X: p.Categories}
		for _, r := range rows {
			trace.Y = append(trace.Y, Value(r, v))
		}
		p.Traces = append(p.Traces, trace)
	}
	return p
}

// WithRatios 在右轴叠加比率折线，右轴上限取可见折线最大值的1.1倍
func WithRatios(p Payload, series []pipeline.Series) Payload {
	max := 0.0
	for _, s := range series {
		trace := Trace{Name: s.Name, Type: "line", Axis: AxisRight, Color: s.Color, Hidden: s.Hidden}
		for _, pt := range s.Points {
			trace.X = append(trace.X, pt.X)
			trace.Y = append(trace.Y, pt.Y)
		}
		if !s.Hidden && s.Max() > max {
			max = s.Max()
		}
		p.Traces = append(p.Traces, trace)
	}
	if max > 0 {
		p.Y2Max = 1.1 * max
	}
	return p
}

// Stage 多工序对比中的一个工序
type Stage struct {
	Name string
	Rows []pipeline.AggregatedRow
}

// Stages 多工序叠加：每个工序一组 NOK 柱和一条 NOK(%) 折线，另加各工序比率之和
// 各工序的 Rows 应已按同一组键补齐
func Stages(title string, x, xLabel string, stages []Stage, colors Palette) Payload {
	p := Payload{Title: title, Kind: KindStacked, X: x, XLabel: xLabel, YLabel: ValueNOK}
	if len(stages) > 0 {
		p.Categories = categories(stages[0].Rows, x)
	}

	total := make([]float64, len(p.Categories))
	var ratios []pipeline.Series
	for _, st := range stages {
		name := "NOK " + st.Name
		bar := Trace{Name: name, Type: "bar", Axis: AxisLeft, Color: colors.Color(name)}
		series := pipeline.Series{Name: name + " (%)", Color: colors.Color(name)}
		for _, r := range st.Rows {
			bar.X = append(bar.X, r.Key(x))
			bar.Y = append(bar.Y, float64(r.NOK))
			series.Points = append(series.Points, pipeline.Point{X: r.Key(x), Y: r.Ratio})
		}
		for i := range total {
			if i < len(st.Rows) {
				total[i] += st.Rows[i].Ratio
			}
		}
		p.Traces = append(p.Traces, bar)
		ratios = append(ratios, series)
	}

	sum := pipeline.Series{Name: ValueRatio, Color: colors.Color(ValueRatio)}
	for i, c := range p.Categories {
		sum.Points = append(sum.Points, pipeline.Point{X: c, Y: total[i]})
	}
	return WithRatios(p, append(ratios, sum))
}

// WithSubtitle 附加过滤条件副标题
func WithSubtitle(p Payload, subtitle string) Payload {
	p.Subtitle = subtitle
	return p
}

// Pie 饼图
func Pie(title string, rows []pipeline.AggregatedRow, label, value string, colors Palette) Payload {
	trace := Trace{Name: value, Type: "pie", Axis: AxisLeft}
	for _, r := range rows {
		name := r.Key(label)
		trace.X = append(trace.X, name)
		trace.Y = append(trace.Y, Value(r, value))
		trace.Colors = append(trace.Colors, colors.Color(name))
	}
	return Payload{Title: title, Kind: KindPie, X: label, Value: value, Categories: trace.X, Traces: []Trace{trace}, Rows: rows}
}

// Radar 每个 hue 一条闭合折线，角度维度为 axis
func Radar(title string, rows []pipeline.AggregatedRow, axis, hue, value string, colors Palette) Payload {
	p := grouped(title, rows, axis, hue, value, colors)
	p.Kind = KindRadar
	for i := range p.Traces {
		p.Traces[i].Type = "line"
	}
	return p
}

// Box 按 x 维度对每条记录的 NOK(%) 做五数概括
func Box(title string, records []pipeline.Record, x, xLabel string, order []string) Payload {
	values := make(map[string][]float64)
	for _, r := range records {
		if r.OK+r.NOK == 0 {
			continue
		}
		key := r.Dimension(x)
		values[key] = append(values[key], pipeline.Ratio(r.OK, r.NOK))
	}

	keys := make([]string, 0, len(values))
	if len(order) > 0 {
		for _, k := range order {
			if _, ok := values[k]; ok {
				keys = append(keys, k)
			}
		}
	} else {
		for k := range values {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	p := Payload{Title: title, Kind: KindBox, X: x, Value: ValueRatio, XLabel: xLabel, YLabel: ValueRatio, Categories: keys}
	for _, k := range keys {
		p.Boxes = append(p.Boxes, fiveNumber(k, values[k]))
	}
	return p
}

func fiveNumber(name string, values []float64) BoxStat {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return BoxStat{
		Name:   name,
		Min:    sorted[0],
		Q1:     quantile(sorted, 0.25),
		Median: quantile(sorted, 0.5),
		Q3:     quantile(sorted, 0.75),
		Max:    sorted[len(sorted)-1],
		Count:  len(sorted),
	}
}

// quantile 线性插值分位数，输入已排序
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(pos)
	if lo+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// Table 表格
func Table(title string, columns []string, rows []map[string]interface{}) Payload {
	return Payload{Title: title, Kind: KindTable, Columns: columns, Table: rows}
}

func categories(rows []pipeline.AggregatedRow, x string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range rows {
		k := r.Key(x)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	return out
}

// Palette 名称 -> 颜色
type Palette map[string]string

// Color 未登记的名称返回黑色
func (p Palette) Color(name string) string {
	if c, ok := p[name]; ok {
		return c
	}
	return fallbackColor
}

// HuePalette 按 hue 维度选择配色：班次、设备（前四位）、缺陷类型、班组；操作员使用最近班组颜色
func HuePalette(hue string, names []string, catalog *reference.Catalog, operatorColors map[string]string) Palette {
	p := make(Palette, len(names))
	for _, name := range names {
		switch hue {
		case pipeline.DimShift:
			p[name] = Palette(catalog.ShiftColors).Color(name)
		case pipeline.DimEquipment:
			p[name] = catalog.EquipmentColor(name)
		case pipeline.DimType, pipeline.DimCONS:
			p[name] = reference.LabelColor(name)
		case pipeline.DimTeam:
			p[name] = Palette(catalog.TeamColors).Color(name)
		case pipeline.DimOperator:
			p[name] = Palette(operatorColors).Color(name)
		default:
			p[name] = fallbackColor
		}
	}
	return p
}

// SeverityPalette CONS 严重度配色
func SeverityPalette() Palette {
	return Palette{ValueC: "#d62728", ValueO: "#ff7f0e", ValueU: "#1f77b4"}
}

// String 便于日志输出
func (p Payload) String() string {
	return fmt.Sprintf("%s[%s] traces=%d", p.Kind, p.Title, len(p.Traces))
}
