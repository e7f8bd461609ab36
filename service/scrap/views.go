package scrap

import (
	"scrap-quality-service/service/chart"
	"scrap-quality-service/service/pipeline"
)

// okNOKPalette OK/NOK 柱颜色
var okNOKPalette = chart.Palette{chart.ValueOK: "#2ca02c", chart.ValueNOK: "indianred", chart.ValueRatio: "black"}

// view 视图构建函数
type view func(s *Service, b *Batch, title string, q Query) (chart.Payload, error)

// viewDef 视图定义
type viewDef struct {
	Title string
	Build view
	Admin bool
}

// ratioLine 单维度聚合结果的 NOK(%) 折线
func ratioLine(rows []pipeline.AggregatedRow, dim, name, color string) pipeline.Series {
	series := pipeline.Series{Name: name, Color: color}
	for _, r := range rows {
		series.Points = append(series.Points, pipeline.Point{X: r.Key(dim), Y: r.Ratio})
	}
	return series
}

// keysFor 维度的完整键列表：周取过滤区间，星期取目录顺序，班次取显示顺序
func (s *Service) keysFor(b *Batch, dim string) []string {
	switch dim {
	case pipeline.DimWeek:
		return pipeline.WeekKeys(b.Weeks)
	case pipeline.DimWeekday:
		return s.catalog.Weekdays
	case pipeline.DimShift:
		return s.catalog.ShiftOrder
	case pipeline.DimOperator:
		return pipeline.OperatorsByTeam(b.Filtered)
	}
	return pipeline.Distinct(b.Filtered, dim)
}

// totals 过滤后记录按维度汇总并补齐缺失键
func (s *Service) totals(b *Batch, dim string) []pipeline.AggregatedRow {
	return pipeline.Reindex(pipeline.Group(b.Filtered, dim), dim, s.keysFor(b, dim))
}

// nokOK OK/NOK 堆叠柱，附总体 NOK(%) 折线
func nokOK(dim, xLabel string) view {
	return func(s *Service, b *Batch, title string, q Query) (chart.Payload, error) {
		rows := s.totals(b, dim)
		p := chart.Stacked(title, rows, dim, []string{chart.ValueNOK, chart.ValueOK}, xLabel, chart.ValueNOK, okNOKPalette)
		return chart.WithRatios(p, []pipeline.Series{ratioLine(rows, dim, chart.ValueRatio, okNOKPalette.Color(chart.ValueRatio))}), nil
	}
}

// typeBy 按维度拆分缺陷类型数量，附总体 NOK(%) 折线
func typeBy(dim, xLabel string) view {
	return func(s *Service, b *Batch, title string, q Query) (chart.Payload, error) {
		types := pipeline.ExplodeTypes(b.Filtered)
		rows := pipeline.OrderBy(pipeline.Group(types, dim, pipeline.DimType), dim, s.keysFor(b, dim))
		palette := chart.HuePalette(pipeline.DimType, pipeline.Distinct(types, pipeline.DimType), s.catalog, nil)

		p := chart.GroupedBar(title, rows, dim, pipeline.DimType, chart.ValueCount, xLabel, palette, s.catalog)
		totals := s.totals(b, dim)
		return chart.WithRatios(p, []pipeline.Series{ratioLine(totals, dim, chart.ValueRatio, okNOKPalette.Color(chart.ValueRatio))}), nil
	}
}

// nokByHue 每周按 hue 拆分 NOK，叠加 ratios 给出的各组 NOK(%) 折线
func nokByHue(hue string, ratios func(s *Service, b *Batch) []pipeline.Series) view {
	return func(s *Service, b *Batch, title string, q Query) (chart.Payload, error) {
		rows := pipeline.Group(b.Filtered, pipeline.DimWeek, hue)
		if hue == pipeline.DimOperator {
			rows = pipeline.OrderBy(rows, pipeline.DimOperator, pipeline.OperatorsByTeam(b.Filtered))
		}

		var operatorColors map[string]string
		if hue == pipeline.DimOperator {
			operatorColors = pipeline.OperatorColors(b.Filtered, s.catalog)
		}
		palette := chart.HuePalette(hue, pipeline.Distinct(b.Filtered, hue), s.catalog, operatorColors)

		p := chart.GroupedBar(title, rows, pipeline.DimWeek, hue, chart.ValueNOK, "Weeks", palette, s.catalog)
		return chart.WithRatios(p, ratios(s, b)), nil
	}
}

func teamRatios(s *Service, b *Batch) []pipeline.Series {
	return pipeline.TeamRatios(b.Filtered, b.Weeks, s.catalog)
}

func shiftRatios(s *Service, b *Batch) []pipeline.Series {
	return pipeline.ShiftRatios(b.Filtered, b.Weeks, s.catalog)
}

func familyRatios(s *Service, b *Batch) []pipeline.Series {
	return pipeline.FamilyRatios(b.Filtered, b.Weeks, s.catalog)
}

func totalRatio(s *Service, b *Batch) []pipeline.Series {
	return []pipeline.Series{pipeline.RatioSeries(b.Filtered, b.Weeks, chart.ValueRatio, nil)}
}

// consByWeek 每周各 CONS 代码的数量
func consByWeek(s *Service, b *Batch, title string, q Query) (chart.Payload, error) {
	rows := pipeline.ExplodeCONS(b.Filtered, s.catalog)
	grouped := pipeline.Group(rows, pipeline.DimWeek, pipeline.DimCONS)
	palette := chart.HuePalette(pipeline.DimCONS, pipeline.Distinct(rows, pipeline.DimCONS), s.catalog, nil)
	p := chart.GroupedBar(title, grouped, pipeline.DimWeek, pipeline.DimCONS, chart.ValueCount, "Weeks", palette, s.catalog)
	return chart.WithRatios(p, totalRatio(s, b)), nil
}

// consSummary 各 CONS 代码按严重度堆叠，并给出与设备族 OK/NOK 交叉的百分比表
func consSummary(s *Service, b *Batch, title string, q Query) (chart.Payload, error) {
	familyCodes := pipeline.FamilyCodes(pipeline.ExplodeCONS(b.All, s.catalog), s.catalog)
	stats, err := pipeline.CONSSummary(pipeline.ExplodeCONS(b.Filtered, s.catalog), b.Filtered, familyCodes, s.catalog, q.Sort)
	if err != nil {
		return chart.Payload{}, err
	}

	rows := make([]pipeline.AggregatedRow, len(stats))
	table := make([]map[string]interface{}, len(stats))
	for i, st := range stats {
		rows[i] = pipeline.AggregatedRow{
			Keys:     map[string]string{pipeline.DimCONS: st.Code},
			Measures: pipeline.Measures{NOK: st.Total, Count: st.Total, C: st.C, O: st.O, U: st.U},
			Ratio:    st.NOKPercent,
		}
		table[i] = map[string]interface{}{
			pipeline.DimCONS: st.Code,
			"C":              st.C,
			"O":              st.O,
			"U":              st.U,
			"OK CONS":        st.OKCONS,
			"NOK CONS":       st.NOKCONS,
			"C (%)":          st.CPercent,
			"O (%)":          st.OPercent,
			"U (%)":          st.UPercent,
			"NOK (%)":        st.NOKPercent,
		}
	}

	p := chart.Stacked(title, rows, pipeline.DimCONS, []string{chart.ValueU, chart.ValueO, chart.ValueC}, pipeline.DimCONS, chart.ValueCount, chart.SeverityPalette())
	p.Columns = []string{pipeline.DimCONS, "C", "O", "U", "OK CONS", "NOK CONS", "C (%)", "O (%)", "U (%)", "NOK (%)"}
	p.Table = table
	return p, nil
}

// consBy 按维度汇总 CONS 的 C/O/U
func consBy(dim, xLabel string) view {
	return func(s *Service, b *Batch, title string, q Query) (chart.Payload, error) {
		rows := pipeline.Group(pipeline.ExplodeCONS(b.Filtered, s.catalog), dim)
		return chart.Stacked(title, rows, dim, []string{chart.ValueU, chart.ValueO, chart.ValueC}, xLabel, chart.ValueCount, chart.SeverityPalette()), nil
	}
}

// typeShare 缺陷类型占比
func typeShare(s *Service, b *Batch, title string, q Query) (chart.Payload, error) {
	rows := pipeline.TypeTotals(pipeline.ExplodeTypes(b.Filtered))
	names := make([]string, len(rows))
	for i, r := range rows {
		names[i] = r.Key(pipeline.DimType)
	}
	return chart.Pie(title, rows, pipeline.DimType, chart.ValueCount, chart.HuePalette(pipeline.DimType, names, s.catalog, nil)), nil
}

// boxBy 每条记录 NOK(%) 的分布
func boxBy(dim, xLabel string) view {
	return func(s *Service, b *Batch, title string, q Query) (chart.Payload, error) {
		var order []string
		if dim == pipeline.DimWeekday {
			order = s.catalog.Weekdays
		}
		return chart.Box(title, b.Filtered, dim, xLabel, order), nil
	}
}

// shiftRadar 各班次在一周七天的 NOK(%)
func shiftRadar(s *Service, b *Batch, title string, q Query) (chart.Payload, error) {
	rows := pipeline.OrderBy(pipeline.Group(b.Filtered, pipeline.DimWeekday, pipeline.DimShift), pipeline.DimWeekday, s.catalog.Weekdays)
	palette := chart.HuePalette(pipeline.DimShift, s.catalog.ShiftOrder, s.catalog, nil)
	return chart.Radar(title, rows, pipeline.DimWeekday, pipeline.DimShift, chart.ValueRatio, palette), nil
}
