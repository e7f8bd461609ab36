package chart

import (
	"testing"

	"scrap-quality-service/service/pipeline"
	"scrap-quality-service/service/reference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows() []pipeline.AggregatedRow {
	return []pipeline.AggregatedRow{
		{Keys: map[string]string{"Week": "20", "Shift": "Morning"}, Measures: pipeline.Measures{OK: 90, NOK: 10}, Ratio: 10},
		{Keys: map[string]string{"Week": "20", "Shift": "Night"}, Measures: pipeline.Measures{OK: 45, NOK: 5}, Ratio: 10},
		{Keys: map[string]string{"Week": "21", "Shift": "Morning"}, Measures: pipeline.Measures{OK: 50, NOK: 0}, Ratio: 0},
	}
}

func TestGroupedBar(t *testing.T) {
	catalog := reference.DefaultCatalog()
	palette := HuePalette(pipeline.DimShift, []string{"Morning", "Night"}, catalog, nil)

	p := GroupedBar("Machining: NOK by Shift per week", rows(), "Week", "Shift", ValueNOK, "Weeks", palette, catalog)
	assert.Equal(t, KindGrouped, p.Kind)
	assert.Equal(t, []string{"20", "21"}, p.Categories)
	require.Len(t, p.Traces, 3)

	assert.Equal(t, "Morning", p.Traces[0].Name)
	assert.Equal(t, "#FFDF00", p.Traces[0].Color)
	assert.Equal(t, []float64{10, 0}, p.Traces[0].Y)
	assert.Equal(t, []string{"20"}, p.Traces[1].X)

	ceiling := p.Traces[2]
	assert.Equal(t, AxisRight, ceiling.Axis)
	assert.True(t, ceiling.Dash)
	assert.Equal(t, []float64{5, 5}, ceiling.Y)
	require.NotNil(t, p.Ceiling)
	assert.Equal(t, 5.0, *p.Ceiling)
}

func TestGroupedBar_CeilingMarkers(t *testing.T) {
	catalog := reference.DefaultCatalog()
	testCases := []struct {
		name  string
		title string
		want  *float64
	}{
		{name: "默认上限", title: "Machining: NOK per week", want: ptr(5)},
		{name: "关键字上限", title: "Post Processing: NOK 100 Control", want: ptr(3.5)},
		{name: "CONS 不画上限", title: "Machining: NOK by N° CONS per week", want: nil},
		{name: "年份不参与匹配", title: "Machining: NOK per week for weeks 1 to 5 and year 2024", want: ptr(5)},
		{name: "工序关键字", title: "20: NOK by Type per week for week 3 and year 2024", want: ptr(1)},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := GroupedBar(tc.title, rows(), "Week", "Shift", ValueNOK, "Weeks", Palette{}, catalog)
			assert.Equal(t, tc.want, p.Ceiling)
		})
	}
}

func ptr(v float64) *float64 {
	return &v
}

func TestWithRatios_AxisMaxIgnoresHidden(t *testing.T) {
	series := []pipeline.Series{
		{Name: "NOK Team 0 (%)", Points: []pipeline.Point{{X: "20", Y: 4}, {X: "21", Y: 8}}},
		{Name: "NOK (%)", Hidden: true, Points: []pipeline.Point{{X: "20", Y: 50}}},
	}
	p := WithRatios(Bar("t", rows(), "Week", ValueNOK, "Weeks"), series)

	require.Len(t, p.Traces, 3)
	assert.Equal(t, AxisRight, p.Traces[1].Axis)
	assert.InDelta(t, 8.8, p.Y2Max, 1e-9)
}

func TestStacked(t *testing.T) {
	consRows := []pipeline.AggregatedRow{
		{Keys: map[string]string{pipeline.DimCONS: "12"}, Measures: pipeline.Measures{C: 2, O: 1, U: 0}},
		{Keys: map[string]string{pipeline.DimCONS: "7"}, Measures: pipeline.Measures{U: 3}},
	}
	p := Stacked("CONS", consRows, pipeline.DimCONS, []string{ValueU, ValueO, ValueC}, "N° CONS", "NOK by Type", SeverityPalette())
	require.Len(t, p.Traces, 3)
	assert.Equal(t, []float64{0, 3}, p.Traces[0].Y)
	assert.Equal(t, []float64{2, 0}, p.Traces[2].Y)
}

func TestBox(t *testing.T) {
	records := []pipeline.Record{
		{Weekday: "Monday", OK: 90, NOK: 10},
		{Weekday: "Monday", OK: 80, NOK: 20},
		{Weekday: "Monday", OK: 70, NOK: 30},
		{Weekday: "Tuesday", OK: 100, NOK: 0},
		{Weekday: "Tuesday", OK: 0, NOK: 0},
	}
	p := Box("box", records, pipeline.DimWeekday, "Weekday", []string{"Monday", "Tuesday", "Wednesday"})

	require.Len(t, p.Boxes, 2)
	monday := p.Boxes[0]
	assert.InDelta(t, 10.0, monday.Min, 1e-9)
	assert.InDelta(t, 15.0, monday.Q1, 1e-9)
	assert.InDelta(t, 20.0, monday.Median, 1e-9)
	assert.InDelta(t, 30.0, monday.Max, 1e-9)
	assert.Equal(t, 1, p.Boxes[1].Count)
}

func TestPieColors(t *testing.T) {
	p := Pie("pie", rows()[:2], "Shift", ValueNOK, Palette{"Morning": "#fff"})
	require.Len(t, p.Traces, 1)
	assert.Equal(t, []string{"#fff", "black"}, p.Traces[0].Colors)
}

func TestStages(t *testing.T) {
	stageRows := func(a, b pipeline.Measures) []pipeline.AggregatedRow {
		return []pipeline.AggregatedRow{
			{Keys: map[string]string{"Week": "20"}, Measures: a, Ratio: pipeline.Ratio(a.OK, a.NOK)},
			{Keys: map[string]string{"Week": "21"}, Measures: b, Ratio: pipeline.Ratio(b.OK, b.NOK)},
		}
	}
	stages := []Stage{
		{Name: "10", Rows: stageRows(pipeline.Measures{OK: 90, NOK: 10}, pipeline.Measures{OK: 1, NOK: 0})},
		{Name: "20", Rows: stageRows(pipeline.Measures{OK: 95, NOK: 5}, pipeline.Measures{OK: 48, NOK: 2})},
	}
	palette := Palette(reference.DefaultCatalog().GlobalColors)

	p := Stages("NOK per week", "Week", "Weeks", stages, palette)
	assert.Equal(t, []string{"20", "21"}, p.Categories)
	require.Len(t, p.Traces, 5)

	assert.Equal(t, "NOK 10", p.Traces[0].Name)
	assert.Equal(t, "#f48686", p.Traces[0].Color)
	assert.Equal(t, []float64{10, 0}, p.Traces[0].Y)

	total := p.Traces[4]
	assert.Equal(t, ValueRatio, total.Name)
	assert.InDelta(t, 15.0, total.Y[0], 1e-9)
	assert.InDelta(t, 4.0, total.Y[1], 1e-9)
	assert.InDelta(t, 16.5, p.Y2Max, 1e-9)
}
