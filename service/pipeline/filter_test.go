/*
 * @module service/pipeline/filter_test
 * @description 过滤引擎测试：条件解析、合取过滤、设备族与设备组、派生列、幂等性
 * @architecture 测试层 - 纯函数测试，无外部依赖
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow FilterSpec -> Apply -> 断言
 * @rules 缺省或 All 不过滤；未知键忽略
 * @dependencies testing, testify
 * @refs filter.go
 */

package pipeline

import (
	"testing"

	"scrap-quality-service/service/reference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filterRecords() []Record {
	return []Record{
		{ID: 1, DateValid: true, Date: day(2024, 5, 13), Year: 2024, Week: 20, Operator: "A", ShiftName: "Morning", Team: 0,
			Equipment: "A620HOR01", Weekday: "Monday", OK: 10, NOK: 1},
		{ID: 2, DateValid: true, Date: day(2024, 5, 28), Year: 2024, Week: 22, Operator: "B", ShiftName: "Night", Team: 0,
			Equipment: "A700HOR02", Weekday: "Tuesday", OK: 10, NOK: 2},
		{ID: 3, DateValid: true, Date: day(2023, 5, 26), Year: 2023, Week: 21, Operator: "A", ShiftName: "Afternoon", Team: 2,
			Equipment: "A620HOR02", Weekday: "Friday", OK: 10, NOK: 3},
		{ID: 4, DateValid: false, Operator: "A", ShiftName: "Morning", Team: 1,
			Equipment: "A620HOR01", OK: 10, NOK: 4},
		{ID: 5, DateValid: true, Date: day(2024, 6, 11), Year: 2024, Week: 24, Operator: "C", ShiftName: "Night", Team: 0,
			Equipment: "A620HOR05-1", Weekday: "Wednesday", OK: 10, NOK: 5},
	}
}

func ids(records []Record) []int64 {
	out := make([]int64, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func intPtr(v int) *int {
	return &v
}

func TestParseFilterSpec(t *testing.T) {
	spec, err := ParseFilterSpec(map[string]interface{}{
		"Year":     "2024",
		"Week":     []int{20, 22},
		"Operator": "All",
		"Shift":    "Night",
		"Weekday":  "Monday, Tuesday",
		"Unknown":  5,
	})
	require.NoError(t, err)
	require.NotNil(t, spec.Year)
	assert.Equal(t, 2024, *spec.Year)
	require.NotNil(t, spec.Week)
	assert.Equal(t, [2]int{20, 22}, *spec.Week)
	assert.Empty(t, spec.Operator)
	assert.Equal(t, "Night", spec.Shift)
	assert.Equal(t, []string{"Monday", "Tuesday"}, spec.Weekday)
}

func TestParseFilterSpec_WeekForms(t *testing.T) {
	testCases := []struct {
		name    string
		input   interface{}
		want    [2]int
		wantErr bool
	}{
		{name: "横线区间", input: "20-22", want: [2]int{20, 22}},
		{name: "逗号区间", input: "5,9", want: [2]int{5, 9}},
		{name: "单周", input: "7", want: [2]int{7, 7}},
		{name: "整数", input: 12, want: [2]int{12, 12}},
		{name: "起点大于终点", input: "9-5", wantErr: true},
		{name: "三个端点", input: []int{1, 2, 3}, wantErr: true},
		{name: "非数字", input: "abc", wantErr: true},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			spec, err := ParseFilterSpec(map[string]interface{}{"Week": tc.input})
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, *spec.Week)
		})
	}
}

func TestFilterEngine_Apply(t *testing.T) {
	catalog := reference.DefaultCatalog()
	catalog.EquipmentGroups = map[string][]string{"Ilot 1": {"A620HOR02", "A700HOR02", "A620HOR05"}}
	engine := NewFilterEngine(catalog)

	testCases := []struct {
		name string
		spec FilterSpec
		want []int64
	}{
		{name: "空条件不过滤", spec: FilterSpec{}, want: []int64{1, 2, 3, 4, 5}},
		{name: "年份排除无日期记录", spec: FilterSpec{Year: intPtr(2024)}, want: []int64{1, 2, 5}},
		{name: "周区间含两端", spec: FilterSpec{Week: &[2]int{20, 21}}, want: []int64{1, 3}},
		{name: "年份与周区间排除无日期记录", spec: FilterSpec{Year: intPtr(2024), Week: &[2]int{20, 22}}, want: []int64{1, 2}},
		{name: "操作员与设备族", spec: FilterSpec{Operator: "A", Equipment: "A620HOR"}, want: []int64{1, 3, 4}},
		{name: "设备族包含带后缀的设备", spec: FilterSpec{Equipment: "A620HOR"}, want: []int64{1, 3, 4, 5}},
		{name: "星期集合", spec: FilterSpec{Weekday: []string{"Monday", "Tuesday"}}, want: []int64{1, 2}},
		{name: "精确设备", spec: FilterSpec{Equipment: "A700HOR02"}, want: []int64{2}},
		{name: "带单元后缀的原始编号", spec: FilterSpec{Equipment: "A620HOR05-1"}, want: []int64{5}},
		{name: "去掉单元后缀的编号", spec: FilterSpec{Equipment: "A620HOR05"}, want: []int64{5}},
		{name: "设备组", spec: FilterSpec{Equipment: "Ilot 1"}, want: []int64{2, 3, 5}},
		{name: "班次", spec: FilterSpec{Shift: "Morning"}, want: []int64{1, 4}},
		{name: "班组", spec: FilterSpec{Team: intPtr(0)}, want: []int64{1, 2, 5}},
		{name: "无匹配", spec: FilterSpec{Operator: "Z"}, want: []int64{}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ids(engine.Apply(filterRecords(), tc.spec)))
		})
	}
}

func TestFilterEngine_Idempotent(t *testing.T) {
	engine := NewFilterEngine(reference.DefaultCatalog())
	spec := FilterSpec{Year: intPtr(2024), Week: &[2]int{20, 22}, Equipment: "A620HOR", EquipmentsPerOperator: []int{1}}

	once := engine.Apply(filterRecords(), spec)
	twice := engine.Apply(once, spec)
	assert.Equal(t, once, twice)
}

func TestFilterEngine_DerivedKeysAugmentFirst(t *testing.T) {
	records := []Record{
		{ID: 1, DateValid: true, Date: day(2024, 6, 3), ShiftName: "Morning", Operator: "AB", Equipment: "E1"},
		{ID: 2, DateValid: true, Date: day(2024, 6, 3), ShiftName: "Morning", Operator: "AB", Equipment: "E2"},
		{ID: 3, DateValid: true, Date: day(2024, 6, 3), ShiftName: "Morning", Operator: "CD", Equipment: "E3"},
	}
	engine := NewFilterEngine(reference.DefaultCatalog())

	got := engine.Apply(records, FilterSpec{EquipmentsPerOperator: []int{2}})
	assert.Equal(t, []int64{1, 2}, ids(got))

	got = engine.Apply(Augment(records), FilterSpec{EquipmentsPerOperator: []int{1}})
	assert.Equal(t, []int64{3}, ids(got))
}

func TestFilterEngine_DerivedKeysIgnoreEquipmentFilter(t *testing.T) {
	records := []Record{
		{ID: 1, DateValid: true, Date: day(2024, 6, 3), ShiftName: "Morning", Operator: "AB", Equipment: "E1"},
		{ID: 2, DateValid: true, Date: day(2024, 6, 3), ShiftName: "Morning", Operator: "AB", Equipment: "E2"},
		{ID: 3, DateValid: true, Date: day(2024, 6, 3), ShiftName: "Morning", Operator: "CD", Equipment: "E1"},
	}
	engine := NewFilterEngine(reference.DefaultCatalog())

	// 设备数按整批记录计算，AB 在 E1 上的记录仍计为2台设备
	got := engine.Apply(records, FilterSpec{Equipment: "E1", EquipmentsPerOperator: []int{2}})
	assert.Equal(t, []int64{1}, ids(got))

	got = engine.Apply(records, FilterSpec{Equipment: "E1", OperatorsPerEquipment: []int{2}})
	assert.Equal(t, []int64{1, 3}, ids(got))
}

func TestFilterEngine_AllIsNoop(t *testing.T) {
	spec, err := ParseFilterSpec(map[string]interface{}{
		"Operator":  "All",
		"Equipment": "All",
		"Shift":     "",
		"Year":      nil,
	})
	require.NoError(t, err)

	engine := NewFilterEngine(reference.DefaultCatalog())
	assert.Equal(t, filterRecords(), engine.Apply(filterRecords(), spec))
}

func TestFilterSpec_Weeks(t *testing.T) {
	assert.Equal(t, []int{20, 21, 22, 23, 24}, FilterSpec{}.Weeks(filterRecords()))
	assert.Equal(t, []int{3, 4}, FilterSpec{Week: &[2]int{3, 4}}.Weeks(nil))
	assert.Nil(t, FilterSpec{}.Weeks(nil))
}

func TestTitleAndSummary(t *testing.T) {
	catalog := reference.DefaultCatalog()
	spec := FilterSpec{Year: intPtr(2024), Week: &[2]int{20, 22}, Operator: "AB", Weekday: catalog.Weekdays}

	assert.Equal(t, "Machining: NOK per week for weeks 20 to 22 and year 2024", Title("Machining: NOK per week", spec))
	assert.Equal(t, "Machining: NOK per week for week 5", Title("Machining: NOK per week", FilterSpec{Week: &[2]int{5, 5}}))
	assert.Equal(t, "Filters: Operator:AB", FilterSummary(spec, catalog))
	assert.Equal(t, "", FilterSummary(FilterSpec{}, catalog))
}
