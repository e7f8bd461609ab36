/*
 * @module service/scrap/machining
 * @description 机加工页面视图：按周、星期、操作员、CONS、当前班次、班次、设备查看 NOK
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/scrap_charts.md
 * @stateFlow 页面/视图名 -> 加载批次 -> 视图构建 -> 图表
 * @rules 操作员相关视图需要管理员权限；now 页面以当前生产周、年份和班次补齐过滤条件
 * @dependencies scrap-quality-service/service/chart, scrap-quality-service/service/pipeline
 * @refs service/scrap/views.go
 */

package scrap

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"scrap-quality-service/service/chart"
	"scrap-quality-service/service/pipeline"
)

// ErrAdminRequired 视图需要管理员权限
var ErrAdminRequired = errors.New("需要管理员权限")

// 机加工页面
const (
	PageWeek      = "week"
	PageWeekday   = "weekday"
	PageOperator  = "operator"
	PageCONS      = "cons"
	PageNow       = "now"
	PageShift     = "shift"
	PageEquipment = "equipment"
)

// Query 视图请求参数
type Query struct {
	Spec  pipeline.FilterSpec
	Sort  string
	Admin bool
}

var machiningViews = map[string]map[string]viewDef{
	PageWeek: {
		"nok-ok":          {Title: "Machining: NOK per week", Build: nokOK(pipeline.DimWeek, "Weeks")},
		"nok-by-type":     {Title: "Machining: NOK by Type per week", Build: typeBy(pipeline.DimWeek, "Weeks")},
		"team-ratio":      {Title: "Machining: NOK by Operator per week", Build: nokByHue(pipeline.DimOperator, teamRatios)},
		"cons":            {Title: "Machining: NOK by N° CONS per week", Build: consByWeek},
		"shift-ratio":     {Title: "Machining: NOK by Shift per week", Build: nokByHue(pipeline.DimShift, shiftRatios)},
		"equipment-ratio": {Title: "Machining: NOK by Equipment per week", Build: nokByHue(pipeline.DimEquipment, familyRatios)},
		"type-share":      {Title: "Machining: NOK share by Type", Build: typeShare},
	},
	PageWeekday: {
		"nok-by-type": {Title: "Machining: NOK by Type per weekday", Build: typeBy(pipeline.DimWeekday, "Weekdays")},
		"nok-ok":      {Title: "Machining: NOK per weekday", Build: nokOK(pipeline.DimWeekday, "Weekdays")},
		"box":         {Title: "Machining: NOK (%) distribution per weekday", Build: boxBy(pipeline.DimWeekday, "Weekdays")},
		"radar":       {Title: "Machining: NOK (%) per weekday and shift", Build: shiftRadar},
	},
	PageOperator: {
		"nok-ok":      {Title: "Machining: NOK per Operator", Build: nokOK(pipeline.DimOperator, "Operators"), Admin: true},
		"nok-by-type": {Title: "Machining: NOK by Type per Operator", Build: typeBy(pipeline.DimOperator, "Operators"), Admin: true},
	},
	PageCONS: {
		"by-type":      {Title: "Machining: NOK by Type per N° CONS", Build: consSummary},
		"by-tool":      {Title: "Machining: NOK by Type per Tool", Build: consBy(pipeline.DimTool, "Tools")},
		"by-equipment": {Title: "Machining: NOK by Type per Equipment (N° CONS)", Build: consBy(pipeline.DimEquipment, "Equipments")},
	},
	PageNow: {
		"cons":         {Title: "Machining: NOK by Type per N° CONS Now", Build: consSummary},
		"type-week":    {Title: "Machining: NOK by Type per week Now", Build: typeBy(pipeline.DimWeek, "Weeks")},
		"type-weekday": {Title: "Machining: NOK by Type per weekday Now", Build: typeBy(pipeline.DimWeekday, "Weekdays")},
	},
	PageShift: {
		"nok-ok":      {Title: "Machining: NOK per Shift", Build: nokOK(pipeline.DimShift, "Shifts")},
		"nok-by-type": {Title: "Machining: NOK by Type per Shift", Build: typeBy(pipeline.DimShift, "Shifts")},
	},
	PageEquipment: {
		"nok-ok":      {Title: "Machining: NOK per Equipment", Build: nokOK(pipeline.DimEquipment, "Equipments")},
		"nok-by-type": {Title: "Machining: NOK by Type per Equipment", Build: typeBy(pipeline.DimEquipment, "Equipments")},
		"box":         {Title: "Machining: NOK (%) distribution per Equipment", Build: boxBy(pipeline.DimEquipment, "Equipments")},
	},
}

// MachiningViews 每个页面可用的视图
func MachiningViews() map[string][]string {
	out := make(map[string][]string, len(machiningViews))
	for page, views := range machiningViews {
		names := make([]string, 0, len(views))
		for name := range views {
			names = append(names, name)
		}
		sort.Strings(names)
		out[page] = names
	}
	return out
}

// Machining 生成机加工页面的一个视图
func (s *Service) Machining(ctx context.Context, page, name string, q Query) (chart.Payload, error) {
	def, ok := machiningViews[page][name]
	if !ok {
		return chart.Payload{}, fmt.Errorf("%w: %s/%s", ErrUnknownView, page, name)
	}
	if def.Admin && !q.Admin {
		return chart.Payload{}, ErrAdminRequired
	}
	if page == PageNow {
		q.Spec = s.NowSpec(q.Spec)
	}

	b, err := s.LoadMachining(ctx, q.Spec)
	if err != nil {
		return chart.Payload{}, err
	}
	return s.render(def, b, q)
}

func (s *Service) render(def viewDef, b *Batch, q Query) (chart.Payload, error) {
	p, err := def.Build(s, b, pipeline.Title(def.Title, q.Spec), q)
	if err != nil {
		return chart.Payload{}, err
	}
	return chart.WithSubtitle(p, pipeline.FilterSummary(q.Spec, s.catalog)), nil
}
