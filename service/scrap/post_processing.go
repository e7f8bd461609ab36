package scrap

import (
	"context"
	"fmt"
	"log/slog"

	"scrap-quality-service/service/chart"
	"scrap-quality-service/service/erp"
	"scrap-quality-service/service/pipeline"
)

// 后处理视图
var postProcessingViews = map[string]viewDef{
	"week":         {Title: "%s: NOK per week", Build: nokOK(pipeline.DimWeek, "Weeks")},
	"type":         {Title: "%s: NOK by Type per week", Build: typeBy(pipeline.DimWeek, "Weeks")},
	"operator":     {Title: "%s: NOK by Operator per week", Build: nokByHue(pipeline.DimOperator, teamRatios), Admin: true},
	"weekday":      {Title: "%s: NOK by Type per weekday", Build: typeBy(pipeline.DimWeekday, "Weekdays")},
	"collaborator": {Title: "%s: NOK by Collaborator per week", Build: nokByHue(pipeline.DimCollaborator, totalRatio)},
	"equipment":    {Title: "%s: NOK by Equipment per week", Build: nokByHue(pipeline.DimEquipment, familyRatios)},
}

// PostProcessing 生成某个后处理工序的一个视图
func (s *Service) PostProcessing(ctx context.Context, operation, name string, q Query) (chart.Payload, error) {
	def, ok := postProcessingViews[name]
	if !ok {
		return chart.Payload{}, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	if def.Admin && !q.Admin {
		return chart.Payload{}, ErrAdminRequired
	}

	b, err := s.LoadPostProcessing(ctx, q.Spec, operation)
	if err != nil {
		return chart.Payload{}, err
	}
	def.Title = fmt.Sprintf(def.Title, operation)
	return s.render(def, b, q)
}

// ERPOverall 按工序和机加工设备汇总 ERP 批次：每台设备一组放行数量柱和一条 NOK(%) 折线
func (s *Service) ERPOverall(ctx context.Context, q Query) (chart.Payload, error) {
	lots, err := s.store.LoadLotOperations(ctx)
	if err != nil {
		return chart.Payload{}, err
	}

	ops, stats := erp.Prepare(lots, s.catalog)
	if stats.DroppedOFAs > 0 {
		slog.Debug("ERP 批次已剔除", "orders", stats.Orders, "dropped", stats.DroppedOFAs)
	}
	ops = erp.Filter(erp.AssignMachiningEquipment(ops), q.Spec, s.catalog)

	rows := erp.OverallByOperation(ops, s.catalog.OperationLabels())
	equipments := pipeline.Distinct(ops, pipeline.DimEquipment)
	palette := chart.HuePalette(pipeline.DimEquipment, equipments, s.catalog, nil)

	var series []pipeline.Series
	for _, equipment := range equipments {
		line := pipeline.Series{
			Name:   equipment + " (%)",
			Color:  s.catalog.EquipmentColors[shortName(equipment)+" (%)"],
			Hidden: shortName(equipment) == "A620",
		}
		for _, r := range rows {
			if r.Key(pipeline.DimEquipment) == equipment {
				line.Points = append(line.Points, pipeline.Point{X: r.Key(pipeline.DimOperation), Y: r.Ratio})
			}
		}
		series = append(series, line)
	}

	title := pipeline.Title("NOK (%) from each Machining Equipment per Op", q.Spec)
	p := chart.GroupedBar(title, rows, pipeline.DimOperation, pipeline.DimEquipment, chart.ValueOK, "Operations", palette, s.catalog)
	p.Categories = s.catalog.OperationLabels()
	p = chart.WithRatios(p, series)
	return chart.WithSubtitle(p, pipeline.FilterSummary(q.Spec, s.catalog)), nil
}

func shortName(equipment string) string {
	if len(equipment) > 4 {
		return equipment[:4]
	}
	return equipment
}
