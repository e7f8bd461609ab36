package scrap

import (
	"context"
	"fmt"

	"scrap-quality-service/service/chart"
	"scrap-quality-service/service/pipeline"
)

// overallStages 总体视图对比的工序：机加工 10，后处理 20 与 100
var overallStages = []string{"10", "20", "100"}

var overallViews = map[string]struct {
	Title  string
	Dim    string
	XLabel string
	Admin  bool
}{
	"week":      {Title: "NOK per week", Dim: pipeline.DimWeek, XLabel: "Weeks"},
	"operator":  {Title: "NOK per Operator", Dim: pipeline.DimOperator, XLabel: "Operators", Admin: true},
	"equipment": {Title: "NOK per Equipment", Dim: pipeline.DimEquipment, XLabel: "Equipments"},
}

// Overall 机加工与后处理 20、100 工序的 NOK 对比；各工序按机加工出现的键补齐（OK=1、NOK=0）
func (s *Service) Overall(ctx context.Context, name string, q Query) (chart.Payload, error) {
	def, ok := overallViews[name]
	if !ok {
		return chart.Payload{}, fmt.Errorf("%w: %s", ErrUnknownView, name)
	}
	if def.Admin && !q.Admin {
		return chart.Payload{}, ErrAdminRequired
	}

	machining, err := s.LoadMachining(ctx, q.Spec)
	if err != nil {
		return chart.Payload{}, err
	}
	keys := s.overallKeys(machining, def.Dim)

	stages := make([]chart.Stage, 0, len(overallStages))
	for _, stage := range overallStages {
		b := machining
		if stage != overallStages[0] {
			if b, err = s.LoadPostProcessing(ctx, q.Spec, stage); err != nil {
				return chart.Payload{}, err
			}
		}
		rows := pipeline.Reindex(pipeline.Group(b.Filtered, def.Dim), def.Dim, keys)
		stages = append(stages, chart.Stage{Name: stage, Rows: rows})
	}

	title := pipeline.Title(def.Title, q.Spec)
	p := chart.Stages(title, def.Dim, def.XLabel, stages, chart.Palette(s.catalog.GlobalColors))
	return chart.WithSubtitle(p, pipeline.FilterSummary(q.Spec, s.catalog)), nil
}

func (s *Service) overallKeys(b *Batch, dim string) []string {
	// 只取机加工实际出现的周
	if dim == pipeline.DimWeek {
		var keys []string
		for _, r := range pipeline.Group(b.Filtered, dim) {
			keys = append(keys, r.Key(dim))
		}
		return keys
	}
	return s.keysFor(b, dim)
}
