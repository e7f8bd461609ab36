package scrap

import (
	"context"
	"sort"

	"scrap-quality-service/service/pipeline"
	"scrap-quality-service/service/reference"
)

// Option 下拉选项
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// AllOption 不过滤
var AllOption = Option{Label: "All", Value: pipeline.All}

// OperatorOptions 操作员选项，已合并别名
func (s *Service) OperatorOptions(ctx context.Context) ([]Option, error) {
	operators, err := s.store.DistinctOperators(ctx)
	if err != nil {
		return nil, err
	}

	known := make(map[string]struct{}, len(operators))
	for _, op := range operators {
		known[op] = struct{}{}
	}
	seen := make(map[string]struct{}, len(operators))
	var names []string
	for _, op := range operators {
		name := op
		if prefix := s.catalog.AliasPrefix; prefix != "" && len(op) > len(prefix) && op[:len(prefix)] == prefix {
			if _, ok := known[op[len(prefix):]]; ok {
				name = op[len(prefix):]
			}
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)

	options := []Option{AllOption}
	for _, name := range names {
		options = append(options, Option{Label: name, Value: name})
	}
	return options, nil
}

// EquipmentOptions 设备选项：设备族、设备组，然后是去掉单元后缀的设备
func (s *Service) EquipmentOptions(ctx context.Context) ([]Option, error) {
	equipments, err := s.store.DistinctEquipments(ctx)
	if err != nil {
		return nil, err
	}

	options := []Option{AllOption}
	for _, family := range s.catalog.EquipmentFamilies {
		options = append(options, Option{Label: family, Value: family})
	}
	for _, group := range s.catalog.GroupNames() {
		options = append(options, Option{Label: group, Value: group})
	}

	seen := make(map[string]struct{}, len(equipments))
	for _, eq := range equipments {
		id := pipeline.StripUnitSuffix(eq)
		if _, ok := seen[id]; ok || id == "" {
			continue
		}
		seen[id] = struct{}{}
		options = append(options, Option{Label: id, Value: id})
	}
	return options, nil
}

// ShiftOptions 班次选项
func (s *Service) ShiftOptions() []Option {
	options := []Option{AllOption}
	for _, shift := range s.catalog.ShiftOrder {
		options = append(options, Option{Label: shift, Value: shift})
	}
	return options
}

// WeekdayOptions 星期选项
func (s *Service) WeekdayOptions() []Option {
	options := make([]Option, len(s.catalog.Weekdays))
	for i, day := range s.catalog.Weekdays {
		options[i] = Option{Label: day, Value: day}
	}
	return options
}

// WeekInfo 当前生产周与年份
type WeekInfo struct {
	Year  int   `json:"year"`
	Week  int   `json:"week"`
	Weeks []int `json:"weeks"`
}

// Weeks 当前生产周以及可选的周
func (s *Service) Weeks() WeekInfo {
	year, week := pipeline.ProductionWeek(s.now(), reference.ShiftMorning)
	return WeekInfo{Year: year, Week: week, Weeks: pipeline.WeekRange(1, 53)}
}

// DefectLabels 缺陷类型名称与颜色
func (s *Service) DefectLabels(ctx context.Context) (map[string]string, error) {
	resolver, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}
	return resolver.Colors(), nil
}

// OperatorColors 操作员按最近班组取色
func (s *Service) OperatorColors(ctx context.Context, spec pipeline.FilterSpec) (map[string]string, error) {
	b, err := s.LoadMachining(ctx, spec)
	if err != nil {
		return nil, err
	}
	return pipeline.OperatorColors(b.All, s.catalog), nil
}
