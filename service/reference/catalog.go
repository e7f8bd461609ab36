/*
 * @module service/reference/catalog
 * @description 静态查找表：班次、星期、班组、设备族、设备组(Ilot)、CONS刀具分类、工序名称、配色与图表上限
 * @architecture 配置对象 - 进程启动时构建一次，之后只读
 * @documentReference dev_docs/scrap_reference.md
 * @stateFlow DefaultCatalog -> (可选) YAML 覆盖 -> 注入流水线
 * @rules 目录对象构建完成后不再修改，流水线只通过方法读取
 * @dependencies 无
 * @refs service/config/config.go, service/pipeline/
 */

package reference

import (
	"sort"
	"strconv"
	"strings"
)

// 班次索引
const (
	ShiftMorning   = 0
	ShiftAfternoon = 1
	ShiftNight     = 2
	ShiftWeekEnd   = 3
)

// MissingWeekday 日期无法解析时的星期占位值
const MissingWeekday = ""

// Catalog 查找表集合
type Catalog struct {
	ShiftNames                   map[int]string      `yaml:"shift_names" json:"shift_names"`
	ShiftOrder                   []string            `yaml:"shift_order" json:"shift_order"`
	ShiftStart                   map[string]string   `yaml:"shift_start" json:"shift_start"`
	ShiftColors                  map[string]string   `yaml:"shift_colors" json:"shift_colors"`
	Weekdays                     []string            `yaml:"weekdays" json:"weekdays"`
	TeamCount                    int                 `yaml:"team_count" json:"team_count"`
	PinnedTeam                   int                 `yaml:"pinned_team" json:"pinned_team"`
	PinnedOperators              []string            `yaml:"pinned_operators" json:"pinned_operators"`
	TeamColors                   map[string]string   `yaml:"team_colors" json:"team_colors"`
	AliasPrefix                  string              `yaml:"alias_prefix" json:"alias_prefix"`
	OperatorRoster               []string            `yaml:"operator_roster" json:"operator_roster"`
	EquipmentFamilies            []string            `yaml:"equipment_families" json:"equipment_families"`
	EquipmentGroups              map[string][]string `yaml:"equipment_groups" json:"equipment_groups"`
	EquipmentColors              map[string]string   `yaml:"equipment_colors" json:"equipment_colors"`
	EquipmentsPerOperatorOptions []int               `yaml:"equipments_per_operator_options" json:"equipments_per_operator_options"`
	ToolClasses                  map[string]string   `yaml:"tool_classes" json:"tool_classes"`
	PostProcessingOperations     map[int]string      `yaml:"post_processing_operations" json:"post_processing_operations"`
	ERPOperationAliases          map[string]string   `yaml:"erp_operation_aliases" json:"erp_operation_aliases"`
	ERPExcludedEquipments        []string            `yaml:"erp_excluded_equipments" json:"erp_excluded_equipments"`
	ChartCeilings                []Ceiling           `yaml:"chart_ceilings" json:"chart_ceilings"`
	DefaultCeiling               float64             `yaml:"default_ceiling" json:"default_ceiling"`
	NoCeilingMarkers             []string            `yaml:"no_ceiling_markers" json:"no_ceiling_markers"`
	GlobalColors                 map[string]string   `yaml:"global_colors" json:"global_colors"`
}

// Ceiling 图表标题关键字对应的 NOK(%) 上限线
type Ceiling struct {
	Marker string  `yaml:"marker" json:"marker"`
	Value  float64 `yaml:"value" json:"value"`
}

// DefaultCatalog 内置查找表
func DefaultCatalog() *Catalog {
	return &Catalog{
		ShiftNames: map[int]string{
			ShiftMorning:   "Morning",
			ShiftAfternoon: "Afternoon",
			ShiftNight:     "Night",
			ShiftWeekEnd:   "Week-End",
		},
		ShiftOrder: []string{"Night", "Morning", "Afternoon"},
		ShiftStart: map[string]string{"Morning": "05:00", "Afternoon": "14:00", "Night": "22:00"},
		ShiftColors: map[string]string{
			"Morning":   "#FFDF00",
			"Afternoon": "#1E90FF",
			"Night":     "#800080",
		},
		Weekdays:        []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"},
		TeamCount:       3,
		PinnedTeam:      3,
		PinnedOperators: []string{"WWW", "DRD", "ESI"},
		TeamColors: map[string]string{
			"0": "#440d31", "Team 0 (%)": "#300021",
			"1": "#088da5", "Team 1 (%)": "#06677b",
			"2": "#50a85e", "Team 2 (%)": "#387441",
			"3": "black", "Team 3 (%)": "black",
		},
		AliasPrefix:       "T",
		EquipmentFamilies: []string{"A620HOR", "A700HOR", "A720HOR"},
		EquipmentGroups:   map[string][]string{},
		EquipmentColors: map[string]string{
			"A620": "#e1c9b9", "A620 (%)": "#b5998d",
			"A700": "#15695f", "A700 (%)": "#104b45",
			"A720": "#f48686", "A720 (%)": "#c65f5f",
		},
		EquipmentsPerOperatorOptions: []int{1, 2, 3, 4, 5, 6, 7},
		ToolClasses:                  map[string]string{},
		PostProcessingOperations: map[int]string{
			0: "0", 10: "10", 20: "20", 50: "50", 60: "60",
			71: "71", 72: "72", 100: "100", 101: "101",
		},
		ERPOperationAliases: map[string]string{
			"Operation 10":  "10",
			"Operation 20":  "20",
			"Operation 30":  "30",
			"Operation 60":  "60",
			"Operation 70":  "70",
			"Operation 110": "110",
			"Operation 120": "120",
		},
		ERPExcludedEquipments: []string{"A700HOR", "A620HOR029"},
		ChartCeilings: []Ceiling{
			{Marker: "20", Value: 1},
			{Marker: "Retoucher", Value: 1},
			{Marker: "Condtn", Value: 0.1},
			{Marker: "Trovalisation", Value: 0.1},
			{Marker: "Dimensionnel", Value: 0.1},
			{Marker: "60", Value: 0.1},
			{Marker: "Lavage", Value: 0.1},
			{Marker: "100 Control", Value: 3.5},
		},
		DefaultCeiling:   5,
		NoCeilingMarkers: []string{"N° CONS", "60"},
		GlobalColors: map[string]string{
			"NOK (%)":     "black",
			"NOK 20":      "#e1c9b9",
			"NOK 20 (%)":  "#b5998d",
			"NOK 100":     "#15695f",
			"NOK 100 (%)": "#104b45",
			"NOK 10":      "#f48686",
			"NOK 10 (%)":  "#c65f5f",
		},
	}
}

// ShiftName 班次索引转名称，未知索引返回空串
func (c *Catalog) ShiftName(index int) string {
	return c.ShiftNames[index]
}

// ShiftIndex 班次名称转索引
func (c *Catalog) ShiftIndex(name string) (int, bool) {
	for index, n := range c.ShiftNames {
		if n == name {
			return index, true
		}
	}
	return 0, false
}

// WeekdayIndex 星期名称转索引 (Monday=0)
func (c *Catalog) WeekdayIndex(name string) (int, bool) {
	for i, day := range c.Weekdays {
		if day == name {
			return i, true
		}
	}
	return 0, false
}

// IsPinned 是否为固定班组的操作员
func (c *Catalog) IsPinned(operator string) bool {
	for _, op := range c.PinnedOperators {
		if op == operator {
			return true
		}
	}
	return false
}

// TeamFor 班组 = (周 + 班次索引) mod 班组数，固定操作员归入固定班组
func (c *Catalog) TeamFor(operator string, week, shift int) int {
	if c.IsPinned(operator) {
		return c.PinnedTeam
	}
	count := c.TeamCount
	if count <= 0 {
		count = 3
	}
	team := (week + shift) % count
	if team < 0 {
		team += count
	}
	return team
}

// Teams 所有班组编号（含固定班组）
func (c *Catalog) Teams() []int {
	teams := make([]int, 0, c.TeamCount+1)
	for i := 0; i < c.TeamCount; i++ {
		teams = append(teams, i)
	}
	if c.PinnedTeam >= c.TeamCount {
		teams = append(teams, c.PinnedTeam)
	}
	return teams
}

// FamilyOf 设备所属设备族，按子串匹配
func (c *Catalog) FamilyOf(equipment string) (string, bool) {
	for _, family := range c.EquipmentFamilies {
		if strings.Contains(equipment, family) {
			return family, true
		}
	}
	return "", false
}

// IsFamily 是否为设备族名称
func (c *Catalog) IsFamily(value string) bool {
	for _, family := range c.EquipmentFamilies {
		if family == value {
			return true
		}
	}
	return false
}

// GroupMembers 设备组成员
func (c *Catalog) GroupMembers(group string) ([]string, bool) {
	members, ok := c.EquipmentGroups[group]
	return members, ok
}

// GroupNames 设备组名称（排序后）
func (c *Catalog) GroupNames() []string {
	names := make([]string, 0, len(c.EquipmentGroups))
	for name := range c.EquipmentGroups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ToolClass CONS 代码对应的刀具类别，未登记返回 NA
func (c *Catalog) ToolClass(code string) string {
	if class, ok := c.ToolClasses[code]; ok && class != "" {
		return class
	}
	return "NA"
}

// PostProcessingOperation 后处理工序代码转名称
func (c *Catalog) PostProcessingOperation(code int) (string, bool) {
	label, ok := c.PostProcessingOperations[code]
	return label, ok
}

// PostProcessingOperationCodes 名称对应的工序代码
func (c *Catalog) PostProcessingOperationCodes(label string) []int {
	var codes []int
	for code, l := range c.PostProcessingOperations {
		if l == label {
			codes = append(codes, code)
		}
	}
	sort.Ints(codes)
	return codes
}

// OperationLabels 后处理工序名称，按工序代码排序并去重
func (c *Catalog) OperationLabels() []string {
	codes := make([]int, 0, len(c.PostProcessingOperations))
	for code := range c.PostProcessingOperations {
		codes = append(codes, code)
	}
	sort.Ints(codes)

	seen := make(map[string]struct{}, len(codes))
	labels := make([]string, 0, len(codes))
	for _, code := range codes {
		label := c.PostProcessingOperations[code]
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		labels = append(labels, label)
	}
	return labels
}

// ERPOperation ERP 工序描述的别名，没有别名时原样返回
func (c *Catalog) ERPOperation(description string) string {
	if alias, ok := c.ERPOperationAliases[description]; ok {
		return alias
	}
	return description
}

// Ceiling 按图表标题取上限线，标题含排除关键字时不画上限
func (c *Catalog) Ceiling(title string) (float64, bool) {
	for _, marker := range c.NoCeilingMarkers {
		if strings.Contains(title, marker) {
			return 0, false
		}
	}
	for _, ceiling := range c.ChartCeilings {
		if strings.Contains(title, ceiling.Marker) {
			return ceiling.Value, true
		}
	}
	return c.DefaultCeiling, true
}

// TeamColor 班组颜色
func (c *Catalog) TeamColor(team int) string {
	if color, ok := c.TeamColors[strconv.Itoa(team)]; ok {
		return color
	}
	return "black"
}

// EquipmentColor 设备颜色，按设备名前四位取色
func (c *Catalog) EquipmentColor(equipment string) string {
	key := equipment
	if len(key) > 4 {
		key = key[:4]
	}
	if color, ok := c.EquipmentColors[key]; ok {
		return color
	}
	return "black"
}
