package scrap

import (
	"context"
	"testing"
	"time"

	"scrap-quality-service/service/chart"
	"scrap-quality-service/service/database"
	"scrap-quality-service/service/models"
	"scrap-quality-service/service/pipeline"
	"scrap-quality-service/service/reference"
	"scrap-quality-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// ServiceTestSuite 页面服务测试套件
type ServiceTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDB
	factory *testutil.TestDataFactory
	svc     *Service
	ctx     context.Context
}

func (s *ServiceTestSuite) SetupTest() {
	s.testDB = testutil.NewTestDB()
	s.factory = testutil.NewTestDataFactory(s.testDB.DB)
	s.svc = NewService(database.NewRepository(s.testDB.DB), reference.DefaultCatalog(), nil)
	s.svc.now = func() time.Time { return time.Date(2024, 6, 13, 10, 0, 0, 0, time.UTC) }
	s.ctx = context.Background()
	s.seed()
}

func (s *ServiceTestSuite) TearDownTest() {
	s.testDB.Close()
}

// seed 第23周两条、第24周一条机加工记录
func (s *ServiceTestSuite) seed() {
	s.factory.CreateDefectReference("d201", "Bavure")
	s.factory.CreateDefectReference("d205", "Rayure")

	s.factory.CreateTracking(
		testutil.WithDate(testutil.Day(2024, 6, 4), 0),
		testutil.WithOperator("AB"),
		testutil.WithEquipment("A620HOR01", "LOT-1-1"),
		testutil.WithQuantities(90, 10, `{"d201": 6, "d205": 4}`),
	)
	s.factory.CreateTracking(
		testutil.WithDate(testutil.Day(2024, 6, 5), 1),
		testutil.WithOperator("CD"),
		testutil.WithEquipment("A700HOR02", "LOT-2-1"),
		testutil.WithQuantities(45, 5, `{"d201": 5}`),
		testutil.WithComment("#CONS-0012#C#3 #CONS-0012#O#2"),
	)
	s.factory.CreateTracking(
		testutil.WithDate(testutil.Day(2024, 6, 12), 0),
		testutil.WithOperator("AB"),
		testutil.WithEquipment("A620HOR01", "LOT-3-1"),
		testutil.WithQuantities(100, 0, "{}"),
	)
}

func (s *ServiceTestSuite) query() Query {
	year := 2024
	return Query{Spec: pipeline.FilterSpec{Year: &year, Week: &[2]int{22, 24}}}
}

func (s *ServiceTestSuite) TestWeekNOKOK_FillsMissingWeeks() {
	p, err := s.svc.Machining(s.ctx, PageWeek, "nok-ok", s.query())
	s.Require().NoError(err)

	s.Equal("Machining: NOK per week for weeks 22 to 24 and year 2024", p.Title)
	s.Equal([]string{"22", "23", "24"}, p.Categories)
	s.Require().Len(p.Traces, 3)
	s.Equal(chart.ValueNOK, p.Traces[0].Name)
	s.Equal([]float64{0, 15, 0}, p.Traces[0].Y)
	s.Equal([]float64{1, 135, 100}, p.Traces[1].Y)
	s.Equal(chart.ValueRatio, p.Traces[2].Name)
	s.Equal([]float64{0, 10, 0}, p.Traces[2].Y)
	s.InDelta(11.0, p.Y2Max, 1e-9)
}

func (s *ServiceTestSuite) TestWeekNOKByType_UsesDefectLabels() {
	p, err := s.svc.Machining(s.ctx, PageWeek, "nok-by-type", s.query())
	s.Require().NoError(err)

	s.Require().NotEmpty(p.Traces)
	s.Equal("Bavure", p.Traces[0].Name)
	s.Equal([]string{"23"}, p.Traces[0].X)
	s.Equal([]float64{11}, p.Traces[0].Y)
	s.Equal("Rayure", p.Traces[1].Name)
	s.Equal(reference.LabelColor("Bavure"), p.Traces[0].Color)

	last := p.Traces[len(p.Traces)-1]
	s.Equal(chart.ValueRatio, last.Name)
	s.Equal([]float64{0, 10, 0}, last.Y)
}

func (s *ServiceTestSuite) TestFilterAddsSubtitle() {
	q := s.query()
	q.Spec.Operator = "CD"

	p, err := s.svc.Machining(s.ctx, PageWeek, "nok-ok", q)
	s.Require().NoError(err)
	s.Equal("Filters: Operator:CD", p.Subtitle)
	s.Equal([]float64{0, 5, 0}, p.Traces[0].Y)
	s.Equal([]float64{0, 10, 0}, p.Traces[2].Y)
}

func (s *ServiceTestSuite) TestUnknownViewAndAdmin() {
	_, err := s.svc.Machining(s.ctx, PageWeek, "missing", s.query())
	s.ErrorIs(err, ErrUnknownView)

	_, err = s.svc.Machining(s.ctx, PageOperator, "nok-ok", s.query())
	s.ErrorIs(err, ErrAdminRequired)

	q := s.query()
	q.Admin = true
	p, err := s.svc.Machining(s.ctx, PageOperator, "nok-ok", q)
	s.Require().NoError(err)
	s.Contains(p.Categories, "AB")
	s.Contains(p.Categories, "CD")
}

func (s *ServiceTestSuite) TestCONSSummary() {
	p, err := s.svc.Machining(s.ctx, PageCONS, "by-type", s.query())
	s.Require().NoError(err)

	s.Equal([]string{"12"}, p.Categories)
	s.Require().Len(p.Traces, 3)
	s.Equal(chart.ValueU, p.Traces[0].Name)
	s.Equal([]float64{2}, p.Traces[1].Y)
	s.Equal([]float64{3}, p.Traces[2].Y)

	s.Require().Len(p.Table, 1)
	s.Equal(45, p.Table[0]["OK CONS"])
	s.InDelta(6.0, p.Table[0]["C (%)"].(float64), 1e-9)
	s.InDelta(10.0, p.Table[0]["NOK (%)"].(float64), 1e-9)

	q := s.query()
	q.Sort = "size"
	_, err = s.svc.Machining(s.ctx, PageCONS, "by-type", q)
	s.ErrorIs(err, pipeline.ErrInvalidFilter)
}

func (s *ServiceTestSuite) TestNowUsesCurrentWeekAndShift() {
	p, err := s.svc.Machining(s.ctx, PageNow, "type-week", Query{})
	s.Require().NoError(err)
	s.Contains(p.Title, "for week 24 and year 2024")
	s.Equal("Filters: Shift:Morning", p.Subtitle)
}

func (s *ServiceTestSuite) TestPostProcessingJoinsEquipment() {
	s.factory.CreatePostProcessing()
	s.factory.CreatePostProcessing(func(r *models.PostProcessingRecord) {
		r.OFA = "LOT-2-1"
		r.Date = testutil.Day(2024, 6, 6)
		r.QtyNOK = 5
		r.Defaults = `{"d205": 5}`
	})
	s.factory.CreatePostProcessing(func(r *models.PostProcessingRecord) {
		r.Operation = 100
		r.QtyNOK = 7
	})

	p, err := s.svc.PostProcessing(s.ctx, "20", "week", s.query())
	s.Require().NoError(err)
	s.Equal("20: NOK per week for weeks 22 to 24 and year 2024", p.Title)
	s.Equal([]float64{0, 5, 0}, p.Traces[0].Y)
	s.Equal([]float64{1, 100, 1}, p.Traces[1].Y)

	p, err = s.svc.PostProcessing(s.ctx, "20", "equipment", s.query())
	s.Require().NoError(err)
	names := make([]string, 0, len(p.Traces))
	for _, t := range p.Traces {
		names = append(names, t.Name)
	}
	s.Contains(names, "A620HOR01")
	s.Contains(names, "A700HOR02")

	_, err = s.svc.PostProcessing(s.ctx, "999", "week", s.query())
	s.ErrorIs(err, ErrUnknownOperation)

	_, err = s.svc.PostProcessing(s.ctx, "20", "operator", s.query())
	s.ErrorIs(err, ErrAdminRequired)
}

func (s *ServiceTestSuite) TestOverallCombinesStages() {
	s.factory.CreatePostProcessing(func(r *models.PostProcessingRecord) {
		r.QtyOK = 100
		r.QtyNOK = 5
	})
	s.factory.CreatePostProcessing(func(r *models.PostProcessingRecord) {
		r.Operation = 100
		r.Date = testutil.Day(2024, 6, 12)
		r.QtyOK = 10
	})

	p, err := s.svc.Overall(s.ctx, "week", s.query())
	s.Require().NoError(err)
	s.Equal([]string{"23", "24"}, p.Categories)
	s.Require().Len(p.Traces, 7)
	s.Equal("NOK 10", p.Traces[0].Name)
	s.Equal([]float64{15, 0}, p.Traces[0].Y)
	s.Equal("NOK 20", p.Traces[1].Name)
	s.Equal([]float64{5, 0}, p.Traces[1].Y)

	total := p.Traces[6]
	s.Equal(chart.ValueRatio, total.Name)
	s.InDelta(10+pipeline.Ratio(100, 5), total.Y[0], 1e-9)
	s.InDelta(0, total.Y[1], 1e-9)

	_, err = s.svc.Overall(s.ctx, "operator", s.query())
	s.ErrorIs(err, ErrAdminRequired)
}

func (s *ServiceTestSuite) TestERPOverall() {
	steps := []struct {
		equipment string
		step      int
		descr     string
		ok, nok   int
	}{
		{"A620HOR01", 10, "Operation 10", 95, 5},
		{"LAV01", 20, "Opération LAVER", 95, 0},
		{"CTRL01", 30, "Opération CONTROLER", 94, 1},
		{"CTRL02", 40, "Opération CONTROLER", 93, 1},
		{"LAV02", 50, "Opération LAVER", 93, 0},
		{"CTRL03", 60, "Opération CONTROLER", 90, 3},
	}
	for _, st := range steps {
		s.factory.CreateLotOperation("LOT-9-1", st.equipment, st.step, st.descr, st.ok, st.nok)
	}

	p, err := s.svc.ERPOverall(s.ctx, s.query())
	s.Require().NoError(err)
	s.Equal(s.svc.Catalog().OperationLabels(), p.Categories)
	s.Require().NotEmpty(p.Traces)
	s.Equal("A620HOR01", p.Traces[0].Name)
	s.Equal([]string{"10"}, p.Traces[0].X)
	s.Equal([]float64{95}, p.Traces[0].Y)

	last := p.Traces[len(p.Traces)-1]
	s.Equal("A620HOR01 (%)", last.Name)
	s.True(last.Hidden)
	s.Equal([]float64{5}, last.Y)
}

func (s *ServiceTestSuite) TestScanMismatches() {
	s.factory.CreateTracking(
		testutil.WithDate(testutil.Day(2024, 6, 6), 0),
		testutil.WithOperator("EF"),
		testutil.WithEquipment("A620HOR01", "LOT-4-1"),
		testutil.WithQuantities(20, 3, `{"d201": 1}`),
	)
	s.factory.CreateTracking(
		testutil.WithDate(testutil.Day(2024, 6, 7), 0),
		testutil.WithEquipment("A620HOR02", "LOT-1-1"),
	)

	scan, err := s.svc.ScanMismatches(s.ctx)
	s.Require().NoError(err)

	s.Require().Len(scan.Equipment, 1)
	s.Equal("LOT-1-1", scan.Equipment[0].OFA)
	s.Equal([]string{"A620HOR01", "A620HOR02"}, scan.Equipment[0].Equipments)

	s.Require().Len(scan.CONS, 2)
	s.Equal("EF", scan.CONS[0].Record.Operator)
	s.Equal(10, scan.CONS[1].Expected)
	s.Equal(0, scan.CONS[1].Actual)

	s.Require().Len(scan.Breakdown, 1)
	s.Equal(3, scan.Breakdown[0].Expected)
	s.Equal(1, scan.Breakdown[0].Actual)

	reports := scan.Reports(s.svc.now())
	s.Len(reports, 4)
	s.Equal(map[string]int{
		models.MismatchKindEquipment: 1,
		models.MismatchKindCONS:      2,
		models.MismatchKindBreakdown: 1,
	}, scan.Counts())

	p, err := s.svc.EquipmentMismatches(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(p.Table, 1)
	s.Equal("A620HOR01, A620HOR02", p.Table[0]["Equipments"])
	s.Equal(true, p.Table[0]["Current"])
}

func (s *ServiceTestSuite) TestOptions() {
	s.factory.CreateTracking(testutil.WithOperator("TAB"), testutil.WithEquipment("M100-1", "LOT-5-1"))
	s.factory.CreateTracking(testutil.WithOperator("GH"), testutil.WithEquipment("M100-3", "LOT-5-2"))

	operators, err := s.svc.OperatorOptions(s.ctx)
	s.Require().NoError(err)
	s.Equal([]Option{AllOption, {Label: "AB", Value: "AB"}, {Label: "CD", Value: "CD"}, {Label: "GH", Value: "GH"}}, operators)

	equipments, err := s.svc.EquipmentOptions(s.ctx)
	s.Require().NoError(err)
	count := 0
	for _, o := range equipments {
		if o.Value == "M100" {
			count++
		}
	}
	s.Equal(1, count)
	s.Equal(AllOption, equipments[0])
	s.Equal("A620HOR", equipments[1].Value)

	labels, err := s.svc.DefectLabels(s.ctx)
	s.Require().NoError(err)
	s.Equal(reference.LabelColor("Bavure"), labels["Bavure"])

	s.Len(s.svc.WeekdayOptions(), 7)
	s.Equal(24, s.svc.Weeks().Week)
}

func (s *ServiceTestSuite) TestEquipmentOptionsSelectRecords() {
	s.factory.CreateTracking(
		testutil.WithDate(testutil.Day(2024, 6, 6), 0),
		testutil.WithOperator("EF"),
		testutil.WithEquipment("A620HOR05-1", "LOT-6-1"),
		testutil.WithQuantities(20, 2, "{}"),
	)
	s.factory.CreateTracking(
		testutil.WithDate(testutil.Day(2024, 6, 6), 1),
		testutil.WithOperator("EF"),
		testutil.WithEquipment("A720HOR01-3", "LOT-7-1"),
		testutil.WithQuantities(30, 1, "{}"),
	)

	options, err := s.svc.EquipmentOptions(s.ctx)
	s.Require().NoError(err)
	s.Require().Greater(len(options), 1)

	for _, o := range options[1:] {
		spec := s.query().Spec
		spec.Equipment = o.Value
		b, err := s.svc.LoadMachining(s.ctx, spec)
		s.Require().NoError(err)
		s.NotEmpty(b.Filtered, "设备选项 %s 没有匹配到任何记录", o.Value)
	}
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

func TestCurrentShift(t *testing.T) {
	catalog := reference.DefaultCatalog()
	at := func(d, h, m int) time.Time { return time.Date(2024, 6, d, h, m, 0, 0, time.UTC) }

	testCases := []struct {
		name string
		now  time.Time
		want int
	}{
		{name: "早班开始", now: at(13, 5, 0), want: reference.ShiftMorning},
		{name: "早班结束前", now: at(13, 13, 59), want: reference.ShiftMorning},
		{name: "中班", now: at(13, 14, 0), want: reference.ShiftAfternoon},
		{name: "夜班", now: at(13, 22, 0), want: reference.ShiftNight},
		{name: "凌晨属于夜班", now: at(14, 4, 59), want: reference.ShiftNight},
		{name: "周六为周末班", now: at(15, 10, 0), want: reference.ShiftWeekEnd},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CurrentShift(tc.now, catalog))
		})
	}
}

func TestNowSpec(t *testing.T) {
	svc := NewService(nil, reference.DefaultCatalog(), nil)

	t.Run("凌晨夜班按前一天取周", func(t *testing.T) {
		svc.now = func() time.Time { return time.Date(2024, 6, 14, 2, 0, 0, 0, time.UTC) }
		spec := svc.NowSpec(pipeline.FilterSpec{})
		require.NotNil(t, spec.Week)
		assert.Equal(t, [2]int{24, 24}, *spec.Week)
		assert.Equal(t, 2024, *spec.Year)
		assert.Equal(t, "Night", spec.Shift)
	})

	t.Run("已指定的条件保留", func(t *testing.T) {
		svc.now = func() time.Time { return time.Date(2024, 6, 13, 10, 0, 0, 0, time.UTC) }
		spec := svc.NowSpec(pipeline.FilterSpec{Shift: "Night", Week: &[2]int{20, 21}})
		assert.Equal(t, "Night", spec.Shift)
		assert.Equal(t, [2]int{20, 21}, *spec.Week)
		assert.Equal(t, 2024, *spec.Year)
	})
}
