/*
 * @module api/controllers/controllers_test
 * @description 看板控制器单元测试
 * @architecture 测试层
 * @documentReference dev_docs/scrap_charts.md
 * @stateFlow 测试准备 -> 请求构建 -> 响应验证
 * @rules 使用内存 SQLite 与真实页面服务；路由与生产环境保持一致
 * @dependencies testing, net/http/httptest, stretchr/testify
 */

package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"scrap-quality-service/api/middleware"
	"scrap-quality-service/service/database"
	"scrap-quality-service/service/ingest"
	"scrap-quality-service/service/models"
	"scrap-quality-service/service/reference"
	"scrap-quality-service/service/scheduler"
	"scrap-quality-service/service/scrap"
	"scrap-quality-service/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
)

type runnerStub struct {
	result *scheduler.ScanResult
	err    error
}

func (r *runnerStub) RunOnce(ctx context.Context) (*scheduler.ScanResult, error) {
	return r.result, r.err
}

// ControllerTestSuite 控制器测试套件
type ControllerTestSuite struct {
	suite.Suite
	testDB  *testutil.TestDB
	factory *testutil.TestDataFactory
	repo    *database.Repository
	svc     *scrap.Service
	runner  ScanRunner
}

func (s *ControllerTestSuite) SetupTest() {
	s.testDB = testutil.NewTestDB()
	s.factory = testutil.NewTestDataFactory(s.testDB.DB)
	s.repo = database.NewRepository(s.testDB.DB)
	s.svc = scrap.NewService(s.repo, reference.DefaultCatalog(), nil)
	s.runner = nil

	s.factory.CreateDefectReference("d201", "Bavure")
	s.factory.CreateTracking(
		testutil.WithDate(testutil.Day(2024, 6, 4), 0),
		testutil.WithOperator("AB"),
		testutil.WithQuantities(90, 10, `{"d201": 10}`),
	)
	s.factory.CreateTracking(
		testutil.WithDate(testutil.Day(2024, 6, 5), 1),
		testutil.WithOperator("CD"),
		testutil.WithEquipment("A700HOR02", "LOT-2-1"),
		testutil.WithQuantities(45, 5, `{"d201": 5}`),
		testutil.WithComment("#CONS-0012#C#3"),
	)
}

func (s *ControllerTestSuite) TearDownTest() {
	s.testDB.Close()
}

// router 与生产路由相同的路径；admin 为 true 时所有请求带管理员标记
func (s *ControllerTestSuite) router(admin bool) *chi.Mux {
	r := chi.NewRouter()
	if admin {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithAdmin(req.Context())))
			})
		})
	}

	machining := NewMachiningController(s.svc)
	r.Get("/machining", machining.GetViews)
	r.Get("/machining/{page}/{view}", machining.GetView)
	postProcessing := NewPostProcessingController(s.svc)
	r.Get("/post-processing/erp", postProcessing.GetERPOverall)
	r.Get("/post-processing/{operation}/{view}", postProcessing.GetView)
	overall := NewOverallController(s.svc)
	r.Get("/overall/{view}", overall.GetView)
	ref := NewReferenceController(s.svc)
	r.Get("/reference/options", ref.GetOptions)
	r.Get("/reference/defects", ref.GetDefects)
	r.Get("/reference/operator-colors", ref.GetOperatorColors)
	mismatch := NewMismatchController(s.svc, s.repo, s.runner)
	r.Get("/mismatches/reports", mismatch.GetReports)
	r.Post("/mismatches/reports/{id}/resolve", mismatch.ResolveReport)
	r.Post("/mismatches/scan", mismatch.RunScan)
	r.Get("/mismatches/{kind}", mismatch.GetTable)
	r.Post("/ingest/{kind}", NewIngestController(ingest.NewLoader(s.repo, nil)).Upload)
	return r
}

func (s *ControllerTestSuite) do(admin bool, method, target string, body *bytes.Buffer, contentType string) (*httptest.ResponseRecorder, APIResponse) {
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, target, body)
		req.Header.Set("Content-Type", contentType)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	s.router(admin).ServeHTTP(w, req)

	var response APIResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response), w.Body.String())
	return w, response
}

func (s *ControllerTestSuite) TestMachiningView() {
	w, response := s.do(false, http.MethodGet, "/machining/week/nok-ok?year=2024&week=22-24", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(0, response.Status)

	data, ok := response.Data.(map[string]interface{})
	s.Require().True(ok)
	s.Equal("Machining: NOK per week for weeks 22 to 24 and year 2024", data["title"])
	s.Equal([]interface{}{"22", "23", "24"}, data["categories"])
}

func (s *ControllerTestSuite) TestMachiningView_Errors() {
	testCases := []struct {
		name   string
		admin  bool
		target string
		want   int
	}{
		{name: "周区间颠倒", target: "/machining/week/nok-ok?year=2024&week=24-22", want: http.StatusBadRequest},
		{name: "年份无效", target: "/machining/week/nok-ok?year=abc", want: http.StatusBadRequest},
		{name: "未知视图", target: "/machining/week/pie", want: http.StatusNotFound},
		{name: "未知页面", target: "/machining/month/nok-ok", want: http.StatusNotFound},
		{name: "操作员视图需要管理员", target: "/machining/operator/nok-ok?year=2024", want: http.StatusForbidden},
		{name: "管理员可看操作员视图", admin: true, target: "/machining/operator/nok-ok?year=2024", want: http.StatusOK},
		{name: "未知排序键", target: "/machining/cons/by-type?year=2024&sort=size", want: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			w, response := s.do(tc.admin, http.MethodGet, tc.target, nil, "")
			s.Equal(tc.want, w.Code)
			if tc.want == http.StatusOK {
				s.Equal(0, response.Status)
			} else {
				s.Equal(tc.want, response.Status)
				s.NotEmpty(response.Msg)
			}
		})
	}
}

func (s *ControllerTestSuite) TestMachiningViews() {
	w, response := s.do(false, http.MethodGet, "/machining", nil, "")
	s.Equal(http.StatusOK, w.Code)

	data := response.Data.(map[string]interface{})
	s.Contains(data, scrap.PageWeek)
	s.Contains(data, scrap.PageNow)
}

func (s *ControllerTestSuite) TestWeekdayFilter() {
	// 06-04 为周二，06-05 为周三
	w, response := s.do(false, http.MethodGet, "/machining/week/nok-ok?year=2024&week=23&weekday=Tuesday&weekday=Monday", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	data := response.Data.(map[string]interface{})
	s.Contains(data["subtitle"], "Weekday:")
}

func (s *ControllerTestSuite) TestPostProcessingView() {
	s.factory.CreatePostProcessing()

	w, response := s.do(false, http.MethodGet, "/post-processing/20/week?year=2024&week=22-24", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(0, response.Status)

	w, _ = s.do(false, http.MethodGet, "/post-processing/99/week", nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	w, _ = s.do(false, http.MethodGet, "/post-processing/20/operator", nil, "")
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ControllerTestSuite) TestERPOverall() {
	s.factory.CreateLotOperation("LOT-9-1", "A620HOR01", 10, "Usinage", 95, 5)

	w, response := s.do(false, http.MethodGet, "/post-processing/erp", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(0, response.Status)
}

func (s *ControllerTestSuite) TestOverallView() {
	w, response := s.do(false, http.MethodGet, "/overall/week?year=2024&week=22-24", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Equal(0, response.Status)

	w, _ = s.do(false, http.MethodGet, "/overall/operator", nil, "")
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *ControllerTestSuite) TestReferenceOptions() {
	w, response := s.do(false, http.MethodGet, "/reference/options", nil, "")
	s.Require().Equal(http.StatusOK, w.Code)

	data := response.Data.(map[string]interface{})
	operators := data["operators"].([]interface{})
	s.Require().Len(operators, 3)
	s.Equal("All", operators[0].(map[string]interface{})["label"])
	s.Len(data["weekdays"], 7)

	w, response = s.do(false, http.MethodGet, "/reference/defects", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(response.Data, "Bavure")

	w, response = s.do(false, http.MethodGet, "/reference/operator-colors?year=2024&week=1-30", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(response.Data, "AB")
}

func (s *ControllerTestSuite) TestMismatchTables() {
	for _, kind := range []string{models.MismatchKindEquipment, models.MismatchKindCONS, models.MismatchKindBreakdown} {
		w, response := s.do(false, http.MethodGet, "/mismatches/"+kind, nil, "")
		s.Equal(http.StatusOK, w.Code, kind)
		s.Equal(0, response.Status, kind)
	}

	w, _ := s.do(false, http.MethodGet, "/mismatches/shift", nil, "")
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *ControllerTestSuite) TestMismatchReports() {
	ctx := context.Background()
	s.Require().NoError(s.repo.UpsertMismatches(ctx, []models.MismatchReport{{
		Kind:       models.MismatchKindEquipment,
		Reference:  "LOT-1-1",
		OFA:        "LOT-1-1",
		Equipments: []string{"A620HOR01", "A620HOR02"},
		LastUpdate: testutil.Day(2024, 6, 7),
		DetectedAt: time.Date(2024, 6, 13, 6, 0, 0, 0, time.UTC),
	}}))

	req := httptest.NewRequest(http.MethodGet, "/mismatches/reports?kind=equipment&resolved=false", nil)
	w := httptest.NewRecorder()
	s.router(false).ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)

	var page PaginatedResponse
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &page))
	s.Equal(int64(1), page.Total)
	s.Equal(1, page.Page)
	s.Equal(20, page.Size)
	id := page.Data.([]interface{})[0].(map[string]interface{})["id"].(string)

	w, _ = s.do(true, http.MethodPost, "/mismatches/reports/"+id+"/resolve", nil, "")
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.do(true, http.MethodPost, "/mismatches/reports/missing/resolve", nil, "")
	s.Equal(http.StatusNotFound, w.Code)

	_, total, err := s.repo.ListMismatches(ctx, database.MismatchQuery{Resolved: new(bool)})
	s.Require().NoError(err)
	s.Equal(int64(0), total)
}

func (s *ControllerTestSuite) TestRunScan() {
	testCases := []struct {
		name   string
		runner ScanRunner
		want   int
	}{
		{name: "未启用巡检", want: http.StatusServiceUnavailable},
		{name: "巡检正在运行", runner: &runnerStub{}, want: http.StatusConflict},
		{name: "巡检失败", runner: &runnerStub{err: errors.New("数据库不可用")}, want: http.StatusInternalServerError},
		{name: "巡检完成", runner: &runnerStub{result: &scheduler.ScanResult{Saved: 2, New: 1}}, want: http.StatusOK},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			s.runner = tc.runner
			w, _ := s.do(true, http.MethodPost, "/mismatches/scan", nil, "")
			s.Equal(tc.want, w.Code)
		})
	}
}

func (s *ControllerTestSuite) TestIngestUpload() {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "smc_tracking.csv")
	s.Require().NoError(err)
	part.Write([]byte("id;usr;dte;shift;pdc;qty_ok;qty_ko;d0;d1;d2;d3;d4;d5;d6;comments;ofa;week;defaults\n" +
		"10;GH;2024-06-11;0;A620HOR01;80;2;0;0;0;0;0;0;0;;LOT-5-1;2424;{\"d201\": 2}\n"))
	s.Require().NoError(writer.Close())

	w, response := s.do(true, http.MethodPost, "/ingest/tracking", &body, writer.FormDataContentType())
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	data := response.Data.(map[string]interface{})
	s.Equal(float64(1), data["inserted"])

	var count int64
	s.testDB.DB.Model(&models.TrackingRecord{}).Count(&count)
	s.Equal(int64(3), count)
}

func (s *ControllerTestSuite) TestIngestUpload_Errors() {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "x.csv")
	s.Require().NoError(err)
	part.Write([]byte("a;b\n1;2\n"))
	s.Require().NoError(writer.Close())
	contentType := writer.FormDataContentType()

	w, _ := s.do(true, http.MethodPost, "/ingest/unknown", bytes.NewBuffer(body.Bytes()), contentType)
	s.Equal(http.StatusBadRequest, w.Code)

	w, _ = s.do(true, http.MethodPost, "/ingest/tracking", bytes.NewBufferString("not multipart"), "text/plain")
	s.Equal(http.StatusBadRequest, w.Code)
}

func TestControllerTestSuite(t *testing.T) {
	suite.Run(t, new(ControllerTestSuite))
}
