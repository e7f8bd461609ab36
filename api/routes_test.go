package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"scrap-quality-service/api/middleware"
	"scrap-quality-service/service/database"
	"scrap-quality-service/service/ingest"
	"scrap-quality-service/service/reference"
	"scrap-quality-service/service/scrap"
	"scrap-quality-service/testutil"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestRouter(t *testing.T) *chi.Mux {
	testDB := testutil.NewTestDB()
	t.Cleanup(testDB.Close)

	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	repo := database.NewRepository(testDB.DB)
	r := chi.NewRouter()
	InitRoute(r, Dependencies{
		Repository: repo,
		Scrap:      scrap.NewService(repo, reference.DefaultCatalog(), nil),
		Loader:     ingest.NewLoader(repo, nil),
		AdminHash:  string(hash),
	})
	return r
}

func TestInitRoute(t *testing.T) {
	r := newTestRouter(t)

	testCases := []struct {
		name   string
		method string
		target string
		key    string
		want   int
	}{
		{name: "存活检查", method: http.MethodGet, target: "/health", want: http.StatusOK},
		{name: "就绪检查", method: http.MethodGet, target: "/ready", want: http.StatusOK},
		{name: "机加工图表", method: http.MethodGet, target: "/machining/week/nok-ok?year=2024", want: http.StatusOK},
		{name: "操作员视图无口令", method: http.MethodGet, target: "/machining/operator/nok-ok", want: http.StatusForbidden},
		{name: "操作员视图口令错误", method: http.MethodGet, target: "/machining/operator/nok-ok", key: "wrong", want: http.StatusForbidden},
		{name: "操作员视图口令正确", method: http.MethodGet, target: "/machining/operator/nok-ok", key: "s3cret", want: http.StatusOK},
		{name: "巡检结果", method: http.MethodGet, target: "/mismatches/reports", want: http.StatusOK},
		{name: "手动巡检需要管理员", method: http.MethodPost, target: "/mismatches/scan", want: http.StatusForbidden},
		{name: "手动巡检未启用", method: http.MethodPost, target: "/mismatches/scan", key: "s3cret", want: http.StatusServiceUnavailable},
		{name: "导入需要管理员", method: http.MethodPost, target: "/ingest/tracking", want: http.StatusForbidden},
		{name: "导入缺少文件", method: http.MethodPost, target: "/ingest/tracking", key: "s3cret", want: http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, strings.NewReader(""))
			if tc.key != "" {
				req.Header.Set(middleware.AdminHeader, tc.key)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestInitRoute_AdminRejected(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/mismatches/scan", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	testutil.AssertJSONResponse(t, w, http.StatusForbidden, map[string]interface{}{
		"status": 403,
		"msg":    "需要管理员权限",
	})
}
