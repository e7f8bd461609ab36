/*
 * @module api/controllers/mismatch_controller
 * @description 数据不一致控制器：实时核对表格、巡检结果分页查询与处理、手动触发巡检
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/scrap_charts.md
 * @stateFlow 请求 -> 页面服务/巡检结果存储 -> JSON
 * @rules 手动巡检与标记处理需要管理员权限；巡检未配置时返回503
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/scrap/mismatches.go, service/scheduler/mismatch_scheduler.go
 */

package controllers

import (
	"context"
	"fmt"
	"net/http"

	"scrap-quality-service/service/database"
	"scrap-quality-service/service/models"
	"scrap-quality-service/service/scheduler"
	"scrap-quality-service/service/scrap"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/spf13/cast"
)

// MismatchReports 巡检结果存储
type MismatchReports interface {
	ListMismatches(ctx context.Context, q database.MismatchQuery) ([]models.MismatchReport, int64, error)
	ResolveMismatch(ctx context.Context, id string) error
}

// ScanRunner 手动触发巡检
type ScanRunner interface {
	RunOnce(ctx context.Context) (*scheduler.ScanResult, error)
}

// MismatchController 数据不一致控制器
type MismatchController struct {
	service *scrap.Service
	reports MismatchReports
	runner  ScanRunner
}

// NewMismatchController 创建数据不一致控制器实例，runner 可为 nil
func NewMismatchController(service *scrap.Service, reports MismatchReports, runner ScanRunner) *MismatchController {
	return &MismatchController{service: service, reports: reports, runner: runner}
}

// GetTable 实时核对表格
// @Summary 数据不一致表格
// @Description equipment：同一订单对应多台设备；cons：CONS 分级合计与 NOK 不符；breakdown：缺陷明细合计与 NOK 不符
// @Tags 数据不一致
// @Produce json
// @Param kind path string true "类型" Enums(equipment, cons, breakdown)
// @Success 200 {object} APIResponse{data=chart.Payload}
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /mismatches/{kind} [get]
func (c *MismatchController) GetTable(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	var (
		payload interface{}
		err     error
	)
	switch kind {
	case models.MismatchKindEquipment:
		payload, err = c.service.EquipmentMismatches(r.Context())
	case models.MismatchKindCONS:
		payload, err = c.service.CONSMismatches(r.Context())
	case models.MismatchKindBreakdown:
		payload, err = c.service.BreakdownMismatches(r.Context())
	default:
		err = fmt.Errorf("%w: %s", scrap.ErrUnknownView, kind)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, "查询成功", payload)
}

// GetReports 巡检结果列表
// @Summary 巡检结果列表
// @Description 分页查询定时巡检保存的不一致记录，按最后更新时间倒序
// @Tags 数据不一致
// @Produce json
// @Param kind query string false "类型" Enums(equipment, cons, breakdown)
// @Param resolved query bool false "是否已处理"
// @Param page query int false "页码" default(1)
// @Param size query int false "每页数量" default(20)
// @Success 200 {object} PaginatedResponse{data=[]models.MismatchReport}
// @Failure 500 {object} APIResponse
// @Router /mismatches/reports [get]
func (c *MismatchController) GetReports(w http.ResponseWriter, r *http.Request) {
	page, size := parsePage(r)
	q := database.MismatchQuery{
		Kind: r.URL.Query().Get("kind"),
		Page: page,
		Size: size,
	}
	if v := r.URL.Query().Get("resolved"); v != "" {
		resolved := cast.ToBool(v)
		q.Resolved = &resolved
	}

	reports, total, err := c.reports.ListMismatches(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}

	render.JSON(w, r, PaginatedResponse{
		Status: 0,
		Msg:    "查询成功",
		Data:   reports,
		Total:  total,
		Page:   page,
		Size:   size,
	})
}

// ResolveReport 标记巡检结果已处理
// @Summary 标记已处理
// @Description 将一条巡检结果标记为已处理，需要管理员权限
// @Tags 数据不一致
// @Produce json
// @Param id path string true "巡检结果ID"
// @Param X-Admin-Key header string true "管理员口令"
// @Success 200 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /mismatches/reports/{id}/resolve [post]
func (c *MismatchController) ResolveReport(w http.ResponseWriter, r *http.Request) {
	if err := c.reports.ResolveMismatch(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, "处理成功", nil)
}

// RunScan 手动触发巡检
// @Summary 手动巡检
// @Description 立即执行一次数据不一致巡检，需要管理员权限
// @Tags 数据不一致
// @Produce json
// @Param X-Admin-Key header string true "管理员口令"
// @Success 200 {object} APIResponse{data=scheduler.ScanResult}
// @Failure 403 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Router /mismatches/scan [post]
func (c *MismatchController) RunScan(w http.ResponseWriter, r *http.Request) {
	if c.runner == nil {
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, ErrorResponse(http.StatusServiceUnavailable, "巡检未启用"))
		return
	}

	result, err := c.runner.RunOnce(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if result == nil {
		render.Status(r, http.StatusConflict)
		render.JSON(w, r, ErrorResponse(http.StatusConflict, "巡检正在运行"))
		return
	}
	writeSuccess(w, r, "巡检完成", result)
}
