/*
 * @module api/controllers/post_processing_controller
 * @description 后处理看板控制器：按工序和视图名返回图表，另提供 ERP 批次汇总
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/scrap_charts.md
 * @stateFlow 查询参数 -> 过滤条件 -> 页面服务 -> 图表 JSON
 * @rules 未知工序或视图返回404；设备来自订单核对结果
 * @dependencies github.com/go-chi/chi/v5
 * @refs service/scrap/post_processing.go
 */

package controllers

import (
	"net/http"

	"scrap-quality-service/service/scrap"

	"github.com/go-chi/chi/v5"
)

// PostProcessingController 后处理看板控制器
type PostProcessingController struct {
	service *scrap.Service
}

// NewPostProcessingController 创建后处理看板控制器实例
func NewPostProcessingController(service *scrap.Service) *PostProcessingController {
	return &PostProcessingController{service: service}
}

// GetView 后处理图表
// @Summary 后处理图表
// @Description 生成某个后处理工序的图表视图
// @Tags 后处理
// @Produce json
// @Param operation path string true "工序，如 20、100"
// @Param view path string true "视图名" Enums(week, type, operator, weekday, collaborator, equipment)
// @Param year query int false "年份"
// @Param week query string false "周区间，如 22-24"
// @Param operator query string false "操作员"
// @Param equipment query string false "设备、设备族或设备组"
// @Param shift query string false "班次"
// @Param weekday query []string false "星期" collectionFormat(multi)
// @Success 200 {object} APIResponse{data=chart.Payload}
// @Failure 400 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /post-processing/{operation}/{view} [get]
func (c *PostProcessingController) GetView(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := c.service.PostProcessing(r.Context(), chi.URLParam(r, "operation"), chi.URLParam(r, "view"), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, "查询成功", payload)
}

// GetERPOverall ERP 批次汇总
// @Summary ERP 批次汇总
// @Description 各工序按机加工设备汇总的放行数量与 NOK(%)
// @Tags 后处理
// @Produce json
// @Param year query int false "年份"
// @Param week query string false "周区间，如 22-24"
// @Param equipment query string false "设备、设备族或设备组"
// @Success 200 {object} APIResponse{data=chart.Payload}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /post-processing/erp [get]
func (c *PostProcessingController) GetERPOverall(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := c.service.ERPOverall(r.Context(), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, "查询成功", payload)
}
