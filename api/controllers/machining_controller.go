/*
 * @module api/controllers/machining_controller
 * @description 机加工看板控制器：按页面和视图名返回图表
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/scrap_charts.md
 * @stateFlow 查询参数 -> 过滤条件 -> 页面服务 -> 图表 JSON
 * @rules 过滤参数错误返回400；未知视图返回404；管理员视图需要 X-Admin-Key
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/scrap/machining.go
 */

package controllers

import (
	"net/http"

	"scrap-quality-service/service/scrap"

	"github.com/go-chi/chi/v5"
)

// MachiningController 机加工看板控制器
type MachiningController struct {
	service *scrap.Service
}

// NewMachiningController 创建机加工看板控制器实例
func NewMachiningController(service *scrap.Service) *MachiningController {
	return &MachiningController{service: service}
}

// GetViews 机加工页面与视图列表
// @Summary 机加工视图列表
// @Description 返回每个机加工页面可用的视图名称
// @Tags 机加工
// @Produce json
// @Success 200 {object} APIResponse{data=map[string][]string}
// @Router /machining [get]
func (c *MachiningController) GetViews(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, "查询成功", scrap.MachiningViews())
}

// GetView 机加工图表
// @Summary 机加工图表
// @Description 按页面和视图名生成图表，now 页面以当前生产周、年份和班次补齐过滤条件
// @Tags 机加工
// @Produce json
// @Param page path string true "页面" Enums(week, weekday, operator, cons, now, shift, equipment)
// @Param view path string true "视图名"
// @Param year query int false "年份"
// @Param week query string false "周区间，如 22-24"
// @Param operator query string false "操作员"
// @Param equipment query string false "设备、设备族或设备组"
// @Param shift query string false "班次"
// @Param team query int false "班组"
// @Param weekday query []string false "星期" collectionFormat(multi)
// @Param eq_per_op query string false "操作员使用的设备数，逗号分隔"
// @Param op_per_eq query string false "设备的操作员数，逗号分隔"
// @Param sort query string false "CONS 表格排序键：NOK、NOK (%)、C (%)、O (%)、U (%)、alphabet"
// @Success 200 {object} APIResponse{data=chart.Payload}
// @Failure 400 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /machining/{page}/{view} [get]
func (c *MachiningController) GetView(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := c.service.Machining(r.Context(), chi.URLParam(r, "page"), chi.URLParam(r, "view"), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, "查询成功", payload)
}
