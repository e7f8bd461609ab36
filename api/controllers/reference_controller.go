/*
 * @module api/controllers/reference_controller
 * @description 看板下拉选项与查找表：操作员、设备、班次、星期、周、缺陷类型颜色、操作员颜色
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/scrap_tables.md
 * @stateFlow 请求 -> 页面服务 -> JSON
 * @rules 选项第一项为 All；操作员已合并别名；设备去掉单元后缀
 * @dependencies github.com/go-chi/render
 * @refs service/scrap/options.go
 */

package controllers

import (
	"net/http"

	"scrap-quality-service/service/scrap"
)

// OptionsResponse 全部下拉选项
type OptionsResponse struct {
	Operators  []scrap.Option `json:"operators"`
	Equipments []scrap.Option `json:"equipments"`
	Shifts     []scrap.Option `json:"shifts"`
	Weekdays   []scrap.Option `json:"weekdays"`
	Weeks      scrap.WeekInfo `json:"weeks"`
}

// ReferenceController 查找表控制器
type ReferenceController struct {
	service *scrap.Service
}

// NewReferenceController 创建查找表控制器实例
func NewReferenceController(service *scrap.Service) *ReferenceController {
	return &ReferenceController{service: service}
}

// GetOptions 下拉选项
// @Summary 下拉选项
// @Description 操作员、设备、班次、星期以及当前生产周
// @Tags 查找表
// @Produce json
// @Success 200 {object} APIResponse{data=OptionsResponse}
// @Failure 500 {object} APIResponse
// @Router /reference/options [get]
func (c *ReferenceController) GetOptions(w http.ResponseWriter, r *http.Request) {
	operators, err := c.service.OperatorOptions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	equipments, err := c.service.EquipmentOptions(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeSuccess(w, r, "查询成功", OptionsResponse{
		Operators:  operators,
		Equipments: equipments,
		Shifts:     c.service.ShiftOptions(),
		Weekdays:   c.service.WeekdayOptions(),
		Weeks:      c.service.Weeks(),
	})
}

// GetWeeks 当前生产周
// @Summary 当前生产周
// @Tags 查找表
// @Produce json
// @Success 200 {object} APIResponse{data=scrap.WeekInfo}
// @Router /reference/weeks [get]
func (c *ReferenceController) GetWeeks(w http.ResponseWriter, r *http.Request) {
	writeSuccess(w, r, "查询成功", c.service.Weeks())
}

// GetDefects 缺陷类型颜色
// @Summary 缺陷类型颜色
// @Description 缺陷类型名称到颜色的映射
// @Tags 查找表
// @Produce json
// @Success 200 {object} APIResponse{data=map[string]string}
// @Failure 500 {object} APIResponse
// @Router /reference/defects [get]
func (c *ReferenceController) GetDefects(w http.ResponseWriter, r *http.Request) {
	labels, err := c.service.DefectLabels(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, "查询成功", labels)
}

// GetOperatorColors 操作员颜色
// @Summary 操作员颜色
// @Description 操作员按最近所在班组取色，默认今年第1周至当前周
// @Tags 查找表
// @Produce json
// @Param year query int false "年份"
// @Param week query string false "周区间，如 1-24"
// @Success 200 {object} APIResponse{data=map[string]string}
// @Failure 400 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /reference/operator-colors [get]
func (c *ReferenceController) GetOperatorColors(w http.ResponseWriter, r *http.Request) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if spec.Year == nil && spec.Week == nil {
		spec = c.service.CurrentYearSpec()
	}

	colors, err := c.service.OperatorColors(r.Context(), spec)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, "查询成功", colors)
}
