package controllers

import (
	"net/http"

	"scrap-quality-service/service/scrap"

	"github.com/go-chi/chi/v5"
)

// OverallController 总体对比控制器
type OverallController struct {
	service *scrap.Service
}

// NewOverallController 创建总体对比控制器实例
func NewOverallController(service *scrap.Service) *OverallController {
	return &OverallController{service: service}
}

// GetView 机加工与后处理工序的 NOK 对比
// @Summary 总体对比图表
// @Description 机加工(10)与后处理 20、100 工序按周、操作员或设备对比 NOK
// @Tags 总体
// @Produce json
// @Param view path string true "视图名" Enums(week, operator, equipment)
// @Param year query int false "年份"
// @Param week query string false "周区间，如 22-24"
// @Param equipment query string false "设备、设备族或设备组"
// @Success 200 {object} APIResponse{data=chart.Payload}
// @Failure 400 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Failure 404 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /overall/{view} [get]
func (c *OverallController) GetView(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload, err := c.service.Overall(r.Context(), chi.URLParam(r, "view"), q)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, "查询成功", payload)
}
