package controllers

import (
	"net/http"
	"strings"

	"scrap-quality-service/api/middleware"
	"scrap-quality-service/service/pipeline"
	"scrap-quality-service/service/scrap"

	"github.com/spf13/cast"
)

// 查询参数与过滤键的对应关系
var filterParams = map[string]string{
	"year":      pipeline.KeyYear,
	"week":      pipeline.KeyWeek,
	"operator":  pipeline.KeyOperator,
	"equipment": pipeline.KeyEquipment,
	"shift":     pipeline.KeyShift,
	"team":      pipeline.KeyTeam,
	"eq_per_op": pipeline.KeyEquipmentsPerOperator,
	"op_per_eq": pipeline.KeyOperatorsPerEquipment,
}

// parseFilterSpec 从查询参数解析过滤条件；weekday 可重复或以逗号分隔
func parseFilterSpec(r *http.Request) (pipeline.FilterSpec, error) {
	query := r.URL.Query()
	values := make(map[string]interface{}, len(filterParams)+1)
	for param, key := range filterParams {
		if v := strings.TrimSpace(query.Get(param)); v != "" {
			values[key] = v
		}
	}
	if days := query["weekday"]; len(days) > 0 {
		values[pipeline.KeyWeekday] = strings.Join(days, ",")
	}
	return pipeline.ParseFilterSpec(values)
}

// parseQuery 视图请求参数
func parseQuery(r *http.Request) (scrap.Query, error) {
	spec, err := parseFilterSpec(r)
	if err != nil {
		return scrap.Query{}, err
	}
	return scrap.Query{
		Spec:  spec,
		Sort:  r.URL.Query().Get("sort"),
		Admin: middleware.IsAdmin(r.Context()),
	}, nil
}

// parsePage 分页参数，缺省为第1页每页20条
func parsePage(r *http.Request) (int, int) {
	page := cast.ToInt(r.URL.Query().Get("page"))
	size := cast.ToInt(r.URL.Query().Get("size"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 20
	}
	return page, size
}
