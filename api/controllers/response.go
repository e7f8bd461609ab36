package controllers

import (
	"errors"
	"log/slog"
	"net/http"

	"scrap-quality-service/service/ingest"
	"scrap-quality-service/service/pipeline"
	"scrap-quality-service/service/scrap"

	"github.com/go-chi/render"
	"gorm.io/gorm"
)

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}

// PaginatedResponse 分页响应结构
type PaginatedResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data"`
	Total  int64       `json:"total" example:"100"`
	Page   int         `json:"page" example:"1"`
	Size   int         `json:"size" example:"10"`
}

// SuccessResponse 成功响应
func SuccessResponse(msg string, data interface{}) APIResponse {
	return APIResponse{Status: 0, Msg: msg, Data: data}
}

// ErrorResponse 失败响应，status 为 HTTP 状态码
func ErrorResponse(status int, msg string) APIResponse {
	return APIResponse{Status: status, Msg: msg}
}

// writeSuccess 写出成功响应
func writeSuccess(w http.ResponseWriter, r *http.Request, msg string, data interface{}) {
	render.JSON(w, r, SuccessResponse(msg, data))
}

// writeError 按错误类型映射 HTTP 状态码
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		slog.Error("请求处理失败", "path", r.URL.Path, "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse(status, err.Error()))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, pipeline.ErrInvalidFilter),
		errors.Is(err, ingest.ErrUnknownKind),
		errors.Is(err, ingest.ErrEmptyFile):
		return http.StatusBadRequest
	case errors.Is(err, scrap.ErrAdminRequired):
		return http.StatusForbidden
	case errors.Is(err, scrap.ErrUnknownView),
		errors.Is(err, scrap.ErrUnknownOperation),
		errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
