/*
 * @module api/controllers/ingest_controller
 * @description CSV 导入控制器：上传产线导出的跟踪文件并写入数据库
 * @architecture MVC架构 - 控制器层
 * @documentReference dev_docs/scrap_tables.md
 * @stateFlow multipart 上传 -> 导入器 -> 导入结果
 * @rules 需要管理员权限；单个文件不超过 32MB；导入类型错误返回400
 * @dependencies github.com/go-chi/render
 * @refs service/ingest/csv_loader.go
 */

package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"scrap-quality-service/api/middleware"
	"scrap-quality-service/service/ingest"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const maxUploadSize = 32 << 20

// Importer CSV 导入
type Importer interface {
	Load(ctx context.Context, kind, source string, r io.Reader, createdBy string) (*ingest.IngestResult, error)
}

// IngestController CSV 导入控制器
type IngestController struct {
	loader Importer
}

// NewIngestController 创建导入控制器实例
func NewIngestController(loader Importer) *IngestController {
	return &IngestController{loader: loader}
}

// Upload 上传 CSV 文件
// @Summary 导入跟踪数据
// @Description 上传分号分隔的 CSV 文件，支持 UTF-8（带 BOM）与 Windows-1252 编码，需要管理员权限
// @Tags 数据导入
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "导入类型" Enums(tracking, post-processing, erp)
// @Param file formData file true "CSV 文件"
// @Param X-Admin-Key header string true "管理员口令"
// @Success 200 {object} APIResponse{data=ingest.IngestResult}
// @Failure 400 {object} APIResponse
// @Failure 403 {object} APIResponse
// @Failure 500 {object} APIResponse
// @Router /ingest/{kind} [post]
func (c *IngestController) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, fmt.Sprintf("请求参数格式错误:%s", err.Error())))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, ErrorResponse(http.StatusBadRequest, "缺少上传文件"))
		return
	}
	defer file.Close()

	kind := chi.URLParam(r, "kind")
	result, err := c.loader.Load(r.Context(), kind, header.Filename, file, middleware.ClientIP(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeSuccess(w, r, "导入成功", result)
}
