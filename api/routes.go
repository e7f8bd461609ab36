/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference dev_docs/deployment.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 图表接口按客户端限流；导入、手动巡检与标记处理需要管理员权限；统一响应格式
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs service/init.go, main.go
 */

package api

import (
	"scrap-quality-service/api/controllers"
	"scrap-quality-service/api/middleware"
	"scrap-quality-service/service/database"
	"scrap-quality-service/service/scrap"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// Dependencies 路由依赖的服务
type Dependencies struct {
	Repository *database.Repository
	Scrap      *scrap.Service
	Loader     controllers.Importer
	Limiter    middleware.Limiter
	Runner     controllers.ScanRunner
	Metrics    middleware.RequestObserver
	AdminHash  string
}

// InitRoute 初始化所有API路由
func InitRoute(r chi.Router, deps Dependencies) {
	// 基础中间件
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.AdminHeader},
		ExposedHeaders:   []string{"Link", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if deps.Metrics != nil {
		r.Use(middleware.Metrics(deps.Metrics))
	}
	r.Use(middleware.NewAdminAuthMiddleware(deps.AdminHash).Middleware)

	// 健康检查
	var pinger controllers.Pinger
	if deps.Repository != nil {
		pinger = deps.Repository
	}
	healthController := controllers.NewHealthController(pinger)
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// 看板图表
	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(deps.Limiter))

		machiningController := controllers.NewMachiningController(deps.Scrap)
		r.Get("/machining", machiningController.GetViews)
		r.Get("/machining/{page}/{view}", machiningController.GetView)

		postProcessingController := controllers.NewPostProcessingController(deps.Scrap)
		r.Get("/post-processing/erp", postProcessingController.GetERPOverall)
		r.Get("/post-processing/{operation}/{view}", postProcessingController.GetView)

		overallController := controllers.NewOverallController(deps.Scrap)
		r.Get("/overall/{view}", overallController.GetView)
	})

	// 查找表与下拉选项
	r.Route("/reference", func(r chi.Router) {
		referenceController := controllers.NewReferenceController(deps.Scrap)
		r.Get("/options", referenceController.GetOptions)
		r.Get("/weeks", referenceController.GetWeeks)
		r.Get("/defects", referenceController.GetDefects)
		r.Get("/operator-colors", referenceController.GetOperatorColors)
	})

	// 数据不一致
	r.Route("/mismatches", func(r chi.Router) {
		mismatchController := controllers.NewMismatchController(deps.Scrap, deps.Repository, deps.Runner)
		r.Get("/reports", mismatchController.GetReports)
		r.With(middleware.RequireAdmin).Post("/reports/{id}/resolve", mismatchController.ResolveReport)
		r.With(middleware.RequireAdmin).Post("/scan", mismatchController.RunScan)
		r.Get("/{kind}", mismatchController.GetTable)
	})

	// CSV 导入
	r.Route("/ingest", func(r chi.Router) {
		r.Use(middleware.RequireAdmin)
		ingestController := controllers.NewIngestController(deps.Loader)
		r.Post("/{kind}", ingestController.Upload)
	})
}
