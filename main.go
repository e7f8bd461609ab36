package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"scrap-quality-service/api"
	_ "scrap-quality-service/docs"
	"scrap-quality-service/service"

	daprd "github.com/dapr/go-sdk/service/http"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title 废品质量看板服务 API
// @version 1.0
// @description 机加工与后处理废品跟踪数据的清洗、核对、聚合与图表服务
// @BasePath /
func main() {
	cfg := service.GlobalConfig
	mux := chi.NewRouter()
	deps := api.Dependencies{
		Repository: service.GlobalRepository,
		Scrap:      service.GlobalScrapService,
		Loader:     service.GlobalIngestLoader,
		Metrics:    service.GlobalMetrics,
		AdminHash:  cfg.Security.AdminKeyHash,
	}
	// 可选依赖未启用时保持接口为 nil
	if service.GlobalRateLimiter != nil {
		deps.Limiter = service.GlobalRateLimiter
	}
	if service.GlobalMismatchScheduler != nil {
		deps.Runner = service.GlobalMismatchScheduler
	}

	// 如果有BASE_CONTEXT，则在该路径下挂载所有路由
	if cfg.Server.BaseContext != "" {
		mux.Route(cfg.Server.BaseContext, func(r chi.Router) {
			api.InitRoute(r, deps)
			r.Handle("/metrics", promhttp.Handler())
			r.Handle("/swagger*", httpSwagger.WrapHandler)
		})
	} else {
		api.InitRoute(mux, deps)
		mux.Handle("/metrics", promhttp.Handler())
		mux.Handle("/swagger*", httpSwagger.WrapHandler)
	}

	s := daprd.NewServiceWithMux(":"+strconv.Itoa(cfg.Server.Port), mux)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop

		log.Println("正在停止服务...")
		if err := s.Stop(); err != nil {
			log.Printf("停止HTTP服务失败: %v", err)
		}
	}()

	if err := s.Start(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("error: %v", err)
	}
	service.Shutdown()
}
