/*
 * @module service/init
 * @description 服务初始化模块，负责配置加载、数据库连接、迁移以及各业务服务的创建
 * @architecture 分层架构 - 服务层
 * @documentReference dev_docs/deployment.md
 * @stateFlow 应用启动时执行初始化流程：配置 -> 日志 -> 数据库 -> 迁移 -> 服务 -> 定时巡检
 * @rules 确保所有依赖服务正常启动后才提供API服务；Redis、Kafka、MQTT 为可选依赖，未配置时不启用
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs service/config/config.go, api/routes.go
 */

package service

import (
	"log"
	"log/slog"

	"scrap-quality-service/logger"
	"scrap-quality-service/service/config"
	"scrap-quality-service/service/database"
	"scrap-quality-service/service/distributed_lock"
	"scrap-quality-service/service/ingest"
	"scrap-quality-service/service/monitoring"
	"scrap-quality-service/service/notify"
	"scrap-quality-service/service/rate_limiter"
	"scrap-quality-service/service/reference"
	"scrap-quality-service/service/scheduler"
	"scrap-quality-service/service/scrap"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	DB                      *gorm.DB
	GlobalConfig            *config.Config
	GlobalCatalog           *reference.Catalog
	GlobalRepository        *database.Repository
	GlobalMetrics           *monitoring.Metrics
	GlobalScrapService      *scrap.Service
	GlobalIngestLoader      *ingest.Loader
	GlobalRateLimiter       *rate_limiter.RedisRateLimiter
	GlobalMismatchScheduler *scheduler.MismatchScheduler
	GlobalScanLock          *distributed_lock.RedisLock
)

func init() {
	GlobalConfig = config.Load()
	logger.InitLogger(GlobalConfig.Logging.Level)

	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var err error
	DB, err = gorm.Open(postgres.Open(GlobalConfig.Database.DSN()), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")

	if err := database.InitializeData(DB); err != nil {
		log.Fatalf("基础数据初始化失败: %v", err)
	}
	log.Println("所有数据库迁移任务完成")
}

// initServices 初始化服务
func initServices() {
	catalog, err := config.LoadCatalog(GlobalConfig.Catalog.Path)
	if err != nil {
		log.Fatalf("加载查找表失败: %v", err)
	}
	GlobalCatalog = catalog

	GlobalRepository = database.NewRepository(DB)
	GlobalMetrics = monitoring.NewMetrics(nil)
	GlobalScrapService = scrap.NewService(GlobalRepository, GlobalCatalog, GlobalMetrics)
	GlobalIngestLoader = ingest.NewLoader(GlobalRepository, GlobalMetrics)

	// 限流为可选功能
	if GlobalConfig.Redis.Host != "" {
		limiter, err := rate_limiter.NewRedisRateLimiter(GlobalConfig.Redis)
		if err != nil {
			slog.Warn("Redis不可用，图表接口不限流", "error", err)
		} else {
			GlobalRateLimiter = limiter
		}
	}

	if GlobalConfig.Scheduler.Enabled {
		publisher := notify.New(GlobalConfig.Kafka, GlobalConfig.MQTT)
		GlobalMismatchScheduler = scheduler.NewMismatchScheduler(
			GlobalScrapService,
			GlobalRepository,
			publisher,
			GlobalMetrics,
			GlobalConfig.Scheduler.MismatchScanCron,
		)
		// 多实例部署时通过Redis锁避免重复巡检
		if GlobalConfig.Redis.Host != "" {
			lock, err := distributed_lock.NewRedisLock(GlobalConfig.Redis)
			if err != nil {
				slog.Warn("Redis不可用，巡检仅做进程内互斥", "error", err)
			} else {
				GlobalScanLock = lock
				GlobalMismatchScheduler.SetLocker(lock)
			}
		}
		if err := GlobalMismatchScheduler.Start(); err != nil {
			log.Printf("启动数据不一致巡检失败: %v", err)
			GlobalMismatchScheduler = nil
		}
	}

	log.Println("服务初始化完成")
}

// Shutdown 停止后台任务并释放连接
func Shutdown() {
	if GlobalMismatchScheduler != nil {
		GlobalMismatchScheduler.Stop()
	}
	if GlobalScanLock != nil {
		if err := GlobalScanLock.Close(); err != nil {
			slog.Warn("关闭Redis连接失败", "error", err)
		}
	}
	if GlobalRateLimiter != nil {
		if err := GlobalRateLimiter.Close(); err != nil {
			slog.Warn("关闭Redis连接失败", "error", err)
		}
	}
	if DB != nil {
		if sqlDB, err := DB.DB(); err == nil {
			sqlDB.Close()
		}
	}
}
