/*
 * @module service/scheduler/mismatch_scheduler
 * @description 数据不一致定时巡检：按 Cron 表达式核对订单设备、CONS 合计与缺陷明细合计，保存结果并发布新发现的不一致
 * @architecture 基于 robfig/cron 的调度器模式
 * @documentReference dev_docs/deployment.md
 * @stateFlow Cron 触发 -> 核对 -> 保存巡检结果 -> 更新指标 -> 发布新增告警
 * @rules 同一时刻只运行一次巡检，上一次未结束时跳过本次触发；多实例部署时由分布式锁保证只有一个实例执行；发布失败只记录日志；巡检只读跟踪表，只写巡检结果表
 * @dependencies github.com/robfig/cron/v3
 * @refs service/scrap/mismatches.go, service/notify/publisher.go
 */

package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	"scrap-quality-service/service/database"
	"scrap-quality-service/service/models"
	"scrap-quality-service/service/notify"
	"scrap-quality-service/service/scrap"

	"github.com/robfig/cron/v3"
)

// DefaultMismatchScanCron 每天 06:00:00
const DefaultMismatchScanCron = "0 0 6 * * *"

// Scanner 执行一次核对
type Scanner interface {
	ScanMismatches(ctx context.Context) (*scrap.MismatchScan, error)
}

// ReportStore 巡检结果存储
type ReportStore interface {
	KnownMismatches(ctx context.Context) (map[string]struct{}, error)
	UpsertMismatches(ctx context.Context, reports []models.MismatchReport) error
}

// Gauge 巡检指标
type Gauge interface {
	SetMismatches(kind string, count int)
}

// Locker 跨实例互斥锁
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, key string) error
}

const (
	scanLockKey = "mismatch_scan"
	scanLockTTL = 10 * time.Minute
)

// ScanResult 一次巡检的结果
type ScanResult struct {
	Counts    map[string]int `json:"counts"`
	Saved     int            `json:"saved"`
	New       int            `json:"new"`
	Published int            `json:"published"`
	Duration  time.Duration  `json:"duration"`
}

// MismatchScheduler 不一致巡检调度器
type MismatchScheduler struct {
	scanner   Scanner
	store     ReportStore
	publisher notify.Publisher
	metrics   Gauge
	locker    Locker
	cron      *cron.Cron
	spec      string
	now       func() time.Time
	mu        sync.Mutex
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewMismatchScheduler 创建巡检调度器，spec 为空时使用默认表达式；publisher、metrics 可为 nil
func NewMismatchScheduler(scanner Scanner, store ReportStore, publisher notify.Publisher, metrics Gauge, spec string) *MismatchScheduler {
	if spec == "" {
		spec = DefaultMismatchScanCron
	}
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &MismatchScheduler{
		scanner:   scanner,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		cron:      cron.New(cron.WithSeconds()),
		spec:      spec,
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// SetLocker 设置分布式锁，未设置时只做进程内互斥
func (s *MismatchScheduler) SetLocker(locker Locker) {
	s.locker = locker
}

// Start 注册巡检任务并启动调度器
func (s *MismatchScheduler) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(s.ctx); err != nil {
			slog.Error("数据不一致巡检失败", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("添加Cron任务失败: %w", err)
	}

	s.cron.Start()
	log.Printf("数据不一致巡检已启动 [%s]", s.spec)
	return nil
}

// Stop 停止调度器并等待正在运行的巡检结束
func (s *MismatchScheduler) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	if err := s.publisher.Close(); err != nil {
		log.Printf("关闭告警发布器失败: %v", err)
	}
	log.Println("数据不一致巡检已停止")
}

// mismatchEvent 告警消息
type mismatchEvent struct {
	Kind       string    `json:"kind"`
	Reference  string    `json:"reference"`
	OFA        string    `json:"ofa"`
	Operator   string    `json:"operator,omitempty"`
	Equipments []string  `json:"equipments"`
	Expected   int       `json:"expected"`
	Actual     int       `json:"actual"`
	LastUpdate time.Time `json:"last_update"`
	DetectedAt time.Time `json:"detected_at"`
}

// RunOnce 执行一次巡检；已有巡检在运行时直接返回 nil 结果
func (s *MismatchScheduler) RunOnce(ctx context.Context) (*ScanResult, error) {
	if !s.mu.TryLock() {
		slog.Warn("上一次巡检尚未结束，跳过本次触发")
		return nil, nil
	}
	defer s.mu.Unlock()

	if s.locker != nil {
		acquired, err := s.locker.TryLock(ctx, scanLockKey, scanLockTTL)
		if err != nil {
			return nil, fmt.Errorf("获取巡检锁失败: %w", err)
		}
		if !acquired {
			slog.Info("其他实例正在执行巡检，跳过本次触发")
			return nil, nil
		}
		defer func() {
			if err := s.locker.Unlock(context.Background(), scanLockKey); err != nil {
				slog.Warn("释放巡检锁失败", "error", err)
			}
		}()
	}

	start := s.now()
	scan, err := s.scanner.ScanMismatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("核对跟踪数据失败: %w", err)
	}

	known, err := s.store.KnownMismatches(ctx)
	if err != nil {
		return nil, fmt.Errorf("读取已有巡检结果失败: %w", err)
	}

	reports := scan.Reports(start)
	if err := s.store.UpsertMismatches(ctx, reports); err != nil {
		return nil, fmt.Errorf("保存巡检结果失败: %w", err)
	}

	result := &ScanResult{Counts: scan.Counts(), Saved: len(reports)}
	if s.metrics != nil {
		for kind, count := range result.Counts {
			s.metrics.SetMismatches(kind, count)
		}
	}

	for _, report := range reports {
		if _, ok := known[database.MismatchKey(report.Kind, report.Reference)]; ok {
			continue
		}
		result.New++
		if err := s.publish(ctx, report); err != nil {
			slog.Warn("发布不一致告警失败", "kind", report.Kind, "reference", report.Reference, "error", err)
			continue
		}
		result.Published++
	}

	result.Duration = s.now().Sub(start)
	slog.Info("数据不一致巡检完成",
		"equipment", result.Counts[models.MismatchKindEquipment],
		"cons", result.Counts[models.MismatchKindCONS],
		"breakdown", result.Counts[models.MismatchKindBreakdown],
		"new", result.New,
		"published", result.Published)
	return result, nil
}

func (s *MismatchScheduler) publish(ctx context.Context, report models.MismatchReport) error {
	payload, err := json.Marshal(mismatchEvent{
		Kind:       report.Kind,
		Reference:  report.Reference,
		OFA:        report.OFA,
		Operator:   report.Operator,
		Equipments: report.Equipments,
		Expected:   report.Expected,
		Actual:     report.Actual,
		LastUpdate: report.LastUpdate,
		DetectedAt: report.DetectedAt,
	})
	if err != nil {
		return err
	}
	key := report.OFA
	if key == "" {
		key = report.Reference
	}
	return s.publisher.Publish(ctx, key, payload)
}
