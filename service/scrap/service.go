/*
 * @module service/scrap/service
 * @description 质量看板页面服务：按请求加载跟踪数据，经标准化、设备核对、派生列、过滤后交给各视图聚合并组装图表
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow 日期窗口查询 -> 缺陷代码表 -> 标准化 -> 设备核对 -> 派生列 -> 过滤 -> 视图
 * @rules 每个请求独立运行流水线，不在请求之间缓存数据；缺陷代码表每次请求重新读取；存储错误直接返回调用方
 * @dependencies scrap-quality-service/service/pipeline, scrap-quality-service/service/reference
 * @refs service/database/repository.go, api/controllers/machining_controller.go
 */

package scrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scrap-quality-service/service/database"
	"scrap-quality-service/service/models"
	"scrap-quality-service/service/pipeline"
	"scrap-quality-service/service/reference"
)

var (
	// ErrUnknownView 视图名称不存在
	ErrUnknownView = errors.New("未知的视图")
	// ErrUnknownOperation 后处理工序不存在
	ErrUnknownOperation = errors.New("未知的工序")
)

// Store 页面服务需要的存储查询
type Store interface {
	LoadMachining(ctx context.Context, window database.Window) ([]pipeline.RawRecord, error)
	LoadPostProcessing(ctx context.Context, window database.Window, operations []int) ([]models.PostProcessingRecord, error)
	LoadOrderEquipment(ctx context.Context) ([]models.OrderEquipment, error)
	LoadDefectReferences(ctx context.Context) ([]models.DefectReference, error)
	LoadLotOperations(ctx context.Context) ([]models.LotOperation, error)
	DistinctOperators(ctx context.Context) ([]string, error)
	DistinctEquipments(ctx context.Context) ([]string, error)
}

// Recorder 流水线指标
type Recorder interface {
	ObservePipeline(source string, total, quarantined int)
}

// Service 质量看板页面服务
type Service struct {
	store   Store
	catalog *reference.Catalog
	engine  *pipeline.FilterEngine
	metrics Recorder
	now     func() time.Time
}

// NewService 创建页面服务，metrics 可为 nil
func NewService(store Store, catalog *reference.Catalog, metrics Recorder) *Service {
	return &Service{
		store:   store,
		catalog: catalog,
		engine:  pipeline.NewFilterEngine(catalog),
		metrics: metrics,
		now:     time.Now,
	}
}

// Catalog 查找表
func (s *Service) Catalog() *reference.Catalog {
	return s.catalog
}

// Batch 一次请求的数据
type Batch struct {
	Spec     pipeline.FilterSpec
	All      []pipeline.Record // 仅按年份和周过滤
	Filtered []pipeline.Record // 按全部条件过滤
	Weeks    []int
	Resolver *reference.Resolver
}

// LoadMachining 加载并处理机加工跟踪记录
func (s *Service) LoadMachining(ctx context.Context, spec pipeline.FilterSpec) (*Batch, error) {
	resolver, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}

	raw, err := s.store.LoadMachining(ctx, database.WindowFor(spec))
	if err != nil {
		return nil, err
	}

	records, err := s.normalize(ctx, pipeline.SourceMachining, raw, resolver)
	if err != nil {
		return nil, err
	}
	return s.batch(records, spec, resolver), nil
}

// LoadPostProcessing 加载某个后处理工序的跟踪记录，设备取自订单核对结果
func (s *Service) LoadPostProcessing(ctx context.Context, spec pipeline.FilterSpec, operation string) (*Batch, error) {
	codes := s.catalog.PostProcessingOperationCodes(operation)
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, operation)
	}

	resolver, err := s.resolver(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := s.store.LoadPostProcessing(ctx, database.WindowFor(spec), codes)
	if err != nil {
		return nil, err
	}

	raw := make([]pipeline.RawRecord, len(rows))
	for i, row := range rows {
		label, _ := s.catalog.PostProcessingOperation(row.Operation)
		raw[i] = pipeline.RawRecord{
			ID:           row.ID,
			Source:       pipeline.SourcePostProcessing,
			OFA:          row.OFA,
			Date:         row.Date,
			Shift:        row.Shift,
			Operator:     row.Operator,
			Collaborator: row.Collaborator,
			Operation:    label,
			OK:           row.QtyOK,
			NOK:          row.QtyNOK,
			Defaults:     row.Defaults,
			Comments:     row.Comments,
		}
	}

	records, err := s.normalize(ctx, pipeline.SourcePostProcessing, raw, resolver)
	if err != nil {
		return nil, err
	}

	orders, err := s.store.LoadOrderEquipment(ctx)
	if err != nil {
		return nil, err
	}
	records = pipeline.JoinEquipment(records, pipeline.Reconcile(orders))

	return s.batch(records, spec, resolver), nil
}

func (s *Service) resolver(ctx context.Context) (*reference.Resolver, error) {
	refs, err := s.store.LoadDefectReferences(ctx)
	if err != nil {
		return nil, err
	}
	return reference.NewResolver(refs), nil
}

func (s *Service) normalize(ctx context.Context, source string, raw []pipeline.RawRecord, resolver *reference.Resolver) ([]pipeline.Record, error) {
	roster, err := s.store.DistinctOperators(ctx)
	if err != nil {
		return nil, err
	}

	records, stats := pipeline.NewNormalizer(s.catalog, resolver).Normalize(raw, roster)
	if s.metrics != nil {
		s.metrics.ObservePipeline(source, stats.Total, stats.Quarantined)
	}
	if stats.Quarantined > 0 || stats.InvalidDates > 0 {
		slog.Warn("跟踪记录存在无效数据",
			"source", source,
			"total", stats.Total,
			"quarantined", stats.Quarantined,
			"invalid_dates", stats.InvalidDates)
	}
	return pipeline.Augment(records), nil
}

func (s *Service) batch(records []pipeline.Record, spec pipeline.FilterSpec, resolver *reference.Resolver) *Batch {
	base := s.engine.Apply(records, pipeline.FilterSpec{Year: spec.Year, Week: spec.Week})
	return &Batch{
		Spec:     spec,
		All:      base,
		Filtered: s.engine.Apply(base, spec),
		Weeks:    spec.Weeks(base),
		Resolver: resolver,
	}
}

// CurrentShift 当前时间所在的班次；周末不区分班次
func CurrentShift(now time.Time, catalog *reference.Catalog) int {
	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		if _, ok := catalog.ShiftNames[reference.ShiftWeekEnd]; ok {
			return reference.ShiftWeekEnd
		}
	}

	minutes := now.Hour()*60 + now.Minute()
	start := func(name string, fallback int) int {
		t, err := time.Parse("15:04", catalog.ShiftStart[name])
		if err != nil {
			return fallback
		}
		return t.Hour()*60 + t.Minute()
	}
	morning := start(catalog.ShiftName(reference.ShiftMorning), 5*60)
	afternoon := start(catalog.ShiftName(reference.ShiftAfternoon), 14*60)
	night := start(catalog.ShiftName(reference.ShiftNight), 22*60)

	switch {
	case minutes >= morning && minutes < afternoon:
		return reference.ShiftMorning
	case minutes >= afternoon && minutes < night:
		return reference.ShiftAfternoon
	default:
		return reference.ShiftNight
	}
}

// NowSpec 以当前生产周、年份和班次补齐未指定的过滤条件
func (s *Service) NowSpec(spec pipeline.FilterSpec) pipeline.FilterSpec {
	now := s.now()
	shift := CurrentShift(now, s.catalog)
	date := now
	// 零点后的夜班属于前一天开始的班次
	if shift == reference.ShiftNight && now.Hour()*60+now.Minute() < 12*60 {
		date = now.AddDate(0, 0, -1)
	}
	year, week := pipeline.ProductionWeek(date, shift)

	if spec.Year == nil {
		spec.Year = &year
	}
	if spec.Week == nil {
		spec.Week = &[2]int{week, week}
	}
	if spec.Shift == "" {
		spec.Shift = s.catalog.ShiftName(shift)
	}
	return spec
}

// CurrentYearSpec 今年第1周至当前周
func (s *Service) CurrentYearSpec() pipeline.FilterSpec {
	year, week := pipeline.ProductionWeek(s.now(), reference.ShiftMorning)
	return pipeline.FilterSpec{Year: &year, Week: &[2]int{1, week}}
}
