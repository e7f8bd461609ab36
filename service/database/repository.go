/*
 * @module service/database/repository
 * @description 质量跟踪数据读取与巡检结果写入
 * @architecture 数据访问层 - 仓储
 * @documentReference dev_docs/scrap_tables.md
 * @stateFlow 按日期窗口查询 -> 原始行 -> 流水线
 * @rules 查询只按日期窗口粗筛，年份与周的精确过滤由流水线完成；所有查询携带 context
 * @dependencies gorm.io/gorm, gorm.io/gorm/clause
 * @refs service/pipeline/record.go, service/scrap/service.go
 */

package database

import (
	"context"
	"fmt"
	"time"

	"scrap-quality-service/service/models"
	"scrap-quality-service/service/pipeline"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Window 日期查询窗口，零值表示不限
type Window struct {
	From time.Time
	To   time.Time
}

// WindowFor 过滤条件对应的日期窗口
func WindowFor(spec pipeline.FilterSpec) Window {
	if spec.Year == nil {
		return Window{}
	}
	start, end := 1, 53
	if spec.Week != nil {
		start, end = spec.Week[0], spec.Week[1]
	}
	from, to := pipeline.WeekWindow(*spec.Year, start, end)
	return Window{From: from, To: to}
}

func (w Window) apply(db *gorm.DB, column string) *gorm.DB {
	if !w.From.IsZero() {
		db = db.Where(column+" >= ?", w.From)
	}
	if !w.To.IsZero() {
		db = db.Where(column+" < ?", w.To)
	}
	return db
}

// Repository 质量跟踪仓储
type Repository struct {
	db *gorm.DB
}

// NewRepository 创建仓储
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// DB 底层连接
func (r *Repository) DB() *gorm.DB {
	return r.db
}

// Ping 检查数据库连接
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// LoadMachining 读取机加工跟踪记录
func (r *Repository) LoadMachining(ctx context.Context, window Window) ([]pipeline.RawRecord, error) {
	var rows []models.TrackingRecord
	query := window.apply(r.db.WithContext(ctx).Model(&models.TrackingRecord{}), "dte")
	if err := query.Order("dte DESC, shift DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询机加工跟踪记录失败: %w", err)
	}

	out := make([]pipeline.RawRecord, len(rows))
	for i, row := range rows {
		out[i] = pipeline.RawRecord{
			ID:        row.ID,
			Source:    pipeline.SourceMachining,
			OFA:       row.OFA,
			Date:      row.Date,
			Shift:     row.Shift,
			Operator:  row.Operator,
			Equipment: row.Equipment,
			OK:        row.QtyOK,
			NOK:       row.QtyNOK,
			A:         row.D0,
			R:         row.D3,
			Defaults:  row.Defaults,
			Comments:  row.Comment,
		}
	}
	return out, nil
}

// LoadPostProcessing 读取后处理跟踪记录，operations 为空时读取全部工序
func (r *Repository) LoadPostProcessing(ctx context.Context, window Window, operations []int) ([]models.PostProcessingRecord, error) {
	var rows []models.PostProcessingRecord
	query := window.apply(r.db.WithContext(ctx).Model(&models.PostProcessingRecord{}), "dte")
	if len(operations) > 0 {
		query = query.Where("ope IN ?", operations)
	}
	if err := query.Order("dte DESC, shift DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询后处理跟踪记录失败: %w", err)
	}
	return rows, nil
}

// LoadOrderEquipment 读取订单与设备的对应行
func (r *Repository) LoadOrderEquipment(ctx context.Context) ([]models.OrderEquipment, error) {
	var rows []models.OrderEquipment
	err := r.db.WithContext(ctx).
		Model(&models.TrackingRecord{}).
		Select("dte, shift, pdc, ofa").
		Where("ofa IS NOT NULL AND ofa <> ''").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("查询订单设备失败: %w", err)
	}
	return rows, nil
}

// LoadDefectReferences 读取缺陷代码表
func (r *Repository) LoadDefectReferences(ctx context.Context) ([]models.DefectReference, error) {
	var refs []models.DefectReference
	if err := r.db.WithContext(ctx).Order("def_name").Find(&refs).Error; err != nil {
		return nil, fmt.Errorf("查询缺陷代码表失败: %w", err)
	}
	return refs, nil
}

// DistinctOperators 两张跟踪表中出现过的操作员
func (r *Repository) DistinctOperators(ctx context.Context) ([]string, error) {
	var machining, post []string
	db := r.db.WithContext(ctx)
	if err := db.Model(&models.TrackingRecord{}).Where("usr IS NOT NULL AND usr <> ''").Distinct().Pluck("usr", &machining).Error; err != nil {
		return nil, fmt.Errorf("查询操作员失败: %w", err)
	}
	if err := db.Model(&models.PostProcessingRecord{}).Where("usr IS NOT NULL AND usr <> ''").Distinct().Pluck("usr", &post).Error; err != nil {
		return nil, fmt.Errorf("查询操作员失败: %w", err)
	}
	return append(machining, post...), nil
}

// DistinctEquipments 机加工跟踪表中出现过的设备
func (r *Repository) DistinctEquipments(ctx context.Context) ([]string, error) {
	var equipments []string
	err := r.db.WithContext(ctx).Model(&models.TrackingRecord{}).
		Where("pdc IS NOT NULL AND pdc <> ''").
		Distinct().Order("pdc").Pluck("pdc", &equipments).Error
	if err != nil {
		return nil, fmt.Errorf("查询设备失败: %w", err)
	}
	return equipments, nil
}

// LoadLotOperations 读取 ERP 批次工序，按批次、工序号倒序
func (r *Repository) LoadLotOperations(ctx context.Context) ([]models.LotOperation, error) {
	var lots []models.LotOperation
	err := r.db.WithContext(ctx).Order("lot_refcompl DESC, scs_step_number DESC").Find(&lots).Error
	if err != nil {
		return nil, fmt.Errorf("查询批次工序失败: %w", err)
	}
	return lots, nil
}

// InsertTracking 批量写入机加工跟踪记录
func (r *Repository) InsertTracking(ctx context.Context, rows []models.TrackingRecord, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error
}

// InsertPostProcessing 批量写入后处理跟踪记录
func (r *Repository) InsertPostProcessing(ctx context.Context, rows []models.PostProcessingRecord, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error
}

// InsertLotOperations 批量写入 ERP 批次工序
func (r *Repository) InsertLotOperations(ctx context.Context, rows []models.LotOperation, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, batchSize).Error
}

// SaveIngestBatch 记录导入批次
func (r *Repository) SaveIngestBatch(ctx context.Context, batch *models.IngestBatch) error {
	return r.db.WithContext(ctx).Create(batch).Error
}

// UpsertMismatches 写入巡检结果，同一类型同一引用的记录只更新数量与时间
func (r *Repository) UpsertMismatches(ctx context.Context, reports []models.MismatchReport) error {
	if len(reports) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kind"}, {Name: "reference"}},
		DoUpdates: clause.AssignmentColumns([]string{"equipments", "breakdown", "expected", "actual", "last_update", "detected_at", "updated_at"}),
	}).CreateInBatches(&reports, mismatchBatchSize).Error
}

// mismatchBatchSize 每批写入的巡检结果数，控制单条语句的参数个数
const mismatchBatchSize = 500

// MismatchKey 巡检结果的唯一键
func MismatchKey(kind, reference string) string {
	return kind + "|" + reference
}

// KnownMismatches 已保存的巡检结果键集合
func (r *Repository) KnownMismatches(ctx context.Context) (map[string]struct{}, error) {
	var rows []models.MismatchReport
	if err := r.db.WithContext(ctx).Select("kind", "reference").Find(&rows).Error; err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		known[MismatchKey(row.Kind, row.Reference)] = struct{}{}
	}
	return known, nil
}

// MismatchQuery 巡检结果查询条件
type MismatchQuery struct {
	Kind     string
	Resolved *bool
	Page     int
	Size     int
}

// ListMismatches 分页查询巡检结果，按最后更新时间倒序
func (r *Repository) ListMismatches(ctx context.Context, q MismatchQuery) ([]models.MismatchReport, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.MismatchReport{})
	if q.Kind != "" {
		query = query.Where("kind = ?", q.Kind)
	}
	if q.Resolved != nil {
		query = query.Where("resolved = ?", *q.Resolved)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if q.Page < 1 {
		q.Page = 1
	}
	if q.Size < 1 {
		q.Size = 20
	}

	var reports []models.MismatchReport
	err := query.Order("last_update DESC, reference").
		Offset((q.Page - 1) * q.Size).
		Limit(q.Size).
		Find(&reports).Error
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// ResolveMismatch 标记巡检结果已处理
func (r *Repository) ResolveMismatch(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&models.MismatchReport{}).Where("id = ?", id).Update("resolved", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
