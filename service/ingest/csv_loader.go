/*
 * @module service/ingest/csv_loader
 * @description 跟踪数据 CSV 导入：读取产线导出的分号分隔文件（机加工、后处理、ERP 批次），转换为存储模型并分批写入
 * @architecture 分层架构 - 数据接入层
 * @documentReference dev_docs/scrap_tables.md
 * @stateFlow 上传文件 -> 编码识别 -> 逐行解析 -> 分批写入 -> 记录导入批次
 * @rules 首行为表头；日期为空的行跳过；数量无法解析的行跳过；缺陷明细格式错误的行照常写入并计入隔离数，由流水线在读取时隔离
 * @dependencies golang.org/x/text/encoding/charmap, github.com/spf13/cast, encoding/csv
 * @refs service/database/repository.go, api/controllers/ingest_controller.go
 */

package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"scrap-quality-service/service/models"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/charmap"
)

// 导入类型
const (
	KindTracking       = "tracking"
	KindPostProcessing = "post-processing"
	KindLotOperations  = "erp"
)

// 文件编码
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// DefaultBatchSize 每批写入行数
const DefaultBatchSize = 500

var (
	// ErrUnknownKind 导入类型不存在
	ErrUnknownKind = errors.New("未知的导入类型")
	// ErrEmptyFile 文件没有表头
	ErrEmptyFile = errors.New("导入文件为空")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Store 导入需要的写入操作
type Store interface {
	InsertTracking(ctx context.Context, rows []models.TrackingRecord, batchSize int) error
	InsertPostProcessing(ctx context.Context, rows []models.PostProcessingRecord, batchSize int) error
	InsertLotOperations(ctx context.Context, rows []models.LotOperation, batchSize int) error
	SaveIngestBatch(ctx context.Context, batch *models.IngestBatch) error
}

// Recorder 导入指标
type Recorder interface {
	ObserveIngest(inserted, skipped, quarantined int)
}

// IngestResult 导入结果
type IngestResult struct {
	BatchID     string `json:"batch_id"`
	Kind        string `json:"kind"`
	Encoding    string `json:"encoding"`
	Total       int    `json:"total"`
	Inserted    int    `json:"inserted"`
	Skipped     int    `json:"skipped"`
	Quarantined int    `json:"quarantined"`
}

// Loader CSV 导入器
type Loader struct {
	store     Store
	metrics   Recorder
	batchSize int
}

// NewLoader 创建导入器，metrics 可为 nil
func NewLoader(store Store, metrics Recorder) *Loader {
	return &Loader{store: store, metrics: metrics, batchSize: DefaultBatchSize}
}

// Load 导入一个 CSV 文件
func (l *Loader) Load(ctx context.Context, kind, source string, r io.Reader, createdBy string) (*IngestResult, error) {
	parse, ok := parsers[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	decoded, encoding, err := decode(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(decoded)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("读取表头失败: %w", err)
	}

	result := &IngestResult{Kind: kind, Encoding: encoding}
	rows := &parsedRows{}
	line := 1
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("读取第 %d 行失败: %w", line, err)
		}
		result.Total++

		quarantined, err := parse(fields, rows)
		if err != nil {
			result.Skipped++
			slog.Debug("导入行已跳过", "kind", kind, "line", line, "error", err)
			continue
		}
		if quarantined {
			result.Quarantined++
		}
	}

	if err := l.insert(ctx, kind, rows); err != nil {
		return nil, fmt.Errorf("写入导入数据失败: %w", err)
	}
	result.Inserted = rows.count(kind)

	batch := &models.IngestBatch{
		Source:      source,
		Encoding:    encoding,
		Total:       result.Total,
		Inserted:    result.Inserted,
		Skipped:     result.Skipped,
		Quarantined: result.Quarantined,
		CreatedBy:   createdBy,
	}
	if err := l.store.SaveIngestBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("保存导入批次失败: %w", err)
	}
	result.BatchID = batch.ID

	if l.metrics != nil {
		l.metrics.ObserveIngest(result.Inserted, result.Skipped, result.Quarantined)
	}
	slog.Info("CSV 导入完成",
		"kind", kind,
		"source", source,
		"total", result.Total,
		"inserted", result.Inserted,
		"skipped", result.Skipped,
		"quarantined", result.Quarantined)
	return result, nil
}

func (l *Loader) insert(ctx context.Context, kind string, rows *parsedRows) error {
	switch kind {
	case KindTracking:
		return l.store.InsertTracking(ctx, rows.tracking, l.batchSize)
	case KindPostProcessing:
		return l.store.InsertPostProcessing(ctx, rows.postProcessing, l.batchSize)
	default:
		return l.store.InsertLotOperations(ctx, rows.lots, l.batchSize)
	}
}

// decode 带 UTF-8 BOM 的文件按 UTF-8 读取，其余按 Windows-1252 解码
func decode(r io.Reader) (io.Reader, string, error) {
	br := bufio.NewReader(r)
	head, err := br.Peek(len(utf8BOM))
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("读取导入文件失败: %w", err)
	}
	if bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, "", err
		}
		return br, EncodingUTF8, nil
	}
	return charmap.Windows1252.NewDecoder().Reader(br), EncodingWindows1252, nil
}

type parsedRows struct {
	tracking       []models.TrackingRecord
	postProcessing []models.PostProcessingRecord
	lots           []models.LotOperation
}

func (p *parsedRows) count(kind string) int {
	switch kind {
	case KindTracking:
		return len(p.tracking)
	case KindPostProcessing:
		return len(p.postProcessing)
	default:
		return len(p.lots)
	}
}

// rowParser 解析一行并追加到结果，返回缺陷明细是否被隔离
type rowParser func(fields []string, rows *parsedRows) (bool, error)

var parsers = map[string]rowParser{
	KindTracking:       parseTracking,
	KindPostProcessing: parsePostProcessing,
	KindLotOperations:  parseLotOperation,
}

// 机加工导出列：id;usr;dte;shift;pdc;qty_ok;qty_ko;d0..d6;comments;ofa;week;defaults
func parseTracking(fields []string, rows *parsedRows) (bool, error) {
	f := row(fields)
	date, ok, err := parseDate(f.at(2))
	if err != nil || !ok {
		return false, dateError(f.at(2), err)
	}

	record := models.TrackingRecord{
		Operator:  optional(f.at(1)),
		Date:      date,
		Equipment: f.at(4),
		Comment:   f.at(14),
		OFA:       f.at(15),
		Defaults:  f.at(17),
	}
	ints := []*int{&record.Shift, &record.QtyOK, &record.QtyNOK,
		&record.D0, &record.D1, &record.D2, &record.D3, &record.D4, &record.D5, &record.D6}
	for i, target := range ints {
		if *target, err = f.int(3 + i); err != nil {
			return false, err
		}
	}

	rows.tracking = append(rows.tracking, record)
	return quarantined(record.Defaults), nil
}

// 后处理导出列：ofa;dte;uusr;usr;shift;ope;qty_ok;qty_ko;defaults;comments
func parsePostProcessing(fields []string, rows *parsedRows) (bool, error) {
	f := row(fields)
	date, ok, err := parseDate(f.at(1))
	if err != nil || !ok {
		return false, dateError(f.at(1), err)
	}

	record := models.PostProcessingRecord{
		OFA:          f.at(0),
		Date:         date,
		Collaborator: f.at(2),
		Operator:     optional(f.at(3)),
		Defaults:     f.at(8),
		Comments:     f.at(9),
	}
	for i, target := range []*int{&record.Shift, &record.Operation, &record.QtyOK, &record.QtyNOK} {
		if *target, err = f.int(4 + i); err != nil {
			return false, err
		}
	}

	rows.postProcessing = append(rows.postProcessing, record)
	return quarantined(record.Defaults), nil
}

// ERP 导出列：LOT_REFCOMPL;LOT_RELEASED_QTY;LOT_REJECT_RELEASED_QTY;FAC_REFERENCE;KEY;
// SCS_STEP_NUMBER;TAS_REF;SCS_SHORT_DESCR;TAL_RELEASE_QTY;TAL_REJECTED_QTY;TAL_BEGIN_REAL_DATE;TAL_END_REAL_DATE
// 开工、完工日期允许为空，由 ERP 预处理剔除对应订单
func parseLotOperation(fields []string, rows *parsedRows) (bool, error) {
	f := row(fields)
	if f.at(0) == "" {
		return false, errors.New("批次号为空")
	}

	lot := models.LotOperation{
		OFA:         f.at(0),
		Equipment:   f.at(3),
		TaskRef:     f.at(6),
		Description: f.at(7),
	}
	var err error
	for i, target := range []*int{&lot.LotReleasedQty, &lot.LotRejectedQty} {
		if *target, err = f.int(1 + i); err != nil {
			return false, err
		}
	}
	if lot.StepNumber, err = f.int(5); err != nil {
		return false, err
	}
	for i, target := range []*int{&lot.QtyRelease, &lot.QtyReject} {
		if *target, err = f.int(8 + i); err != nil {
			return false, err
		}
	}
	for i, target := range []**time.Time{&lot.BeginDate, &lot.EndDate} {
		date, ok, err := parseDate(f.at(10 + i))
		if err != nil {
			return false, err
		}
		if ok {
			*target = &date
		}
	}

	rows.lots = append(rows.lots, lot)
	return false, nil
}

type row []string

func (r row) at(i int) string {
	if i >= len(r) {
		return ""
	}
	return strings.TrimSpace(r[i])
}

// int 空单元格按0处理；导出中的数量可能带小数点（如 "12.0"）
func (r row) int(i int) (int, error) {
	v := r.at(i)
	if v == "" {
		return 0, nil
	}
	f, err := cast.ToFloat64E(strings.ReplaceAll(v, ",", "."))
	if err != nil {
		return 0, fmt.Errorf("第 %d 列不是数字: %q", i+1, v)
	}
	return int(f), nil
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func quarantined(defaults string) bool {
	_, err := models.ParseBreakdown(defaults)
	return err != nil
}

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.RFC3339,
	"02/01/2006",
	"02/01/2006 15:04",
	"02/01/2006 15:04:05",
	"02.01.2006 15:04:05",
}

// parseDate 空串返回 ok=false
func parseDate(v string) (time.Time, bool, error) {
	if v == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, v, time.UTC); err == nil {
			return t, true, nil
		}
	}
	t, err := cast.ToTimeInDefaultLocationE(v, time.UTC)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("日期格式无法识别: %q", v)
	}
	return t, true, nil
}

func dateError(v string, err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("日期为空: %q", v)
}
