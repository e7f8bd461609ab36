/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference dev_docs/scrap_tables.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"scrap-quality-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 内存库每个连接独立，限制为单连接
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(1)
	}

	err = db.AutoMigrate(
		&models.TrackingRecord{},
		&models.PostProcessingRecord{},
		&models.LotOperation{},
		&models.DefectReference{},
		&models.MismatchReport{},
		&models.IngestBatch{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// Day 当天零点 (UTC)
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TrackingOption 机加工跟踪记录选项函数类型
type TrackingOption func(*models.TrackingRecord)

// WithOperator 设置操作员
func WithOperator(operator string) TrackingOption {
	return func(r *models.TrackingRecord) {
		r.Operator = &operator
	}
}

// WithDate 设置日期与班次
func WithDate(date time.Time, shift int) TrackingOption {
	return func(r *models.TrackingRecord) {
		r.Date = date
		r.Shift = shift
	}
}

// WithEquipment 设置设备与订单
func WithEquipment(equipment, ofa string) TrackingOption {
	return func(r *models.TrackingRecord) {
		r.Equipment = equipment
		r.OFA = ofa
	}
}

// WithQuantities 设置 OK/NOK 与缺陷明细
func WithQuantities(ok, nok int, defaults string) TrackingOption {
	return func(r *models.TrackingRecord) {
		r.QtyOK = ok
		r.QtyNOK = nok
		r.Defaults = defaults
	}
}

// WithComment 设置备注
func WithComment(comment string) TrackingOption {
	return func(r *models.TrackingRecord) {
		r.Comment = comment
	}
}

// CreateTracking 创建机加工跟踪记录
func (f *TestDataFactory) CreateTracking(opts ...TrackingOption) *models.TrackingRecord {
	operator := "AB"
	record := &models.TrackingRecord{
		Operator:  &operator,
		Date:      Day(2024, 6, 4),
		Shift:     0,
		Equipment: "A620HOR01",
		QtyOK:     100,
		QtyNOK:    0,
		OFA:       "LOT-1-1",
		Defaults:  "{}",
	}

	for _, opt := range opts {
		opt(record)
	}

	if err := f.DB.Create(record).Error; err != nil {
		panic(fmt.Sprintf("failed to create tracking record: %v", err))
	}
	return record
}

// PostProcessingOption 后处理跟踪记录选项函数类型
type PostProcessingOption func(*models.PostProcessingRecord)

// CreatePostProcessing 创建后处理跟踪记录
func (f *TestDataFactory) CreatePostProcessing(opts ...PostProcessingOption) *models.PostProcessingRecord {
	operator := "AB"
	record := &models.PostProcessingRecord{
		OFA:          "LOT-1-1",
		Date:         Day(2024, 6, 5),
		Collaborator: "CD",
		Operator:     &operator,
		Shift:        1,
		Operation:    20,
		QtyOK:        50,
		QtyNOK:       0,
		Defaults:     "{}",
	}

	for _, opt := range opts {
		opt(record)
	}

	if err := f.DB.Create(record).Error; err != nil {
		panic(fmt.Sprintf("failed to create post processing record: %v", err))
	}
	return record
}

// CreateDefectReference 创建缺陷代码
func (f *TestDataFactory) CreateDefectReference(code, description string) *models.DefectReference {
	ref := &models.DefectReference{Code: code, Description: description, Domain: "uu10"}
	if err := f.DB.Create(ref).Error; err != nil {
		panic(fmt.Sprintf("failed to create defect reference: %v", err))
	}
	return ref
}

// CreateLotOperation 创建 ERP 批次工序
func (f *TestDataFactory) CreateLotOperation(ofa, equipment string, step int, description string, ok, nok int) *models.LotOperation {
	begin := time.Date(2024, 6, 4, 8, 0, 0, 0, time.UTC)
	end := begin.Add(4 * time.Hour)
	lot := &models.LotOperation{
		OFA:         ofa,
		Equipment:   equipment,
		StepNumber:  step,
		Description: description,
		QtyRelease:  ok,
		QtyReject:   nok,
		BeginDate:   &begin,
		EndDate:     &end,
	}
	if err := f.DB.Create(lot).Error; err != nil {
		panic(fmt.Sprintf("failed to create lot operation: %v", err))
	}
	return lot
}

// MockPublisher Mock告警发布器
type MockPublisher struct {
	mock.Mock
}

// Publish 记录调用
func (m *MockPublisher) Publish(ctx context.Context, key string, payload []byte) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

// Close 记录调用
func (m *MockPublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// AssertJSONResponse 断言状态码与JSON响应体
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		expectedJSON, err := json.Marshal(expectedBody)
		assert.NoError(t, err)
		assert.JSONEq(t, string(expectedJSON), w.Body.String())
	}
}
