/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建和更新数据库表结构
 * @architecture 数据访问层 - 迁移管理
 * @documentReference dev_docs/scrap_tables.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 确保数据库结构与模型定义保持一致；跟踪表沿用既有列名
 * @dependencies scrap-quality-service/service/models, gorm.io/gorm
 * @refs service/models/tracking.go, service/models/mismatch_report.go
 */

package database

import (
	"log"

	"scrap-quality-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	log.Println("开始数据库迁移...")

	// 质量跟踪相关表
	err := db.AutoMigrate(
		&models.TrackingRecord{},
		&models.PostProcessingRecord{},
		&models.LotOperation{},
		&models.DefectReference{},
	)
	if err != nil {
		return err
	}

	// 巡检与导入记录
	err = db.AutoMigrate(
		&models.MismatchReport{},
		&models.IngestBatch{},
	)
	if err != nil {
		return err
	}

	log.Println("数据库迁移完成")
	return nil
}

// InitializeData 检查基础数据
func InitializeData(db *gorm.DB) error {
	log.Println("开始检查基础数据...")

	var count int64
	if err := db.Model(&models.DefectReference{}).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		log.Println("缺陷代码表为空，缺陷明细将按原始代码展示")
	} else {
		log.Printf("已加载缺陷代码 %d 条", count)
	}

	log.Println("基础数据检查完成")
	return nil
}
