/*
 * @module service/scrap/mismatches
 * @description 数据一致性复核：订单设备不一致、CONS 分级合计不符、缺陷明细合计不符
 * @architecture 分层架构 - 业务服务层
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow 读取 -> 核对 -> 复核表 / 巡检结果
 * @rules 不一致只报告，不自动修正；CONS 与明细核对范围为今年第1周至当前周
 * @dependencies scrap-quality-service/service/pipeline
 * @refs service/scheduler/mismatch_scheduler.go
 */

package scrap

import (
	"context"
	"strconv"
	"strings"
	"time"

	"scrap-quality-service/service/chart"
	"scrap-quality-service/service/models"
	"scrap-quality-service/service/pipeline"
)

// MismatchScan 一次核对的结果
type MismatchScan struct {
	Equipment []pipeline.OrderEquipmentSet
	CONS      []pipeline.MismatchRow
	Breakdown []pipeline.MismatchRow
}

// EquipmentMismatches 订单设备不一致复核表，当年的订单标记为 current
func (s *Service) EquipmentMismatches(ctx context.Context) (chart.Payload, error) {
	orders, err := s.store.LoadOrderEquipment(ctx)
	if err != nil {
		return chart.Payload{}, err
	}
	mismatches := pipeline.Reconcile(orders).Mismatches

	currentYear := s.now().Year()
	rows := make([]map[string]interface{}, len(mismatches))
	for i, m := range mismatches {
		rows[i] = map[string]interface{}{
			"OFA":         m.OFA,
			"Equipments":  strings.Join(m.Equipments, ", "),
			"Last Update": m.LastUpdate.Format("2006-01-02"),
			"Year":        m.LastUpdate.Year(),
			"Current":     m.LastUpdate.Year() == currentYear,
		}
	}
	return chart.Table("OFA mismatches", []string{"OFA", "Equipments", "Last Update", "Year"}, rows), nil
}

// CONSMismatches CONS 分级合计加 A、R 与 NOK 不符的记录
func (s *Service) CONSMismatches(ctx context.Context) (chart.Payload, error) {
	b, err := s.LoadMachining(ctx, s.CurrentYearSpec())
	if err != nil {
		return chart.Payload{}, err
	}
	rows := pipeline.CONSMismatches(b.Filtered, s.catalog)
	return chart.Table(pipeline.Title("N° CONS mismatches", b.Spec), mismatchColumns, s.mismatchTable(rows)), nil
}

// BreakdownMismatches 缺陷明细合计与 NOK 不符的记录
func (s *Service) BreakdownMismatches(ctx context.Context) (chart.Payload, error) {
	b, err := s.LoadMachining(ctx, s.CurrentYearSpec())
	if err != nil {
		return chart.Payload{}, err
	}
	rows := pipeline.BreakdownMismatches(b.Filtered)
	return chart.Table(pipeline.Title("Defect breakdown mismatches", b.Spec), mismatchColumns, s.mismatchTable(rows)), nil
}

var mismatchColumns = []string{"Date", "Shift", "Operator", "Equipment", "OFA", "NOK", "Total", "Tools", "Comments"}

func (s *Service) mismatchTable(rows []pipeline.MismatchRow) []map[string]interface{} {
	out := make([]map[string]interface{}, len(rows))
	for i, m := range rows {
		out[i] = map[string]interface{}{
			"ID":        m.Record.ID,
			"Date":      m.Record.Date.Format("2006-01-02"),
			"Shift":     m.Record.ShiftName,
			"Operator":  m.Record.Operator,
			"Equipment": m.Record.Equipment,
			"OFA":       m.Record.OFA,
			"NOK":       m.Expected,
			"Total":     m.Actual,
			"Tools":     pipeline.RecordTools(m.Record, s.catalog),
			"Comments":  m.Record.Comments,
		}
	}
	return out
}

// ScanMismatches 执行全部核对
func (s *Service) ScanMismatches(ctx context.Context) (*MismatchScan, error) {
	orders, err := s.store.LoadOrderEquipment(ctx)
	if err != nil {
		return nil, err
	}
	b, err := s.LoadMachining(ctx, s.CurrentYearSpec())
	if err != nil {
		return nil, err
	}
	return &MismatchScan{
		Equipment: pipeline.Reconcile(orders).Mismatches,
		CONS:      pipeline.CONSMismatches(b.Filtered, s.catalog),
		Breakdown: pipeline.BreakdownMismatches(b.Filtered),
	}, nil
}

// Reports 核对结果转为持久化记录
func (scan *MismatchScan) Reports(detectedAt time.Time) []models.MismatchReport {
	reports := make([]models.MismatchReport, 0, len(scan.Equipment)+len(scan.CONS)+len(scan.Breakdown))
	for _, m := range scan.Equipment {
		reports = append(reports, models.MismatchReport{
			Kind:       models.MismatchKindEquipment,
			Reference:  m.OFA,
			OFA:        m.OFA,
			Equipments: m.Equipments,
			Expected:   1,
			Actual:     len(m.Equipments),
			LastUpdate: m.LastUpdate,
			DetectedAt: detectedAt,
		})
	}
	for _, rows := range [][]pipeline.MismatchRow{scan.CONS, scan.Breakdown} {
		for _, m := range rows {
			reports = append(reports, models.MismatchReport{
				Kind:       m.Kind,
				Reference:  strconv.FormatInt(m.Record.ID, 10),
				OFA:        m.Record.OFA,
				Operator:   m.Record.Operator,
				Equipments: []string{m.Record.Equipment},
				Breakdown:  m.Detail,
				Expected:   m.Expected,
				Actual:     m.Actual,
				LastUpdate: m.Record.Date,
				DetectedAt: detectedAt,
			})
		}
	}
	return reports
}

// Counts 各类不一致的数量
func (scan *MismatchScan) Counts() map[string]int {
	return map[string]int{
		models.MismatchKindEquipment: len(scan.Equipment),
		models.MismatchKindCONS:      len(scan.CONS),
		models.MismatchKindBreakdown: len(scan.Breakdown),
	}
}
