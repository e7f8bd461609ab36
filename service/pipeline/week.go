/*
 * @module service/pipeline/week
 * @description 生产周与星期计算：周日至周六为一周，夜班星期顺延到次日
 * @architecture 纯函数管道 - 无状态，无外部依赖
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow 周日非夜班 -> 前一周；以周六所在 ISO 周和 ISO 年编号
 * @rules WeekWindow 返回的日期区间前后各留8天，保证边界记录不被 SQL 窗口漏掉
 * @dependencies time
 * @refs normalize.go, service/database/repository.go
 */

package pipeline

import (
	"time"

	"scrap-quality-service/service/reference"
)

// ProductionWeek 生产周：周日至周六为一周，以周六所在的 ISO 周和 ISO 年计
// 非夜班的周日记录计入前一周
func ProductionWeek(date time.Time, shift int) (year, week int) {
	d := date
	if d.Weekday() == time.Sunday && shift != reference.ShiftNight {
		d = d.AddDate(0, 0, -1)
	}
	return anchorSaturday(d).ISOWeek()
}

// CalendarWeek 不带班次修正的生产周，ERP 工序按开工日期取周
func CalendarWeek(date time.Time) (year, week int) {
	return anchorSaturday(date).ISOWeek()
}

func anchorSaturday(d time.Time) time.Time {
	offset := (int(time.Saturday) - int(d.Weekday()) + 7) % 7
	return d.AddDate(0, 0, offset)
}

// ProductionWeekday 生产日的星期名称，夜班归入次日
func ProductionWeekday(date time.Time, shift int, catalog *reference.Catalog) string {
	d := date
	if shift == reference.ShiftNight {
		d = d.AddDate(0, 0, 1)
	}
	return weekdayName(d, catalog)
}

// weekdayName time.Weekday(周日=0) 转为以周一为首的名称
func weekdayName(d time.Time, catalog *reference.Catalog) string {
	index := (int(d.Weekday()) + 6) % 7
	if index >= len(catalog.Weekdays) {
		return reference.MissingWeekday
	}
	return catalog.Weekdays[index]
}

// WeekRange 生成闭区间内的所有周
func WeekRange(start, end int) []int {
	if end < start {
		start, end = end, start
	}
	weeks := make([]int, 0, end-start+1)
	for w := start; w <= end; w++ {
		weeks = append(weeks, w)
	}
	return weeks
}

// WeekWindow 某年若干生产周覆盖的日期范围（含前后各一周余量）
func WeekWindow(year, startWeek, endWeek int) (time.Time, time.Time) {
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	from := monday.AddDate(0, 0, (startWeek-1)*7-8)
	to := monday.AddDate(0, 0, endWeek*7+8)
	return from, to
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
