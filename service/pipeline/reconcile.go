/*
 * @module service/pipeline/reconcile
 * @description 订单设备核对：去掉单元后缀后，每个订单应只对应一台设备
 * @architecture 纯函数管道 - 无状态，无外部依赖
 * @documentReference dev_docs/scrap_pipeline.md
 * @stateFlow 订单-设备行 -> 按订单分组 -> 唯一设备或不一致清单
 * @rules 空设备忽略；不一致的订单不参与后处理的设备关联
 * @dependencies regexp
 * @refs service/scrap/service.go, service/scrap/mismatches.go
 */

package pipeline

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"scrap-quality-service/service/models"
)

var unitSuffix = regexp.MustCompile(`-\d+$`)

// StripUnitSuffix 去掉设备编号末尾的 "-N" 单元后缀
func StripUnitSuffix(id string) string {
	return unitSuffix.ReplaceAllString(strings.TrimSpace(id), "")
}

// OrderFamily 订单族：去掉订单号末尾的 "-N"
func OrderFamily(ofa string) string {
	return unitSuffix.ReplaceAllString(strings.TrimSpace(ofa), "")
}

// OrderEquipmentSet 一个订单（或订单族）对应的设备集合
type OrderEquipmentSet struct {
	OFA        string    `json:"ofa"`
	Equipments []string  `json:"equipments"`
	LastUpdate time.Time `json:"last_update"`
}

// Consistent 设备集合只有一个成员
func (s OrderEquipmentSet) Consistent() bool {
	return len(s.Equipments) == 1
}

// Reconciliation 设备一致性核对结果
type Reconciliation struct {
	Orders     map[string]OrderEquipmentSet `json:"-"`
	Canonical  map[string]string            `json:"canonical"`
	Mismatches []OrderEquipmentSet          `json:"mismatches"`
}

// Reconcile 按订单汇总设备集合；集合大小为1的订单给出唯一设备，其余列入不一致清单
// 没有任何设备的订单不参与核对
func Reconcile(rows []models.OrderEquipment) Reconciliation {
	return reconcileBy(rows, func(ofa string) string { return strings.TrimSpace(ofa) })
}

// ReconcileFamilies 按订单族核对，同族子订单（LOT-1-1、LOT-1-2）合并为一个集合
func ReconcileFamilies(rows []models.OrderEquipment) Reconciliation {
	return reconcileBy(rows, OrderFamily)
}

func reconcileBy(rows []models.OrderEquipment, keyOf func(string) string) Reconciliation {
	sets := make(map[string]map[string]struct{})
	lastUpdate := make(map[string]time.Time)

	for _, row := range rows {
		key := keyOf(row.OFA)
		if key == "" {
			continue
		}
		equipment := StripUnitSuffix(row.Equipment)
		if equipment == "" {
			continue
		}
		if sets[key] == nil {
			sets[key] = make(map[string]struct{})
		}
		sets[key][equipment] = struct{}{}
		if row.Date.After(lastUpdate[key]) {
			lastUpdate[key] = row.Date
		}
	}

	result := Reconciliation{
		Orders:    make(map[string]OrderEquipmentSet, len(sets)),
		Canonical: make(map[string]string),
	}
	for key, set := range sets {
		equipments := make([]string, 0, len(set))
		for eq := range set {
			equipments = append(equipments, eq)
		}
		sort.Strings(equipments)

		entry := OrderEquipmentSet{OFA: key, Equipments: equipments, LastUpdate: lastUpdate[key]}
		result.Orders[key] = entry
		if entry.Consistent() {
			result.Canonical[key] = equipments[0]
		} else {
			result.Mismatches = append(result.Mismatches, entry)
		}
	}

	sort.Slice(result.Mismatches, func(i, j int) bool {
		a, b := result.Mismatches[i], result.Mismatches[j]
		if !a.LastUpdate.Equal(b.LastUpdate) {
			return a.LastUpdate.After(b.LastUpdate)
		}
		return a.OFA < b.OFA
	})
	return result
}

// EquipmentFor 订单的唯一设备；不一致或未知订单返回空串
func (r Reconciliation) EquipmentFor(ofa string) string {
	return r.Canonical[strings.TrimSpace(ofa)]
}

// JoinEquipment 为后处理记录补齐设备：取订单的唯一设备
func JoinEquipment(records []Record, rec Reconciliation) []Record {
	out := make([]Record, len(records))
	for i, r := range records {
		r.Equipment = rec.EquipmentFor(r.OFA)
		out[i] = r
	}
	return out
}
