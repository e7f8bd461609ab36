package pipeline

import (
	"testing"

	"scrap-quality-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderRows() []models.OrderEquipment {
	return []models.OrderEquipment{
		{OFA: "LOT-1-1", Equipment: "M100-1", Date: day(2024, 6, 3)},
		{OFA: "LOT-1-2", Equipment: "M100-3", Date: day(2024, 6, 4)},
		{OFA: "LOT-2-1", Equipment: "M100-1", Date: day(2024, 6, 3)},
		{OFA: "LOT-2-1", Equipment: "M200-1", Date: day(2024, 6, 5)},
		{OFA: "LOT-3-1", Equipment: "M300", Date: day(2024, 6, 1)},
		{OFA: "LOT-3-1", Equipment: "M400", Date: day(2024, 6, 6)},
		{OFA: "LOT-4-1", Equipment: "  ", Date: day(2024, 6, 6)},
		{OFA: "", Equipment: "M500", Date: day(2024, 6, 6)},
	}
}

func TestStripUnitSuffix(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{name: "单元后缀", input: "M100-1", want: "M100"},
		{name: "多位后缀", input: "M100-12", want: "M100"},
		{name: "无后缀", input: "A620HOR01", want: "A620HOR01"},
		{name: "字母后缀保留", input: "M100-A", want: "M100-A"},
		{name: "前后空格", input: " M100-3 ", want: "M100"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, StripUnitSuffix(tc.input))
		})
	}
}

func TestReconcileFamilies_SuffixVariantsAreConsistent(t *testing.T) {
	rec := ReconcileFamilies(orderRows())

	entry, ok := rec.Orders["LOT-1"]
	require.True(t, ok)
	assert.Equal(t, []string{"M100"}, entry.Equipments)
	assert.True(t, entry.Consistent())
	assert.Equal(t, "M100", rec.EquipmentFor("LOT-1"))
	assert.Equal(t, day(2024, 6, 4), entry.LastUpdate)
}

func TestReconcile_Mismatches(t *testing.T) {
	rec := Reconcile(orderRows())

	require.Len(t, rec.Mismatches, 2)
	assert.Equal(t, "LOT-3-1", rec.Mismatches[0].OFA, "按最后更新时间倒序")
	assert.Equal(t, []string{"M300", "M400"}, rec.Mismatches[0].Equipments)
	assert.Equal(t, "LOT-2-1", rec.Mismatches[1].OFA)
	assert.Equal(t, []string{"M100", "M200"}, rec.Mismatches[1].Equipments)

	assert.Equal(t, "", rec.EquipmentFor("LOT-2-1"))
	assert.Equal(t, "M100", rec.EquipmentFor("LOT-1-2"))

	_, ok := rec.Orders["LOT-4-1"]
	assert.False(t, ok, "没有设备的订单不参与核对")
}

func TestReconcile_SizeOneIffNotMismatch(t *testing.T) {
	for _, rec := range []Reconciliation{Reconcile(orderRows()), ReconcileFamilies(orderRows())} {
		mismatched := make(map[string]bool)
		for _, m := range rec.Mismatches {
			mismatched[m.OFA] = true
		}
		for ofa, entry := range rec.Orders {
			assert.Equal(t, len(entry.Equipments) == 1, !mismatched[ofa], ofa)
		}
	}
}

func TestJoinEquipment(t *testing.T) {
	rec := Reconcile(orderRows())
	records := []Record{{ID: 1, OFA: "LOT-1-1"}, {ID: 2, OFA: "LOT-2-1"}, {ID: 3, OFA: "UNKNOWN"}}

	joined := JoinEquipment(records, rec)
	assert.Equal(t, "M100", joined[0].Equipment)
	assert.Equal(t, "", joined[1].Equipment)
	assert.Equal(t, "", joined[2].Equipment)
	assert.Equal(t, "", records[0].Equipment)
}
