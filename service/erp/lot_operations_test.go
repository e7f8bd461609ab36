package erp

import (
	"testing"
	"time"

	"scrap-quality-service/service/models"
	"scrap-quality-service/service/pipeline"
	"scrap-quality-service/service/reference"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 8, 0, 0, 0, time.UTC)
	return &t
}

func lot(ofa, equipment string, step int, descr string, ok, nok int) models.LotOperation {
	return models.LotOperation{
		OFA: ofa, Equipment: equipment, StepNumber: step, Description: descr,
		QtyRelease: ok, QtyReject: nok, BeginDate: at(2024, 6, 4), EndDate: at(2024, 6, 5),
	}
}

func completeOrder(ofa, equipment string) []models.LotOperation {
	return []models.LotOperation{
		lot(ofa, equipment, 10, "Operation 10", 95, 5),
		lot(ofa, "LAV01", 20, "Opération LAVER", 95, 0),
		lot(ofa, "CTRL01", 30, "Opération CONTROLER", 94, 1),
		lot(ofa, "CTRL02", 40, "Opération CONTROLER", 93, 1),
		lot(ofa, "LAV02", 50, "Opération LAVER", 93, 0),
		lot(ofa, "CTRL03", 60, "Opération CONTROLER", 90, 3),
	}
}

func operationsOf(ops []Operation, ofa string) map[int]Operation {
	out := make(map[int]Operation)
	for _, op := range ops {
		if op.OFA == ofa {
			out[op.Step] = op
		}
	}
	return out
}

func TestPrepare_RenamesByDescendingStep(t *testing.T) {
	ops, stats := Prepare(completeOrder("LOT-1-1", "A620HOR01"), reference.DefaultCatalog())
	require.Len(t, ops, 6)
	assert.Equal(t, 0, stats.DroppedOFAs)

	steps := operationsOf(ops, "LOT-1-1")
	assert.Equal(t, OperationFinalControl, steps[60].Operation)
	assert.Equal(t, OperationVisual, steps[40].Operation)
	assert.Equal(t, OperationDimensional, steps[30].Operation)
	assert.Equal(t, OperationFinalWash, steps[50].Operation)
	assert.Equal(t, OperationTriboWash, steps[20].Operation)
	assert.Equal(t, "10", steps[10].Operation)
	assert.True(t, steps[10].IsMachining())

	assert.InDelta(t, 5.0, steps[10].NOKPercent, 1e-9)
	assert.Equal(t, 2024, steps[10].Year)
	assert.Equal(t, 23, steps[10].Week)
	assert.Equal(t, 60, ops[0].Step, "按工序号倒序")
}

func TestPrepare_DropsIncompleteOrders(t *testing.T) {
	var lots []models.LotOperation
	lots = append(lots, completeOrder("LOT-1-1", "A620HOR01")...)

	// 没有 Dimensional 工序
	lots = append(lots, lot("LOT-2-1", "A620HOR02", 10, "Operation 10", 10, 0), lot("LOT-2-1", "CTRL01", 60, "Opération CONTROLER", 10, 0))
	// 排除设备
	lots = append(lots, completeOrder("LOT-3-1", "A620HOR029")...)
	// 10号工序不是机加工
	bad := completeOrder("LOT-4-1", "A620HOR03")
	bad[0].Description = "Opération TOURNER"
	lots = append(lots, bad...)
	// 完工日期缺失
	missing := completeOrder("LOT-5-1", "A620HOR04")
	missing[2].EndDate = nil
	lots = append(lots, missing...)

	ops, stats := Prepare(lots, reference.DefaultCatalog())
	assert.Equal(t, 5, stats.Orders)
	assert.Equal(t, 4, stats.DroppedOFAs)
	for _, op := range ops {
		assert.Equal(t, "LOT-1-1", op.OFA)
	}
}

func TestPrepare_ValidationOrders(t *testing.T) {
	var lots []models.LotOperation
	lots = append(lots, completeOrder("LOT-7-1", "A620HOR01")...)
	lots = append(lots, completeOrder("LOT-7-2", "A620HOR01")...)
	lots = append(lots, completeOrder("LOT-8-1", "A620HOR01")...)

	ops, _ := Prepare(lots, reference.DefaultCatalog())
	for _, op := range ops {
		assert.Equal(t, op.OFA != "LOT-8-1", op.ValidationOFA, op.OFA)
	}
}

func TestAssignMachiningEquipmentAndOverall(t *testing.T) {
	var lots []models.LotOperation
	lots = append(lots, completeOrder("LOT-1-1", "A620HOR01")...)
	lots = append(lots, completeOrder("LOT-2-1", "A720HOR01")...)

	ops, _ := Prepare(lots, reference.DefaultCatalog())
	ops = AssignMachiningEquipment(ops)
	for _, op := range ops {
		if op.OFA == "LOT-1-1" {
			assert.Equal(t, "A620HOR01", op.Equipment)
		}
	}

	filtered := Filter(ops, pipeline.FilterSpec{Equipment: "A620HOR"}, reference.DefaultCatalog())
	assert.Len(t, filtered, 6)

	rows := OverallByOperation(ops, []string{"10", "Ctrl F"})
	require.Len(t, rows, 4)
	assert.Equal(t, "10", rows[0].Key(pipeline.DimOperation))
	assert.Equal(t, "A620HOR01", rows[0].Key(pipeline.DimEquipment))
	assert.Equal(t, "Ctrl F", rows[3].Key(pipeline.DimOperation))
	assert.InDelta(t, 5.0, rows[0].Ratio, 1e-9)
}

func TestFilterMatchesStrippedEquipment(t *testing.T) {
	lots := completeOrder("LOT-3-1", "A720HOR02-1")
	ops, _ := Prepare(lots, reference.DefaultCatalog())
	ops = AssignMachiningEquipment(ops)
	require.NotEmpty(t, ops)

	testCases := []struct {
		name      string
		equipment string
		want      int
	}{
		{name: "原始编号", equipment: "A720HOR02-1", want: len(ops)},
		{name: "去掉单元后缀", equipment: "A720HOR02", want: len(ops)},
		{name: "设备族", equipment: "A720HOR", want: len(ops)},
		{name: "其他设备", equipment: "A720HOR03", want: 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			filtered := Filter(ops, pipeline.FilterSpec{Equipment: tc.equipment}, reference.DefaultCatalog())
			assert.Len(t, filtered, tc.want)
		})
	}
}
