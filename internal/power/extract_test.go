package power

import (
	"reflect"
	"testing"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

func singleSupplyBench() []types.DeviceRow {
	return []types.DeviceRow{
		pedal(1, "DS-1", powerIn(10, "9V", 500, cn, barrel)),
		supply(2, "Power 1", 1000, 1, powerOut(20, "9V", 1000, cn, barrel, true)),
	}
}

func TestExtractPowerDataSufficient(t *testing.T) {
	data := ExtractPowerData(singleSupplyBench())

	if data.Status != StatusSufficient {
		t.Fatalf("Status = %q, want %q", data.Status, StatusSufficient)
	}
	if data.TotalDraw != 500 || data.TotalCapacity != 1000 {
		t.Errorf("draw/capacity = %d/%d, want 500/1000", data.TotalDraw, data.TotalCapacity)
	}
	if data.Headroom != 500 || data.HeadroomPct != 50 {
		t.Errorf("headroom = %d (%d%%), want 500 (50%%)", data.Headroom, data.HeadroomPct)
	}
	if data.HighestDraw == nil || data.HighestDraw.ProductID != 1 {
		t.Errorf("HighestDraw = %+v, want product 1", data.HighestDraw)
	}
	if data.TotalOutputCount != 1 || len(data.AllOutputJacks) != 1 {
		t.Errorf("outputs = %d/%d, want 1/1", data.TotalOutputCount, len(data.AllOutputJacks))
	}
}

func TestExtractPowerDataNoSupply(t *testing.T) {
	data := ExtractPowerData([]types.DeviceRow{
		pedal(1, "DS-1", powerIn(10, "9V", 50, cn, barrel)),
	})

	if data.Status != StatusNoSupply {
		t.Errorf("Status = %q, want %q", data.Status, StatusNoSupply)
	}
	if data.HeadroomPct != 0 {
		t.Errorf("HeadroomPct = %d, want 0", data.HeadroomPct)
	}
	if data.Headroom != -50 {
		t.Errorf("Headroom = %d, want -50", data.Headroom)
	}
}

func TestExtractPowerDataInsufficient(t *testing.T) {
	data := ExtractPowerData([]types.DeviceRow{
		pedal(1, "DS-1", powerIn(10, "9V", 250, cn, barrel)),
		pedal(2, "BD-2", powerIn(11, "9V", 200, cn, barrel)),
		supply(3, "Small", 300, 2),
	})

	if data.Status != StatusInsufficient {
		t.Fatalf("Status = %q, want %q", data.Status, StatusInsufficient)
	}
	if data.Headroom != -150 || data.HeadroomPct != -50 {
		t.Errorf("headroom = %d (%d%%), want -150 (-50%%)", data.Headroom, data.HeadroomPct)
	}
}

func TestExtractPowerDataPartitions(t *testing.T) {
	unknown := powerIn(12, "18V", 0, cn, barrel)
	unknown.CurrentMA = nil

	rows := []types.DeviceRow{
		pedal(1, "DS-1", powerIn(10, "9V", 200, cn, barrel)),
		pedal(2, "BD-2", powerIn(11, "9V", 200, cn, barrel)),
		pedal(3, "Big", unknown),
		{ID: 4, ProductType: types.ProductTypeUtility, Manufacturer: "Acme", Model: "Passive",
			Jacks: []types.Jack{{ID: 13, Category: types.JackCategoryAudio, Direction: types.DirectionInput}}},
	}
	data := ExtractPowerData(rows)

	if len(data.Consumers) != 3 {
		t.Fatalf("Consumers = %d, want 3", len(data.Consumers))
	}
	if len(data.KnownConsumers)+len(data.UnknownConsumers) != len(data.Consumers) {
		t.Error("known and unknown consumers must partition consumers")
	}
	if len(data.UnknownConsumers) != 1 || data.UnknownConsumers[0].ProductID != 3 {
		t.Errorf("UnknownConsumers = %+v", data.UnknownConsumers)
	}
	if data.TotalDraw != 400 {
		t.Errorf("TotalDraw = %d, want 400", data.TotalDraw)
	}
	// ties keep the first consumer
	if data.HighestDraw == nil || data.HighestDraw.ProductID != 1 {
		t.Errorf("HighestDraw = %+v, want product 1", data.HighestDraw)
	}
	if want := []string{"18V", "9V"}; !reflect.DeepEqual(data.UniqueVoltages, want) {
		t.Errorf("UniqueVoltages = %v, want %v", data.UniqueVoltages, want)
	}
}

func TestExtractPowerDataOrderIndependent(t *testing.T) {
	rows := []types.DeviceRow{
		pedal(1, "DS-1", powerIn(10, "9V", 120, cn, barrel)),
		supply(2, "Power 1", 1000, 5, powerOut(20, "9V", 500, cn, barrel, true)),
		pedal(3, "BD-2", powerIn(11, "18V", 300, cn, barrel)),
		supply(4, "Power 2", 400, 2, powerOut(21, "18V", 400, cn, barrel, false)),
	}
	reversed := make([]types.DeviceRow, len(rows))
	for i, r := range rows {
		reversed[len(rows)-1-i] = r
	}

	a := ExtractPowerData(rows)
	b := ExtractPowerData(reversed)

	if a.TotalDraw != b.TotalDraw || a.TotalCapacity != b.TotalCapacity ||
		a.Status != b.Status || a.HeadroomPct != b.HeadroomPct || a.TotalOutputCount != b.TotalOutputCount {
		t.Errorf("aggregates differ: %+v vs %+v", a, b)
	}
	if !reflect.DeepEqual(a.UniqueVoltages, b.UniqueVoltages) {
		t.Errorf("UniqueVoltages differ: %v vs %v", a.UniqueVoltages, b.UniqueVoltages)
	}
}

func TestConsumerInfoMultipleInputs(t *testing.T) {
	row := pedal(1, "Dual", powerIn(10, "9V", 100, cn, barrel), powerIn(11, "18V", 200, cn, barrel))

	c, ok := ConsumerInfo(row)
	if !ok {
		t.Fatal("ConsumerInfo() ok = false")
	}
	if c.InputJackID != 10 || c.PowerInputs != 2 {
		t.Errorf("InputJackID/PowerInputs = %d/%d, want 10/2", c.InputJackID, c.PowerInputs)
	}
	if *c.Voltage != "9V" {
		t.Errorf("Voltage = %q, want first input's 9V", *c.Voltage)
	}
}

func TestSupplyInfoDecodedDetail(t *testing.T) {
	row := supply(1, "Power 1", 0, 0)
	row.Detail = map[string]any{
		DetailTotalCurrentMA:   float64(2000),
		DetailTotalOutputCount: float64(8),
		DetailSupplyType:       "isolated",
		DetailMountingType:     42,
	}

	info := SupplyInfo(row)
	if info.TotalCurrentMA == nil || *info.TotalCurrentMA != 2000 {
		t.Errorf("TotalCurrentMA = %v, want 2000", info.TotalCurrentMA)
	}
	if info.TotalOutputCount == nil || *info.TotalOutputCount != 8 {
		t.Errorf("TotalOutputCount = %v, want 8", info.TotalOutputCount)
	}
	if info.SupplyType == nil || *info.SupplyType != "isolated" {
		t.Errorf("SupplyType = %v, want isolated", info.SupplyType)
	}
	if info.MountingType != nil {
		t.Errorf("MountingType = %v, want nil for a non-string value", *info.MountingType)
	}
	if info.IsolatedOutputCount != nil {
		t.Error("IsolatedOutputCount should be nil when absent")
	}
}
