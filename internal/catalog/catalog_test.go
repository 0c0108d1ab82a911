package catalog

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/KevinKickass/OpenPedalCore/internal/power"
	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"go.uber.org/zap"
)

const pedalsYAML = `
- id: 1
  product_type: pedal
  manufacturer: Boss
  model: DS-1
  msrp_cents: 6999
  jacks:
    - id: 10
      category: power
      direction: input
      voltage: 9V
      current_ma: 10
      polarity: Center Negative
      connector_type: 2.1mm barrel
    - id: 11
      category: audio
      direction: input
- id: 2
  product_type: pedal
  manufacturer: Strymon
  model: BigSky
  jacks:
    - id: 20
      category: power
      direction: input
      voltage: 9V
      current_ma: 300
`

const supplyJSON = `{
  "id": 3,
  "product_type": "power_supply",
  "manufacturer": "Acme",
  "model": "Power 1",
  "jacks": [
    {"id": 30, "category": "power", "direction": "output", "voltage": "9V", "current_ma": 500, "is_isolated": true}
  ],
  "detail": {"total_current_ma": 1000, "total_output_count": 1}
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestLoader(t *testing.T, paths ...string) *Loader {
	t.Helper()
	l, err := NewLoader(paths, zap.NewNop())
	if err != nil {
		t.Fatalf("NewLoader() error = %v", err)
	}
	return l
}

func TestLoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "pedals.yaml", pedalsYAML)
	writeFile(t, dir, "supplies/acme.json", supplyJSON)
	writeFile(t, dir, "README.md", "# not a catalog file")

	products, err := newTestLoader(t, dir, filepath.Join(dir, "missing")).LoadAll()
	if err != nil {
		t.Fatalf("LoadAll() error = %v", err)
	}
	if len(products) != 3 {
		t.Fatalf("products = %d, want 3", len(products))
	}
	for i, want := range []int{1, 2, 3} {
		if products[i].ID != want {
			t.Errorf("products[%d].ID = %d, want %d", i, products[i].ID, want)
		}
	}

	ds1 := products[0]
	if ds1.MSRPCents == nil || *ds1.MSRPCents != 6999 || len(ds1.Jacks) != 2 {
		t.Errorf("DS-1 = %+v", ds1)
	}
	if j := ds1.Jacks[0]; j.Voltage == nil || *j.Voltage != "9V" || j.CurrentMA == nil || *j.CurrentMA != 10 {
		t.Errorf("DS-1 power jack = %+v", j)
	}

	info := power.SupplyInfo(products[2].Row(""))
	if info.TotalCurrentMA == nil || *info.TotalCurrentMA != 1000 {
		t.Errorf("supply capacity = %v, want 1000", info.TotalCurrentMA)
	}
}

func TestLoadRejectsInvalidRecords(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown type", "id: 1\nproduct_type: amp\nmanufacturer: A\nmodel: B\n"},
		{"missing model", "id: 1\nproduct_type: pedal\nmanufacturer: A\n"},
		{"bad jack direction", "id: 1\nproduct_type: pedal\nmanufacturer: A\nmodel: B\njacks:\n  - id: 1\n    category: power\n    direction: sideways\n"},
		{"negative current", "id: 1\nproduct_type: pedal\nmanufacturer: A\nmodel: B\njacks:\n  - id: 1\n    category: power\n    direction: input\n    current_ma: -5\n"},
		{"not yaml", "id: [1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "bad.yaml", tt.content)
			if _, err := newTestLoader(t).LoadFile(path); err == nil {
				t.Error("LoadFile() accepted an invalid record")
			}
		})
	}
}

func TestLoadAllRejectsDuplicateIDs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "id: 7\nproduct_type: pedal\nmanufacturer: A\nmodel: One\n")
	writeFile(t, dir, "b.yaml", "id: 7\nproduct_type: pedal\nmanufacturer: B\nmodel: Two\n")

	if _, err := newTestLoader(t, dir).LoadAll(); !errors.Is(err, ErrDuplicateProduct) {
		t.Errorf("LoadAll() error = %v, want ErrDuplicateProduct", err)
	}
}

func TestLoadFileCache(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "one.yaml", "id: 1\nproduct_type: pedal\nmanufacturer: A\nmodel: One\n")
	l := newTestLoader(t, dir)

	if _, err := l.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	writeFile(t, dir, "one.yaml", "id: 1\nproduct_type: pedal\nmanufacturer: A\nmodel: Changed\n")

	cached, _ := l.LoadFile(path)
	if cached[0].Model != "One" {
		t.Errorf("Model = %q, want cached One", cached[0].Model)
	}

	l.ClearCache()
	fresh, _ := l.LoadFile(path)
	if fresh[0].Model != "Changed" {
		t.Errorf("Model = %q after ClearCache, want Changed", fresh[0].Model)
	}
}

func newTestIndex(t *testing.T) *Index {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "pedals.yaml", pedalsYAML)
	writeFile(t, dir, "acme.json", supplyJSON)

	products, err := newTestLoader(t, dir).LoadAll()
	if err != nil {
		t.Fatal(err)
	}

	idx, err := OpenIndex(filepath.Join(dir, "data", "catalog.db"))
	if err != nil {
		t.Fatalf("OpenIndex() error = %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	if err := idx.Replace(context.Background(), products); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}
	return idx
}

func TestIndexQueries(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	p, err := idx.Get(ctx, 3)
	if err != nil || p.Model != "Power 1" || len(p.Jacks) != 1 {
		t.Errorf("Get(3) = %+v, %v", p, err)
	}
	if _, err := idx.Get(ctx, 99); !errors.Is(err, ErrProductNotFound) {
		t.Errorf("Get(99) error = %v", err)
	}

	pedals, err := idx.List(ctx, Filter{ProductType: types.ProductTypePedal})
	if err != nil || len(pedals) != 2 {
		t.Errorf("List(pedal) = %d, %v", len(pedals), err)
	}
	boss, _ := idx.List(ctx, Filter{Manufacturer: "boss"})
	if len(boss) != 1 || boss[0].ID != 1 {
		t.Errorf("List(manufacturer boss) = %+v", boss)
	}
	limited, _ := idx.List(ctx, Filter{Limit: 1})
	if len(limited) != 1 {
		t.Errorf("List(limit 1) = %d", len(limited))
	}

	many, err := idx.GetMany(ctx, []int{3, 99, 1, 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(many) != 3 || many[0].ID != 3 || many[1].ID != 1 || many[2].ID != 1 {
		t.Errorf("GetMany() ids = %v", many)
	}
	if empty, _ := idx.GetMany(ctx, nil); empty == nil || len(empty) != 0 {
		t.Errorf("GetMany(nil) = %v", empty)
	}

	counts, err := idx.Counts(ctx)
	if err != nil || counts[types.ProductTypePedal] != 2 || counts[types.ProductTypePowerSupply] != 1 {
		t.Errorf("Counts() = %v, %v", counts, err)
	}
}

func TestIndexReplaceIsFullRebuild(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	only := []types.Product{{ID: 50, ProductType: types.ProductTypeUtility, Manufacturer: "X", Model: "Y", Jacks: []types.Jack{}}}
	if err := idx.Replace(ctx, only); err != nil {
		t.Fatal(err)
	}
	all, _ := idx.List(ctx, Filter{})
	if len(all) != 1 || all[0].ID != 50 {
		t.Errorf("List() after Replace = %+v", all)
	}
}
