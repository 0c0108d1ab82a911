package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
)

type ManyGetter interface {
	GetMany(ctx context.Context, ids []int) ([]types.Product, error)
}

// Rows resolves product ids into engine rows, one per id including
// repeats. Unknown ids are returned in missing, each once.
func Rows(ctx context.Context, src ManyGetter, ids []int) (rows []types.DeviceRow, missing []int, err error) {
	products, err := src.GetMany(ctx, ids)
	if err != nil {
		return nil, nil, err
	}

	found := make(map[int]bool, len(products))
	rows = make([]types.DeviceRow, 0, len(products))
	for _, p := range products {
		found[p.ID] = true
		rows = append(rows, p.Row(""))
	}

	reported := make(map[int]bool)
	for _, id := range ids {
		if !found[id] && !reported[id] {
			reported[id] = true
			missing = append(missing, id)
		}
	}
	return rows, missing, nil
}

// ParseIDs reads a comma separated id list such as "1,2,3". Blank entries
// are skipped.
func ParseIDs(raw string) ([]int, error) {
	ids := make([]int, 0)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid product id %q", part)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
