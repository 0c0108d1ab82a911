// Package catalog loads product records from disk and serves them from a
// SQLite index.
package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/KevinKickass/OpenPedalCore/internal/types"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var ErrDuplicateProduct = errors.New("duplicate product id")

type Loader struct {
	cache       sync.Map
	validator   *Validator
	searchPaths []string
	logger      *zap.Logger
}

func NewLoader(searchPaths []string, logger *zap.Logger) (*Loader, error) {
	validator, err := NewValidator()
	if err != nil {
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &Loader{
		validator:   validator,
		searchPaths: searchPaths,
		logger:      logger,
	}, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadAll reads every catalog file under the search paths. Missing search
// paths are skipped. The result is sorted by id.
func (l *Loader) LoadAll() ([]types.Product, error) {
	products := make([]types.Product, 0)
	origin := make(map[int]string)

	for _, root := range l.searchPaths {
		if _, err := os.Stat(root); errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Catalog search path missing", zap.String("path", root))
			continue
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isCatalogFile(path) {
				return nil
			}

			loaded, err := l.LoadFile(path)
			if err != nil {
				return err
			}
			for _, p := range loaded {
				if prev, dup := origin[p.ID]; dup {
					return fmt.Errorf("%w %d in %s (first seen in %s)", ErrDuplicateProduct, p.ID, path, prev)
				}
				origin[p.ID] = path
				products = append(products, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	l.logger.Info("Catalog loaded",
		zap.Int("products", len(products)),
		zap.Strings("search_paths", l.searchPaths))
	return products, nil
}

// LoadFile decodes one file holding a single record or a list of records.
// Every record is validated against the product schema.
func (l *Loader) LoadFile(path string) ([]types.Product, error) {
	if cached, ok := l.cache.Load(path); ok {
		return cached.([]types.Product), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var doc any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &doc)
	} else {
		err = yaml.Unmarshal(data, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var records []any
	switch v := doc.(type) {
	case []any:
		records = v
	case nil:
		records = nil
	default:
		records = []any{v}
	}

	products := make([]types.Product, 0, len(records))
	for i, record := range records {
		raw, err := json.Marshal(record)
		if err != nil {
			return nil, fmt.Errorf("record %d in %s: %w", i, path, err)
		}
		if err := l.validator.ValidateProduct(raw); err != nil {
			return nil, fmt.Errorf("validation failed for record %d in %s: %w", i, path, err)
		}

		var p types.Product
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("failed to unmarshal record %d in %s: %w", i, path, err)
		}
		if p.Jacks == nil {
			p.Jacks = []types.Jack{}
		}
		products = append(products, p)
	}

	l.cache.Store(path, products)
	return products, nil
}

func (l *Loader) ClearCache() {
	l.cache.Range(func(key, value any) bool {
		l.cache.Delete(key)
		return true
	})
}
