package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DatasetLoader fetches the raw content blob from a backing store (file,
// Postgres, etc).
type DatasetLoader interface {
	LoadDataset(ctx context.Context) (RawDataset, error)
}

// FileLoader reads the dataset from a JSON file on disk.
type FileLoader struct {
	path string
}

func NewFileLoader(path string) *FileLoader {
	return &FileLoader{path: path}
}

func (l *FileLoader) LoadDataset(_ context.Context) (RawDataset, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	var dataset RawDataset
	if err := json.Unmarshal(data, &dataset); err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	return dataset, nil
}

// StaticLoader serves an in-memory dataset (useful for tests/demos).
type StaticLoader struct {
	dataset RawDataset
}

func NewStaticLoader(dataset RawDataset) *StaticLoader {
	return &StaticLoader{dataset: dataset}
}

func (l *StaticLoader) LoadDataset(_ context.Context) (RawDataset, error) {
	return l.dataset, nil
}

// Provider builds the catalog once and hands out the same immutable handle
// afterwards. Concurrent first calls share a single load via singleflight.
// Reload drops the cached catalog so the next Catalog call rebuilds it; this
// is the explicit path for content updates, there is no implicit mutation of
// a loaded catalog.
type Provider struct {
	loader DatasetLoader
	sf     singleflight.Group

	mu      sync.RWMutex
	catalog *Catalog
}

func NewProvider(loader DatasetLoader) *Provider {
	return &Provider{loader: loader}
}

func (p *Provider) Catalog(ctx context.Context) (*Catalog, error) {
	p.mu.RLock()
	if p.catalog != nil {
		defer p.mu.RUnlock()
		return p.catalog, nil
	}
	p.mu.RUnlock()

	result, err, _ := p.sf.Do("catalog", func() (interface{}, error) {
		p.mu.RLock()
		if p.catalog != nil {
			defer p.mu.RUnlock()
			return p.catalog, nil
		}
		p.mu.RUnlock()

		dataset, err := p.loader.LoadDataset(ctx)
		if err != nil {
			return nil, err
		}
		catalog, err := Load(dataset)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		p.catalog = catalog
		p.mu.Unlock()
		return catalog, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Catalog), nil
}

// Reload invalidates the cached catalog.
func (p *Provider) Reload() {
	p.mu.Lock()
	p.catalog = nil
	p.mu.Unlock()
}
