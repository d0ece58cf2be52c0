package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"awakening-quiz-engine/internal/catalog"
)

// DatasetLoader reads the book content blobs from Postgres. Each row of the
// books table carries one book as JSONB, keyed by its book id.
type DatasetLoader struct {
	pool *pgxpool.Pool
}

func NewDatasetLoader(pool *pgxpool.Pool) *DatasetLoader {
	return &DatasetLoader{pool: pool}
}

func (l *DatasetLoader) LoadDataset(ctx context.Context) (catalog.RawDataset, error) {
	rows, err := l.pool.Query(ctx, `SELECT id, data FROM books`)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	defer rows.Close()

	dataset := make(catalog.RawDataset)
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("scan book row: %w", err)
		}
		var book catalog.RawBook
		if err := json.Unmarshal(raw, &book); err != nil {
			return nil, fmt.Errorf("unmarshal book %q: %w", id, err)
		}
		dataset[id] = book
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return dataset, nil
}
