package hashes

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mediasync/internal/dbx"
	"github.com/dmitrijs2005/mediasync/internal/models"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) ReplaceForCache(ctx context.Context, cacheId string, rows []models.SearchHash) error {

	return dbx.WithTx(ctx, r.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM searchable_hashes WHERE cache_id=?`, cacheId); err != nil {
			return fmt.Errorf("failed to clear search hashes: %w", err)
		}
		for _, row := range rows {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO searchable_hashes (id, hash_id, cache_id) VALUES (?, ?, ?)
				ON CONFLICT(id) DO NOTHING`,
				row.Id, row.HashId, row.CacheId)
			if err != nil {
				return fmt.Errorf("failed to insert search hash: %w", err)
			}
		}
		return nil
	})
}

func (r *SQLiteRepository) DeleteByCacheId(ctx context.Context, cacheId string) error {

	query := `DELETE FROM searchable_hashes WHERE cache_id=?`
	if _, err := r.db.ExecContext(ctx, query, cacheId); err != nil {
		return fmt.Errorf("failed to delete search hashes: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) FindCacheIds(ctx context.Context, hashId string) ([]string, error) {

	query := `SELECT DISTINCT cache_id FROM searchable_hashes WHERE hash_id=?`
	rows, err := r.db.QueryContext(ctx, query, hashId)
	if err != nil {
		return nil, fmt.Errorf("failed to select search hashes: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
