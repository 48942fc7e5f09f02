package indexes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/mediasync/internal/common"
	"github.com/dmitrijs2005/mediasync/internal/models"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Upsert(ctx context.Context, entry *models.CacheEntry) error {

	query := `INSERT INTO cached_indexes (id, payload, nonce, section, last_updated, sharee_name, is_public)
			VALUES (?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				payload=excluded.payload,
				nonce=excluded.nonce,
				section=excluded.section,
				last_updated=excluded.last_updated,
				sharee_name=excluded.sharee_name,
				is_public=excluded.is_public
	`
	_, err := r.db.ExecContext(ctx, query,
		entry.Id, entry.Payload, entry.Nonce, entry.Section, entry.LastUpdated, entry.ShareeName, entry.IsPublic)
	if err != nil {
		return fmt.Errorf("failed to upsert cache entry: %w", err)
	}

	return nil
}

func (r *SQLiteRepository) GetById(ctx context.Context, id string) (*models.CacheEntry, error) {

	query := `SELECT id, payload, nonce, section, last_updated, sharee_name, is_public
			FROM cached_indexes WHERE id=?`
	row := r.db.QueryRowContext(ctx, query, id)

	e := &models.CacheEntry{}
	err := row.Scan(&e.Id, &e.Payload, &e.Nonce, &e.Section, &e.LastUpdated, &e.ShareeName, &e.IsPublic)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to select cache entry: %w", err)
	}

	return e, nil
}

func (r *SQLiteRepository) DeleteById(ctx context.Context, id string) error {

	query := `DELETE FROM cached_indexes WHERE id=?`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListSection(ctx context.Context, section, shareeName string, isPublic bool) ([]models.CacheEntry, error) {

	var result []models.CacheEntry

	resume := ""
	for {
		page, err := r.ListSectionPage(ctx, section, shareeName, isPublic, resume, 500)
		if err != nil {
			return nil, err
		}
		result = append(result, page.Entries...)
		if page.Resume == "" {
			return result, nil
		}
		resume = page.Resume
	}
}

func (r *SQLiteRepository) ListSectionPage(ctx context.Context, section, shareeName string, isPublic bool, resume string, limit int) (*Page, error) {

	query := `SELECT id, payload, nonce, section, last_updated, sharee_name, is_public
			FROM cached_indexes
			WHERE section=? AND sharee_name=? AND is_public=? AND id>?
			ORDER BY id LIMIT ?`
	rows, err := r.db.QueryContext(ctx, query, section, shareeName, isPublic, resume, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to scan section: %w", err)
	}
	defer rows.Close()

	page := &Page{}
	for rows.Next() {
		var item = models.CacheEntry{}
		err := rows.Scan(&item.Id, &item.Payload, &item.Nonce, &item.Section, &item.LastUpdated, &item.ShareeName, &item.IsPublic)
		if err != nil {
			return nil, err
		}
		page.Entries = append(page.Entries, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(page.Entries) == limit {
		page.Resume = page.Entries[len(page.Entries)-1].Id
	}

	return page, nil
}
