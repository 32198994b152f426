package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"yardcraft/internal/domain"
	"yardcraft/internal/infra"
	"yardcraft/internal/sqlinline"
)

// RedesignRepositoryPG implements domain.RedesignRepository backed by PostgreSQL.
type RedesignRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewRedesignRepository creates a new RedesignRepositoryPG.
func NewRedesignRepository(sql infra.SQLExecutor) *RedesignRepositoryPG {
	return &RedesignRepositoryPG{sql: sql}
}

// CreateRedesign inserts a redesign record.
func (r *RedesignRepositoryPG) CreateRedesign(ctx context.Context, rec *domain.RedesignRecord) error {
	catalog, err := json.Marshal(rec.Catalog.Normalized())
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	_, err = r.sql.Exec(ctx, sqlinline.QInsertRedesign,
		rec.ID,
		rec.AccountID,
		rec.OriginalURL,
		rec.RedesignedURL,
		rec.OriginalKey,
		rec.RedesignedKey,
		catalog,
		stylesToStrings(rec.Styles),
		rec.ClimateZone,
		string(rec.Density),
		rec.IsPinned,
		rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert redesign: %w", err)
	}
	return nil
}

// GetRedesign fetches one redesign owned by accountID.
func (r *RedesignRepositoryPG) GetRedesign(ctx context.Context, accountID, id string) (*domain.RedesignRecord, error) {
	return scanRedesign(r.sql.QueryRow(ctx, sqlinline.QSelectRedesign, id, accountID))
}

// ListRedesigns lists redesigns with pinned records first, newest first.
func (r *RedesignRepositoryPG) ListRedesigns(ctx context.Context, accountID string, limit, offset int) ([]domain.RedesignRecord, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListRedesigns, accountID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list redesigns: %w", err)
	}
	defer rows.Close()

	items := []domain.RedesignRecord{}
	for rows.Next() {
		rec, err := scanRedesign(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// SetPinned updates the pin flag and returns the updated record.
func (r *RedesignRepositoryPG) SetPinned(ctx context.Context, accountID, id string, pinned bool) (*domain.RedesignRecord, error) {
	return scanRedesign(r.sql.QueryRow(ctx, sqlinline.QUpdateRedesignPin, id, accountID, pinned))
}

// DeleteRedesign removes a redesign owned by accountID.
func (r *RedesignRepositoryPG) DeleteRedesign(ctx context.Context, accountID, id string) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteRedesign, id, accountID)
	if err != nil {
		return fmt.Errorf("delete redesign: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanRedesign(row pgx.Row) (*domain.RedesignRecord, error) {
	var (
		rec     domain.RedesignRecord
		catalog []byte
		styles  []string
		density string
	)
	err := row.Scan(
		&rec.ID,
		&rec.AccountID,
		&rec.OriginalURL,
		&rec.RedesignedURL,
		&rec.OriginalKey,
		&rec.RedesignedKey,
		&catalog,
		&styles,
		&rec.ClimateZone,
		&density,
		&rec.IsPinned,
		&rec.CreatedAt,
	)
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	rec.Density = domain.Density(density)
	rec.Styles = make([]domain.Style, len(styles))
	for i, s := range styles {
		rec.Styles[i] = domain.Style(s)
	}
	rec.Catalog = domain.EmptyCatalog()
	if len(catalog) > 0 {
		if err := json.Unmarshal(catalog, &rec.Catalog); err != nil {
			return nil, fmt.Errorf("decode catalog: %w", err)
		}
		rec.Catalog = rec.Catalog.Normalized()
	}
	return &rec, nil
}

func stylesToStrings(styles []domain.Style) []string {
	out := make([]string, len(styles))
	for i, s := range styles {
		out[i] = string(s)
	}
	return out
}

var _ domain.RedesignRepository = (*RedesignRepositoryPG)(nil)
