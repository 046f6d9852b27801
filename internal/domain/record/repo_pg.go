package record

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

// consolidationRepoPG stores each consolidated record as a JSONB document
// plus the columns the list queries filter and sort on.
type consolidationRepoPG struct{ pool *pgxpool.Pool }

func NewConsolidationRepoPG(pool *pgxpool.Pool) ConsolidationRepository {
	return &consolidationRepoPG{pool: pool}
}

func (r *consolidationRepoPG) conn(ctx context.Context) queryable { return r.pool }

const consolidationCols = `id, person_ref, document, source_count, consolidated_at, created_at, updated_at`

func (r *consolidationRepoPG) scanConsolidation(row pgx.Row) (*ConsolidatedRecord, error) {
	var (
		rec      ConsolidatedRecord
		document []byte
	)
	if err := row.Scan(&rec.ID, &rec.PersonRef, &document, &rec.SourceCount,
		&rec.ConsolidatedAt, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return nil, err
	}
	id, personRef := rec.ID, rec.PersonRef
	createdAt, updatedAt := rec.CreatedAt, rec.UpdatedAt
	if err := json.Unmarshal(document, &rec); err != nil {
		return nil, fmt.Errorf("decode consolidated record %s: %w", id, err)
	}
	rec.ID, rec.PersonRef = id, personRef
	rec.CreatedAt, rec.UpdatedAt = createdAt, updatedAt
	return &rec, nil
}

func (r *consolidationRepoPG) Create(ctx context.Context, rec *ConsolidatedRecord, sources []SourceRecord) error {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	document, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode consolidated record: %w", err)
	}
	sourceDocs, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("encode source records: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO consolidations (id, person_ref, document, sources, source_count, consolidated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		rec.ID, rec.PersonRef, document, sourceDocs, rec.SourceCount, rec.ConsolidatedAt)
	return err
}

func (r *consolidationRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*ConsolidatedRecord, error) {
	return r.scanConsolidation(r.conn(ctx).QueryRow(ctx,
		`SELECT `+consolidationCols+` FROM consolidations WHERE id = $1`, id))
}

func (r *consolidationRepoPG) GetSources(ctx context.Context, id uuid.UUID) ([]SourceRecord, error) {
	var raw []byte
	err := r.conn(ctx).QueryRow(ctx,
		`SELECT sources FROM consolidations WHERE id = $1`, id).Scan(&raw)
	if err != nil {
		return nil, err
	}
	var sources []SourceRecord
	if err := json.Unmarshal(raw, &sources); err != nil {
		return nil, fmt.Errorf("decode source records for %s: %w", id, err)
	}
	return sources, nil
}

func (r *consolidationRepoPG) ListByPerson(ctx context.Context, personRef string, limit, offset int) ([]*ConsolidatedRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM consolidations WHERE person_ref = $1`, personRef).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+consolidationCols+`
		FROM consolidations WHERE person_ref = $1
		ORDER BY consolidated_at DESC LIMIT $2 OFFSET $3`, personRef, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return r.collect(rows, total)
}

func (r *consolidationRepoPG) List(ctx context.Context, limit, offset int) ([]*ConsolidatedRecord, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM consolidations`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+consolidationCols+`
		FROM consolidations ORDER BY consolidated_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	return r.collect(rows, total)
}

func (r *consolidationRepoPG) collect(rows pgx.Rows, total int) ([]*ConsolidatedRecord, int, error) {
	defer rows.Close()
	var items []*ConsolidatedRecord
	for rows.Next() {
		rec, err := r.scanConsolidation(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, rec)
	}
	return items, total, rows.Err()
}

func (r *consolidationRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM consolidations WHERE id = $1`, id)
	return err
}
