package surveillance

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

type catalogRepoPG struct{ pool *pgxpool.Pool }

func NewCatalogRepoPG(pool *pgxpool.Pool) CatalogRepository {
	return &catalogRepoPG{pool: pool}
}

func (r *catalogRepoPG) conn(ctx context.Context) queryable { return r.pool }

func (r *catalogRepoPG) ListPrograms(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, name, description, specialist, diagnoses
		FROM sve_programs ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []CatalogEntry
	for rows.Next() {
		var (
			e   CatalogEntry
			raw []byte
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Specialist, &raw); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(raw, &e.Diagnoses); err != nil {
			return nil, fmt.Errorf("decode diagnoses for program %s: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *catalogRepoPG) UpsertProgram(ctx context.Context, entry *CatalogEntry) error {
	entry.ID = CanonicalProgramID(entry.ID)
	diagnoses, err := json.Marshal(entry.Diagnoses)
	if err != nil {
		return fmt.Errorf("encode diagnoses: %w", err)
	}
	_, err = r.conn(ctx).Exec(ctx, `
		INSERT INTO sve_programs (id, name, description, specialist, diagnoses)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description,
			specialist = EXCLUDED.specialist, diagnoses = EXCLUDED.diagnoses,
			updated_at = NOW()`,
		entry.ID, entry.Name, entry.Description, entry.Specialist, diagnoses)
	return err
}

func (r *catalogRepoPG) DeleteProgram(ctx context.Context, id string) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM sve_programs WHERE id = $1`, CanonicalProgramID(id))
	return err
}

type companyRepoPG struct{ pool *pgxpool.Pool }

func NewCompanyRepoPG(pool *pgxpool.Pool) CompanyRepository {
	return &companyRepoPG{pool: pool}
}

func (r *companyRepoPG) conn(ctx context.Context) queryable { return r.pool }

const companyCols = `id, name, enrolled_programs, created_at, updated_at`

func (r *companyRepoPG) scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(&c.ID, &c.Name, &c.EnrolledPrograms, &c.CreatedAt, &c.UpdatedAt)
	return &c, err
}

func (r *companyRepoPG) Create(ctx context.Context, c *Company) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO companies (id, name, enrolled_programs)
		VALUES ($1,$2,$3)`,
		c.ID, c.Name, c.EnrolledPrograms)
	return err
}

func (r *companyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Company, error) {
	return r.scanCompany(r.conn(ctx).QueryRow(ctx,
		`SELECT `+companyCols+` FROM companies WHERE id = $1`, id))
}

func (r *companyRepoPG) List(ctx context.Context, limit, offset int) ([]*Company, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM companies`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+companyCols+` FROM companies ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Company
	for rows.Next() {
		c, err := r.scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, c)
	}
	return items, total, rows.Err()
}

func (r *companyRepoPG) SetEnrolledPrograms(ctx context.Context, id uuid.UUID, programs []string) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE companies SET enrolled_programs = $2, updated_at = NOW() WHERE id = $1`,
		id, programs)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("company %s not found", id)
	}
	return nil
}

func (r *companyRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM companies WHERE id = $1`, id)
	return err
}
