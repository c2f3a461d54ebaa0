package materials

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

const selectMaterials = `
	SELECT id, name, code, quantity, expiry_date
	FROM materials
`

// Repo реализация Repository поверх Postgres (pgxpool).
type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

var _ Repository = (*Repo)(nil)

/* Materials CRUD */

func (r *Repo) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM materials WHERE code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check code: %w", err)
	}
	return exists, nil
}

func (r *Repo) Insert(ctx context.Context, d Draft) (*Material, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO materials (name, code, quantity, expiry_date)
		VALUES ($1,$2,$3,$4::date)
		RETURNING id, name, code, quantity, expiry_date
	`, d.Name, d.Code, d.Quantity, d.ExpiryDate.Format(DateLayout))

	m, err := scanMaterial(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return nil, ErrDuplicateCode
		}
		return nil, fmt.Errorf("insert material: %w", err)
	}
	return m, nil
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Material, error) {
	row := r.pool.QueryRow(ctx, selectMaterials+` WHERE id = $1`, id)
	m, err := scanMaterial(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return m, nil
}

func (r *Repo) Update(ctx context.Context, id int64, c Changes) (*Material, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE materials SET name=$2, quantity=$3, expiry_date=$4::date
		WHERE id=$1
		RETURNING id, name, code, quantity, expiry_date
	`, id, c.Name, c.Quantity, c.ExpiryDate.Format(DateLayout))
	m, err := scanMaterial(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update material: %w", err)
	}
	return m, nil
}

func (r *Repo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM materials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List поиск по name/code без учёта регистра (OR) и фильтр по статусу (AND).
func (r *Repo) List(ctx context.Context, q Query) ([]Material, error) {
	var (
		where []string
		args  []any
	)
	if q.Search != "" {
		args = append(args, LikePattern(q.Search))
		n := len(args)
		where = append(where, fmt.Sprintf(`(name ILIKE $%d OR code ILIKE $%d)`, n, n))
	}
	switch q.Status {
	case StatusExpired:
		args = append(args, q.Today.Format(DateLayout))
		where = append(where, fmt.Sprintf(`expiry_date < $%d::date`, len(args)))
	case StatusActive:
		args = append(args, q.Today.Format(DateLayout))
		where = append(where, fmt.Sprintf(`expiry_date >= $%d::date`, len(args)))
	}

	sql := selectMaterials
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY id"

	return r.query(ctx, sql, args...)
}

func (r *Repo) CountExpiringBy(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM materials WHERE expiry_date <= $1::date`,
		cutoff.Format(DateLayout),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count near expiry: %w", err)
	}
	return n, nil
}

func (r *Repo) ListExpiringBy(ctx context.Context, cutoff time.Time) ([]Material, error) {
	return r.query(ctx,
		selectMaterials+` WHERE expiry_date <= $1::date ORDER BY id`,
		cutoff.Format(DateLayout),
	)
}

func (r *Repo) query(ctx context.Context, sql string, args ...any) ([]Material, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	defer rows.Close()

	var out []Material
	for rows.Next() {
		m, err := scanMaterial(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func scanMaterial(row pgx.Row) (*Material, error) {
	var m Material
	if err := row.Scan(&m.ID, &m.Name, &m.Code, &m.Quantity, &m.ExpiryDate); err != nil {
		return nil, err
	}
	m.ExpiryDate = DateOf(m.ExpiryDate)
	return &m, nil
}

// LikePattern экранирует метасимволы LIKE, чтобы искать строку как подстроку (ESCAPE '\').
func LikePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}
