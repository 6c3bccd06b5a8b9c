package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// HeadersRepo 全局 iolist_headers 表
type HeadersRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewHeadersRepo(db *sql.DB, logger *zap.Logger) *HeadersRepo {
	return &HeadersRepo{db: db, logger: logger}
}

// EnsureGlobalTables 启动时建全局表（幂等）
func EnsureGlobalTables(ctx context.Context, db *sql.DB) error {
	ddl := `
		CREATE TABLE IF NOT EXISTS iolist_headers (
			id         BIGSERIAL PRIMARY KEY,
			uuid       VARCHAR(36)  NOT NULL UNIQUE,
			hull_no    VARCHAR(50)  NOT NULL,
			imo        VARCHAR(20)  NOT NULL,
			date_key   VARCHAR(20)  NOT NULL,
			file_name  VARCHAR(255) NOT NULL,
			file_path  VARCHAR(500) NOT NULL,
			created_at TIMESTAMPTZ  NOT NULL DEFAULT now(),
			updated_at TIMESTAMPTZ  NOT NULL DEFAULT now()
		)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create iolist_headers: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_hull_imo_date ON iolist_headers (hull_no, imo, date_key)`); err != nil {
		return fmt.Errorf("create iolist_headers index: %w", err)
	}
	return nil
}

const headerColumns = `id, uuid, hull_no, imo, date_key, file_name, file_path, created_at, updated_at`

func scanHeader(row interface{ Scan(...any) error }) (*domain.IOListHeader, error) {
	var h domain.IOListHeader
	err := row.Scan(&h.ID, &h.UUID, &h.HullNo, &h.IMO, &h.DateKey,
		&h.FileName, &h.FilePath, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Create 插入 header 并回填 id 和时间戳
func (r *HeadersRepo) Create(ctx context.Context, h *domain.IOListHeader) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO iolist_headers (uuid, hull_no, imo, date_key, file_name, file_path)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`,
		h.UUID, h.HullNo, h.IMO, h.DateKey, h.FileName, h.FilePath,
	).Scan(&h.ID, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert header: %w", err)
	}
	return nil
}

// HeaderFilters 列表过滤条件
type HeaderFilters struct {
	HullNo  string
	IMO     string
	DateKey string
	Skip    int
	Limit   int
}

// List 按过滤条件查 header，created_at 倒序
func (r *HeadersRepo) List(ctx context.Context, f HeaderFilters) ([]domain.IOListHeader, error) {
	where := []string{"TRUE"}
	args := []any{}
	argN := 1
	if f.HullNo != "" {
		where = append(where, fmt.Sprintf("hull_no = $%d", argN))
		args = append(args, f.HullNo)
		argN++
	}
	if f.IMO != "" {
		where = append(where, fmt.Sprintf("imo = $%d", argN))
		args = append(args, f.IMO)
		argN++
	}
	if f.DateKey != "" {
		where = append(where, fmt.Sprintf("date_key = $%d", argN))
		args = append(args, f.DateKey)
		argN++
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, f.Skip)

	q := `SELECT ` + headerColumns + ` FROM iolist_headers
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC
		LIMIT $` + fmt.Sprintf("%d", argN) + ` OFFSET $` + fmt.Sprintf("%d", argN+1)

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list headers: %w", err)
	}
	defer rows.Close()

	out := []domain.IOListHeader{}
	for rows.Next() {
		h, err := scanHeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *h)
	}
	return out, rows.Err()
}

// Get 按 id 查 header；不存在返回 domain.ErrNotFound
func (r *HeadersRepo) Get(ctx context.Context, id int64) (*domain.IOListHeader, error) {
	h, err := scanHeader(r.db.QueryRowContext(ctx,
		`SELECT `+headerColumns+` FROM iolist_headers WHERE id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get header %d: %w", id, err)
	}
	return h, nil
}

// ListAll 所有 header（item 跨表定位时用）
func (r *HeadersRepo) ListAll(ctx context.Context) ([]domain.IOListHeader, error) {
	return r.List(ctx, HeaderFilters{Limit: 1000})
}

// Delete 删除 header 行；返回是否真的删了
func (r *HeadersRepo) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM iolist_headers WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("delete header %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Filters 可用的过滤选项（去重后的 hull_no / imo / date_key 列表）
type Filters struct {
	HullNos  []string `json:"hull_nos"`
	IMOs     []string `json:"imos"`
	DateKeys []string `json:"date_keys"`
}

// DistinctFilters 查询去重后的过滤选项
func (r *HeadersRepo) DistinctFilters(ctx context.Context) (*Filters, error) {
	f := &Filters{HullNos: []string{}, IMOs: []string{}, DateKeys: []string{}}

	collect := func(q string, dst *[]string) error {
		rows, err := r.db.QueryContext(ctx, q)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				return err
			}
			*dst = append(*dst, v)
		}
		return rows.Err()
	}

	if err := collect(`SELECT DISTINCT hull_no FROM iolist_headers ORDER BY hull_no`, &f.HullNos); err != nil {
		return nil, fmt.Errorf("distinct hull_no: %w", err)
	}
	if err := collect(`SELECT DISTINCT imo FROM iolist_headers ORDER BY imo`, &f.IMOs); err != nil {
		return nil, fmt.Errorf("distinct imo: %w", err)
	}
	if err := collect(`SELECT DISTINCT date_key FROM iolist_headers ORDER BY date_key DESC`, &f.DateKeys); err != nil {
		return nil, fmt.Errorf("distinct date_key: %w", err)
	}
	return f, nil
}
