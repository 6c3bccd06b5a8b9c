package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// ItemsRepo 按 (hull_no, date_key) 定位的 iolist 行存储
// 每条语句用一个短连接，不跨请求持有事务
type ItemsRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewItemsRepo(db *sql.DB, logger *zap.Logger) *ItemsRepo {
	return &ItemsRepo{db: db, logger: logger}
}

func itemTableRef(hullNo, dateKey string) string {
	return fmt.Sprintf("%q.%q", SanitizeIdentifier(hullNo), IOListTableName(dateKey))
}

const itemColumns = `id, raw_data, io_no, io_name, io_type, description, remarks, created_at, updated_at`

func scanItem(row interface{ Scan(...any) error }) (*domain.IOListItem, error) {
	var it domain.IOListItem
	var ioNo, ioName, ioType, description, remarks sql.NullString
	err := row.Scan(&it.ID, &it.RawData, &ioNo, &ioName, &ioType,
		&description, &remarks, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	it.IONo = ioNo.String
	it.IOName = ioName.String
	it.IOType = ioType.String
	it.Description = description.String
	it.Remarks = remarks.String
	return &it, nil
}

// Insert 插入一行并回填 id 和时间戳
func (r *ItemsRepo) Insert(ctx context.Context, hullNo, dateKey string, it *domain.IOListItem) error {
	q := fmt.Sprintf(`
		INSERT INTO %s (raw_data, io_no, io_name, io_type, description, remarks, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		RETURNING id, created_at, updated_at`, itemTableRef(hullNo, dateKey))
	err := r.db.QueryRowContext(ctx, q,
		it.RawData, it.IONo, it.IOName, it.IOType, it.Description, it.Remarks,
	).Scan(&it.ID, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// List 按 id 顺序返回上传的全部行
func (r *ItemsRepo) List(ctx context.Context, hullNo, dateKey string) ([]domain.IOListItem, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, itemColumns, itemTableRef(hullNo, dateKey))
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := []domain.IOListItem{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *it)
	}
	return out, rows.Err()
}

// Get 按 id 查一行；不存在返回 domain.ErrNotFound
func (r *ItemsRepo) Get(ctx context.Context, hullNo, dateKey string, id int64) (*domain.IOListItem, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s WHERE id = $1`, itemColumns, itemTableRef(hullNo, dateKey))
	it, err := scanItem(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item %d: %w", id, err)
	}
	return it, nil
}

// Update 整体替换 raw_data 和派生字段；返回是否命中
func (r *ItemsRepo) Update(ctx context.Context, hullNo, dateKey string, it *domain.IOListItem) (bool, error) {
	q := fmt.Sprintf(`
		UPDATE %s
		SET raw_data = $1, io_no = $2, io_name = $3, io_type = $4,
		    description = $5, remarks = $6, updated_at = now()
		WHERE id = $7`, itemTableRef(hullNo, dateKey))
	res, err := r.db.ExecContext(ctx, q,
		it.RawData, it.IONo, it.IOName, it.IOType, it.Description, it.Remarks, it.ID)
	if err != nil {
		return false, fmt.Errorf("update item %d: %w", it.ID, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Delete 删除一行；返回是否命中
func (r *ItemsRepo) Delete(ctx context.Context, hullNo, dateKey string, id int64) (bool, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, itemTableRef(hullNo, dateKey))
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("delete item %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Count 上传的行数（header 列表要显示 item_count）
func (r *ItemsRepo) Count(ctx context.Context, hullNo, dateKey string) (int, error) {
	var n int
	q := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, itemTableRef(hullNo, dateKey))
	if err := r.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}
