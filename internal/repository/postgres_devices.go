package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/yooh1982/HS4v2/internal/domain"
)

// DevicesRepo hull_no schema 内共享的 device 表
type DevicesRepo struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewDevicesRepo(db *sql.DB, logger *zap.Logger) *DevicesRepo {
	return &DevicesRepo{db: db, logger: logger}
}

func deviceTableRef(hullNo string) string {
	return fmt.Sprintf("%q.%s", SanitizeIdentifier(hullNo), DeviceTableName)
}

const deviceColumns = `id, device_name, protocol, created_at, updated_at`

func scanDevice(row interface{ Scan(...any) error }) (*domain.Device, error) {
	var d domain.Device
	var protocol string
	if err := row.Scan(&d.ID, &d.DeviceName, &protocol, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Protocol = domain.Protocol(protocol)
	return &d, nil
}

// List 按 id 顺序返回全部 device
func (r *DevicesRepo) List(ctx context.Context, hullNo string) ([]domain.Device, error) {
	q := fmt.Sprintf(`SELECT %s FROM %s ORDER BY id`, deviceColumns, deviceTableRef(hullNo))
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list devices: %w", err)
	}
	defer rows.Close()

	out := []domain.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

// ExistsByName device_name 是否已存在（excludeID > 0 时排除自身，用于改名检查）
// 注意：先查后插不是事务隔离的，同名并发插入可能双双通过检查；这是已知竞争，
// 依赖调用方重试或索引约束兜底，不在这里做分布式锁
func (r *DevicesRepo) ExistsByName(ctx context.Context, hullNo, name string, excludeID int64) (bool, error) {
	q := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE device_name = $1 AND id <> $2)`,
		deviceTableRef(hullNo))
	var exists bool
	if err := r.db.QueryRowContext(ctx, q, name, excludeID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check device %s: %w", name, err)
	}
	return exists, nil
}

// Insert 插入 device 并回填 id 和时间戳
func (r *DevicesRepo) Insert(ctx context.Context, hullNo, name string, protocol domain.Protocol) (*domain.Device, error) {
	q := fmt.Sprintf(`
		INSERT INTO %s (device_name, protocol, created_at, updated_at)
		VALUES ($1, $2, now(), now())
		RETURNING %s`, deviceTableRef(hullNo), deviceColumns)
	d, err := scanDevice(r.db.QueryRowContext(ctx, q, name, string(protocol)))
	if err != nil {
		return nil, fmt.Errorf("insert device %s: %w", name, err)
	}
	return d, nil
}

// Update 修改 device 名称/协议（nil 表示不改）；返回更新后的行
func (r *DevicesRepo) Update(ctx context.Context, hullNo string, id int64, name *string, protocol *domain.Protocol) (*domain.Device, error) {
	set := ""
	args := []any{}
	argN := 1
	if name != nil {
		set += fmt.Sprintf("device_name = $%d", argN)
		args = append(args, *name)
		argN++
	}
	if protocol != nil {
		if set != "" {
			set += ", "
		}
		set += fmt.Sprintf("protocol = $%d", argN)
		args = append(args, string(*protocol))
		argN++
	}
	if set == "" {
		return nil, domain.NewValidationError("nothing to update")
	}
	args = append(args, id)

	q := fmt.Sprintf(`UPDATE %s SET %s, updated_at = now() WHERE id = $%d RETURNING %s`,
		deviceTableRef(hullNo), set, argN, deviceColumns)
	d, err := scanDevice(r.db.QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update device %d: %w", id, err)
	}
	return d, nil
}

// Delete 删除 device；返回是否命中
func (r *DevicesRepo) Delete(ctx context.Context, hullNo string, id int64) (bool, error) {
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, deviceTableRef(hullNo))
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return false, fmt.Errorf("delete device %d: %w", id, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
