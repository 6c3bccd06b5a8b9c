package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"
)

// SanitizeIdentifier 把 hull_no / date_key 转成可以安全拼进 DDL 的标识符
// 白名单只允许字母、数字、下划线，其余字符一律替换为 "_"
// （hull_no 来自外部输入，不能直接进 SQL）
func SanitizeIdentifier(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// IOListTableName 每次上传一张表：iolist_{date_key}
func IOListTableName(dateKey string) string {
	return "iolist_" + SanitizeIdentifier(dateKey)
}

// DeviceTableName hull_no schema 内共享的 device 表
const DeviceTableName = "device"

// Namespaces hull_no -> PostgreSQL schema 的命名空间注册表
// 所有建表都是 IF NOT EXISTS，同一船的并发首次上传可以安全竞争建表
type Namespaces struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewNamespaces(db *sql.DB, logger *zap.Logger) *Namespaces {
	return &Namespaces{db: db, logger: logger}
}

// SchemaName hull_no 对应的 schema 名
func (n *Namespaces) SchemaName(hullNo string) string {
	return SanitizeIdentifier(hullNo)
}

// EnsureSchema 确保 hull_no 的 schema 存在（幂等）
func (n *Namespaces) EnsureSchema(ctx context.Context, hullNo string) error {
	schema := n.SchemaName(hullNo)
	if _, err := n.db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	n.logger.Info("schema ensured", zap.String("schema", schema))
	return nil
}

// EnsureDeviceTable 确保 hull_no schema 内的 device 表存在（幂等）
func (n *Namespaces) EnsureDeviceTable(ctx context.Context, hullNo string) error {
	if err := n.EnsureSchema(ctx, hullNo); err != nil {
		return err
	}
	schema := n.SchemaName(hullNo)
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q.%s (
			id          BIGSERIAL PRIMARY KEY,
			device_name VARCHAR(100) NOT NULL,
			protocol    VARCHAR(20)  NOT NULL DEFAULT 'MQTT',
			created_at  TIMESTAMPTZ  NOT NULL,
			updated_at  TIMESTAMPTZ  NOT NULL
		)`, schema, DeviceTableName)
	if _, err := n.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create device table in %s: %w", schema, err)
	}
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_device_name ON %q.%s (device_name)`,
		schema, DeviceTableName)
	if _, err := n.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("create device index in %s: %w", schema, err)
	}
	n.logger.Info("device table ensured", zap.String("schema", schema))
	return nil
}

// EnsureIOListTable 确保上传对应的 iolist_{date_key} 表存在（幂等），返回表名
func (n *Namespaces) EnsureIOListTable(ctx context.Context, hullNo, dateKey string) (string, error) {
	if err := n.EnsureSchema(ctx, hullNo); err != nil {
		return "", err
	}
	schema := n.SchemaName(hullNo)
	table := IOListTableName(dateKey)
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %q.%q (
			id          BIGSERIAL PRIMARY KEY,
			raw_data    TEXT NOT NULL,
			io_no       VARCHAR(50),
			io_name     VARCHAR(255),
			io_type     VARCHAR(50),
			description TEXT,
			remarks     TEXT,
			created_at  TIMESTAMPTZ NOT NULL,
			updated_at  TIMESTAMPTZ NOT NULL
		)`, schema, table)
	if _, err := n.db.ExecContext(ctx, ddl); err != nil {
		return "", fmt.Errorf("create iolist table %s.%s: %w", schema, table, err)
	}
	idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_io_no ON %q.%q (io_no)`, table, schema, table)
	if _, err := n.db.ExecContext(ctx, idx); err != nil {
		return "", fmt.Errorf("create iolist index %s.%s: %w", schema, table, err)
	}
	n.logger.Info("iolist table ensured",
		zap.String("schema", schema), zap.String("table", table))
	return table, nil
}

// TableExists information_schema 查表是否存在
func (n *Namespaces) TableExists(ctx context.Context, hullNo, table string) (bool, error) {
	schema := n.SchemaName(hullNo)
	var exists bool
	err := n.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = $1 AND table_name = $2
		)`, schema, table).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check table %s.%s: %w", schema, table, err)
	}
	return exists, nil
}

// DropIOListTable 删除上传对应的表（header 删除时级联调用）
func (n *Namespaces) DropIOListTable(ctx context.Context, hullNo, dateKey string) error {
	schema := n.SchemaName(hullNo)
	table := IOListTableName(dateKey)
	if _, err := n.db.ExecContext(ctx,
		fmt.Sprintf(`DROP TABLE IF EXISTS %q.%q CASCADE`, schema, table)); err != nil {
		return fmt.Errorf("drop table %s.%s: %w", schema, table, err)
	}
	n.logger.Info("iolist table dropped",
		zap.String("schema", schema), zap.String("table", table))
	return nil
}
