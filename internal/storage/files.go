package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Store 上传文件存储：{base}/{uuid}/{filename}
// 按上传 UUID 建目录，删除 header 时整目录回收
type Store struct {
	baseDir string
	logger  *zap.Logger
}

func NewStore(baseDir string, logger *zap.Logger) *Store {
	return &Store{baseDir: baseDir, logger: logger}
}

// Save 写入上传内容，返回落盘路径
func (s *Store) Save(uuid, filename string, content []byte) (string, error) {
	dir := filepath.Join(s.baseDir, uuid)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	// filename 来自用户，去掉路径部分防止越界
	path := filepath.Join(dir, filepath.Base(filename))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write upload file: %w", err)
	}
	s.logger.Info("upload file saved", zap.String("path", path))
	return path, nil
}

// Remove 删除 UUID 目录（递归，尽力而为）
func (s *Store) Remove(uuid string) {
	if uuid == "" {
		return
	}
	dir := filepath.Join(s.baseDir, uuid)
	if err := os.RemoveAll(dir); err != nil {
		s.logger.Warn("failed to remove upload dir", zap.String("dir", dir), zap.Error(err))
		return
	}
	s.logger.Info("upload dir removed", zap.String("dir", dir))
}

// RemovePath 删除单个文件（兼容旧的 file_path 记录，尽力而为）
func (s *Store) RemovePath(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove file", zap.String("path", path), zap.Error(err))
	}
}
