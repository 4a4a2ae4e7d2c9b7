package xfile

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultDirPerm 默认目录权限（所有者 rwx，组 r-x，其他无权限）
const DefaultDirPerm = 0750

// DefaultFilePerm WriteFile 创建文件使用的权限
const DefaultFilePerm = 0644

// EnsureDir 确保文件的父目录存在，已存在时不报错
//
// 底层使用 os.MkdirAll，会跟随符号链接。不可信输入应先经 [SanitizePath]。
func EnsureDir(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	return os.MkdirAll(dir, DefaultDirPerm)
}

// WriteFile 规范化 filename，创建父目录后整体写入 data
//
// 返回实际写入的（规范化后的）路径。
func WriteFile(filename string, data []byte) (string, error) {
	safe, err := SanitizePath(filename)
	if err != nil {
		return "", err
	}
	if err := EnsureDir(safe); err != nil {
		return "", err
	}
	//#nosec G306 -- 图表与日志文件需要可被其他工具读取
	if err := os.WriteFile(safe, data, DefaultFilePerm); err != nil {
		return "", err
	}
	return safe, nil
}
