package xfile

import (
	"fmt"
	"path/filepath"
	"strings"
)

// containsNullByte 检测路径是否包含空字节。
// Linux 内核在空字节处截断路径，会导致 Go 代码与操作系统看到的路径不一致。
func containsNullByte(path string) bool {
	return strings.ContainsRune(path, 0)
}

// hasDotDotSegment 检测路径中是否包含 ".." 作为独立路径段。
// 同时把 '/' 和 '\' 视为分隔符；"app..2024.log" 这类文件名不受影响。
func hasDotDotSegment(path string) bool {
	i := 0
	for i < len(path) {
		if path[i] == '/' || path[i] == '\\' {
			i++
			continue
		}
		j := i
		for j < len(path) && path[j] != '/' && path[j] != '\\' {
			j++
		}
		if j-i == 2 && path[i] == '.' && path[i+1] == '.' {
			return true
		}
		i = j
	}
	return false
}

// SanitizePath 对文件路径做格式检查并规范化
//
// 接受绝对路径与不含穿越的相对路径；拒绝空路径、空字节、
// 以分隔符结尾的目录路径，以及规范化后仍含 ".." 段的相对路径。
func SanitizePath(filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("filename is required: %w", ErrEmptyPath)
	}
	if containsNullByte(filename) {
		return "", fmt.Errorf("filename contains null byte: %w", ErrNullByte)
	}
	// 必须在 filepath.Clean 之前检查，Clean 会去掉尾部分隔符
	if strings.HasSuffix(filename, "/") || strings.HasSuffix(filename, "\\") {
		return "", fmt.Errorf("path %q is a directory: %w", filename, ErrInvalidPath)
	}

	cleaned := filepath.Clean(filename)
	if hasDotDotSegment(cleaned) {
		return "", fmt.Errorf("path traversal in %q: %w", filename, ErrPathTraversal)
	}

	base := filepath.Base(cleaned)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("no file name in %q: %w", filename, ErrInvalidPath)
	}
	return cleaned, nil
}

// SiblingPath 返回与 path 同目录、同主名但扩展名为 ext 的路径
//
// ext 需带前导点（如 ".mmd"）。path 的原扩展名会被替换：
//
//	SiblingPath("charts/flow.svg", ".mmd") // "charts/flow.mmd"
//	SiblingPath("charts/flow", ".mmd")     // "charts/flow.mmd"
func SiblingPath(path, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}

// JoinName 将单个文件名拼接到 dir 下
//
// name 不能为空，不能包含路径分隔符或空字节，也不能是 "." 或 ".."，
// 保证结果始终位于 dir 内。
func JoinName(dir, name string) (string, error) {
	if dir == "" || name == "" {
		return "", fmt.Errorf("dir and name are required: %w", ErrEmptyPath)
	}
	if containsNullByte(dir) || containsNullByte(name) {
		return "", fmt.Errorf("path contains null byte: %w", ErrNullByte)
	}
	if strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("name %q contains a separator: %w", name, ErrInvalidPath)
	}
	if name == "." || name == ".." {
		return "", fmt.Errorf("name %q: %w", name, ErrPathTraversal)
	}
	return filepath.Join(filepath.Clean(dir), name), nil
}
