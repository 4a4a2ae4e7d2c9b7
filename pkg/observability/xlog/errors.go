package xlog

import (
	"errors"
	"fmt"
)

// 配置错误
var (
	// ErrUnknownLevel 无法识别的级别名称
	ErrUnknownLevel = errors.New("xlog: unknown level")

	// ErrUnknownFormat 无法识别的输出格式
	ErrUnknownFormat = errors.New("xlog: unknown format")

	// ErrEmptyName logger 名称为空
	ErrEmptyName = errors.New("xlog: empty logger name")

	// ErrMissingFile 需要文件路径但未配置
	ErrMissingFile = errors.New("xlog: file path required")

	// ErrInvalidRotation 轮转大小或保留数不是正数
	ErrInvalidRotation = errors.New("xlog: rotation size and file count must be positive")

	// ErrInvalidBufferSize 缓冲条数不是正数
	ErrInvalidBufferSize = errors.New("xlog: buffer size must be positive")

	// ErrMissingChartDir 开启自动图表但未配置输出目录
	ErrMissingChartDir = errors.New("xlog: chart output directory required")
)

// ConfigError 配置错误，Field 为出错字段在配置文件中的 key
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("xlog: invalid config %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
