package xrotate

import (
	"fmt"
	"sync/atomic"

	"github.com/omeyang/telelog/pkg/util/xfile"

	"gopkg.in/natefinch/lumberjack.v2"
)

// 默认配置
const (
	// DefaultMaxBytes 默认单文件上限（100MB）
	DefaultMaxBytes int64 = 100 * megabyte

	// DefaultMaxBackups 默认保留的历史文件数
	DefaultMaxBackups = 5

	// DefaultMaxAgeDays 默认不按天数清理
	DefaultMaxAgeDays = 0

	megabyte int64 = 1024 * 1024

	maxBytesLimit   = 10240 * megabyte
	maxBackupsLimit = 1024
	maxAgeLimit     = 3650
)

type lumberjackConfig struct {
	maxBytes   int64
	maxBackups int
	maxAgeDays int
	compress   bool
	localTime  bool
}

// Option 轮转器配置选项
type Option func(*lumberjackConfig)

// WithMaxBytes 设置单个文件的大小上限（字节），超过后轮转
func WithMaxBytes(n int64) Option {
	return func(c *lumberjackConfig) {
		c.maxBytes = n
	}
}

// WithMaxBackups 设置保留的历史文件数，超出时删除最旧的文件
func WithMaxBackups(n int) Option {
	return func(c *lumberjackConfig) {
		c.maxBackups = n
	}
}

// WithMaxAge 设置历史文件保留天数，0 表示不按天数清理
func WithMaxAge(days int) Option {
	return func(c *lumberjackConfig) {
		c.maxAgeDays = days
	}
}

// WithCompress 设置是否 gzip 压缩历史文件
func WithCompress(compress bool) Option {
	return func(c *lumberjackConfig) {
		c.compress = compress
	}
}

// WithLocalTime 设置历史文件名中的时间是否使用本地时区
func WithLocalTime(local bool) Option {
	return func(c *lumberjackConfig) {
		c.localTime = local
	}
}

type lumberjackRotator struct {
	logger *lumberjack.Logger
	closed atomic.Bool
}

// NewLumberjack 创建基于 lumberjack 的轮转器
//
// filename 会经过 [xfile.SanitizePath] 规范化，父目录不存在时自动创建。
func NewLumberjack(filename string, opts ...Option) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := lumberjackConfig{
		maxBytes:   DefaultMaxBytes,
		maxBackups: DefaultMaxBackups,
		maxAgeDays: DefaultMaxAgeDays,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	safePath, err := xfile.SanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safePath); err != nil {
		return nil, err
	}

	return &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   safePath,
			MaxSize:    MegabytesFor(cfg.maxBytes),
			MaxBackups: cfg.maxBackups,
			MaxAge:     cfg.maxAgeDays,
			Compress:   cfg.compress,
			LocalTime:  cfg.localTime,
		},
	}, nil
}

// MegabytesFor 将字节数向上取整为 lumberjack 使用的 MB 数，最小为 1
func MegabytesFor(n int64) int {
	if n <= 0 {
		return 1
	}
	mb := (n + megabyte - 1) / megabyte
	return int(mb)
}

func validate(cfg *lumberjackConfig) error {
	if cfg.maxBytes <= 0 || cfg.maxBytes > maxBytesLimit {
		return fmt.Errorf("%w: got %d bytes, want 1~%d", ErrInvalidMaxSize, cfg.maxBytes, maxBytesLimit)
	}
	// lumberjack 中 MaxBackups=0 表示全部保留，与“保留文件数”语义冲突，故要求至少 1
	if cfg.maxBackups < 1 || cfg.maxBackups > maxBackupsLimit {
		return fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxBackups, cfg.maxBackups, maxBackupsLimit)
	}
	if cfg.maxAgeDays < 0 || cfg.maxAgeDays > maxAgeLimit {
		return fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, cfg.maxAgeDays, maxAgeLimit)
	}
	return nil
}

// Write 实现 io.Writer
func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err != nil && r.closed.Load() {
		// Write 与 Close 并发时，调用方总是得到 ErrClosed 而非底层 I/O 错误
		return n, ErrClosed
	}
	return n, err
}

// Close 关闭当前文件；重复调用返回 ErrClosed
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

// Rotate 手动触发轮转
func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		if r.closed.Load() {
			return ErrClosed
		}
		return err
	}
	return nil
}
