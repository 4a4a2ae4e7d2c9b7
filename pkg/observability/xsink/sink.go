package xsink

import (
	"io"
	"os"
	"sync"

	"github.com/omeyang/telelog/pkg/observability/xrotate"
	"github.com/omeyang/telelog/pkg/util/xfile"
)

// Sink 日志记录的输出目标
//
// 实现必须并发安全。Write 的 p 是一条完整的已渲染记录（含换行），
// 调用方不会复用 p 之外的假设。
type Sink interface {
	io.Writer
	// Sync 将缓冲数据刷到底层存储
	Sync() error
	// Close 刷新并释放资源；重复 Close 返回 ErrClosed
	Close() error
}

// Discard 丢弃所有写入的 sink
var Discard Sink = discard{}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
func (discard) Sync() error                 { return nil }
func (discard) Close() error                { return nil }

// =============================================================================
// console
// =============================================================================

type consoleSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole 创建控制台 sink
//
// w 为 nil 时使用 os.Stdout。Close 只刷新不关闭 w，stdout/stderr 归进程所有。
func NewConsole(w io.Writer) Sink {
	if w == nil {
		w = os.Stdout
	}
	return &consoleSink{w: w}
}

func (s *consoleSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, err := s.w.Write(p)
	return n, wrap("console", "write", err)
}

func (s *consoleSink) Sync() error {
	if f, ok := s.w.(interface{ Sync() error }); ok {
		// 终端、管道上的 Sync 会返回 EINVAL 之类的错误，控制台刷新为尽力而为
		_ = f.Sync()
	}
	return nil
}

func (s *consoleSink) Close() error {
	return s.Sync()
}

// =============================================================================
// file
// =============================================================================

type fileSink struct {
	mu     sync.Mutex
	name   string
	f      *os.File
	closed bool
}

// NewFile 以追加模式打开 path 作为 sink，父目录不存在时自动创建
func NewFile(path string) (Sink, error) {
	safe, err := xfile.SanitizePath(path)
	if err != nil {
		return nil, err
	}
	if err := xfile.EnsureDir(safe); err != nil {
		return nil, err
	}
	//#nosec G302 G304 -- 日志路径来自调用方配置
	f, err := os.OpenFile(safe, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, wrap("file:"+safe, "open", err)
	}
	return &fileSink{name: "file:" + safe, f: f}, nil
}

func (s *fileSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, wrap(s.name, "write", ErrClosed)
	}
	n, err := s.f.Write(p)
	return n, wrap(s.name, "write", err)
}

func (s *fileSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return wrap(s.name, "sync", ErrClosed)
	}
	return wrap(s.name, "sync", s.f.Sync())
}

func (s *fileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return wrap(s.name, "close", ErrClosed)
	}
	s.closed = true
	return wrap(s.name, "close", s.f.Close())
}

// =============================================================================
// rotating
// =============================================================================

type rotatingSink struct {
	name string
	r    xrotate.Rotator
}

// NewRotating 创建轮转文件 sink
//
// maxBytes 为单文件上限（向上取整到 MB），maxFiles 为保留的历史文件数。
func NewRotating(path string, maxBytes int64, maxFiles int) (Sink, error) {
	r, err := xrotate.NewLumberjack(path,
		xrotate.WithMaxBytes(maxBytes),
		xrotate.WithMaxBackups(maxFiles),
	)
	if err != nil {
		return nil, err
	}
	return &rotatingSink{name: "rotating:" + path, r: r}, nil
}

func (s *rotatingSink) Write(p []byte) (int, error) {
	n, err := s.r.Write(p)
	return n, wrap(s.name, "write", err)
}

// Sync lumberjack 不做用户态缓冲，无需刷新
func (s *rotatingSink) Sync() error { return nil }

func (s *rotatingSink) Close() error {
	return wrap(s.name, "close", s.r.Close())
}
