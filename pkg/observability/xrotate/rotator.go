package xrotate

import "io"

var _ io.WriteCloser = (Rotator)(nil)

// Rotator 日志轮转器
//
// 约定：
//   - Write 并发安全，达到大小上限时自动轮转
//   - Close 后调用 Write 或 Rotate 返回 [ErrClosed]，重复 Close 也返回 [ErrClosed]
//   - Rotate 可在任意时刻调用
type Rotator interface {
	Write(p []byte) (n int, err error)
	Close() error
	Rotate() error
}
