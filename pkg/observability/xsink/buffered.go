package xsink

import (
	"errors"
	"sync"
)

type bufferedSink struct {
	mu      sync.Mutex
	next    Sink
	size    int
	pending [][]byte
	closed  bool
}

// NewBuffered 创建批量写入的 sink
//
// 每累计 size 条记录整体写入 next；Sync、Close 时写出剩余记录。
// 进程异常退出时未刷新的记录会丢失。
func NewBuffered(next Sink, size int) (Sink, error) {
	if next == nil {
		return nil, ErrNilSink
	}
	if size <= 0 {
		return nil, ErrInvalidBufferSize
	}
	return &bufferedSink{
		next:    next,
		size:    size,
		pending: make([][]byte, 0, size),
	}, nil
}

func (s *bufferedSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, wrap("buffered", "write", ErrClosed)
	}
	// slog handler 会复用 p 的底层缓冲，必须拷贝
	s.pending = append(s.pending, append([]byte(nil), p...))
	if len(s.pending) >= s.size {
		if err := s.flushLocked(); err != nil {
			return len(p), err
		}
	}
	return len(p), nil
}

// flushLocked 按顺序写出缓冲记录；写失败的那条被丢弃，其后的记录保留到下次刷新
func (s *bufferedSink) flushLocked() error {
	for i, rec := range s.pending {
		if _, err := s.next.Write(rec); err != nil {
			s.pending = append(s.pending[:0], s.pending[i+1:]...)
			return wrap("buffered", "write", err)
		}
	}
	s.pending = s.pending[:0]
	return nil
}

func (s *bufferedSink) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return wrap("buffered", "sync", ErrClosed)
	}
	return errors.Join(s.flushLocked(), s.next.Sync())
}

func (s *bufferedSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return wrap("buffered", "close", ErrClosed)
	}
	s.closed = true
	return errors.Join(s.flushLocked(), s.next.Close())
}
