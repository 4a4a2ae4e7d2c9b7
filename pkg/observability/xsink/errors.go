package xsink

import (
	"errors"
	"fmt"
)

var (
	// ErrClosed sink 已关闭
	ErrClosed = errors.New("xsink: sink is closed")

	// ErrInvalidBufferSize 缓冲条数必须大于 0
	ErrInvalidBufferSize = errors.New("xsink: buffer size must be positive")

	// ErrNilSink 下游 sink 为 nil
	ErrNilSink = errors.New("xsink: nil sink")
)

// SinkError 写入 sink 失败
type SinkError struct {
	// Sink sink 名称（console、file:<path>、rotating:<path>、buffered、memory）
	Sink string
	// Op 失败的操作（write、sync、close）
	Op  string
	Err error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("xsink: %s %s: %v", e.Sink, e.Op, e.Err)
}

// Unwrap 支持 errors.Is / errors.As
func (e *SinkError) Unwrap() error {
	return e.Err
}

func wrap(sink, op string, err error) error {
	if err == nil {
		return nil
	}
	var se *SinkError
	if errors.As(err, &se) {
		return err
	}
	return &SinkError{Sink: sink, Op: op, Err: err}
}
