package xchart

import (
	"errors"
	"fmt"
)

var (
	// ErrDanglingParent 节点声明的父节点不在快照中
	ErrDanglingParent = errors.New("xchart: dangling parent reference")
	// ErrDuplicateID 快照中出现重复的节点 ID
	ErrDuplicateID = errors.New("xchart: duplicate node id")
	// ErrCycle 父子关系成环
	ErrCycle = errors.New("xchart: parent cycle")
	// ErrMissingStart 图表需要的开始时间缺失
	ErrMissingStart = errors.New("xchart: node has no start time")
	// ErrUnknownChartType 不支持的图表类型
	ErrUnknownChartType = errors.New("xchart: unknown chart type")
	// ErrWriteFailed 图表及其 .mmd 退回文件都无法写入
	ErrWriteFailed = errors.New("xchart: write failed")
	// ErrRendererUnavailable 外部渲染器不可用
	ErrRendererUnavailable = errors.New("xchart: renderer unavailable")
)

// RenderError 图表生成或保存失败
type RenderError struct {
	// Op 失败的操作（"generate"、"save"）
	Op string
	// NodeID 出问题的节点，0 表示与具体节点无关
	NodeID uint64
	Err    error
}

func (e *RenderError) Error() string {
	if e.NodeID != 0 {
		return fmt.Sprintf("xchart: %s node %d: %v", e.Op, e.NodeID, e.Err)
	}
	return fmt.Sprintf("xchart: %s: %v", e.Op, e.Err)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}
