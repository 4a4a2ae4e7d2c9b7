package xcomponent

import (
	"strconv"
	"time"
)

// Status 节点状态
type Status uint8

const (
	// StatusActive 节点仍在运行
	StatusActive Status = iota
	// StatusCompleted 节点已结束，不可重新打开
	StatusCompleted
)

// String 返回状态名称
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusCompleted:
		return "completed"
	default:
		return "Status(" + strconv.Itoa(int(s)) + ")"
	}
}

// ChainID 调用链标识
type ChainID struct {
	// ID goroutine ID 或显式链 ID
	ID uint64
	// Explicit 为 true 表示来自 NewChain 的显式链
	Explicit bool
}

// String 返回 "g<id>"（goroutine）或 "c<id>"（显式链）
func (c ChainID) String() string {
	if c.Explicit {
		return "c" + strconv.FormatUint(c.ID, 10)
	}
	return "g" + strconv.FormatUint(c.ID, 10)
}

// Node 组件节点快照
//
// Node 是值类型，Tracker 返回的都是副本；Metadata 在发布后不再修改，可安全共享读取。
type Node struct {
	// ID 单调递增，从 1 开始
	ID uint64
	// Name 显示名称，不要求唯一
	Name string
	// ParentID 父节点 ID，0 表示根节点
	ParentID uint64
	// Start 创建时间
	Start time.Time
	// End 结束时间，活跃节点为零值
	End time.Time
	// Chain 创建该节点的调用链
	Chain ChainID
	// Seq 在同一父节点下的创建序号，从 0 开始
	Seq int
	// Metadata 通过 Guard.Annotate 附加的信息（如 "memory"）
	Metadata map[string]string
}

// IsRoot 是否为根节点
func (n Node) IsRoot() bool {
	return n.ParentID == 0
}

// Completed 是否已结束
func (n Node) Completed() bool {
	return !n.End.IsZero()
}

// Status 返回节点状态
func (n Node) Status() Status {
	if n.Completed() {
		return StatusCompleted
	}
	return StatusActive
}

// Duration 返回已结束节点的耗时，活跃节点返回 0
func (n Node) Duration() time.Duration {
	if !n.Completed() {
		return 0
	}
	return n.End.Sub(n.Start)
}
