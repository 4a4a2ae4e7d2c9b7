package xsink

import (
	"strings"
	"sync"
)

// Memory 内存 sink，按写入顺序保存每条记录
type Memory struct {
	mu     sync.Mutex
	lines  []string
	writes int
}

// NewMemory 创建内存 sink
func NewMemory() *Memory {
	return &Memory{}
}

// Write 保存一条记录（去掉末尾换行）
func (m *Memory) Write(p []byte) (int, error) {
	m.mu.Lock()
	m.lines = append(m.lines, strings.TrimSuffix(string(p), "\n"))
	m.writes++
	m.mu.Unlock()
	return len(p), nil
}

// Sync 无操作
func (m *Memory) Sync() error { return nil }

// Close 无操作，Close 后仍可读取
func (m *Memory) Close() error { return nil }

// Lines 返回已写入记录的副本
func (m *Memory) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.lines))
	copy(out, m.lines)
	return out
}

// Writes 返回 Write 被调用的次数
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// String 返回全部记录，以换行分隔
func (m *Memory) String() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.lines) == 0 {
		return ""
	}
	return strings.Join(m.lines, "\n") + "\n"
}

// Reset 清空已保存的记录
func (m *Memory) Reset() {
	m.mu.Lock()
	m.lines = nil
	m.writes = 0
	m.mu.Unlock()
}
