package xlog_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omeyang/telelog/pkg/observability/xchart"
	"github.com/omeyang/telelog/pkg/observability/xlog"
	"github.com/omeyang/telelog/pkg/observability/xsink"
)

// testCleanup 在测试结束时执行 cleanup
func testCleanup(t testing.TB, cleanup func() error) {
	t.Helper()
	t.Cleanup(func() {
		if err := cleanup(); err != nil {
			t.Errorf("cleanup error: %v", err)
		}
	})
}

// newMemLogger 构建只写内存的 JSON logger；b 为 nil 时使用 xlog.New()
func newMemLogger(t testing.TB, b *xlog.Builder) (xlog.LoggerWithLevel, *xsink.Memory) {
	t.Helper()
	if b == nil {
		b = xlog.New()
	}
	mem := xsink.NewMemory()
	logger, cleanup, err := b.SetOutput(nil).SetFormat("json").AddSink(mem).Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)
	return logger, mem
}

// records 把内存 sink 中的每一行解析为 JSON 对象
func records(t testing.TB, mem *xsink.Memory) []map[string]any {
	t.Helper()
	lines := mem.Lines()
	out := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		out = append(out, rec)
	}
	return out
}

// failingSink 每次写入都失败
type failingSink struct{}

var errDiskFull = errors.New("disk full")

func (failingSink) Write([]byte) (int, error) { return 0, errDiskFull }
func (failingSink) Sync() error               { return nil }
func (failingSink) Close() error              { return nil }

// fakeRenderer 记录调用；err 非 nil 时渲染失败，否则把 markup 写到目标路径
type fakeRenderer struct {
	mu    sync.Mutex
	err   error
	paths []string
}

func (r *fakeRenderer) Render(_ context.Context, markup, path string, _ xchart.OutputFormat) error {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	return os.WriteFile(path, []byte(markup), 0o600)
}

func (r *fakeRenderer) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}
