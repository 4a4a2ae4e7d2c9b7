package xfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{name: "相对路径", input: "logs/app.log", want: filepath.Clean("logs/app.log")},
		{name: "冗余分隔符", input: "logs//./app.log", want: filepath.Clean("logs/app.log")},
		{name: "绝对路径", input: "/var/log/app.log", want: "/var/log/app.log"},
		{name: "合法的双点文件名", input: "app..2024.log", want: "app..2024.log"},
		{name: "空路径", input: "", wantErr: ErrEmptyPath},
		{name: "空字节", input: "app\x00.log", wantErr: ErrNullByte},
		{name: "目录路径", input: "logs/", wantErr: ErrInvalidPath},
		{name: "相对穿越", input: "../etc/passwd", wantErr: ErrPathTraversal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.input)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSiblingPath(t *testing.T) {
	assert.Equal(t, "charts/flow.mmd", SiblingPath("charts/flow.svg", ".mmd"))
	assert.Equal(t, "charts/flow.mmd", SiblingPath("charts/flow", ".mmd"))
	assert.Equal(t, "charts/flow.mmd", SiblingPath("charts/flow", "mmd"))
}

func TestJoinName(t *testing.T) {
	got, err := JoinName("/tmp/charts", "app_gantt.mmd")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/tmp/charts", "app_gantt.mmd"), got)

	_, err = JoinName("/tmp/charts", "../x")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = JoinName("/tmp/charts", "..")
	assert.ErrorIs(t, err, ErrPathTraversal)

	_, err = JoinName("", "x")
	assert.ErrorIs(t, err, ErrEmptyPath)
}

func TestEnsureDirAndWriteFile(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "a", "b", "out.mmd")

	written, err := WriteFile(target, []byte("flowchart TD\n"))
	require.NoError(t, err)
	assert.Equal(t, target, written)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "flowchart TD\n", string(data))

	// 目录已存在时不报错
	require.NoError(t, EnsureDir(target))
	// 无目录部分时直接返回
	require.NoError(t, EnsureDir("plain.log"))
	assert.ErrorIs(t, EnsureDir(""), ErrEmptyPath)
}
