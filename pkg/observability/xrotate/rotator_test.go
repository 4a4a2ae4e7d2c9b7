package xrotate

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLumberjack_Defaults(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "nested", "app.log")

	r, err := NewLumberjack(filename)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = r.Write([]byte("hello\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestNewLumberjack_Validation(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		opts     []Option
		wantErr  error
	}{
		{name: "空文件名", filename: "", wantErr: ErrEmptyFilename},
		{name: "大小为零", filename: "a.log", opts: []Option{WithMaxBytes(0)}, wantErr: ErrInvalidMaxSize},
		{name: "大小为负", filename: "a.log", opts: []Option{WithMaxBytes(-1)}, wantErr: ErrInvalidMaxSize},
		{name: "保留数为零", filename: "a.log", opts: []Option{WithMaxBackups(0)}, wantErr: ErrInvalidMaxBackups},
		{name: "保留数过大", filename: "a.log", opts: []Option{WithMaxBackups(maxBackupsLimit + 1)}, wantErr: ErrInvalidMaxBackups},
		{name: "天数为负", filename: "a.log", opts: []Option{WithMaxAge(-1)}, wantErr: ErrInvalidMaxAge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewLumberjack(tt.filename, tt.opts...)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, r)
		})
	}
}

func TestNewLumberjack_NilOptionIgnored(t *testing.T) {
	r, err := NewLumberjack(filepath.Join(t.TempDir(), "a.log"), nil, WithCompress(false), nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestMegabytesFor(t *testing.T) {
	assert.Equal(t, 1, MegabytesFor(0))
	assert.Equal(t, 1, MegabytesFor(1))
	assert.Equal(t, 1, MegabytesFor(megabyte))
	assert.Equal(t, 2, MegabytesFor(megabyte+1))
}

func TestRotator_Rotate(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "rot.log")

	r, err := NewLumberjack(filename, WithMaxBackups(3), WithLocalTime(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	_, err = r.Write([]byte("before\n"))
	require.NoError(t, err)
	require.NoError(t, r.Rotate())
	_, err = r.Write([]byte("after\n"))
	require.NoError(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backups int
	for _, e := range entries {
		if e.Name() != "rot.log" && strings.HasPrefix(e.Name(), "rot-") {
			backups++
		}
	}
	assert.Equal(t, 1, backups)

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, "after\n", string(data))
}

func TestRotator_Closed(t *testing.T) {
	r, err := NewLumberjack(filepath.Join(t.TempDir(), "c.log"))
	require.NoError(t, err)

	require.NoError(t, r.Close())
	assert.ErrorIs(t, r.Close(), ErrClosed)

	_, err = r.Write([]byte("x"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
}

func TestRotator_ConcurrentWrite(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "concurrent.log")
	r, err := NewLumberjack(filename)
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = r.Write([]byte("line\n"))
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Equal(t, 8*50, strings.Count(string(data), "line\n"))
}
