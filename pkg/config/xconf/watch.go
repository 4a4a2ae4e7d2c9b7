package xconf

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 默认防抖时间
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 每次重载后调用，err 非 nil 表示重载失败（旧配置仍然有效）
// 或监视出错。回调在内部 goroutine 中执行。
type WatchCallback func(src *Source, err error)

// WatchOption 监视器配置选项
type WatchOption func(*Watcher)

// WithDebounce 设置防抖时间，非正数被忽略
func WithDebounce(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// Watcher 配置文件监视器
type Watcher struct {
	src      *Source
	fs       *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	started bool
	stopped bool
	done    chan struct{}
	wg      sync.WaitGroup
}

// Watch 创建配置文件监视器，调用 Start 后开始监视。
//
//	src, _ := xconf.Load("/etc/app/telelog.yaml")
//	w, err := xconf.Watch(src, func(s *xconf.Source, err error) { ... })
//	if err != nil {
//		return err
//	}
//	w.Start()
//	defer w.Stop()
func Watch(src *Source, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if src == nil {
		return nil, ErrNilSource
	}
	if src.path == "" {
		return nil, ErrNotReloadable
	}

	w := &Watcher{
		src:      src,
		callback: callback,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xconf: create watcher: %w", err)
	}
	// 监视目录而非文件：编辑器保存时可能先删除再创建，直接监视文件会丢失后续事件
	dir := filepath.Dir(src.path)
	if err := fsw.Add(dir); err != nil {
		return nil, errors.Join(fmt.Errorf("xconf: watch directory %s: %w", dir, err), fsw.Close())
	}
	w.fs = fsw
	return w, nil
}

// Start 在后台 goroutine 中开始监视，重复调用无效果
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.started || w.stopped {
		return
	}
	w.started = true
	w.wg.Add(1)
	go w.run()
}

// Stop 停止监视并等待监视循环退出，可重复调用
//
// 不能在回调中调用（会等待回调自身结束）。Stop 返回后不会再触发新的重载与回调。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return nil
	}
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	close(w.done)
	w.mu.Unlock()

	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	defer w.wg.Done()
	filename := filepath.Base(w.src.path)
	for {
		select {
		case <-w.done:
			return
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			if w.callback != nil {
				w.callback(w.src, fmt.Errorf("xconf: watch error: %w", err))
			}
		}
	}
}

// handleEvent 只关心目标文件的 Write/Create/Rename，在防抖窗口结束后重载一次
func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	if filepath.Base(event.Name) != filename {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	// 计入 wg，Stop 会等待进行中的重载回调结束
	w.wg.Add(1)
	w.mu.Unlock()
	defer w.wg.Done()

	err := w.src.Reload()
	if w.callback != nil {
		w.callback(w.src, err)
	}
}
