package xlog

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/omeyang/telelog/pkg/observability/xchart"
	"github.com/omeyang/telelog/pkg/observability/xcomponent"
	"github.com/omeyang/telelog/pkg/observability/xmetrics"
	"github.com/omeyang/telelog/pkg/observability/xsink"
)

// ReplaceAttrFunc 属性替换函数类型
//
// 用于字段重命名、脱敏、过滤等。返回空 Key 的 Attr 会移除该属性。
// 级别字段在调用前已转换为 DEBUG/INFO/WARNING/ERROR/CRITICAL 字符串。
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// 级别颜色，Colored 开启时作用于 text 格式控制台输出的级别字段
var levelColors = map[string]*color.Color{
	LevelDebug.String():    color.New(color.FgCyan),
	LevelInfo.String():     color.New(color.FgGreen),
	LevelWarning.String():  color.New(color.FgYellow),
	LevelError.String():    color.New(color.FgRed),
	LevelCritical.String(): color.New(color.FgWhite, color.BgRed, color.Bold),
}

func init() {
	// 是否着色由 Builder 决定，不依赖 fatih/color 对 stdout 的终端检测
	for _, c := range levelColors {
		c.EnableColor()
	}
}

var levelToken = []byte(slog.LevelKey + "=")

// coloredSink 为 text 记录的级别字段着色
//
// 着色放在 handler 之后：TextHandler 会给含控制字符的值加引号并转义。
type coloredSink struct {
	xsink.Sink
}

func (s coloredSink) Write(p []byte) (int, error) {
	i := bytes.Index(p, levelToken)
	if i < 0 {
		return s.Sink.Write(p)
	}
	start := i + len(levelToken)
	n := bytes.IndexAny(p[start:], " \n")
	if n < 0 {
		return s.Sink.Write(p)
	}
	end := start + n
	c, ok := levelColors[string(p[start:end])]
	if !ok {
		return s.Sink.Write(p)
	}
	out := make([]byte, 0, len(p)+16)
	out = append(out, p[:start]...)
	out = append(out, c.Sprint(string(p[start:end]))...)
	out = append(out, p[end:]...)
	if _, err := s.Sink.Write(out); err != nil {
		return 0, err
	}
	return len(p), nil
}

// consoleSpec 控制台输出
type consoleSpec struct {
	w       io.Writer
	colored bool
}

// Builder 日志配置构建器
//
// first-error-wins：遇到第一个配置错误后，Build 返回该错误。
// Builder 为一次性使用。
type Builder struct {
	name        string
	levelVar    *slog.LevelVar
	format      string
	addSource   bool
	replaceAttr ReplaceAttrFunc
	onError     func(error)

	console    *consoleSpec
	file       string
	rotateSize int64
	rotateKeep int
	bufferSize int
	sinks      []xsink.Sink

	profiling    bool
	tracking     bool
	trackerOpts  []xcomponent.Option
	observer     xmetrics.Observer
	monitoring   bool
	metricOpts   []xmetrics.Option
	chart        xchart.Config
	renderer     xchart.Renderer
	autoChartDir string

	err error
}

// New 创建配置构建器
//
// 默认：输出到 stderr、Info 级别、text 格式、开启剖析日志与组件追踪。
func New() *Builder {
	lv := new(slog.LevelVar)
	lv.Set(slog.LevelInfo)
	return &Builder{
		name:      DefaultName,
		levelVar:  lv,
		format:    "text",
		console:   &consoleSpec{w: os.Stderr},
		profiling: true,
		tracking:  true,
		chart:     xchart.DefaultConfig(),
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// SetName 设置 logger 名称，作为每条记录的 logger 字段
func (b *Builder) SetName(name string) *Builder {
	if strings.TrimSpace(name) == "" {
		return b.fail(&ConfigError{Field: "name", Err: ErrEmptyName})
	}
	b.name = name
	return b
}

// SetLevel 设置最低日志级别
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		return b.fail(&ConfigError{Field: "min_level", Err: err})
	}
	return b.SetLevel(level)
}

// SetFormat 设置输出格式：text 或 json，空值视为 text
func (b *Builder) SetFormat(format string) *Builder {
	switch normalized := strings.ToLower(strings.TrimSpace(format)); normalized {
	case "":
		b.format = "text"
	case "text", "json":
		b.format = normalized
	default:
		return b.fail(&ConfigError{Field: "format", Err: fmt.Errorf("%w: %q", ErrUnknownFormat, format)})
	}
	return b
}

// SetAddSource 是否在日志中添加源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetOutput 设置控制台输出目标，nil 关闭控制台输出
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		b.console = nil
		return b
	}
	colored := b.console != nil && b.console.colored
	b.console = &consoleSpec{w: w, colored: colored}
	return b
}

// SetConsole 开关控制台输出（stderr）
func (b *Builder) SetConsole(enable bool) *Builder {
	if !enable {
		b.console = nil
		return b
	}
	if b.console == nil {
		b.console = &consoleSpec{w: os.Stderr}
	}
	return b
}

// SetColored 控制台 text 输出的级别字段是否着色，JSON 格式不着色
func (b *Builder) SetColored(enable bool) *Builder {
	if b.console != nil {
		b.console.colored = enable
	}
	return b
}

// SetFile 追加写入文件
func (b *Builder) SetFile(path string) *Builder {
	if path == "" {
		return b.fail(&ConfigError{Field: "file", Err: ErrMissingFile})
	}
	b.file = path
	return b
}

// SetRotation 写入文件并按大小轮转，最多保留 maxFiles 个历史文件
func (b *Builder) SetRotation(path string, maxBytes int64, maxFiles int) *Builder {
	if maxBytes <= 0 {
		return b.fail(&ConfigError{Field: "rotation.max_size", Err: ErrInvalidRotation})
	}
	if maxFiles <= 0 {
		return b.fail(&ConfigError{Field: "rotation.max_files", Err: ErrInvalidRotation})
	}
	b.SetFile(path)
	b.rotateSize = maxBytes
	b.rotateKeep = maxFiles
	return b
}

// SetBuffering 为内置输出（控制台、文件）开启缓冲，每 entries 条记录刷新一次
func (b *Builder) SetBuffering(entries int) *Builder {
	if entries <= 0 {
		return b.fail(&ConfigError{Field: "buffer_size", Err: ErrInvalidBufferSize})
	}
	b.bufferSize = entries
	return b
}

// AddSink 追加输出；sink 的所有权转移给 logger，cleanup 时关闭
func (b *Builder) AddSink(s xsink.Sink) *Builder {
	if s == nil {
		return b.fail(&ConfigError{Field: "sink", Err: xsink.ErrNilSink})
	}
	b.sinks = append(b.sinks, s)
	return b
}

// SetOnError 设置内部错误回调
//
// 输出失败（磁盘满、权限问题、writer 异常）时调用，日志方法本身从不返回错误。
// 回调在热路径同步执行，应保持轻量；回调内部再次出错不会递归，回调 panic 会被捕获。
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

// SetReplaceAttr 设置属性替换函数
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetProfiling 是否为 ProfileGuard 记录日志；关闭后仍然计时并转发给 Observer
func (b *Builder) SetProfiling(enable bool) *Builder {
	b.profiling = enable
	return b
}

// SetComponentTracking 是否追踪组件；关闭后 TrackComponent 返回空操作守卫
func (b *Builder) SetComponentTracking(enable bool, opts ...xcomponent.Option) *Builder {
	b.tracking = enable
	b.trackerOpts = append(b.trackerOpts, opts...)
	return b
}

// SetObserver 设置剖析与组件事件的 Observer
func (b *Builder) SetObserver(o xmetrics.Observer) *Builder {
	b.observer = o
	return b
}

// SetMonitoring 开启后在 Build 时创建 OpenTelemetry Observer（默认使用全局 provider）
func (b *Builder) SetMonitoring(enable bool, opts ...xmetrics.Option) *Builder {
	b.monitoring = enable
	b.metricOpts = opts
	return b
}

// SetChartConfig 设置 GenerateVisualization 与自动图表使用的配置
func (b *Builder) SetChartConfig(cfg xchart.Config) *Builder {
	b.chart = cfg
	return b
}

// SetRenderer 替换图表渲染器（默认 mmdc）
func (b *Builder) SetRenderer(r xchart.Renderer) *Builder {
	b.renderer = r
	return b
}

// SetAutoCharts 在 cleanup 时把三种图表写到 dir
func (b *Builder) SetAutoCharts(dir string) *Builder {
	if dir == "" {
		return b.fail(&ConfigError{Field: "chart_output_dir", Err: ErrMissingChartDir})
	}
	b.autoChartDir = dir
	return b
}

// defaultOnError 未设置 OnError 时，把输出失败写到 stderr
func defaultOnError(err error) {
	fmt.Fprintf(os.Stderr, "xlog: output failed: %v\n", err)
}

func newState(name string, lv *slog.LevelVar) *state {
	return &state{
		name:      name,
		session:   uuid.NewString(),
		levelVar:  lv,
		context:   newContextStore(),
		tracker:   xcomponent.NewTracker(),
		profiling: true,
		chart:     xchart.DefaultConfig(),
		renderer:  xchart.MermaidCLI{},
	}
}

// Build 构建 Logger 实例
//
// 返回值：
//   - LoggerWithLevel: 日志实例，同时支持动态级别控制
//   - func() error: 清理函数，生成自动图表后刷新并关闭所有输出，只执行一次
//   - error: 配置错误（*ConfigError）或输出创建失败（*xsink.SinkError）
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	observer := b.observer
	if b.monitoring {
		otelObs, err := xmetrics.NewOTelObserver(b.metricOpts...)
		if err != nil {
			return nil, nil, &ConfigError{Field: "monitoring", Err: err}
		}
		observer = xmetrics.Multi(observer, otelObs)
	}

	sinks, handlers, err := b.buildSinks()
	if err != nil {
		return nil, nil, err
	}

	s := newState(b.name, b.levelVar)
	s.observer = observer
	s.profiling = b.profiling
	s.addSource = b.addSource
	s.chart = b.chart
	s.onError = b.onError
	if s.onError == nil {
		s.onError = defaultOnError
	}
	if b.renderer != nil {
		s.renderer = b.renderer
	}
	trackerOpts := append([]xcomponent.Option{xcomponent.WithEnabled(b.tracking)}, b.trackerOpts...)
	if observer != nil {
		trackerOpts = append(trackerOpts, xcomponent.WithHook(observer))
	}
	s.tracker = xcomponent.NewTracker(trackerOpts...)

	logger := &xlogger{
		handler: fanout(handlers).WithAttrs([]slog.Attr{slog.String(KeyLogger, b.name)}),
		s:       s,
	}
	return logger, b.createCleanup(logger, sinks), nil
}

// buildSinks 创建内置输出并为每个输出构建 handler
func (b *Builder) buildSinks() ([]xsink.Sink, []slog.Handler, error) {
	var (
		sinks    []xsink.Sink
		handlers []slog.Handler
	)
	closeAll := func() {
		for _, s := range sinks {
			_ = s.Close()
		}
	}
	add := func(s xsink.Sink, buffered bool) error {
		if buffered && b.bufferSize > 0 {
			bs, err := xsink.NewBuffered(s, b.bufferSize)
			if err != nil {
				return err
			}
			s = bs
		}
		sinks = append(sinks, s)
		handlers = append(handlers, b.handlerFor(s))
		return nil
	}

	if b.console != nil {
		console := xsink.NewConsole(b.console.w)
		if b.console.colored && b.format == "text" {
			console = coloredSink{Sink: console}
		}
		if err := add(console, true); err != nil {
			return nil, nil, err
		}
	}
	if b.file != "" {
		var (
			fs  xsink.Sink
			err error
		)
		if b.rotateSize > 0 {
			fs, err = xsink.NewRotating(b.file, b.rotateSize, b.rotateKeep)
		} else {
			fs, err = xsink.NewFile(b.file)
		}
		if err == nil {
			err = add(fs, true)
		}
		if err != nil {
			closeAll()
			return nil, nil, err
		}
	}
	for _, s := range b.sinks {
		if err := add(s, false); err != nil {
			closeAll()
			return nil, nil, err
		}
	}
	return sinks, handlers, nil
}

func (b *Builder) handlerFor(w io.Writer) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:       b.levelVar,
		AddSource:   b.addSource,
		ReplaceAttr: levelReplacer(b.replaceAttr),
	}
	if b.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// levelReplacer 把级别渲染为 WARNING/CRITICAL 等名称，再交给用户的替换函数
func levelReplacer(user ReplaceAttrFunc) func([]string, slog.Attr) slog.Attr {
	return func(groups []string, a slog.Attr) slog.Attr {
		if len(groups) == 0 && a.Key == slog.LevelKey {
			if lv, ok := a.Value.Any().(slog.Level); ok {
				a.Value = slog.StringValue(Level(lv).String())
			}
		}
		if user != nil {
			a = user(groups, a)
		}
		return a
	}
}

// createCleanup 先生成自动图表，再刷新并关闭输出
func (b *Builder) createCleanup(l *xlogger, sinks []xsink.Sink) func() error {
	var (
		once sync.Once
		err  error
	)
	dir := b.autoChartDir
	return func() error {
		once.Do(func() {
			var errs []error
			if dir != "" {
				written, cerr := l.autoCharts(context.Background(), dir)
				if cerr != nil {
					errs = append(errs, cerr)
				}
				for _, p := range written {
					l.log(context.Background(), slog.LevelInfo, "chart generated", []slog.Attr{slog.String("path", p)})
				}
			}
			for _, s := range sinks {
				errs = append(errs, s.Sync(), s.Close())
			}
			err = errors.Join(errs...)
		})
		return err
	}
}
