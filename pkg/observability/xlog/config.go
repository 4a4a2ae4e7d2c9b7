package xlog

import (
	"fmt"
	"strings"

	"github.com/omeyang/telelog/pkg/config/xconf"
	"github.com/omeyang/telelog/pkg/observability/xchart"
)

// 默认值
const (
	// DefaultBufferSize 开启缓冲时的默认缓冲条数
	DefaultBufferSize = 100
	// DefaultRotationSize 默认单个日志文件大小（10MB）
	DefaultRotationSize = 10 * 1024 * 1024
	// DefaultRotationFiles 默认保留的历史文件数
	DefaultRotationFiles = 5
)

// Rotation 文件轮转配置
type Rotation struct {
	Enabled  bool  `koanf:"enabled"`
	MaxSize  int64 `koanf:"max_size"`
	MaxFiles int   `koanf:"max_files"`
}

// ChartConfig 图表配置的文件形式，字段值为 flowchart、lr、svg 等文本
type ChartConfig struct {
	Type      xchart.ChartType    `koanf:"type"`
	Direction xchart.Direction    `koanf:"direction"`
	Timing    bool                `koanf:"timing"`
	Memory    bool                `koanf:"memory"`
	Format    xchart.OutputFormat `koanf:"format"`
	Title     string              `koanf:"title"`
}

// ToChart 转换为 xchart.Config
func (c ChartConfig) ToChart() xchart.Config {
	return xchart.Config{
		Type:       c.Type,
		Direction:  c.Direction,
		ShowTiming: c.Timing,
		ShowMemory: c.Memory,
		Format:     c.Format,
		Title:      c.Title,
	}
}

func chartConfigFrom(c xchart.Config) ChartConfig {
	return ChartConfig{
		Type:      c.Type,
		Direction: c.Direction,
		Timing:    c.ShowTiming,
		Memory:    c.ShowMemory,
		Format:    c.Format,
		Title:     c.Title,
	}
}

// Config 日志配置
//
// 可以从 YAML/JSON 文件加载（[LoadConfig]），也可以从预设开始用 With* 方法修改：
//
//	cfg := xlog.Development().WithFileOutput("app.log")
//	logger, cleanup, err := xlog.NewFromConfig("app", cfg)
type Config struct {
	MinLevel   Level    `koanf:"min_level"`
	Console    bool     `koanf:"console"`
	Colored    bool     `koanf:"colored"`
	File       string   `koanf:"file"`
	JSON       bool     `koanf:"json"`
	Buffering  bool     `koanf:"buffering"`
	BufferSize int      `koanf:"buffer_size"`
	Rotation   Rotation `koanf:"rotation"`

	Profiling         bool        `koanf:"profiling"`
	Monitoring        bool        `koanf:"monitoring"`
	ComponentTracking bool        `koanf:"component_tracking"`
	Chart             ChartConfig `koanf:"chart"`

	AutoGenerateCharts bool   `koanf:"auto_generate_charts"`
	ChartOutputDir     string `koanf:"chart_output_dir"`
}

// DefaultConfig 默认配置：Info 级别，输出到控制台，开启剖析日志和组件追踪
func DefaultConfig() Config {
	return Config{
		MinLevel:          LevelInfo,
		Console:           true,
		BufferSize:        DefaultBufferSize,
		Rotation:          Rotation{MaxSize: DefaultRotationSize, MaxFiles: DefaultRotationFiles},
		Profiling:         true,
		ComponentTracking: true,
		Chart:             chartConfigFrom(xchart.DefaultConfig()),
	}
}

// Development 开发环境：Debug 级别，彩色控制台
func Development() Config {
	return DefaultConfig().
		WithMinLevel(LevelDebug).
		WithColoredOutput(true)
}

// Production 生产环境：只写 JSON 文件，开启缓冲和轮转，关闭组件追踪
func Production(path string) Config {
	cfg := DefaultConfig().
		WithConsoleOutput(false).
		WithFileOutput(path).
		WithJSONFormat(true).
		WithBuffering(true).
		WithComponentTracking(false)
	cfg.Rotation.Enabled = true
	return cfg
}

// PerformanceAnalysis 性能分析：Debug 级别，开启监控，结束时把图表写到 chartsDir
func PerformanceAnalysis(chartsDir string) Config {
	chart := xchart.DefaultConfig()
	chart.ShowMemory = true
	return DefaultConfig().
		WithMinLevel(LevelDebug).
		WithMonitoring(true).
		WithChartConfig(chart).
		WithAutoGenerateCharts(true).
		WithChartOutputDir(chartsDir)
}

// WithMinLevel 设置最低级别
func (c Config) WithMinLevel(level Level) Config {
	c.MinLevel = level
	return c
}

// WithConsoleOutput 开关控制台输出
func (c Config) WithConsoleOutput(enable bool) Config {
	c.Console = enable
	return c
}

// WithColoredOutput 开关控制台着色
func (c Config) WithColoredOutput(enable bool) Config {
	c.Colored = enable
	return c
}

// WithFileOutput 写入文件
func (c Config) WithFileOutput(path string) Config {
	c.File = path
	return c
}

// WithJSONFormat 以 JSON 格式输出
func (c Config) WithJSONFormat(enable bool) Config {
	c.JSON = enable
	return c
}

// WithBuffering 开关缓冲
func (c Config) WithBuffering(enable bool) Config {
	c.Buffering = enable
	return c
}

// WithBufferSize 设置缓冲条数
func (c Config) WithBufferSize(size int) Config {
	c.BufferSize = size
	return c
}

// WithRotation 开启文件轮转
func (c Config) WithRotation(maxSize int64, maxFiles int) Config {
	c.Rotation = Rotation{Enabled: true, MaxSize: maxSize, MaxFiles: maxFiles}
	return c
}

// WithProfiling 开关剖析日志
func (c Config) WithProfiling(enable bool) Config {
	c.Profiling = enable
	return c
}

// WithMonitoring 开关 OpenTelemetry 导出
func (c Config) WithMonitoring(enable bool) Config {
	c.Monitoring = enable
	return c
}

// WithComponentTracking 开关组件追踪
func (c Config) WithComponentTracking(enable bool) Config {
	c.ComponentTracking = enable
	return c
}

// WithChartConfig 设置图表配置
func (c Config) WithChartConfig(chart xchart.Config) Config {
	c.Chart = chartConfigFrom(chart)
	return c
}

// WithAutoGenerateCharts 开关 cleanup 时自动生成图表
func (c Config) WithAutoGenerateCharts(enable bool) Config {
	c.AutoGenerateCharts = enable
	return c
}

// WithChartOutputDir 设置自动图表目录
func (c Config) WithChartOutputDir(dir string) Config {
	c.ChartOutputDir = dir
	return c
}

// Validate 校验配置，返回第一个错误
func (c Config) Validate() error {
	if c.Buffering && c.BufferSize <= 0 {
		return &ConfigError{Field: "buffer_size", Err: ErrInvalidBufferSize}
	}
	if c.Rotation.Enabled {
		if strings.TrimSpace(c.File) == "" {
			return &ConfigError{Field: "file", Err: ErrMissingFile}
		}
		if c.Rotation.MaxSize <= 0 {
			return &ConfigError{Field: "rotation.max_size", Err: ErrInvalidRotation}
		}
		if c.Rotation.MaxFiles <= 0 {
			return &ConfigError{Field: "rotation.max_files", Err: ErrInvalidRotation}
		}
	}
	if c.AutoGenerateCharts && strings.TrimSpace(c.ChartOutputDir) == "" {
		return &ConfigError{Field: "chart_output_dir", Err: ErrMissingChartDir}
	}
	return nil
}

// Builder 按配置返回一个构建器，调用方可以在 Build 之前继续追加选项
func (c Config) Builder(name string) *Builder {
	b := New().
		SetName(name).
		SetLevel(c.MinLevel).
		SetProfiling(c.Profiling).
		SetComponentTracking(c.ComponentTracking).
		SetMonitoring(c.Monitoring).
		SetChartConfig(c.Chart.ToChart())
	if err := c.Validate(); err != nil {
		return b.fail(err)
	}

	b.SetConsole(c.Console).SetColored(c.Colored)
	if c.JSON {
		b.SetFormat("json")
	}
	switch {
	case c.File != "" && c.Rotation.Enabled:
		b.SetRotation(c.File, c.Rotation.MaxSize, c.Rotation.MaxFiles)
	case c.File != "":
		b.SetFile(c.File)
	}
	if c.Buffering {
		b.SetBuffering(c.BufferSize)
	}
	if c.AutoGenerateCharts {
		b.SetAutoCharts(c.ChartOutputDir)
	}
	return b
}

// NewFromConfig 按配置创建 Logger，配置无效时返回 *ConfigError
func NewFromConfig(name string, cfg Config) (LoggerWithLevel, func() error, error) {
	return cfg.Builder(name).Build()
}

// LoadConfig 从 YAML/JSON 文件加载配置（按扩展名选择格式）
//
// 文件中未出现的字段取 [DefaultConfig] 的值；出现未知字段时返回错误。
func LoadConfig(path string) (Config, error) {
	src, err := xconf.Load(path, xconf.WithStrict(true))
	if err != nil {
		return Config{}, err
	}
	return decodeConfig(src)
}

// LoadConfigBytes 从内存数据加载配置
func LoadConfigBytes(data []byte, format xconf.Format) (Config, error) {
	src, err := xconf.LoadBytes(data, format, xconf.WithStrict(true))
	if err != nil {
		return Config{}, err
	}
	return decodeConfig(src)
}

func decodeConfig(src *xconf.Source) (Config, error) {
	cfg := DefaultConfig()
	if err := src.Decode("", &cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WatchLevel 监视配置文件，min_level 变化时更新 l 的级别
//
// 只应用 min_level，其余字段的变化需要重建 Logger。
// 重载或解析失败时调用 onErr（可为 nil），l 的级别保持不变。
// 返回的 Watcher 已启动，调用方负责 Stop。
func WatchLevel(path string, l Leveler, onErr func(error)) (*xconf.Watcher, error) {
	src, err := xconf.Load(path)
	if err != nil {
		return nil, err
	}
	report := func(err error) {
		if onErr != nil {
			onErr(err)
		}
	}
	apply := func(s *xconf.Source) {
		if !s.Exists("min_level") {
			return
		}
		level, err := ParseLevel(s.Koanf().String("min_level"))
		if err != nil {
			report(&ConfigError{Field: "min_level", Err: err})
			return
		}
		l.SetLevel(level)
	}
	apply(src)

	w, err := xconf.Watch(src, func(s *xconf.Source, err error) {
		if err != nil {
			report(fmt.Errorf("xlog: reload %s: %w", path, err))
			return
		}
		apply(s)
	})
	if err != nil {
		return nil, err
	}
	w.Start()
	return w, nil
}
