package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/omeyang/telelog/pkg/observability/xchart"
	"github.com/omeyang/telelog/pkg/observability/xlog"
)

// exitError 表示需要非零退出码但已完成输出的场景。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

// usageError 参数错误，退出码 2。
type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

// 创建所有子命令。
func createCommands() []*cli.Command {
	return []*cli.Command{
		createDemoCommand(),
		createValidateCommand(),
	}
}

// demoOptions demo 命令参数。
type demoOptions struct {
	out    string
	config string
	chart  string
	print  bool
}

// createDemoCommand 创建 demo 子命令。
func createDemoCommand() *cli.Command {
	return &cli.Command{
		Name:  "demo",
		Usage: "运行嵌套组件示例负载并生成图表",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "图表输出目录，为空时不保存",
				Value:   "charts",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "日志配置文件（YAML/JSON）",
			},
			&cli.StringFlag{
				Name:  "chart",
				Usage: "图表类型：all、flowchart、timeline、gantt",
				Value: "all",
			},
			&cli.BoolFlag{
				Name:    "print",
				Aliases: []string{"p"},
				Usage:   "把 Mermaid 文本打印到标准输出",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			opts := demoOptions{
				out:    cmd.String("out"),
				config: cmd.String("config"),
				chart:  cmd.String("chart"),
				print:  cmd.Bool("print"),
			}
			root := cmd.Root()
			return cmdDemo(ctx, opts, root.Writer, root.ErrWriter)
		},
	}
}

// createValidateCommand 创建 validate 子命令。
func createValidateCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "加载并校验配置文件",
		ArgsUsage: "<file>",
		Action: func(_ context.Context, cmd *cli.Command) error {
			root := cmd.Root()
			return cmdValidate(cmd.Args().Slice(), root.Writer, root.ErrWriter)
		},
	}
}

// chartTypes 解析 --chart 参数。
func chartTypes(s string) ([]xchart.ChartType, error) {
	if s == "" || s == "all" {
		return xchart.ChartTypes(), nil
	}
	t, err := xchart.ParseChartType(s)
	if err != nil {
		return nil, &usageError{msg: err.Error()}
	}
	return []xchart.ChartType{t}, nil
}

func loadConfig(path string) (xlog.Config, error) {
	if path == "" {
		return xlog.DefaultConfig(), nil
	}
	cfg, err := xlog.LoadConfig(path)
	if err != nil {
		return xlog.Config{}, &usageError{msg: err.Error()}
	}
	return cfg, nil
}

// cmdDemo 运行示例负载，然后按参数保存和打印图表。
func cmdDemo(ctx context.Context, opts demoOptions, stdout, stderr io.Writer) (err error) {
	types, err := chartTypes(opts.chart)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(opts.config)
	if err != nil {
		return err
	}
	// 图表由 demo 自己保存，不走 cleanup 的自动图表
	cfg.AutoGenerateCharts = false
	cfg.ComponentTracking = true

	b := cfg.Builder("telelogctl")
	if cfg.Console {
		b.SetOutput(stderr)
	}
	logger, cleanup, err := b.Build()
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	defer func() {
		err = errors.Join(err, cleanup())
	}()

	if err := runWorkload(ctx, logger); err != nil {
		return err
	}

	nodes := logger.ComponentTracker().Components()
	for _, t := range types {
		gen := xchart.NewGenerator(cfg.Chart.ToChart().WithType(t))
		if opts.print {
			markup, err := gen.Generate(nodes)
			if err != nil {
				return err
			}
			fmt.Fprintln(stdout, markup)
		}
		if opts.out == "" {
			continue
		}
		written, err := gen.Save(ctx, nodes, filepath.Join(opts.out, "demo_"+t.String()))
		if err != nil {
			return err
		}
		fmt.Fprintf(stderr, "%s chart: %s\n", t, written)
	}
	return nil
}

// runWorkload 模拟一次请求：WebServer 下处理认证、查询和缓存。
func runWorkload(ctx context.Context, logger xlog.Logger) error {
	defer logger.ScopedContext("demo_run", time.Now().UTC().Format(time.RFC3339)).Release()

	server := logger.TrackComponent(ctx, "WebServer")
	defer server.Release()
	logger.Info(ctx, "server started", xlog.Component("WebServer"))

	handler := logger.TrackComponent(ctx, "RequestHandler")
	defer handler.Release()

	steps := []struct {
		name   string
		delay  time.Duration
		memory string
	}{
		{"Authentication", 3 * time.Millisecond, ""},
		{"Database", 8 * time.Millisecond, "2.5MB"},
		{"Cache", 2 * time.Millisecond, "512KB"},
	}
	for _, s := range steps {
		if err := step(ctx, logger, s.name, s.delay, s.memory); err != nil {
			return err
		}
	}
	logger.Info(ctx, "request handled", xlog.Count(int64(len(steps))))
	return nil
}

func step(ctx context.Context, logger xlog.Logger, name string, delay time.Duration, memory string) error {
	g := logger.TrackComponent(ctx, name)
	defer g.Release()
	if memory != "" {
		g.Annotate(xchart.MetadataMemory, memory)
	}
	p := logger.Profile(ctx, name)
	defer p.End()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(delay):
	}
	logger.Debug(ctx, "step done", xlog.Component(name))
	return nil
}

// cmdValidate 校验配置文件，无效时退出码为 2。
func cmdValidate(args []string, stdout, stderr io.Writer) error {
	if len(args) != 1 {
		return &usageError{msg: "validate 需要且只需要一个配置文件参数"}
	}
	cfg, err := xlog.LoadConfig(args[0])
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", args[0], err)
		return &exitError{code: 2}
	}
	fmt.Fprintf(stdout, "%s: ok (min_level=%s, console=%t, file=%q, charts=%s)\n",
		args[0], cfg.MinLevel, cfg.Console, cfg.File, cfg.Chart.Type)
	return nil
}
