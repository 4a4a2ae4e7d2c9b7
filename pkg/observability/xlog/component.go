package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/omeyang/telelog/pkg/observability/xchart"
	"github.com/omeyang/telelog/pkg/observability/xcomponent"
	"github.com/omeyang/telelog/pkg/util/xfile"
)

// TrackComponent 开始一个组件；组件追踪关闭时返回空操作守卫
//
//	g := logger.TrackComponent(ctx, "Database")
//	defer g.Release()
func (l *xlogger) TrackComponent(ctx context.Context, name string) *xcomponent.Guard {
	return l.s.tracker.Track(ctx, name)
}

// ComponentTracker 返回共享的组件追踪器
func (l *xlogger) ComponentTracker() *xcomponent.Tracker {
	return l.s.tracker
}

// GenerateVisualization 以 logger 的图表配置生成 chartType 图表
func (l *xlogger) GenerateVisualization(ctx context.Context, chartType xchart.ChartType, path string) (string, error) {
	cfg := l.s.chart.WithType(chartType)
	gen := xchart.NewGenerator(cfg, xchart.WithRenderer(l.s.renderer))
	nodes := l.s.tracker.Components()
	markup, err := gen.Generate(nodes)
	if err != nil {
		return "", err
	}
	if path == "" {
		return markup, nil
	}
	written, err := gen.Save(ctx, nodes, path)
	if err != nil {
		return "", err
	}
	l.log(ctx, slog.LevelDebug, "chart saved",
		[]slog.Attr{slog.String("chart", chartType.String()), slog.String("path", written)})
	return markup, nil
}

// autoCharts 把三种图表并发写到 dir，返回写入的路径
func (l *xlogger) autoCharts(ctx context.Context, dir string) ([]string, error) {
	nodes := l.s.tracker.Components()
	if len(nodes) == 0 {
		return nil, nil
	}
	types := xchart.ChartTypes()
	written := make([]string, len(types))

	g, ctx := errgroup.WithContext(ctx)
	for i, ct := range types {
		g.Go(func() error {
			name := fmt.Sprintf("%s_%s_%s", fileToken(l.s.name), shortSession(l.s.session), ct)
			path, err := xfile.JoinName(dir, name)
			if err != nil {
				return err
			}
			gen := xchart.NewGenerator(l.s.chart.WithType(ct), xchart.WithRenderer(l.s.renderer))
			out, err := gen.Save(ctx, nodes, path)
			if err != nil {
				return fmt.Errorf("xlog: auto %s chart: %w", ct, err)
			}
			written[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return written, nil
}

// fileToken 把 logger 名称转成可用作文件名的片段
func fileToken(name string) string {
	if name == "" {
		return "telelog"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':', 0:
			return '_'
		}
		return r
	}, name)
}

func shortSession(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
