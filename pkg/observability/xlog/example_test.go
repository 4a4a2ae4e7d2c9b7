package xlog_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/omeyang/telelog/pkg/observability/xchart"
	"github.com/omeyang/telelog/pkg/observability/xlog"
	"github.com/omeyang/telelog/pkg/observability/xsink"
)

func Example() {
	var buf bytes.Buffer
	logger, cleanup, _ := xlog.New().
		SetName("example").
		SetOutput(&buf).
		SetLevel(xlog.LevelWarning).
		Build()
	defer cleanup()

	ctx := context.Background()
	logger.Debug(ctx, "x")
	logger.Warning(ctx, "y")

	out := buf.String()
	fmt.Println("records:", strings.Count(out, "\n"))
	fmt.Println("has warning:", strings.Contains(out, `level=WARNING msg=y logger=example`))
	// Output:
	// records: 1
	// has warning: true
}

func ExampleLogger_ScopedContext() {
	mem := xsink.NewMemory()
	logger, cleanup, _ := xlog.New().SetOutput(nil).AddSink(mem).Build()
	defer cleanup()

	ctx := context.Background()
	func() {
		defer logger.ScopedContext("request_id", "r-42").Release()
		logger.Info(ctx, "handling", slog.String("path", "/orders"))
	}()
	logger.Info(ctx, "idle")

	for _, line := range mem.Lines() {
		fmt.Println(strings.Contains(line, "context.request_id=r-42"))
	}
	// Output:
	// true
	// false
}

func ExampleLogger_TrackComponent() {
	logger, cleanup, _ := xlog.New().SetOutput(nil).Build()
	defer cleanup()

	ctx := context.Background()
	func() {
		defer logger.TrackComponent(ctx, "WebServer").Release()
		func() {
			defer logger.TrackComponent(ctx, "Database").Release()
		}()
	}()

	markup, _ := logger.GenerateVisualization(ctx, xchart.Flowchart, "")
	fmt.Println(strings.Contains(markup, "c1 --> c2"))
	// Output:
	// true
}

func ExampleNewFromConfig() {
	cfg := xlog.Development().WithConsoleOutput(false)
	logger, cleanup, err := xlog.NewFromConfig("dev_app", cfg)
	if err != nil {
		fmt.Println(err)
		return
	}
	defer cleanup()

	fmt.Println(logger.Name(), logger.GetLevel())
	// Output:
	// dev_app DEBUG
}
