package xchart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGenerator_SaveRendered(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := NewMockRenderer(ctrl)

	dir := t.TempDir()
	target := filepath.Join(dir, "charts", "flow.svg")
	markup, err := Generate(sampleNodes(), DefaultConfig())
	require.NoError(t, err)

	renderer.EXPECT().
		Render(gomock.Any(), markup, target, FormatSVG).
		Return(nil)

	g := NewGenerator(DefaultConfig(), WithRenderer(renderer))
	got, err := g.Save(context.Background(), sampleNodes(), filepath.Join(dir, "charts", "flow"))
	require.NoError(t, err)
	assert.Equal(t, target, got)

	_, err = os.Stat(filepath.Join(dir, "charts", "flow.mmd"))
	assert.True(t, os.IsNotExist(err), "渲染成功时不写 .mmd")
}

func TestGenerator_SaveFallsBackToMermaidText(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := NewMockRenderer(ctrl)
	renderer.EXPECT().
		Render(gomock.Any(), gomock.Any(), gomock.Any(), FormatPNG).
		Return(errors.New("chromium crashed"))

	cfg := DefaultConfig()
	cfg.Format = FormatPNG
	g := NewGenerator(cfg, WithRenderer(renderer))

	dir := t.TempDir()
	got, err := g.Save(context.Background(), sampleNodes(), filepath.Join(dir, "flow.png"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flow.mmd"), got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	want, _ := g.Generate(sampleNodes())
	assert.Equal(t, want, string(data))
}

func TestGenerator_SaveMermaidFormatSkipsRenderer(t *testing.T) {
	ctrl := gomock.NewController(t)
	renderer := NewMockRenderer(ctrl)

	cfg := DefaultConfig().WithType(Gantt)
	cfg.Format = FormatMermaid
	g := NewGenerator(cfg, WithRenderer(renderer))

	dir := t.TempDir()
	got, err := g.Save(context.Background(), sampleNodes(), filepath.Join(dir, "gantt"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "gantt.mmd"), got)

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Contains(t, string(data), "gantt\n")
}

func TestGenerator_SaveWithMissingBinary(t *testing.T) {
	g := NewGenerator(DefaultConfig(), WithRenderer(MermaidCLI{Binary: "telelog-no-such-mmdc"}))

	dir := t.TempDir()
	got, err := g.Save(context.Background(), sampleNodes(), filepath.Join(dir, "flow"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "flow.mmd"), got)
	assert.FileExists(t, got)
}

func TestGenerator_SaveErrors(t *testing.T) {
	t.Run("generation error", func(t *testing.T) {
		g := NewGenerator(Config{Type: ChartType(9)})
		_, err := g.Save(context.Background(), sampleNodes(), filepath.Join(t.TempDir(), "x"))
		require.ErrorIs(t, err, ErrUnknownChartType)
	})

	t.Run("invalid path", func(t *testing.T) {
		g := NewGenerator(Config{Format: FormatMermaid})
		_, err := g.Save(context.Background(), sampleNodes(), "")
		var re *RenderError
		require.ErrorAs(t, err, &re)
		assert.Equal(t, "save", re.Op)
	})

	t.Run("fallback not writable", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

		g := NewGenerator(Config{Format: FormatMermaid})
		_, err := g.Save(context.Background(), sampleNodes(), filepath.Join(blocker, "chart"))
		require.ErrorIs(t, err, ErrWriteFailed)
	})
}

func TestMermaidCLI_Render(t *testing.T) {
	err := MermaidCLI{Binary: "telelog-no-such-mmdc"}.Render(context.Background(), "flowchart TD\n", "x.svg", FormatSVG)
	require.ErrorIs(t, err, ErrRendererUnavailable)

	err = MermaidCLI{}.Render(context.Background(), "flowchart TD\n", "x.mmd", FormatMermaid)
	require.ErrorIs(t, err, ErrRendererUnavailable)
}

func TestNewGenerator_NilOptions(t *testing.T) {
	g := NewGenerator(DefaultConfig(), nil, WithRenderer(nil))
	assert.IsType(t, MermaidCLI{}, g.renderer)
	assert.Equal(t, DefaultConfig(), g.Config())
}
