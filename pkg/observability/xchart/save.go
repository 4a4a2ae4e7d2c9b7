package xchart

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/omeyang/telelog/pkg/observability/xcomponent"
	"github.com/omeyang/telelog/pkg/util/xfile"
)

//go:generate mockgen -source=save.go -destination=renderer_mock_test.go -package=xchart

// Renderer 将 Mermaid 文本渲染为图片/文档文件
type Renderer interface {
	Render(ctx context.Context, markup, path string, format OutputFormat) error
}

// DefaultMermaidBinary mermaid-cli 的可执行文件名
const DefaultMermaidBinary = "mmdc"

// MermaidCLI 通过 mermaid-cli（mmdc）渲染
type MermaidCLI struct {
	// Binary 可执行文件，为空时使用 DefaultMermaidBinary
	Binary string
	// Args 追加到命令行末尾的参数（如 "-t", "dark"）
	Args []string
}

// Render 把 markup 写入临时 .mmd 文件后调用 mmdc 输出到 path
func (m MermaidCLI) Render(ctx context.Context, markup, path string, format OutputFormat) error {
	if format == FormatMermaid {
		return fmt.Errorf("%w: mmdc cannot emit %s", ErrRendererUnavailable, format)
	}
	bin := m.Binary
	if bin == "" {
		bin = DefaultMermaidBinary
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRendererUnavailable, err)
	}

	tmp, err := os.CreateTemp("", "telelog-*.mmd")
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.WriteString(markup); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	args := append([]string{"-i", tmp.Name(), "-o", path, "-e", format.String()}, m.Args...)
	//#nosec G204 -- 可执行文件与参数由调用方配置，不来自日志内容
	cmd := exec.CommandContext(ctx, resolved, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("mmdc: %w", err)
		}
		return fmt.Errorf("mmdc: %w: %s", err, msg)
	}
	return nil
}

// GeneratorOption Generator 配置选项
type GeneratorOption func(*Generator)

// WithRenderer 替换渲染器，nil 被忽略
func WithRenderer(r Renderer) GeneratorOption {
	return func(g *Generator) {
		if r != nil {
			g.renderer = r
		}
	}
}

// Generator 绑定了配置与渲染器的图表生成器
type Generator struct {
	cfg      Config
	renderer Renderer
}

// NewGenerator 创建生成器，默认渲染器为 MermaidCLI
func NewGenerator(cfg Config, opts ...GeneratorOption) *Generator {
	g := &Generator{cfg: cfg, renderer: MermaidCLI{}}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config 返回生成器的配置
func (g *Generator) Config() Config {
	return g.cfg
}

// Generate 等价于 Generate(nodes, g.Config())
func (g *Generator) Generate(nodes []xcomponent.Node) (string, error) {
	return Generate(nodes, g.cfg)
}

// Save 生成图表并写入 path，返回实际写入的路径
//
// path 没有扩展名时补上输出格式的扩展名。FormatMermaid 直接写文本；
// 其他格式交给渲染器，渲染器失败（包括未安装）时写入同名 .mmd 文件并返回该路径。
// 只有生成失败或 .mmd 也写不进去时才返回错误。
func (g *Generator) Save(ctx context.Context, nodes []xcomponent.Node, path string) (string, error) {
	markup, err := g.Generate(nodes)
	if err != nil {
		return "", err
	}
	target, err := xfile.SanitizePath(path)
	if err != nil {
		return "", &RenderError{Op: "save", Err: err}
	}
	if filepath.Ext(target) == "" {
		target += g.cfg.Format.Ext()
	}

	if g.cfg.Format != FormatMermaid {
		renderErr := xfile.EnsureDir(target)
		if renderErr == nil {
			renderErr = g.renderer.Render(ctx, markup, target, g.cfg.Format)
		}
		if renderErr == nil {
			return target, nil
		}
		target = xfile.SiblingPath(target, FormatMermaid.Ext())
	}

	written, err := xfile.WriteFile(target, []byte(markup))
	if err != nil {
		return "", &RenderError{Op: "save", Err: fmt.Errorf("%w: %w", ErrWriteFailed, err)}
	}
	return written, nil
}
