package xchart

import (
	"fmt"
	"strings"
)

// ChartType 图表类型
type ChartType uint8

const (
	// Flowchart 父子关系流程图
	Flowchart ChartType = iota
	// Timeline 按根组件分组的时间线
	Timeline
	// Gantt 甘特图
	Gantt
)

// ChartTypes 返回所有图表类型
func ChartTypes() []ChartType {
	return []ChartType{Flowchart, Timeline, Gantt}
}

func (t ChartType) String() string {
	switch t {
	case Flowchart:
		return "flowchart"
	case Timeline:
		return "timeline"
	case Gantt:
		return "gantt"
	default:
		return fmt.Sprintf("ChartType(%d)", uint8(t))
	}
}

// ParseChartType 解析图表类型名称（大小写不敏感）
func ParseChartType(s string) (ChartType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "flowchart", "flow":
		return Flowchart, nil
	case "timeline":
		return Timeline, nil
	case "gantt":
		return Gantt, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownChartType, s)
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (t ChartType) MarshalText() ([]byte, error) {
	if t > Gantt {
		return nil, fmt.Errorf("%w: %d", ErrUnknownChartType, uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (t *ChartType) UnmarshalText(b []byte) error {
	v, err := ParseChartType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Direction 流程图布局方向
type Direction uint8

const (
	// TopDown 自上而下
	TopDown Direction = iota
	// BottomUp 自下而上
	BottomUp
	// LeftRight 自左向右
	LeftRight
	// RightLeft 自右向左
	RightLeft
)

// Mermaid 返回 Mermaid 方向关键字
func (d Direction) Mermaid() string {
	switch d {
	case BottomUp:
		return "BT"
	case LeftRight:
		return "LR"
	case RightLeft:
		return "RL"
	default:
		return "TD"
	}
}

func (d Direction) String() string {
	switch d {
	case TopDown:
		return "top-down"
	case BottomUp:
		return "bottom-up"
	case LeftRight:
		return "left-right"
	case RightLeft:
		return "right-left"
	default:
		return fmt.Sprintf("Direction(%d)", uint8(d))
	}
}

// ParseDirection 解析方向，接受 "top-down"/"td"/"tb" 等写法
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "top-down", "topdown", "td", "tb", "":
		return TopDown, nil
	case "bottom-up", "bottomup", "bt":
		return BottomUp, nil
	case "left-right", "leftright", "lr":
		return LeftRight, nil
	case "right-left", "rightleft", "rl":
		return RightLeft, nil
	default:
		return 0, fmt.Errorf("xchart: unknown direction %q", s)
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// OutputFormat 保存时的输出格式
type OutputFormat uint8

const (
	// FormatSVG 通过渲染器输出 SVG
	FormatSVG OutputFormat = iota
	// FormatPNG 通过渲染器输出 PNG
	FormatPNG
	// FormatPDF 通过渲染器输出 PDF
	FormatPDF
	// FormatMermaid 直接写 Mermaid 源文本，不调用渲染器
	FormatMermaid
)

func (f OutputFormat) String() string {
	switch f {
	case FormatSVG:
		return "svg"
	case FormatPNG:
		return "png"
	case FormatPDF:
		return "pdf"
	case FormatMermaid:
		return "mermaid"
	default:
		return fmt.Sprintf("OutputFormat(%d)", uint8(f))
	}
}

// Ext 返回带前导点的文件扩展名
func (f OutputFormat) Ext() string {
	if f == FormatMermaid {
		return ".mmd"
	}
	return "." + f.String()
}

// ParseOutputFormat 解析输出格式
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "svg", "":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	case "pdf":
		return FormatPDF, nil
	case "mermaid", "mmd":
		return FormatMermaid, nil
	default:
		return 0, fmt.Errorf("xchart: unknown output format %q", s)
	}
}

// MarshalText 实现 encoding.TextMarshaler
func (f OutputFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler
func (f *OutputFormat) UnmarshalText(b []byte) error {
	v, err := ParseOutputFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// Config 图表配置
type Config struct {
	Type      ChartType
	Direction Direction
	// ShowTiming 在节点标签中标注耗时
	ShowTiming bool
	// ShowMemory 标注节点元数据中的 "memory"，没有该元数据的节点不标注
	ShowMemory bool
	Format     OutputFormat
	// Title 图表标题，为空时使用各图表的默认标题
	Title string
}

// DefaultConfig 返回默认配置：自上而下的流程图，标注耗时，输出 SVG
func DefaultConfig() Config {
	return Config{
		Type:       Flowchart,
		Direction:  TopDown,
		ShowTiming: true,
		Format:     FormatSVG,
	}
}

// WithType 返回修改了图表类型的副本
func (c Config) WithType(t ChartType) Config {
	c.Type = t
	return c
}
