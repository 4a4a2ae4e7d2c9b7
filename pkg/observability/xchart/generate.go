package xchart

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/omeyang/telelog/pkg/observability/xcomponent"
)

// MetadataMemory ShowMemory 读取的节点元数据键
const MetadataMemory = "memory"

const opGenerate = "generate"

const (
	defaultTimelineTitle = "Component Timeline"
	defaultGanttTitle    = "Component Execution"
)

var (
	// labelEscaper 用于 ["..."] 形式的流程图节点标签
	labelEscaper = strings.NewReplacer(
		"#", "#35;",
		`"`, "#quot;",
		"<", "#lt;",
		">", "#gt;",
		"\r", " ",
		"\n", " ",
	)
	// textEscaper 用于时间线和甘特图，":" 和 ";" 在这两种语法中是分隔符
	textEscaper = strings.NewReplacer(
		"#", "#35;",
		":", "#58;",
		";", "#59;",
		`"`, "#quot;",
		"\r", " ",
		"\n", " ",
	)
)

// graph 预处理后的快照
type graph struct {
	nodes    []xcomponent.Node
	byID     map[uint64]int
	children map[uint64][]int // 保持插入顺序
	roots    []int
	rootOf   []int
	// base 快照中最早的开始时间，horizon 快照中最晚的时刻
	base    time.Time
	horizon time.Time
}

// Generate 将节点快照渲染为 Mermaid 文本
//
// nodes 通常来自 xcomponent.Tracker.Components()，须按创建顺序排列。
// 快照中存在悬空父引用、重复 ID 或环时返回 *RenderError。
func Generate(nodes []xcomponent.Node, cfg Config) (string, error) {
	g, err := buildGraph(nodes)
	if err != nil {
		return "", err
	}
	switch cfg.Type {
	case Flowchart:
		return g.flowchart(cfg), nil
	case Timeline:
		return g.timeline(cfg), nil
	case Gantt:
		return g.gantt(cfg)
	default:
		return "", &RenderError{Op: opGenerate, Err: ErrUnknownChartType}
	}
}

func buildGraph(nodes []xcomponent.Node) (*graph, error) {
	g := &graph{
		nodes:    nodes,
		byID:     make(map[uint64]int, len(nodes)),
		children: make(map[uint64][]int),
		rootOf:   make([]int, len(nodes)),
	}
	for i := range nodes {
		id := nodes[i].ID
		if _, dup := g.byID[id]; dup {
			return nil, &RenderError{Op: opGenerate, NodeID: id, Err: ErrDuplicateID}
		}
		g.byID[id] = i
	}
	for i := range nodes {
		n := &nodes[i]
		if n.IsRoot() {
			g.roots = append(g.roots, i)
			continue
		}
		if _, ok := g.byID[n.ParentID]; !ok {
			return nil, &RenderError{Op: opGenerate, NodeID: n.ID, Err: ErrDanglingParent}
		}
		g.children[n.ParentID] = append(g.children[n.ParentID], i)
	}
	for i := range nodes {
		cur := i
		for steps := 0; !nodes[cur].IsRoot(); steps++ {
			if steps >= len(nodes) {
				return nil, &RenderError{Op: opGenerate, NodeID: nodes[i].ID, Err: ErrCycle}
			}
			cur = g.byID[nodes[cur].ParentID]
		}
		g.rootOf[i] = cur
	}
	for i := range nodes {
		n := &nodes[i]
		if n.Start.IsZero() {
			continue
		}
		if g.base.IsZero() || n.Start.Before(g.base) {
			g.base = n.Start
		}
		if n.Start.After(g.horizon) {
			g.horizon = n.Start
		}
		if n.End.After(g.horizon) {
			g.horizon = n.End
		}
	}
	return g, nil
}

func nodeRef(id uint64) string {
	return "c" + strconv.FormatUint(id, 10)
}

func displayName(n *xcomponent.Node) string {
	if n.Name == "" {
		return nodeRef(n.ID)
	}
	return n.Name
}

// formatDuration 以毫秒为单位、保留三位小数
func formatDuration(d time.Duration) string {
	return strconv.FormatFloat(float64(d)/float64(time.Millisecond), 'f', 3, 64) + "ms"
}

// annotations 返回节点的耗时与内存标注
func annotations(n *xcomponent.Node, cfg Config) []string {
	var out []string
	if cfg.ShowTiming {
		if n.Completed() {
			out = append(out, formatDuration(n.Duration()))
		} else {
			out = append(out, "running")
		}
	}
	if cfg.ShowMemory {
		if mem := n.Metadata[MetadataMemory]; mem != "" {
			out = append(out, "mem "+mem)
		}
	}
	return out
}

// chronological 按开始时间排序，时间相同按 ID
func (g *graph) chronological(idx []int) {
	slices.SortStableFunc(idx, func(a, b int) int {
		if c := g.nodes[a].Start.Compare(g.nodes[b].Start); c != 0 {
			return c
		}
		return cmp.Compare(g.nodes[a].ID, g.nodes[b].ID)
	})
}

// sections 按根节点分组，组的顺序与根节点的插入顺序一致
func (g *graph) sections() [][]int {
	pos := make(map[int]int, len(g.roots))
	out := make([][]int, len(g.roots))
	for k, r := range g.roots {
		pos[r] = k
	}
	for i := range g.nodes {
		k := pos[g.rootOf[i]]
		out[k] = append(out[k], i)
	}
	for _, idx := range out {
		g.chronological(idx)
	}
	return out
}

func (g *graph) flowchart(cfg Config) string {
	var b strings.Builder
	if cfg.Title != "" {
		b.WriteString("---\ntitle: ")
		b.WriteString(strconv.Quote(cfg.Title))
		b.WriteString("\n---\n")
	}
	b.WriteString("flowchart ")
	b.WriteString(cfg.Direction.Mermaid())
	b.WriteByte('\n')

	var active []string
	for i := range g.nodes {
		n := &g.nodes[i]
		b.WriteString("    ")
		b.WriteString(nodeRef(n.ID))
		b.WriteString(`["`)
		b.WriteString(labelEscaper.Replace(displayName(n)))
		for _, a := range annotations(n, cfg) {
			b.WriteString("<br/>")
			b.WriteString(labelEscaper.Replace(a))
		}
		b.WriteString("\"]\n")
		if !n.Completed() {
			active = append(active, nodeRef(n.ID))
		}
	}
	// 边按父节点分组，父节点与子节点均保持创建顺序
	for i := range g.nodes {
		parent := g.nodes[i].ID
		for _, c := range g.children[parent] {
			b.WriteString("    ")
			b.WriteString(nodeRef(parent))
			b.WriteString(" --> ")
			b.WriteString(nodeRef(g.nodes[c].ID))
			b.WriteByte('\n')
		}
	}
	if len(active) > 0 {
		b.WriteString("    classDef active stroke-dasharray: 5 5,stroke-width:2px\n")
		b.WriteString("    class ")
		b.WriteString(strings.Join(active, ","))
		b.WriteString(" active\n")
	}
	return b.String()
}

func (g *graph) timeline(cfg Config) string {
	var b strings.Builder
	b.WriteString("timeline\n    title ")
	b.WriteString(textEscaper.Replace(cmp.Or(cfg.Title, defaultTimelineTitle)))
	b.WriteByte('\n')
	for k, idx := range g.sections() {
		root := &g.nodes[g.roots[k]]
		b.WriteString("    section ")
		b.WriteString(textEscaper.Replace(displayName(root)))
		b.WriteByte('\n')
		for _, i := range idx {
			n := &g.nodes[i]
			b.WriteString("        ")
			b.WriteString(textEscaper.Replace(displayName(n)))
			for _, a := range annotations(n, cfg) {
				b.WriteString(" : ")
				b.WriteString(textEscaper.Replace(a))
			}
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func (g *graph) gantt(cfg Config) (string, error) {
	for i := range g.nodes {
		if g.nodes[i].Start.IsZero() {
			return "", &RenderError{Op: opGenerate, NodeID: g.nodes[i].ID, Err: ErrMissingStart}
		}
	}
	offset := func(t time.Time) int64 {
		return t.Sub(g.base).Milliseconds()
	}

	var b strings.Builder
	b.WriteString("gantt\n    title ")
	b.WriteString(textEscaper.Replace(cmp.Or(cfg.Title, defaultGanttTitle)))
	b.WriteString("\n    dateFormat x\n    axisFormat %S.%L\n")
	for k, idx := range g.sections() {
		root := &g.nodes[g.roots[k]]
		b.WriteString("    section ")
		b.WriteString(textEscaper.Replace(displayName(root)))
		b.WriteByte('\n')
		for _, i := range idx {
			n := &g.nodes[i]
			start := offset(n.Start)
			tag := "done"
			label := displayName(n)
			var end int64
			if n.Completed() {
				end = offset(n.End)
				if cfg.ShowTiming {
					label += " " + formatDuration(n.Duration())
				}
			} else {
				tag = "active"
				end = offset(g.horizon)
				label += " (ongoing)"
			}
			if cfg.ShowMemory {
				if mem := n.Metadata[MetadataMemory]; mem != "" {
					label += " mem " + mem
				}
			}
			// 不足 1ms 的任务在甘特图中不可见，最少占 1ms
			end = max(end, start+1)

			b.WriteString("        ")
			b.WriteString(textEscaper.Replace(label))
			b.WriteString(" :")
			b.WriteString(tag)
			b.WriteString(", ")
			b.WriteString(nodeRef(n.ID))
			b.WriteString(", ")
			b.WriteString(strconv.FormatInt(start, 10))
			b.WriteString(", ")
			b.WriteString(strconv.FormatInt(end, 10))
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
