// Package xchart 将组件追踪快照渲染为 Mermaid 图表。
//
// 支持三种图表：
//   - [Flowchart]：每个组件一个节点、每条父子关系一条边，活跃组件以虚线样式标记
//   - [Timeline]：每个根组件一个 section，section 内按开始时间排列所有后代
//   - [Gantt]：每个组件一个任务，按根组件分 section，时间轴以快照中最早的开始时间为 0
//
// [Generate] 是纯函数：同一快照与同一配置总是产生逐字节相同的输出，
// 生成过程不读取当前时间。活跃组件的结束位置取快照中出现的最晚时刻。
//
// [Generator.Save] 通过 [Renderer]（默认 mmdc 命令行）渲染为 svg/png/pdf，
// 渲染失败时退回为写入同名 .mmd 文本文件，这种退回不视为错误。
package xchart
