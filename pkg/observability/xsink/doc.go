// Package xsink 定义日志记录的输出目标（sink）。
//
// 核心只依赖 [Sink] 契约：Write 写入一条已渲染的记录，成功或失败，
// 调用方看不到部分写入；缓冲、轮转等策略完全由 sink 自己负责。
//
// # 实现
//
//   - [NewConsole]: 控制台（stdout/stderr），Close 不关闭底层 writer
//   - [NewFile]: 追加写普通文件
//   - [NewRotating]: 按大小/数量轮转的文件（基于 xrotate/lumberjack）
//   - [NewBuffered]: 每 N 条记录批量写入下游 sink
//   - [NewMemory]: 内存缓冲，按行保存，用于测试与基准
//   - [Discard]: 丢弃所有输出
//
// 所有写入失败都以 [*SinkError] 返回，可用 errors.As 获取 sink 名称与底层错误。
package xsink
