// Package observability 提供日志、剖析与组件追踪相关的子包。
//
// 子包列表：
//   - xlog: 结构化日志，上下文、剖析与组件追踪的入口
//   - xcomponent: 组件追踪器，按调用链维护父子关系
//   - xchart: 由组件快照生成 Mermaid 流程图、时间线、甘特图
//   - xsink: 日志输出（控制台、文件、轮转、缓冲、内存）
//   - xrotate: 日志文件轮转（lumberjack）
//   - xmetrics: 剖析与组件事件的 OpenTelemetry 导出
package observability
