// Package xlog 基于 log/slog 的结构化日志库，附带操作剖析与组件追踪。
//
// # 核心功能
//
//   - 五个级别：Debug、Info、Warning、Error、Critical，可在运行时调整
//   - 全局键值上下文（AddContext / ScopedContext），附加到之后的每条记录
//   - 操作剖析（Profile），结束时记录耗时
//   - 组件追踪（TrackComponent），生成 Mermaid 流程图、时间线、甘特图
//   - 多输出：控制台、文件、轮转文件、缓冲，以及任意 [xsink.Sink]
//   - 可选 OpenTelemetry 导出（[xmetrics.OTelObserver]）
//
// # 创建 Logger
//
// 使用 Builder 模式（first-error-wins：遇到第一个配置错误后，Build 返回该错误）：
//
//	logger, cleanup, err := xlog.New().
//		SetName("api").
//		SetLevel(xlog.LevelDebug).
//		SetRotation("logs/api.log", 10<<20, 5).
//		Build()
//	if err != nil {
//		return err
//	}
//	defer cleanup()
//
// 或者从配置创建，配置可以来自预设或 YAML/JSON 文件：
//
//	cfg, err := xlog.LoadConfig("telelog.yaml")
//	logger, cleanup, err := xlog.NewFromConfig("api", cfg)
//
// cleanup 只执行一次：先生成自动图表，再刷新并关闭所有输出。
//
// # 热路径
//
// 级别检查是每个日志方法的第一步，被过滤的记录不加锁、不分配内存。
// 上下文以写时复制的快照发布，写日志时只做一次原子读取。
//
// # 共享状态
//
// [Logger.Clone]、[Logger.With] 和 [Logger.WithGroup] 得到的句柄共享上下文、
// 级别、组件追踪器、错误计数和输出。上下文是全局的，不随句柄或 goroutine 隔离。
//
// # 守卫
//
// [ContextGuard]、[ProfileGuard] 和 [xcomponent.Guard] 都适合 defer：
//
//	defer logger.ScopedContext("request_id", id).Release()
//	defer logger.Profile(ctx, "handle").End()
//	defer logger.TrackComponent(ctx, "Handler").Release()
//
// 三者的 Release/End 都是幂等的。ContextGuard 不恢复旧值：key 被之后的写入覆盖时，
// Release 不做任何事。
//
// # 错误处理
//
// 日志方法从不返回错误。输出失败交给 [Builder.SetOnError] 设置的回调
// （默认写一行到 stderr），并计入 [ErrorCount]。
package xlog
