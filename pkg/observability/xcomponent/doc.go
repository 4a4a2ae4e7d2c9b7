// Package xcomponent 追踪组件（逻辑工作单元）的生命周期与嵌套关系。
//
// [Tracker.Track] 创建一个活跃节点并压入当前调用链的活跃栈，
// 返回的 [Guard] 在 Release 时弹栈并记录结束时间。节点的父节点是
// 创建时调用链活跃栈的栈顶，栈为空则为根节点。
//
//	g := tracker.Track(ctx, "Database")
//	defer g.Release()
//
// # 调用链
//
// 默认以 goroutine 为调用链：同一 goroutine 内的 Track 形成父子关系，
// 不同 goroutine 各自维护活跃栈，互不干扰。需要跨 goroutine 共享栈时，
// 用 [NewChain] 派生 context 并把它传给 Track，此时以 context 中的
// 显式链 ID 为准。
//
// # 并发
//
// 节点表和所有活跃栈由同一把互斥锁保护，锁只覆盖表/栈的更新，
// 不跨越 Hook 回调和业务代码。ID 单调递增，在 Tracker 生命周期内唯一
// （Reset 后也不复用）。
//
// # 使用约束
//
// 同一调用链上的 Guard 必须按创建的逆序释放。乱序释放不会 panic，
// 但由此得到的树形结构不做保证。
//
// 节点表不做淘汰：长期运行且从不 Reset 的进程会持续累积历史节点，
// 需要调用方定期导出后 [Tracker.Reset]。
package xcomponent
