// Package xmetrics 把 telelog 的本地测量转发到 OpenTelemetry。
//
// [Observer] 接收两类事件：
//   - ProfileCompleted：一次性能剖析（ProfileGuard）结束
//   - ComponentStarted / ComponentCompleted：组件生命周期，同时满足 xcomponent.Hook
//
// 默认实现 [OTelObserver] 输出：
//   - telelog.profile.duration：剖析耗时直方图（ms），属性 logger / operation
//   - telelog.component.total：已结束组件计数，属性 component
//   - telelog.component.active：活跃组件数（UpDownCounter）
//   - telelog.component.duration：组件耗时直方图（ms），属性 component
//   - 每个组件一个 span，起止时间取组件记录的时间，父组件的 span 作为父 span
//
// 只转发本进程内的测量，不做跨进程传播，也不做聚合。
//
//	obs, err := xmetrics.NewOTelObserver(
//		xmetrics.WithMeterProvider(mp),
//		xmetrics.WithTracerProvider(tp),
//	)
package xmetrics
