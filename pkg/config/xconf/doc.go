// Package xconf 基于 koanf 加载 YAML/JSON 配置，并可监视文件变更自动重载。
//
// [Load] 按扩展名（.yaml/.yml/.json）识别格式，[LoadBytes] 需要显式指定格式。
// [Source.Decode] 通过 mapstructure 反序列化到结构体，字段标签默认为 "koanf"，
// 实现了 encoding.TextUnmarshaler 的字段（如日志级别、图表类型）直接从字符串解析，
// time.Duration 字段接受 "150ms" 这样的写法。
//
// # 并发安全
//
// Reload 解析成功后原子替换 koanf 实例，解析失败时保留旧配置。
// Koanf() 返回的实例是快照，Reload 后仍可使用但数据已过期。
//
// # 配置监视
//
// [Watch] 监视配置文件所在目录（兼容编辑器先写临时文件再 rename 的保存方式），
// 多次变更在防抖窗口内合并为一次 Reload。Stop 返回后监视循环已退出。
package xconf
