// Package xrotate 提供按大小轮转的日志文件写入器，是 xsink 旋转文件输出的底层实现。
//
// [Rotator] 是 io.WriteCloser 的超集，额外提供 Rotate 手动轮转；所有实现并发安全。
//
// # 当前实现
//
//   - [NewLumberjack]: 基于 lumberjack v2，按字节上限和保留文件数轮转
//
// lumberjack 以 MB 为大小单位，[WithMaxBytes] 会向上取整到整 MB（最小 1MB），
// 因此轮转粒度为 1MB。
package xrotate
