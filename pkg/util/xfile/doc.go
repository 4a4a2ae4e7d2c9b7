// Package xfile 提供日志与图表落盘所需的路径工具。
//
//   - [SanitizePath]: 规范化文件路径，拒绝空路径、空字节、相对路径穿越和目录路径
//   - [EnsureDir]: 创建文件的父目录（0750）
//   - [SiblingPath]: 基于原路径派生同目录下不同扩展名的路径（图表降级输出使用）
//   - [JoinName]: 将单个文件名拼接到目录下，文件名不得包含分隔符
//   - [WriteFile]: 规范化路径、创建父目录后写入文件
//
// 预定义错误支持 [errors.Is] 判断。
package xfile
