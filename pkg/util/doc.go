// Package util 提供通用工具相关的子包。
//
// 子包列表：
//   - xfile: 路径检查、父目录创建、同名文件派生
package util
