// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

// Package config 提供 WarmTransfer 服务的配置管理。
//
// 配置按 默认值 → YAML 文件 → WARMTRANSFER_* 环境变量 的顺序合并，
// 加载后由 Validate 校验。Reloader 监听配置文件，日志级别可在运行时调整，
// 其余段的变化记录为需要重启。
package config
