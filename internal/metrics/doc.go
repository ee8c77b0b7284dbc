// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的服务指标采集能力，覆盖
HTTP、简报模型、转接编排、坐席通知与数据库五个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离。

# 核心类型

  - Collector：指标收集器，同时实现 briefing.Recorder 与
    handoff.Recorder，由启动流程注入到简报生成器与转接编排器。

# 主要能力

  - HTTP 指标：请求总数、耗时、请求/响应体大小，状态码归类为 2xx/3xx/4xx/5xx。
  - 模型指标：按 operation 统计成功与降级次数、调用耗时，以及熔断器状态。
  - 转接指标：状态迁移计数、编排操作结果与耗时、清理会话数。
  - 坐席与通知：坐席状态变化计数、通知发布结果计数。
  - 数据库指标：活跃/空闲连接数 Gauge。
*/
package metrics
