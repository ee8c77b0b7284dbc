// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package types 提供 WarmTransfer 服务的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 agent、session、transcript、
briefing、notify、api 等上层模块提供统一的类型契约。

# 核心类型

  - Agent / AgentStatus: 坐席及其可用状态
  - TranscriptEntry: 通话转写条目（可附带情绪与意图）
  - CallAnalysis / Briefing: AI 生成的通话分析与交接简报
  - SentimentResult: 单句情绪分析结果
  - TransferSession: 转接会话（带乐观并发版本号）
  - CallSession: 客户通话会话
  - Error / ErrorCode: 结构化错误体系，含 HTTP 状态码与 Retryable 标记
*/
package types
