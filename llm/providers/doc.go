// Copyright 2026 AgentFlow Authors. All rights reserved.
// Use of this source code is governed by the project license.

/*
# 概述

包 providers 提供 Provider 实现共享的协议结构与错误映射，
具体服务商适配位于子包 openaicompat。

# 核心函数

  - MapHTTPError: 将 HTTP 状态码映射为 llm.Error（含 Retryable 标记）
  - MapTransportError: 将超时与连接错误映射为上游错误，保留上下文取消
  - ReadErrorMessage: 从错误响应体提取可读信息
  - ConvertMessages / ToChatResponse: OpenAI 兼容格式与 llm 类型互转

# 核心类型

  - OpenAICompat* 系列: Chat Completions 请求、响应与错误体结构
  - ResponseFormat: JSON 输出模式开关
*/
package providers
