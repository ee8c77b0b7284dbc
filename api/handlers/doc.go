// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package handlers 提供热转接服务 HTTP API 的请求处理器实现。

# 概述

每个 Handler 只依赖一个小接口（AgentService、TransferService、
CallService、TranscriptStore、Analyst 等），由转接编排器与简报生成器实现，
测试中可直接替换。Set.Register 在 Go 1.22 风格的 ServeMux 上挂载全部路由。

# 核心类型

  - TransferHandler: 发起、简报、完成、取消、查询转接
  - AgentHandler: 坐席列表与状态变更
  - CallHandler: 客户通话的开始、查询与结束
  - TranscriptHandler: 通话转写的追加与快照
  - LLMHandler: 通话分析、情绪、回复建议、摘要
  - NotificationHandler: 通知轮询与 websocket 推送
  - RTCHandler: 媒体房间访问令牌
  - TelephonyHandler: 外呼、PSTN/SIP 转接、状态回调与 TwiML 文档
  - HealthHandler: /health、/healthz、/ready、/version

# 主要能力

  - 统一响应信封：WriteSuccess / WriteError / WriteJSON
  - 错误码到 HTTP 状态码的单表映射（StatusForCode）
  - 请求验证：DecodeJSONBody（1 MB 限制 + 严格模式）、ValidateContentType
*/
package handlers
