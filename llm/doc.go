// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 llm 提供简报生成所用的大语言模型接入层。

# 核心接口

  - Provider: 统一的模型调用抽象，Completion 执行一次对话补全
  - Error: 带错误码、HTTP 状态与可重试标记的结构化错误

# 调用辅助

GenerateText 把 TextRequest（系统提示、用户输入、模型参数）组装为
ChatRequest，取第一个候选并去除首尾空白；空输出映射为 ErrEmptyResponse。

# 韧性

ResilientProvider 在任意 Provider 外包一层重试（子包 retry，指数退避）
与熔断（子包 circuitbreaker）。只有可重试错误会触发重试，4xx 类错误
不计入熔断失败次数。

	p := llm.NewResilientProvider(openaicompat.New(cfg, logger), llm.ResilientConfig{
		RetryPolicy:   retry.DefaultRetryPolicy(),
		BreakerConfig: circuitbreaker.DefaultConfig(),
	}, logger)
	text, err := llm.GenerateText(ctx, p, llm.TextRequest{System: sys, User: prompt})
*/
package llm
