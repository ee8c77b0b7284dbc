// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
Package testutil 提供转接服务测试共享的辅助函数。

# 核心能力

  - 上下文辅助: TestContext / TestContextWithTimeout，自动注册 Cleanup
  - 通道等待: WaitForChannel，带超时读取推送事件
  - 数据工具: MustJSON / Transcript，简化请求体与转写构造

# 子包

  - testutil/mocks: MockProvider（LLM）、MockRoomService（媒体房间）、
    MockTelephony（电话运营商），均支持 Builder 模式与错误注入
  - testutil/fixtures: 预置坐席、模型输出样例与按提示路由的 Provider

# 使用示例

	ctx := testutil.TestContext(t)
	ch, cancel, _ := broker.Subscribe(ctx, "agent-b")
	defer cancel()
	ev, ok := testutil.WaitForChannel(ch, 2*time.Second)
*/
package testutil
