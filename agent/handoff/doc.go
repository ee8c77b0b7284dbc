/*
包 handoff 实现坐席间的热转接编排。

# 概述

一次热转接把正在进行的客户通话从 Agent A 交给 Agent B：先在独立的交接
房间里由 Agent A 向 Agent B 口头交代情况，再让 Agent B 进入原通话房间，
最后 Agent A 退出。Orchestrator 串起坐席名册、会话存储、媒体房间、
AI 简报与通知中继，是唯一可以修改坐席状态的组件。

# 状态机

	initiated -> in-progress -> completed
	initiated | in-progress -> failed（取消）

completed 与 failed 为终态。状态迁移全部通过 session.Manager.Update 的
版本号比较交换完成，并发的完成请求只有一个真正执行迁移与副作用，
其余请求得到 AlreadyCompleted 结果与新签发的令牌。

# 主要能力

  - InitiateTransfer：创建会话，并行建房与通话分析，生成简报并签发令牌
  - BeginBriefing：Agent B 已进入交接房间
  - CompleteTransfer：签发原房间令牌，移出 Agent A，释放 Agent A
  - CancelTransfer：置为 failed 并释放双方坐席，可重复调用
  - StartCall / EndCall：客户通话的开启与结束
  - RunSweeper：周期清理已完成的过期会话
*/
package handoff
