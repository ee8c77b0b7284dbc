// =============================================================================
// 📦 测试数据工厂 - 坐席与通话数据
// =============================================================================
// 提供预定义的坐席名册和通话转写，用于测试
// =============================================================================
package fixtures

import (
	"time"

	"github.com/BaSui01/warmtransfer/types"
)

// =============================================================================
// 🤖 坐席名册
// =============================================================================

// Roster 返回一个两人名册，Bob 为计费专员
func Roster() []types.Agent {
	return []types.Agent{
		{ID: "agent-a", Name: "Agent Alice", Type: types.AgentTypeAI, Status: types.AgentAvailable, Capabilities: []string{"general"}},
		{ID: "agent-b", Name: "Agent Bob", Type: types.AgentTypeAI, Status: types.AgentAvailable, Capabilities: []string{"billing", "refunds"}},
	}
}

// =============================================================================
// 💬 通话转写
// =============================================================================

// BillingTranscriptLines 返回一段关于重复扣费的 5 行通话
func BillingTranscriptLines() []string {
	return []string{
		"Customer: Hi, I was charged twice for my subscription this month.",
		"Agent: I'm sorry to hear that. Let me pull up your account.",
		"Customer: Both charges are $49.99 on the same day.",
		"Agent: I can see the duplicate charge. A billing specialist can process the refund.",
		"Customer: Okay, please transfer me, I need the refund today.",
	}
}

// BillingTranscript 返回带时间戳的同一段通话，间隔 10 秒
func BillingTranscript(start time.Time) []types.TranscriptEntry {
	lines := BillingTranscriptLines()
	speakers := []string{"Customer", "Agent", "Customer", "Agent", "Customer"}
	out := make([]types.TranscriptEntry, len(lines))
	for i, line := range lines {
		out[i] = types.TranscriptEntry{
			Timestamp: start.Add(time.Duration(i) * 10 * time.Second),
			Speaker:   speakers[i],
			Text:      line[len(speakers[i])+2:],
		}
	}
	return out
}

// CallContext 返回以 BillingTranscriptLines 为转写的通话上下文
func CallContext(start time.Time) types.CallContext {
	return types.CallContext{
		StartTime:  start,
		Transcript: BillingTranscriptLines(),
		Metadata:   map[string]string{"channel": "web"},
	}
}
