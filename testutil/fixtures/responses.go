// =============================================================================
// 📦 测试数据工厂 - LLM 响应数据
// =============================================================================
// 提供简报生成各环节的典型模型输出，以及按系统提示路由的 MockProvider
// =============================================================================
package fixtures

import (
	"github.com/BaSui01/warmtransfer/testutil/mocks"
)

// =============================================================================
// 🧾 模型输出
// =============================================================================

// AnalysisJSON 是重复扣费通话的分析结果，外层带 markdown 代码块
const AnalysisJSON = "```json\n" + `{
  "summary": "Customer was double charged for a billing subscription and wants a refund today.",
  "keyPoints": ["Duplicate $49.99 charge", "Same-day charges", "Refund requested"],
  "customerSentiment": "Negative",
  "urgency": "high",
  "category": "billing",
  "actionItems": ["Verify duplicate charge", "Issue refund"],
  "transferReason": "Needs refund authorization",
  "recommendedAgent": "billing"
}` + "\n```"

// BriefingJSON 是交接简报
const BriefingJSON = `{
  "briefSummary": "Double charge of $49.99, customer wants a refund today.",
  "spokenHandoff": "Hi Bob, I have a customer who was charged twice this month. They need a refund processed today.",
  "writtenNotes": "Duplicate subscription charge, both $49.99 on the same day. Customer is frustrated; refund expected today."
}`

// SentimentJSON 是单句情绪分类
const SentimentJSON = `{"sentiment": "negative", "confidence": 0.92, "intent": "complaint"}`

// SuggestionsJSON 是三条回复建议
const SuggestionsJSON = `["I understand how frustrating a double charge is.", "I've started the refund for the duplicate charge.", "Is there anything else on your bill I can check?"]`

// =============================================================================
// 🎯 Provider 工厂
// =============================================================================

// BriefingProvider 返回按系统提示路由到上述输出的 MockProvider
func BriefingProvider() *mocks.MockProvider {
	return mocks.NewMockProvider().
		WithRoute("AI call analyst", AnalysisJSON).
		WithRoute("transfer briefing", BriefingJSON).
		WithRoute("sentiment and intent", SentimentJSON).
		WithRoute("response suggestions", SuggestionsJSON)
}
