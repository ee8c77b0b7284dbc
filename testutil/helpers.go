// =============================================================================
// 🧪 测试辅助函数
// =============================================================================
// 提供上下文、通道等待与转写构造等通用测试辅助
//
// 使用方法:
//
//	ctx := testutil.TestContext(t)
//	ev, ok := testutil.WaitForChannel(ch, 2*time.Second)
//
// =============================================================================
package testutil

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/BaSui01/warmtransfer/types"
)

// =============================================================================
// 🎯 上下文辅助
// =============================================================================

// TestContext 返回带超时的测试上下文
func TestContext(t *testing.T) context.Context {
	return TestContextWithTimeout(t, 30*time.Second)
}

// TestContextWithTimeout 返回带自定义超时的测试上下文
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// =============================================================================
// ⏱️ 时间辅助
// =============================================================================

// WaitForChannel 等待通道接收或超时；通道关闭时返回零值与 false
func WaitForChannel[T any](ch <-chan T, timeout time.Duration) (T, bool) {
	select {
	case v, ok := <-ch:
		return v, ok
	case <-time.After(timeout):
		var zero T
		return zero, false
	}
}

// =============================================================================
// 🔧 测试数据辅助
// =============================================================================

// MustJSON 将值转换为 JSON 字符串，失败时 panic
func MustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Transcript 由 "Speaker: text" 行构造转写，时间戳从 start 起每行递增 step
func Transcript(start time.Time, step time.Duration, lines ...string) []types.TranscriptEntry {
	out := make([]types.TranscriptEntry, 0, len(lines))
	for i, line := range lines {
		speaker, text, ok := strings.Cut(line, ":")
		if !ok {
			speaker, text = "Unknown", line
		}
		out = append(out, types.TranscriptEntry{
			Speaker:   strings.TrimSpace(speaker),
			Text:      strings.TrimSpace(text),
			Timestamp: start.Add(time.Duration(i) * step),
		})
	}
	return out
}
