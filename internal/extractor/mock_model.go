package extractor

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

// MockChatModel 测试用聊天模型。
// SequentialResponses 非空时按调用顺序依次返回（错误在响应为 nil 的位置触发 ExpectedError），
// 否则固定返回 ExpectedResponse / ExpectedError。
// ReceivedMessages 记录所有调用收到的消息，便于断言提示词内容。
type MockChatModel struct {
	mu sync.Mutex

	ExpectedResponse string
	ExpectedError    error

	// SequentialResponses 第 i 次调用返回第 i 项；空串项表示该次返回 ExpectedError
	SequentialResponses []string

	CallCount        int
	ReceivedMessages [][]*schema.Message
}

var _ model.BaseChatModel = (*MockChatModel)(nil)

// Generate 按配置返回响应或错误
func (m *MockChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	received := make([]*schema.Message, len(input))
	copy(received, input)
	m.ReceivedMessages = append(m.ReceivedMessages, received)

	idx := m.CallCount
	m.CallCount++

	if len(m.SequentialResponses) > 0 {
		if idx >= len(m.SequentialResponses) {
			return nil, fmt.Errorf("mock: 第 %d 次调用超出预设响应数量 %d", idx+1, len(m.SequentialResponses))
		}
		resp := m.SequentialResponses[idx]
		if resp == "" {
			if m.ExpectedError != nil {
				return nil, m.ExpectedError
			}
			return nil, fmt.Errorf("mock: 预设的失败响应")
		}
		return schema.AssistantMessage(resp, nil), nil
	}

	if m.ExpectedError != nil {
		return nil, m.ExpectedError
	}
	return schema.AssistantMessage(m.ExpectedResponse, nil), nil
}

// Stream 测试中不使用流式
func (m *MockChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("mock: 不支持流式输出")
}

// Calls 返回累计调用次数
func (m *MockChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.CallCount
}
