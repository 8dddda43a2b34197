// Package llm 提供 OpenAI 兼容接口的聊天模型客户端，实现 eino 的 BaseChatModel。
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	"github.com/utkarsh5026/TireNoHire/internal/logger"
)

const defaultAPIURL = "https://api.openai.com/v1/chat/completions"

// OpenAIChatModel 通过 OpenAI 兼容的 chat/completions 接口完成生成。
// 温度与 max_tokens 在构造时固定，不走 eino 的调用期选项。
type OpenAIChatModel struct {
	apiKey      string
	modelName   string
	apiURL      string
	temperature float64
	maxTokens   int
	httpClient  *http.Client
	log         zerolog.Logger
}

var _ model.BaseChatModel = (*OpenAIChatModel)(nil)

// ModelOption 构造期选项
type ModelOption func(*OpenAIChatModel)

// WithTemperature 设置采样温度
func WithTemperature(t float64) ModelOption {
	return func(m *OpenAIChatModel) { m.temperature = t }
}

// WithMaxTokens 设置生成长度上限
func WithMaxTokens(n int) ModelOption {
	return func(m *OpenAIChatModel) { m.maxTokens = n }
}

// WithHTTPTimeout 设置底层 HTTP 客户端超时
func WithHTTPTimeout(d time.Duration) ModelOption {
	return func(m *OpenAIChatModel) { m.httpClient.Timeout = d }
}

// NewOpenAIChatModel 创建客户端。apiURL 为空时使用官方地址。
func NewOpenAIChatModel(apiKey, modelName, apiURL string, opts ...ModelOption) (*OpenAIChatModel, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}
	if strings.TrimSpace(modelName) == "" {
		return nil, fmt.Errorf("模型名不能为空")
	}
	if strings.TrimSpace(apiURL) == "" {
		apiURL = defaultAPIURL
	}

	m := &OpenAIChatModel{
		apiKey:      apiKey,
		modelName:   modelName,
		apiURL:      apiURL,
		temperature: 0.1,
		httpClient:  &http.Client{Timeout: 120 * time.Second},
		log:         logger.WithComponent("llm_client"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

type chatCompletionRequest struct {
	Model       string            `json:"model"`
	Messages    []*schema.Message `json:"messages"`
	Temperature float64           `json:"temperature,omitempty"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
}

type chatCompletionResponse struct {
	ID      string `json:"id"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Generate 实现 model.BaseChatModel
func (m *OpenAIChatModel) Generate(ctx context.Context, messages []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	payload, err := json.Marshal(chatCompletionRequest{
		Model:       m.modelName,
		Messages:    messages,
		Temperature: m.temperature,
		MaxTokens:   m.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("序列化请求体失败: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.apiURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("创建 HTTP 请求失败: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送 HTTP 请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应体失败: %w", err)
	}
	m.log.Debug().
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Str("model", m.modelName).
		Msg("chat completion 调用完成")

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API 请求失败，状态 %s: %s", resp.Status, truncate(string(body), 512))
	}

	var completion chatCompletionResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return nil, fmt.Errorf("反序列化 API 响应失败: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("API 返回空 choices")
	}

	return schema.AssistantMessage(completion.Choices[0].Message.Content, nil), nil
}

// Stream 暂不支持流式输出
func (m *OpenAIChatModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, fmt.Errorf("流式输出未实现")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
