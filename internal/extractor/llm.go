// Package extractor 封装面向 LLM 的结构化提取：
// 提示词组装、限流、带退避的重试、以及对模型输出的 JSON 纠错解析。
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/utkarsh5026/TireNoHire/internal/constants"
	"github.com/utkarsh5026/TireNoHire/internal/logger"
)

// Client 各提取器与分析器共享的 LLM 调用底座
type Client struct {
	model       model.BaseChatModel
	limiter     *rate.Limiter
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	log         zerolog.Logger
}

// Option 调整提取器调用行为
type Option func(*Client)

// WithTimeout 设置单次模型调用超时
func WithTimeout(d time.Duration) Option {
	return func(b *Client) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithMaxAttempts 设置最大尝试次数（含首次）
func WithMaxAttempts(n int) Option {
	return func(b *Client) {
		if n > 0 {
			b.maxAttempts = n
		}
	}
}

// WithBackoff 设置退避基础值与上限，测试中可设为 0 加速
func WithBackoff(base, cap time.Duration) Option {
	return func(b *Client) {
		b.backoffBase = base
		if cap > 0 {
			b.backoffCap = cap
		}
	}
}

// WithQPM 设置每分钟请求数限制，0 表示不限
func WithQPM(qpm int) Option {
	return func(b *Client) {
		if qpm > 0 {
			b.limiter = rate.NewLimiter(rate.Limit(float64(qpm)/60.0), 1)
		}
	}
}

func NewClient(m model.BaseChatModel, component string, opts ...Option) *Client {
	b := &Client{
		model:       m,
		timeout:     60 * time.Second,
		maxAttempts: constants.ExtractorMaxAttempts,
		backoffBase: time.Duration(constants.ExtractorBackoffBaseSeconds) * time.Second,
		backoffCap:  time.Duration(constants.ExtractorBackoffCapSeconds) * time.Second,
		log:         logger.WithComponent(component),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// generate 单次模型调用：限流 -> 超时保护 -> Generate
func (b *Client) generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if b.limiter != nil {
		if err := b.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("等待限流令牌失败: %w", err)
		}
	}

	callCtx := ctx
	if b.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	messages := []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(userPrompt),
	}
	resp, err := b.model.Generate(callCtx, messages)
	if err != nil {
		return "", fmt.Errorf("LLM 调用失败: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("LLM 返回空响应")
	}
	return resp.Content, nil
}

// GenerateJSON 带指数退避的结构化生成：每次尝试包含一次模型调用
// 与一次 JSON 解析，两者任一失败都算尝试失败。
// 上下文取消会立刻中止并原样返回 ctx.Err。
func (b *Client) GenerateJSON(ctx context.Context, systemPrompt, userPrompt string, v interface{}) error {
	var lastErr error
	for attempt := 0; attempt < b.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		if attempt > 0 {
			wait := b.backoffDelay(attempt)
			b.log.Warn().
				Err(lastErr).
				Int("attempt", attempt+1).
				Dur("backoff", wait).
				Msg("提取重试")
			if wait > 0 {
				timer := time.NewTimer(wait)
				select {
				case <-ctx.Done():
					timer.Stop()
					return ctx.Err()
				case <-timer.C:
				}
			}
		}

		out, err := b.generate(ctx, systemPrompt, userPrompt)
		if err == nil {
			if err = DecodeModelJSON(out, v); err == nil {
				return nil
			}
		}
		lastErr = err
	}
	return fmt.Errorf("重试 %d 次后仍然失败: %w", b.maxAttempts, lastErr)
}

// backoffDelay 第 attempt 次重试前的等待：base * 2^(attempt-1)，封顶 cap
func (b *Client) backoffDelay(attempt int) time.Duration {
	if b.backoffBase <= 0 {
		return 0
	}
	wait := b.backoffBase << (attempt - 1)
	if wait > b.backoffCap {
		wait = b.backoffCap
	}
	return wait
}

// extractJSONPayload 从模型输出中定位 JSON 体。
// 优先提取 markdown 代码围栏内的内容，否则按花括号层级扫描首个完整对象。
func extractJSONPayload(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.TrimSpace(text)

	if idx := strings.Index(text, "```"); idx != -1 {
		rest := text[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		rest = strings.TrimPrefix(rest, "JSON")
		if end := strings.Index(rest, "```"); end != -1 {
			text = rest[:end]
		} else {
			text = rest
		}
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return ""
	}
	level := 0
	inStr := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inStr = !inStr
		case inStr:
		case c == '{':
			level++
		case c == '}':
			level--
			if level == 0 {
				return text[start : i+1]
			}
		}
	}
	return ""
}

// sanitizeJSON 把字符串字面量内部未转义的双引号改写为 \"。
// 判断依据：一个 " 若后面的首个非空白字符不是 : , ] }，
// 则认为它不是字符串的真正结束。
func sanitizeJSON(src string) string {
	var b strings.Builder
	inStr := false
	escaped := false

	for i := 0; i < len(src); i++ {
		c := src[i]

		switch {
		case c == '"' && !escaped:
			if !inStr {
				inStr = true
				b.WriteByte(c)
			} else {
				j := i + 1
				for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\n' || src[j] == '\r') {
					j++
				}
				if j >= len(src) || src[j] == ':' || src[j] == ',' || src[j] == ']' || src[j] == '}' {
					inStr = false
					b.WriteByte(c)
				} else {
					b.WriteString("\\\"")
				}
			}
			escaped = false
		case c == '\\' && !escaped:
			escaped = true
			b.WriteByte(c)
		default:
			b.WriteByte(c)
			escaped = false
		}
	}
	return b.String()
}

// DecodeModelJSON 解析模型输出为目标结构。
// 直接解析失败后尝试 sanitizeJSON 修复再解析一次。
func DecodeModelJSON(raw string, v interface{}) error {
	payload := extractJSONPayload(raw)
	if payload == "" {
		return fmt.Errorf("模型输出中未找到 JSON 对象")
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		repaired := sanitizeJSON(payload)
		if err2 := json.Unmarshal([]byte(repaired), v); err2 != nil {
			return fmt.Errorf("JSON 反序列化失败: %w", err)
		}
	}
	return nil
}
