package provider

import (
	"context"
	"time"
)

// Message 表示與 AI 模型的對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request 表示發送到 AI 提供者的請求
type Request struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	// JSONMode 要求模型只輸出 JSON 物件
	JSONMode bool `json:"-"`
}

// Response 表示從 AI 提供者收到的響應
type Response struct {
	Content string `json:"content"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// DeltaFunc 串流時每收到一段文字就呼叫一次，回傳錯誤會中止串流
type DeltaFunc func(delta string) error

// Provider 定義 AI 提供者介面
type Provider interface {
	// Generate 生成完整 AI 響應
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Stream 以串流方式生成，逐段回呼
	Stream(ctx context.Context, req *Request, onDelta DeltaFunc) error

	// GetModel 獲取當前使用的模型名稱
	GetModel() string

	// GetTimeout 獲取請求超時時間
	GetTimeout() time.Duration
}

// UserPrompt 建立單一使用者訊息的請求
func UserPrompt(prompt string, maxTokens int) *Request {
	return &Request{
		Messages: []Message{
			{Role: "user", Content: prompt},
		},
		MaxTokens: maxTokens,
		JSONMode:  true,
	}
}
