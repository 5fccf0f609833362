package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"recipe-planner/internal/core/ai"
	"recipe-planner/internal/core/ai/provider"
	"recipe-planner/internal/infrastructure/config"
	"recipe-planner/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

var _ provider.Provider = (*OpenRouterService)(nil)

// OpenRouterService OpenRouter 服務
type OpenRouterService struct {
	config *config.OpenRouterConfig
	client *resty.Client
}

// NewOpenRouterService 創建 OpenRouter 服務
func NewOpenRouterService(cfg *config.OpenRouterConfig) *OpenRouterService {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey)).
		SetHeader("HTTP-Referer", "https://recipe-planner.app").
		SetHeader("X-Title", "Recipe Planner")

	return &OpenRouterService{
		config: cfg,
		client: client,
	}
}

// GetModel 模型名稱
func (s *OpenRouterService) GetModel() string {
	return s.config.Model
}

// GetTimeout 請求超時
func (s *OpenRouterService) GetTimeout() time.Duration {
	return s.config.Timeout
}

func (s *OpenRouterService) body(req *provider.Request, stream bool) map[string]interface{} {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = s.config.MaxTokens
	}
	body := map[string]interface{}{
		"model":      s.config.Model,
		"messages":   req.Messages,
		"max_tokens": maxTokens,
		"stream":     stream,
	}
	if req.Temperature > 0 {
		body["temperature"] = req.Temperature
	}
	if req.JSONMode {
		body["response_format"] = map[string]string{"type": "json_object"}
	}
	return body
}

// Generate 生成完整回應
func (s *OpenRouterService) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	start := time.Now()
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(s.body(req, false)).
		Post("/chat/completions")
	if err != nil {
		return nil, fmt.Errorf("failed to send request to OpenRouter: %w", err)
	}

	if resp.StatusCode() != http.StatusOK {
		common.LogError("OpenRouter returned error status",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("model", s.config.Model),
		)
		return nil, fmt.Errorf("OpenRouter API returned %d: %s", resp.StatusCode(), resp.String())
	}

	var result ai.Response
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, fmt.Errorf("failed to parse OpenRouter response: %w", err)
	}
	if len(result.Choices) == 0 || result.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("no choices in OpenRouter response")
	}

	out := &provider.Response{Content: result.Choices[0].Message.Content}
	out.Usage.PromptTokens = result.Usage.PromptTokens
	out.Usage.CompletionTokens = result.Usage.CompletionTokens
	out.Usage.TotalTokens = result.Usage.TotalTokens

	common.LogDebug("OpenRouter completion finished",
		zap.String("model", s.config.Model),
		zap.Int("total_tokens", out.Usage.TotalTokens),
		zap.Duration("latency", time.Since(start)),
	)
	return out, nil
}

// Stream 以 SSE 串流生成，逐段把 delta 內容交給 onDelta
func (s *OpenRouterService) Stream(ctx context.Context, req *provider.Request, onDelta provider.DeltaFunc) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetHeader("Accept", "text/event-stream").
		SetBody(s.body(req, true)).
		Post("/chat/completions")
	if err != nil {
		return fmt.Errorf("failed to open OpenRouter stream: %w", err)
	}
	raw := resp.RawBody()
	defer raw.Close()

	if resp.StatusCode() != http.StatusOK {
		var apiErr ai.APIError
		_ = common.DecodeJSON(raw, &apiErr)
		if apiErr.Error != nil {
			return fmt.Errorf("OpenRouter API returned %d: %s", resp.StatusCode(), apiErr.Error.Message)
		}
		return fmt.Errorf("OpenRouter API returned %d", resp.StatusCode())
	}

	return ScanSSE(raw, onDelta)
}

// ScanSSE 解析 chat completions 的 SSE 串流
// 忽略註解行（": OPENROUTER PROCESSING"），遇到 [DONE] 結束
func ScanSSE(r io.Reader, onDelta provider.DeltaFunc) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ":") {
			continue
		}
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			return nil
		}

		var chunk struct {
			ai.Response
			ai.APIError
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("malformed stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return fmt.Errorf("OpenRouter stream error: %s", chunk.Error.Message)
		}
		for _, choice := range chunk.Choices {
			if choice.Delta.Content == "" {
				continue
			}
			if err := onDelta(choice.Delta.Content); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read OpenRouter stream: %w", err)
	}
	return nil
}
