package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/MdKasif0/FairDesk-v2/config"
)

// ErrEmptyResponse 模型未返回可用内容
var ErrEmptyResponse = errors.New("AI 返回内容为空")

// GeminiClient 基于 Gemini 的 SuggestionClient / AlertClient 实现
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
	logger *zap.Logger
}

// NewGeminiClient 创建 Gemini 客户端
func NewGeminiClient(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("未配置 AI API Key")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  client.GenerativeModel(cfg.Model),
		logger: logger,
	}, nil
}

// Close 释放底层连接
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

// SuggestArrangement 生成完整排座建议
func (c *GeminiClient) SuggestArrangement(ctx context.Context, input SuggestionInput) (map[string]string, error) {
	pastJSON, _ := json.Marshal(input.PastOverrides)
	lockedJSON, _ := json.Marshal(input.LockedSeats)

	prompt := fmt.Sprintf(`You are an AI assistant that suggests seat arrangements for employees, taking into account fairness, locked seats, and past seat override requests.

Given the following information, create a seat arrangement that is as fair as possible, considering the past override requests of each employee as a strong indicator of their preferences.

Employees: %s
Seats: %s
Past Approved Override Requests (as preferences): %s
Locked Seats (these assignments MUST NOT change): %s
Fairness Metric: %q

Output a JSON object where the keys are employee names and the values are the assigned seat names.

Ensure every employee has an assigned seat and every seat has one employee assigned to it. The users with locked seats must remain in their specified seats.`,
		strings.Join(input.Employees, ", "),
		strings.Join(input.Seats, ", "),
		pastJSON, lockedJSON, input.FairnessMetric,
	)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	raw := extractJSON(text)
	if raw == "" {
		c.logger.Warn("AI 排座建议中未找到有效 JSON", zap.String("snippet", snippet(text)))
		return nil, ErrEmptyResponse
	}

	var mapping map[string]string
	if err := json.Unmarshal([]byte(raw), &mapping); err != nil {
		return nil, fmt.Errorf("解析 AI 排座建议失败: %w", err)
	}
	return mapping, nil
}

// AlertMessage 生成审批结果提示语
func (c *GeminiClient) AlertMessage(ctx context.Context, input AlertInput) (string, error) {
	outcome := "rejected"
	if input.IsApproved {
		outcome = "approved"
	}

	prompt := fmt.Sprintf(`You are an AI assistant that alerts the user on the status of their seat change request.

The user had requested to swap from seat %s to get seat %s.

The seat change request required %d approvals and has received %d approvals. The request was %s.

Generate a concise, friendly message to display to the user about the status of their seat change request. The message should clearly state whether the request was approved or rejected and what the outcome is. Reply with the message text only.`,
		input.CurrentSeat, input.ProposedSeat,
		input.ApprovalsNeeded, input.ApprovalsReceived, outcome,
	)

	text, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// generate 调用模型并拼接全部文本片段
func (c *GeminiClient) generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("调用 Gemini 失败: %w", err)
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if txt, ok := part.(genai.Text); ok {
				sb.WriteString(string(txt))
			}
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmptyResponse
	}
	return sb.String(), nil
}

// extractJSON 从模型输出中提取第一个完整的 JSON 对象
// 兼容 markdown 代码块（```json ... ```）与夹杂的说明文字
func extractJSON(raw string) string {
	if start := strings.Index(raw, "```json"); start != -1 {
		raw = raw[start+7:]
		if end := strings.Index(raw, "```"); end != -1 {
			raw = raw[:end]
		}
	} else if start := strings.Index(raw, "```"); start != -1 {
		raw = raw[start+3:]
		if end := strings.Index(raw, "```"); end != -1 {
			raw = raw[:end]
		}
	}

	start := strings.Index(raw, "{")
	if start == -1 {
		return ""
	}
	end := strings.LastIndex(raw, "}")
	if end == -1 || end < start {
		return ""
	}

	candidate := raw[start : end+1]
	if json.Valid([]byte(candidate)) {
		return candidate
	}
	return ""
}

func snippet(s string) string {
	if len(s) > 200 {
		return s[:200]
	}
	return s
}
