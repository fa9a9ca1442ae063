package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/DeeipChheda/warmup-master-main/internal/spamscore"
)

const (
	defaultOpenAIModel   = openai.GPT4o
	defaultMaxBodySize   = 8000
	defaultAnalyzerScore = 50
	defaultInboxRate     = 70
)

const analyzerSystemPrompt = `You are an expert email deliverability analyst specializing in cold outreach and email marketing.
Analyze emails for spam indicators and provide actionable recommendations.
Focus on: spam trigger words, formatting issues, link density, call-to-action clarity, personalization, and compliance.`

const analyzerPromptFormat = `Analyze this %s email for spam risk:

SUBJECT: %s

BODY:
%s

Respond only with a JSON object:
{"spam_score": int 0-100, "risk_factors": [string], "positive_factors": [string], "recommendations": [string], "predicted_inbox_rate": int 0-100}`

type analyzerResponse struct {
	SpamScore          *int     `json:"spam_score"`
	RiskFactors        []string `json:"risk_factors"`
	PositiveFactors    []string `json:"positive_factors"`
	Recommendations    []string `json:"recommendations"`
	PredictedInboxRate *int     `json:"predicted_inbox_rate"`
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

var _ spamscore.Analyzer = (*OpenAIAnalyzer)(nil)

// OpenAIAnalyzer scores content with a chat completion model. Any failure is
// reported as spamscore.ErrAnalysisUnavailable so the scorer falls back.
type OpenAIAnalyzer struct {
	client      *openai.Client
	model       string
	maxBodySize int
	logger      *zap.Logger
}

func NewOpenAIAnalyzer(cfg OpenAIConfig, logger *zap.Logger) (*OpenAIAnalyzer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		clientCfg.BaseURL = baseURL
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultOpenAIModel
	}

	return &OpenAIAnalyzer{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		maxBodySize: defaultMaxBodySize,
		logger:      logger,
	}, nil
}

func (a *OpenAIAnalyzer) Analyze(ctx context.Context, content spamscore.Content) (spamscore.Analysis, error) {
	prompt := fmt.Sprintf(analyzerPromptFormat,
		strings.ReplaceAll(content.Mode.String(), "_", " "),
		content.Subject,
		a.truncateBody(content.Body),
	)

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: analyzerSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return spamscore.Analysis{}, fmt.Errorf("%w: chat completion: %v", spamscore.ErrAnalysisUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return spamscore.Analysis{}, fmt.Errorf("%w: empty response", spamscore.ErrAnalysisUnavailable)
	}

	parsed, err := parseAnalyzerResponse(resp.Choices[0].Message.Content)
	if err != nil {
		return spamscore.Analysis{}, err
	}

	a.logger.Debug("content analyzed",
		zap.String("model", a.model),
		zap.String("responseId", resp.ID),
	)
	return parsed, nil
}

// parseAnalyzerResponse accepts bare JSON or JSON wrapped in prose or code
// fences.
func parseAnalyzerResponse(text string) (spamscore.Analysis, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return spamscore.Analysis{}, fmt.Errorf("%w: no JSON object in response", spamscore.ErrAnalysisUnavailable)
	}

	var raw analyzerResponse
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return spamscore.Analysis{}, fmt.Errorf("%w: unparseable response: %v", spamscore.ErrAnalysisUnavailable, err)
	}

	score := defaultAnalyzerScore
	if raw.SpamScore != nil {
		score = *raw.SpamScore
	}
	inbox := defaultInboxRate
	if raw.PredictedInboxRate != nil {
		inbox = *raw.PredictedInboxRate
	}

	return spamscore.Normalize(spamscore.Analysis{
		Score:              score,
		Recommendations:    raw.Recommendations,
		PredictedInboxRate: inbox,
		RiskFactors:        raw.RiskFactors,
		PositiveFactors:    raw.PositiveFactors,
		Source:             spamscore.SourceAnalyzer,
	}), nil
}

func (a *OpenAIAnalyzer) truncateBody(body string) string {
	if a.maxBodySize <= 0 || len(body) <= a.maxBodySize {
		return body
	}
	cut := a.maxBodySize
	for cut > 0 && !utf8.RuneStart(body[cut]) {
		cut--
	}
	return body[:cut] + "\n[... truncated ...]"
}
