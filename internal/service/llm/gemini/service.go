package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/KNICEX/strategy-monitor/internal/service/llm"
	"github.com/google/generative-ai-go/genai"
)

const defaultModel = "gemini-2.0-flash"

var _ llm.Service = (*Service)(nil)

type Service struct {
	client      *genai.Client
	model       string
	temperature *float32
	maxTokens   *int32
}

func NewService(client *genai.Client, opts ...Option) llm.Service {
	svc := &Service{
		client: client,
		model:  defaultModel,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type Option func(service *Service)

func WithModel(model string) Option {
	return func(service *Service) {
		if model != "" {
			service.model = model
		}
	}
}

func WithTemperature(temp float32) Option {
	return func(service *Service) {
		service.temperature = &temp
	}
}

func WithMaxOutputTokens(n int32) Option {
	return func(service *Service) {
		service.maxTokens = &n
	}
}

// generativeModel 每次请求新建, 系统指令随问题变化
func (s *Service) generativeModel(system string) *genai.GenerativeModel {
	model := s.client.GenerativeModel(s.model)
	if s.temperature != nil {
		model.SetTemperature(*s.temperature)
	}
	if s.maxTokens != nil {
		model.SetMaxOutputTokens(*s.maxTokens)
	}
	if system != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(system))
	}
	return model
}

func (s *Service) AskOnce(ctx context.Context, q llm.Question) (llm.Answer, error) {
	resp, err := s.generativeModel(q.System).GenerateContent(ctx, genai.Text(q.Content))
	if err != nil {
		return llm.Answer{}, fmt.Errorf("gemini %s: %w", s.model, err)
	}
	content := parseResponse(resp)
	if content == "" {
		return llm.Answer{}, fmt.Errorf("gemini %s: %w", s.model, llm.ErrEmptyAnswer)
	}
	answer := llm.Answer{Content: content}
	if resp.UsageMetadata != nil {
		answer.InputToken = int(resp.UsageMetadata.PromptTokenCount)
		answer.OutputToken = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return answer, nil
}

func parseResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var resStr strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		text, ok := part.(genai.Text)
		if !ok {
			continue
		}
		if resStr.Len() > 0 {
			resStr.WriteString("\n")
		}
		resStr.WriteString(string(text))
	}
	return strings.TrimSpace(resStr.String())
}
