package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/config"
	"github.com/mmbmurphy/banner-content-app-sub001/internal/models"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/logger"
	"github.com/mmbmurphy/banner-content-app-sub001/pkg/response"
	"github.com/ollama/ollama/api"
	"github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
	"gorm.io/gorm"
)

// Generatable pipeline steps.
const (
	StepBlog     = "blog"
	StepLinkedIn = "linkedin"
	StepCarousel = "carousel"
)

// Per-step prompt templates. Placeholders are filled from the session
// document; each template demands a JSON-only answer so the response can
// be parsed into the step payload.
var stepPrompts = map[string]string{
	StepBlog: `You are a content marketer writing a blog post.

Topic: {{topic}}
Keywords: {{keywords}}
Audience: {{audience}}
Angle: {{angle}}

Write a complete blog post. Respond with ONLY a JSON object:
{"title": "...", "body": "... (markdown)", "meta_description": "... (max 160 chars)"}`,

	StepLinkedIn: `You are a content marketer repurposing a blog post for LinkedIn.

Topic: {{topic}}
Blog post:
{{blog}}

Write 3 standalone LinkedIn posts promoting this content, plus relevant
hashtags. Respond with ONLY a JSON object:
{"posts": ["...", "...", "..."], "hashtags": ["...", "..."]}`,

	StepCarousel: `You are a content marketer turning a blog post into a carousel.

Topic: {{topic}}
Blog post:
{{blog}}

Write 6-8 carousel slides, each with a short punchy heading and one or two
sentences of body text. Respond with ONLY a JSON object:
{"slides": [{"heading": "...", "body": "..."}]}`,
}

type AIService struct {
	db        *gorm.DB
	fallback  *config.AnthropicConfig
	llmConfig *LLMConfigService
	sessions  *SessionService
}

func NewAIService(db *gorm.DB, cfg *config.AnthropicConfig) *AIService {
	return &AIService{
		db:        db,
		fallback:  cfg,
		llmConfig: NewLLMConfigService(db),
		sessions:  NewSessionService(db),
	}
}

// GenerateStep runs generation for one pipeline step, writes the parsed
// result into the session document, and returns the updated view.
func (s *AIService) GenerateStep(ctx context.Context, sessionID string, userID uint, step string) (*SessionView, error) {
	session, err := s.sessions.load(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.authorize(session, userID); err != nil {
		return nil, err
	}

	doc, err := session.Document()
	if err != nil {
		return nil, response.NewServerError("failed to decode session document")
	}

	prompt, err := renderPrompt(step, doc)
	if err != nil {
		return nil, err
	}

	content, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, response.NewServerError("generation failed").WithDetails(err.Error())
	}

	if err := applyGenerated(doc, step, content); err != nil {
		return nil, err
	}
	if err := session.SetDocument(doc); err != nil {
		return nil, err
	}
	if err := s.db.Save(session).Error; err != nil {
		return nil, err
	}

	stepNum := stepNumber(step)
	s.sessions.recordActivity(session.ID, userID, "content_generated", &stepNum,
		map[string]interface{}{"step": step})

	return newSessionView(session)
}

func renderPrompt(step string, doc *models.SessionData) (string, error) {
	template, ok := stepPrompts[step]
	if !ok {
		return "", response.NewBadRequest("invalid step: " + step)
	}
	if doc.Topic.Title == "" {
		return "", response.NewBadRequest("session has no topic yet")
	}
	if (step == StepLinkedIn || step == StepCarousel) && doc.Blog.Body == "" {
		return "", response.NewBadRequest("session has no blog post yet")
	}

	prompt := template
	prompt = strings.ReplaceAll(prompt, "{{topic}}", doc.Topic.Title)
	prompt = strings.ReplaceAll(prompt, "{{keywords}}", strings.Join(doc.Topic.Keywords, ", "))
	prompt = strings.ReplaceAll(prompt, "{{audience}}", doc.Topic.Audience)
	prompt = strings.ReplaceAll(prompt, "{{angle}}", doc.Topic.Angle)
	prompt = strings.ReplaceAll(prompt, "{{blog}}", doc.Blog.Body)
	return prompt, nil
}

func stepNumber(step string) int {
	switch step {
	case StepBlog:
		return 2
	case StepLinkedIn:
		return 3
	case StepCarousel:
		return 4
	}
	return 0
}

// applyGenerated parses the model output into the step's typed payload.
func applyGenerated(doc *models.SessionData, step, content string) error {
	raw := extractJSON(content)

	switch step {
	case StepBlog:
		var blog struct {
			Title           string `json:"title"`
			Body            string `json:"body"`
			MetaDescription string `json:"meta_description"`
		}
		if err := json.Unmarshal([]byte(raw), &blog); err != nil {
			return response.NewServerError("unparseable generation result").WithDetails(err.Error())
		}
		doc.Blog.Title = blog.Title
		doc.Blog.Body = blog.Body
		doc.Blog.MetaDescription = blog.MetaDescription
	case StepLinkedIn:
		var li models.LinkedInData
		if err := json.Unmarshal([]byte(raw), &li); err != nil {
			return response.NewServerError("unparseable generation result").WithDetails(err.Error())
		}
		doc.LinkedIn = li
	case StepCarousel:
		var carousel struct {
			Slides []models.CarouselSlide `json:"slides"`
		}
		if err := json.Unmarshal([]byte(raw), &carousel); err != nil {
			return response.NewServerError("unparseable generation result").WithDetails(err.Error())
		}
		doc.Carousel.Slides = carousel.Slides
	default:
		return response.NewBadRequest("invalid step: " + step)
	}
	return nil
}

// extractJSON strips markdown fences and surrounding prose from a model
// answer, keeping the outermost JSON object.
func extractJSON(content string) string {
	content = strings.TrimSpace(content)
	if start := strings.Index(content, "{"); start != -1 {
		if end := strings.LastIndex(content, "}"); end > start {
			return content[start : end+1]
		}
	}
	return content
}

// generate tries each active provider config in order, falling back to
// the next on failure.
func (s *AIService) generate(ctx context.Context, prompt string) (string, error) {
	configs, err := s.llmConfig.GetActive()
	if err != nil {
		return "", err
	}
	if len(configs) == 0 && s.fallback != nil && s.fallback.APIKey != "" {
		configs = append(configs, models.LLMConfig{
			Name:     "fallback",
			Provider: "anthropic",
			BaseURL:  s.fallback.BaseURL,
			APIKey:   s.fallback.APIKey,
			Model:    s.fallback.Model,
		})
	}
	if len(configs) == 0 {
		return "", fmt.Errorf("no LLM configuration available")
	}

	var lastErr error
	for i := range configs {
		llmConfig := &configs[i]
		logger.Infof("[AI] Attempting LLM %d/%d: %s (model: %s)", i+1, len(configs), llmConfig.Name, llmConfig.Model)

		content, err := s.callLLM(ctx, llmConfig, prompt)
		if err == nil {
			return content, nil
		}
		lastErr = err
		logger.Infof("[AI] LLM %s failed: %v, trying next...", llmConfig.Name, err)
	}

	return "", fmt.Errorf("all LLMs failed, last error: %w", lastErr)
}

func (s *AIService) callLLM(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	switch llmConfig.Provider {
	case "anthropic":
		return s.callAnthropic(ctx, llmConfig, prompt)
	case "ollama":
		return s.callOllama(ctx, llmConfig, prompt)
	case "gemini":
		return s.callGemini(ctx, llmConfig, prompt)
	default:
		// openai and OpenAI-compatible services
		return s.callOpenAI(ctx, llmConfig, prompt)
	}
}

func (s *AIService) callAnthropic(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	opts := []option.RequestOption{option.WithAPIKey(llmConfig.APIKey)}
	if llmConfig.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(llmConfig.BaseURL))
	}
	client := anthropic.NewClient(opts...)

	maxTokens := int64(llmConfig.MaxTokens)
	if maxTokens == 0 {
		maxTokens = 4096
	}
	model := llmConfig.Model
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}

	resp, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Anthropic API error: %w", err)
	}

	var content string
	for _, block := range resp.Content {
		if block.Type == "text" {
			content += block.Text
		}
	}
	return content, nil
}

func (s *AIService) callOpenAI(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	clientConfig := openai.DefaultConfig(llmConfig.APIKey)
	if llmConfig.BaseURL != "" {
		clientConfig.BaseURL = llmConfig.BaseURL
	}
	client := openai.NewClientWithConfig(clientConfig)

	temperature := float32(0.7)
	if llmConfig.Temperature > 0 {
		temperature = float32(llmConfig.Temperature)
	}

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: llmConfig.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return resp.Choices[0].Message.Content, nil
}

func (s *AIService) callOllama(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	baseURL := llmConfig.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid Ollama base URL: %w", err)
	}
	client := api.NewClient(u, http.DefaultClient)

	model := llmConfig.Model
	if model == "" {
		model = "llama3"
	}

	var content strings.Builder
	err = client.Chat(ctx, &api.ChatRequest{
		Model: model,
		Messages: []api.Message{
			{Role: "user", Content: prompt},
		},
		Options: map[string]interface{}{
			"temperature": llmConfig.Temperature,
		},
	}, func(resp api.ChatResponse) error {
		content.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("Ollama API error: %w", err)
	}
	return content.String(), nil
}

func (s *AIService) callGemini(ctx context.Context, llmConfig *models.LLMConfig, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: llmConfig.APIKey,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini client error: %w", err)
	}

	model := llmConfig.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}

	resp, err := client.Models.GenerateContent(ctx, model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	return resp.Text(), nil
}
