package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/ZaguanLabs/glotta"
	"github.com/sashabaranov/go-openai"
)

// OpenAIBackend implements Backend using OpenAI's API.
type OpenAIBackend struct {
	client *openai.Client
	model  string
}

// OpenAIConfig holds configuration for the OpenAI backend.
type OpenAIConfig struct {
	APIKey  string // OpenAI API key (uses OPENAI_API_KEY env var if empty)
	Model   string // Model to use (default: "gpt-4o-mini")
	BaseURL string // Custom base URL (optional)
}

// NewOpenAIBackend creates a new OpenAI backend.
func NewOpenAIBackend(cfg OpenAIConfig) *OpenAIBackend {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIBackend{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// translateResponse is the JSON shape the model is instructed to return.
type translateResponse struct {
	Translation string `json:"translation"`
	From        string `json:"from"`
}

// Translate translates a single text using OpenAI, detecting the source
// language when none is given. A from==to request returns the text
// unchanged without calling the API.
func (b *OpenAIBackend) Translate(ctx context.Context, req Request) (Result, error) {
	if req.From != "" && req.From == req.To {
		return Result{Text: req.Text, From: req.From}, nil
	}

	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: buildTranslatePrompt(req)},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Temperature: req.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Result{}, &glotta.BackendError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return Result{}, &glotta.BackendError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	content := resp.Choices[0].Message.Content
	if req.Verbose {
		fmt.Fprintf(os.Stderr, "openai response: %s\n", content)
	}

	var parsed translateResponse
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || parsed.Translation == "" {
		// No detection possible: hand back the original text rather than
		// failing the whole request.
		return Result{Text: req.Text, From: "en"}, nil
	}

	from := parsed.From
	if from == "" {
		from = req.From
	}
	if from == "" {
		from = "en"
	}
	return Result{Text: parsed.Translation, From: from}, nil
}

// detectResponse is the JSON shape for language detection.
type detectResponse struct {
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// DetectLanguage identifies the language of a text.
func (b *OpenAIBackend) DetectLanguage(ctx context.Context, req DetectRequest) (Detection, error) {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: detectPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.Text},
		},
		Temperature: req.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return Detection{}, &glotta.BackendError{
			Message:   "OpenAI API call failed",
			Cause:     err,
			Retryable: isRetryableError(err),
		}
	}

	if len(resp.Choices) == 0 {
		return Detection{}, &glotta.BackendError{
			Message:   "no response from OpenAI",
			Retryable: true,
		}
	}

	var parsed detectResponse
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil || parsed.Language == "" {
		return Detection{}, &glotta.BackendError{
			Message:   "invalid detection response from OpenAI",
			Retryable: false,
		}
	}

	return Detection{Language: parsed.Language, Confidence: parsed.Confidence}, nil
}

// Info identifies this backend for cache entries and analytics.
func (b *OpenAIBackend) Info() Info {
	return Info{Provider: "openai", Model: b.model}
}

// buildTranslatePrompt assembles the system prompt for a single-string
// translation with source-language detection.
func buildTranslatePrompt(req Request) string {
	targetName := glotta.GetLanguageName(req.To)

	var sb strings.Builder
	fmt.Fprintf(&sb, `# Role
You are an expert native translator. You translate content to %s with the fluency and nuance of a highly educated native speaker.

# Task
Translate the user's text into idiomatic %s and identify its source language.
`, targetName, targetName)

	if req.From != "" {
		fmt.Fprintf(&sb, "\nThe source language is %s.\n", glotta.GetLanguageName(req.From))
	} else {
		sb.WriteString("\nDetect the source language yourself.\n")
	}

	if req.Context != "" {
		fmt.Fprintf(&sb, "\n# Context\nThe content is for: %s. Adapt the tone to be appropriate for this context.\n", req.Context)
	}

	sb.WriteString(`
# Style Guide
- **Natural Flow**: Avoid literal translations. Rephrase sentences to sound completely natural to a native speaker.
- **Idioms**: Never translate idioms literally. Replace them with natural equivalents.
- **HTML/Code Safety**: Do NOT translate HTML tags, URLs, email addresses, or content inside backticks.
- **Interpolation**: Do NOT translate variables or placeholders (e.g., {{name}}, {count}, %s, $1).
- **Formatting**: Preserve meaningful whitespace and use idiomatic punctuation for the target language.

# Format
Return a valid JSON object: { "translation": "<translated text>", "from": "<ISO 639-1 source language code>" }
Do NOT wrap the output in Markdown code blocks.`)

	return sb.String()
}

// detectPrompt is the system prompt for language detection.
const detectPrompt = `# Role
You are a language identification system.

# Task
Identify the language of the user's text.

# Format
Return a valid JSON object: { "language": "<ISO 639-1 code>", "confidence": <0.0-1.0> }
Do NOT wrap the output in Markdown code blocks.`

// isRetryableError classifies common transient API failures.
func isRetryableError(err error) bool {
	errStr := err.Error()
	retryablePatterns := []string{
		"rate limit",
		"timeout",
		"connection refused",
		"temporary",
		"503",
		"502",
		"429",
	}

	for _, pattern := range retryablePatterns {
		if strings.Contains(strings.ToLower(errStr), pattern) {
			return true
		}
	}
	return false
}

// Verify OpenAIBackend implements Backend
var _ Backend = (*OpenAIBackend)(nil)
