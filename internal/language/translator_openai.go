package language

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// ChatCompleter is the slice of the OpenAI client the translator uses.
type ChatCompleter interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAITranslator translates with a chat completion model.
type OpenAITranslator struct {
	chat    ChatCompleter
	model   string
	timeout time.Duration
}

func NewOpenAITranslator(chat ChatCompleter, model string, timeout time.Duration) *OpenAITranslator {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &OpenAITranslator{chat: chat, model: model, timeout: timeout}
}

var languageNames = map[string]string{
	"he": "Hebrew", "en": "English", "ar": "Arabic", "ru": "Russian",
	"es": "Spanish", "fr": "French", "de": "German",
}

func languageName(tag string) string {
	if n, ok := languageNames[PrimaryTag(tag)]; ok {
		return n
	}
	return tag
}

func (t *OpenAITranslator) Translate(ctx context.Context, text, from, to string) (string, error) {
	var prompt string
	if PrimaryTag(to) == InternalTag {
		prompt = fmt.Sprintf("Translate %s to English concisely. Output only the translation.", languageName(from))
	} else {
		name := languageName(to)
		prompt = fmt.Sprintf("Translate to %s for speaking on a phone call. Output %s text only. No English. No quotes. No extra words.", name, name)
	}

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	resp, err := t.chat.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(t.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0.3),
		MaxTokens:   openai.Int(200),
	})
	if err != nil {
		return "", fmt.Errorf("translate %s->%s: %w", from, to, err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("translate: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}
