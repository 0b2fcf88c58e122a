package agent

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/pkoukk/tiktoken-go"
	openai "github.com/sashabaranov/go-openai"
)

// Fixed user-visible responses. Failures never leak raw error details to
// the HTTP boundary; callers answer with one of these two strings.
const (
	// MsgNoContext is returned when retrieval finds nothing above the
	// score threshold. The synthesizer is not called in that case.
	MsgNoContext = "ขออภัยค่ะ ฉันไม่พบข้อมูลที่เกี่ยวข้องในฐานข้อมูลของฉันสำหรับคำถามนี้"
	// MsgUnavailable is returned when both LLM backends fail, or when the
	// question could not be embedded at all.
	MsgUnavailable = "ขออภัยค่ะ ระบบ AI ไม่สามารถประมวลผลคำถามของคุณได้ในขณะนี้ กรุณาลองใหม่ในภายหลัง"
)

const systemPrompt = `คุณคือผู้ช่วย AI ที่เชี่ยวชาญด้านข้อมูลภายในองค์กรของบริษัท
จงตอบคำถามของผู้ใช้โดย **อ้างอิงจากข้อมูลที่ให้มาเท่านั้น** อย่างกระชับ ชัดเจน และเป็นธรรมชาติ
**หากข้อมูลที่ให้มาไม่เพียงพอที่จะตอบคำถาม หรือคำถามไม่ได้เกี่ยวข้องกับข้อมูลที่ให้มา**
ให้ตอบว่า "ขออภัยค่ะ ฉันไม่พบข้อมูลที่เกี่ยวข้องในฐานข้อมูลของฉันสำหรับคำถามนี้" หรือ "ฉันไม่สามารถตอบคำถามนี้ได้จากข้อมูลที่มีอยู่"
**ห้ามสร้างข้อมูลใดๆ ขึ้นมาเองโดยเด็ดขาด**`

// Synthesizer turns retrieved context plus a question into an answer.
type Synthesizer interface {
	Generate(ctx context.Context, contextBlock, question string) (string, error)
}

// SynthesisError reports that every configured backend failed. It carries
// the per-model causes for the log; the HTTP layer maps it to
// MsgUnavailable.
type SynthesisError struct {
	Attempts map[string]error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("all %d LLM backends failed", len(e.Attempts))
}

// OpenRouterAgent dispatches chat completions to OpenRouter: one attempt on
// the primary model, then exactly one on the fallback. No further retries.
type OpenRouterAgent struct {
	client      *openai.Client
	primary     string
	fallback    string
	temperature float32
}

func NewFromEnv() *OpenRouterAgent {
	cfg := openai.DefaultConfig(os.Getenv("OPENROUTER_API_KEY"))
	cfg.BaseURL = os.Getenv("OPENROUTER_BASE_URL")
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}

	primary := os.Getenv("LLM_MODEL")
	if primary == "" {
		primary = "mistralai/mistral-small-3.2-24b-instruct:free"
	}
	fallback := os.Getenv("LLM_FALLBACK_MODEL")
	if fallback == "" {
		fallback = "deepseek/deepseek-r1-0528:free"
	}

	return &OpenRouterAgent{
		client:      openai.NewClientWithConfig(cfg),
		primary:     primary,
		fallback:    fallback,
		temperature: 0.2,
	}
}

func (a *OpenRouterAgent) Generate(ctx context.Context, contextBlock, question string) (string, error) {
	start := time.Now()
	defer func() {
		log.Printf("[AGENT] LLM answer took %v", time.Since(start))
	}()

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("ข้อมูล:\n%s\n\nคำถาม: %s", contextBlock, question)},
	}

	if count, err := countTokens(systemPrompt + messages[1].Content); err == nil {
		log.Printf("[AGENT] prompt size: %d tokens", count)
	}

	attempts := make(map[string]error, 2)
	for _, modelID := range []string{a.primary, a.fallback} {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       modelID,
			Messages:    messages,
			Temperature: a.temperature,
		})
		if err != nil {
			log.Printf("[AGENT] model %s failed: %v", modelID, err)
			attempts[modelID] = err
			continue
		}
		if len(resp.Choices) == 0 {
			log.Printf("[AGENT] model %s returned no choices", modelID)
			attempts[modelID] = fmt.Errorf("empty completion")
			continue
		}
		return resp.Choices[0].Message.Content, nil
	}

	return "", &SynthesisError{Attempts: attempts}
}

func countTokens(data string) (int, error) {
	enc, err := tiktoken.EncodingForModel("gpt-3.5-turbo")
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(data, nil, nil)), nil
}
