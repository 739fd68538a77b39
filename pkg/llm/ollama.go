package llm

import (
	"context"
	"strings"
)

// OllamaProvider speaks Ollama's OpenAI-compatible endpoint.
type OllamaProvider struct {
	openai *OpenAIProvider
}

func NewOllamaProvider(cfg Config) *OllamaProvider {
	cfgCopy := cfg
	if strings.TrimSpace(cfgCopy.APIURL) == "" {
		cfgCopy.APIURL = "http://localhost:11434/v1"
	}
	return &OllamaProvider{
		openai: NewOpenAIProvider(cfgCopy),
	}
}

func (p *OllamaProvider) Complete(ctx context.Context, messages []Message, opts *Options) (string, error) {
	return p.openai.Complete(ctx, messages, opts)
}

func (p *OllamaProvider) Probe(ctx context.Context) error {
	return p.openai.Probe(ctx)
}
