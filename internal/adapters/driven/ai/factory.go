// Package ai provides factory functions for creating ChatModel and
// Embedder adapters from resolved process configuration.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/ctxpack/internal/adapters/driven/config/file"
	ollamaembed "github.com/custodia-labs/ctxpack/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/ctxpack/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/ctxpack/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/ctxpack/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/ctxpack/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
)

// pingTimeout bounds the connectivity check performed after construction.
const pingTimeout = 5 * time.Second

// NewEmbedder builds the Embedder named by cfg.Provider. The openai
// provider (also selected by an empty Provider) returns (nil, nil) when no
// APIKey is set: callers treat a nil Embedder as "vector search
// unavailable", not an error.
func NewEmbedder(cfg file.EmbedderSettings) (driven.Embedder, error) {
	switch cfg.Provider {
	case "", file.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, nil
		}
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout,
		})
	case file.ProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout,
		}), nil
	case file.ProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use openai or ollama")
	default:
		return nil, fmt.Errorf("unsupported embedder provider %q", cfg.Provider)
	}
}

// NewChatModel builds the ChatModel named by cfg.Provider.
func NewChatModel(cfg file.ChatSettings) (driven.ChatModel, error) {
	switch cfg.Provider {
	case "", file.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, nil
		}
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout,
		})
	case file.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, nil
		}
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey: cfg.APIKey, BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout,
		})
	case file.ProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: cfg.BaseURL, Model: cfg.Model, Timeout: cfg.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported chat provider %q", cfg.Provider)
	}
}

// ValidateConnectivity calls ping (if non-nil) and returns any error it surfaces.
func ValidateConnectivity(ctx context.Context, ping func(context.Context) error) error {
	if ping == nil {
		return nil
	}
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return ping(pctx)
}
