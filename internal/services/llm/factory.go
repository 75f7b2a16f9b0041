package llm

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/scrutor/internal/common"
	"github.com/ternarybob/scrutor/internal/interfaces"
)

// NewLLMService creates the appropriate LLM service implementation based
// on configuration. Provider "heuristic" returns a nil service: the
// content processor then runs on the extractive fallback alone.
func NewLLMService(cfg *common.Config, logger arbor.ILogger) (interfaces.LLMService, error) {
	provider := cfg.LLM.Provider
	if provider == "" {
		provider = common.LLMProviderHeuristic
	}

	logger.Info().Str("provider", string(provider)).Msg("Initializing LLM service")

	// The concrete constructors return typed pointers; a failed one must
	// not leak a typed nil inside the interface value.
	switch provider {
	case common.LLMProviderClaude:
		service, err := NewClaudeService(&cfg.LLM.Claude, logger)
		if err != nil {
			return nil, err
		}
		return service, nil

	case common.LLMProviderGemini:
		service, err := NewGeminiService(&cfg.LLM.Gemini, logger)
		if err != nil {
			return nil, err
		}
		return service, nil

	case common.LLMProviderHeuristic:
		return nil, nil

	default:
		return nil, fmt.Errorf("invalid LLM provider '%s': must be 'claude', 'gemini', or 'heuristic'", provider)
	}
}
