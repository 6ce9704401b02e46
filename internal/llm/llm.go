package llm

import (
	"fmt"

	"github.com/Alias1177/Forecaster/models"
)

// NewProvider resolves a model name to its completion provider. The set of
// supported models is closed; an unknown name is a configuration error and
// surfaces at startup rather than at call time.
func NewProvider(modelName string, proxy models.CompletionProvider) (models.CompletionProvider, error) {
	switch modelName {
	case "gpt-4o":
		// gpt-4o is served through the Metaculus OpenAI proxy
		return proxy, nil
	default:
		return nil, fmt.Errorf("unsupported model %q: only gpt-4o via the Metaculus proxy is available", modelName)
	}
}
