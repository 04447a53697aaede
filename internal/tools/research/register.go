package research

import (
	"codesmith/internal/tools"
)

// RegisterAll registers all research tools with the given registry.
func RegisterAll(registry *tools.Registry, searcher *Searcher) error {
	allTools := []*tools.Tool{
		WebSearchTool(searcher),
	}

	for _, tool := range allTools {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	return nil
}
