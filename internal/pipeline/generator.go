package pipeline

import (
	"context"
	"strings"
)

// Generator produces the final business text using the quality model.
type Generator struct {
	llm   Completer
	model string
}

// NewGenerator creates a generator bound to model.
func NewGenerator(llm Completer, model string) *Generator {
	return &Generator{llm: llm, model: model}
}

// Generate returns the trimmed reply for instruction, or a *GenerationError.
func (g *Generator) Generate(ctx context.Context, instruction string) (string, error) {
	reply, err := g.llm.Complete(ctx, g.model, instruction)
	if err != nil {
		return "", newGenerationError(err)
	}
	return strings.TrimSpace(reply), nil
}
