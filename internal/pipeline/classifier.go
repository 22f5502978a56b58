// Package pipeline implements classify, resolve and generate for a single
// prompt request.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ashureev/bluecaller/internal/domain"
)

// Completer is the remote text-generation call both adapters depend on.
// *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, model, instruction string) (string, error)
}

const classificationFormat = `
Classify the following input into one of the following categories:
- %s
- %s
- %s

Only return the category name exactly.

Input: %s
`

// ClassificationInstruction builds the fixed classify prompt around rawInput.
func ClassificationInstruction(rawInput string) string {
	return fmt.Sprintf(classificationFormat,
		domain.LabelScopeOfWork,
		domain.LabelQuote,
		domain.LabelSocialMediaPost,
		rawInput,
	)
}

// Classifier labels raw input using the fast model.
type Classifier struct {
	llm   Completer
	model string
}

// NewClassifier creates a classifier bound to model.
func NewClassifier(llm Completer, model string) *Classifier {
	return &Classifier{llm: llm, model: model}
}

// Classify returns the category for rawInput. A reply outside the known
// labels yields domain.Unrecognized with a nil error; only a failed call is
// an error. The trimmed reply is returned alongside for logging.
func (c *Classifier) Classify(ctx context.Context, rawInput string) (domain.Category, string, error) {
	reply, err := c.llm.Complete(ctx, c.model, ClassificationInstruction(rawInput))
	if err != nil {
		return domain.Unrecognized, "", &ClassificationError{Err: err}
	}

	label := strings.TrimSpace(reply)
	return domain.ParseCategory(label), label, nil
}
