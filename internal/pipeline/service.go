package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ashureev/bluecaller/internal/domain"
	"github.com/ashureev/bluecaller/internal/prompt"
)

// Messages shown to the operator for each non-generated outcome.
const (
	MsgLimitReached  = "Limit reached. Please sign up to continue."
	MsgUnclassified  = "Sorry, I couldn't classify your input."
	MsgQuotaExceeded = "Error: You have exceeded your current quota. Please check your plan and billing details at your provider's usage dashboard."

	msgClassifyErrorFormat = "Error classifying your input: %v"
	msgGenerateErrorFormat = "Error: %v"
)

// Limiter admits or denies a client address.
type Limiter interface {
	Admit(addr string) bool
}

// Resolver maps a category to its instruction template.
type Resolver interface {
	Resolve(c domain.Category) (prompt.Template, bool)
}

// Auditor records the outcome of one pipeline run.
type Auditor interface {
	Record(ctx context.Context, entry AuditEntry)
}

// PromptJournal keeps the raw input of every admitted request.
type PromptJournal interface {
	Append(req domain.PromptRequest) error
}

// AuditEntry is the single record written for every run that passes the
// rate limiter.
type AuditEntry struct {
	RequestID     string
	ClientAddress string
	RawInput      string
	Label         string
	Category      domain.Category
	TemplateKey   string
	Outcome       domain.Outcome
	Preview       string
	Err           error
}

// Deps are the collaborators of a Service. Journal and Logger are optional.
type Deps struct {
	Limiter    Limiter
	Classifier *Classifier
	Templates  Resolver
	Generator  *Generator
	Auditor    Auditor
	Journal    PromptJournal
	Logger     *slog.Logger
}

var errMissingDependency = errors.New("pipeline: missing dependency")

// Service runs rate check, classify, resolve and generate in sequence.
type Service struct {
	limiter    Limiter
	classifier *Classifier
	templates  Resolver
	generator  *Generator
	auditor    Auditor
	journal    PromptJournal
	log        *slog.Logger
}

// NewService validates deps and builds a Service.
func NewService(d Deps) (*Service, error) {
	switch {
	case d.Limiter == nil:
		return nil, fmt.Errorf("%w: limiter", errMissingDependency)
	case d.Classifier == nil:
		return nil, fmt.Errorf("%w: classifier", errMissingDependency)
	case d.Templates == nil:
		return nil, fmt.Errorf("%w: templates", errMissingDependency)
	case d.Generator == nil:
		return nil, fmt.Errorf("%w: generator", errMissingDependency)
	case d.Auditor == nil:
		return nil, fmt.Errorf("%w: auditor", errMissingDependency)
	}

	log := d.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		limiter:    d.Limiter,
		classifier: d.Classifier,
		templates:  d.Templates,
		generator:  d.Generator,
		auditor:    d.Auditor,
		journal:    d.Journal,
		log:        log.With("component", "pipeline"),
	}, nil
}

// Run processes one request and always returns a result with text to show.
// Provider failures never escape as errors; they are folded into the result.
func (s *Service) Run(ctx context.Context, req domain.PromptRequest) domain.Result {
	log := s.log.With("request_id", req.ID, "client_address", req.ClientAddress)

	if !s.limiter.Admit(req.ClientAddress) {
		log.InfoContext(ctx, "Prompt limit reached")
		return domain.Result{
			RequestID: req.ID,
			Text:      MsgLimitReached,
			Outcome:   domain.OutcomeRateLimitExceeded,
		}
	}

	if s.journal != nil {
		if err := s.journal.Append(req); err != nil {
			log.WarnContext(ctx, "failed to append prompt journal", "error", err)
		}
	}
	log.InfoContext(ctx, "Prompt received", "input_length", len(req.RawInput))

	entry := AuditEntry{
		RequestID:     req.ID,
		ClientAddress: req.ClientAddress,
		RawInput:      req.RawInput,
	}

	category, label, err := s.classifier.Classify(ctx, req.RawInput)
	if err != nil {
		log.ErrorContext(ctx, "Classification failed", "error", err)
		return s.finish(ctx, entry, domain.Result{
			RequestID: req.ID,
			Text:      fmt.Sprintf(msgClassifyErrorFormat, unwrapCause(err)),
			Outcome:   domain.OutcomeClassificationTransportError,
			Err:       err,
		})
	}
	entry.Label = label
	entry.Category = category

	tmpl, ok := s.templates.Resolve(category)
	if !ok {
		log.WarnContext(ctx, "Input not classified", "label", label)
		return s.finish(ctx, entry, domain.Result{
			RequestID: req.ID,
			Text:      MsgUnclassified,
			Category:  category,
			Outcome:   domain.OutcomeUnrecognizedCategory,
		})
	}
	entry.TemplateKey = tmpl.Key
	log.InfoContext(ctx, "Input classified", "category", category.String(), "prompt", tmpl.Key)

	text, err := s.generator.Generate(ctx, tmpl.Format(req.RawInput))
	if err != nil {
		res := domain.Result{
			RequestID: req.ID,
			Category:  category,
			Err:       err,
		}
		var genErr *GenerationError
		if errors.As(err, &genErr) && genErr.Kind == GenerationRateLimited {
			res.Text = MsgQuotaExceeded
			res.Outcome = domain.OutcomeGenerationRateLimited
		} else {
			res.Text = fmt.Sprintf(msgGenerateErrorFormat, unwrapCause(err))
			res.Outcome = domain.OutcomeGenerationTransportError
		}
		log.ErrorContext(ctx, "Generation failed", "outcome", string(res.Outcome), "error", err)
		return s.finish(ctx, entry, res)
	}

	return s.finish(ctx, entry, domain.Result{
		RequestID: req.ID,
		Text:      text,
		Category:  category,
		Outcome:   domain.OutcomeGenerated,
	})
}

// finish writes the audit entry for res and returns it.
func (s *Service) finish(ctx context.Context, entry AuditEntry, res domain.Result) domain.Result {
	entry.Outcome = res.Outcome
	entry.Preview = res.Preview()
	entry.Err = res.Err
	s.auditor.Record(ctx, entry)
	return res
}

// unwrapCause strips the pipeline wrapper so the operator sees the
// provider's own message.
func unwrapCause(err error) error {
	var classErr *ClassificationError
	if errors.As(err, &classErr) && classErr.Err != nil {
		return classErr.Err
	}
	var genErr *GenerationError
	if errors.As(err, &genErr) && genErr.Err != nil {
		return genErr.Err
	}
	return err
}
