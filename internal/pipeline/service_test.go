package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/bluecaller/internal/domain"
	"github.com/ashureev/bluecaller/internal/llm"
	"github.com/ashureev/bluecaller/internal/prompt"
	"github.com/ashureev/bluecaller/internal/ratelimit"
)

const (
	fastModel    = "fast-model"
	qualityModel = "quality-model"
)

type call struct {
	model       string
	instruction string
}

// fakeCompleter answers per model and records every call.
type fakeCompleter struct {
	mu      sync.Mutex
	calls   []call
	replies map[string]string
	errs    map[string]error
}

func (f *fakeCompleter) Complete(_ context.Context, model, instruction string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{model: model, instruction: instruction})
	if err := f.errs[model]; err != nil {
		return "", err
	}
	return f.replies[model], nil
}

func (f *fakeCompleter) callsFor(model string) []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []call
	for _, c := range f.calls {
		if c.model == model {
			out = append(out, c)
		}
	}
	return out
}

type fakeAuditor struct {
	mu      sync.Mutex
	entries []AuditEntry
}

func (f *fakeAuditor) Record(_ context.Context, e AuditEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, e)
}

func (f *fakeAuditor) all() []AuditEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]AuditEntry(nil), f.entries...)
}

type fakeJournal struct {
	mu   sync.Mutex
	reqs []domain.PromptRequest
	err  error
}

func (f *fakeJournal) Append(req domain.PromptRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reqs = append(f.reqs, req)
	return f.err
}

type harness struct {
	svc     *Service
	llm     *fakeCompleter
	auditor *fakeAuditor
	journal *fakeJournal
	limiter *ratelimit.Limiter
}

func newHarness(t *testing.T, classifyReply, generateReply string) *harness {
	t.Helper()

	h := &harness{
		llm: &fakeCompleter{
			replies: map[string]string{fastModel: classifyReply, qualityModel: generateReply},
			errs:    map[string]error{},
		},
		auditor: &fakeAuditor{},
		journal: &fakeJournal{},
		limiter: ratelimit.New(5, 0),
	}

	svc, err := NewService(Deps{
		Limiter:    h.limiter,
		Classifier: NewClassifier(h.llm, fastModel),
		Templates:  prompt.Default(),
		Generator:  NewGenerator(h.llm, qualityModel),
		Auditor:    h.auditor,
		Journal:    h.journal,
	})
	require.NoError(t, err)
	h.svc = svc
	return h
}

func TestRunQuoteScenario(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "Quote\n", "  Here is your quote.  ")
	req := domain.NewPromptRequest("I need a quote for fixing my deck", "203.0.113.5")

	res := h.svc.Run(context.Background(), req)

	assert.Equal(t, domain.OutcomeGenerated, res.Outcome)
	assert.Equal(t, "Here is your quote.", res.Text)
	assert.Equal(t, domain.Quote, res.Category)
	assert.Equal(t, req.ID, res.RequestID)
	assert.NoError(t, res.Err)

	classify := h.llm.callsFor(fastModel)
	require.Len(t, classify, 1)
	assert.Equal(t, ClassificationInstruction("I need a quote for fixing my deck"), classify[0].instruction)

	generate := h.llm.callsFor(qualityModel)
	require.Len(t, generate, 1)
	assert.Equal(t,
		"You are a contractor. Write a professional quote based on: I need a quote for fixing my deck",
		generate[0].instruction)

	entries := h.auditor.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "I need a quote for fixing my deck", entries[0].RawInput)
	assert.Equal(t, domain.Quote, entries[0].Category)
	assert.Equal(t, "quote", entries[0].TemplateKey)
	assert.Equal(t, "Here is your quote.", entries[0].Preview)

	require.Len(t, h.journal.reqs, 1)
	assert.Equal(t, req, h.journal.reqs[0])
}

func TestRunUnrecognizedLabelSkipsGeneration(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "Something Else", "unused")
	res := h.svc.Run(context.Background(), domain.NewPromptRequest("hello", "203.0.113.6"))

	assert.Equal(t, "Sorry, I couldn't classify your input.", res.Text)
	assert.Equal(t, domain.OutcomeUnrecognizedCategory, res.Outcome)
	assert.Empty(t, h.llm.callsFor(qualityModel))

	entries := h.auditor.all()
	require.Len(t, entries, 1)
	assert.Equal(t, "Something Else", entries[0].Label)
	assert.Equal(t, domain.Unrecognized, entries[0].Category)
	assert.Empty(t, entries[0].TemplateKey)
}

func TestRunLowercaseLabelIsUnrecognized(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "quote", "unused")
	res := h.svc.Run(context.Background(), domain.NewPromptRequest("hello", "203.0.113.7"))

	assert.Equal(t, MsgUnclassified, res.Text)
	assert.Empty(t, h.llm.callsFor(qualityModel))
}

func TestRunEmptyLabelIsUnrecognized(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "  \n", "unused")
	res := h.svc.Run(context.Background(), domain.NewPromptRequest("hello", "203.0.113.9"))

	assert.Equal(t, domain.OutcomeUnrecognizedCategory, res.Outcome)
	assert.Equal(t, MsgUnclassified, res.Text)
	assert.Nil(t, res.Err)
	assert.Empty(t, h.llm.callsFor(qualityModel))
}

func TestRunSixthRequestHitsLimit(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "Quote", "ok")
	for i := 0; i < 5; i++ {
		res := h.svc.Run(context.Background(), domain.NewPromptRequest("quote please", "198.51.100.1"))
		require.Equal(t, domain.OutcomeGenerated, res.Outcome, "request %d", i+1)
	}

	res := h.svc.Run(context.Background(), domain.NewPromptRequest("quote please", "198.51.100.1"))
	assert.Equal(t, "Limit reached. Please sign up to continue.", res.Text)
	assert.Equal(t, domain.OutcomeRateLimitExceeded, res.Outcome)

	assert.Len(t, h.llm.callsFor(fastModel), 5)
	assert.Len(t, h.llm.callsFor(qualityModel), 5)
	assert.Len(t, h.auditor.all(), 5, "denied requests are not audited")
	assert.Len(t, h.journal.reqs, 5, "denied requests are not journaled")
	assert.Equal(t, 6, h.limiter.Count("198.51.100.1"))

	other := h.svc.Run(context.Background(), domain.NewPromptRequest("quote please", "198.51.100.2"))
	assert.Equal(t, domain.OutcomeGenerated, other.Outcome)
}

func TestRunClassificationFailure(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "", "unused")
	h.llm.errs[fastModel] = &llm.Error{Provider: "fake", Kind: llm.KindTransient, Err: errors.New("connection reset by peer")}

	res := h.svc.Run(context.Background(), domain.NewPromptRequest("hello", "203.0.113.8"))

	assert.Equal(t, domain.OutcomeClassificationTransportError, res.Outcome)
	assert.Equal(t, "Error classifying your input: connection reset by peer", res.Text)
	var classErr *ClassificationError
	assert.ErrorAs(t, res.Err, &classErr)
	assert.Empty(t, h.llm.callsFor(qualityModel))
	assert.Len(t, h.auditor.all(), 1)
}

func TestRunGenerationQuotaMessageIgnoresProviderText(t *testing.T) {
	t.Parallel()

	for _, providerText := range []string{"You exceeded your current quota", "429 too many", ""} {
		h := newHarness(t, "Scope of Work", "unused")
		h.llm.errs[qualityModel] = &llm.Error{Provider: "fake", Kind: llm.KindRateLimited, Err: errors.New(providerText)}

		res := h.svc.Run(context.Background(), domain.NewPromptRequest("fix a leaky faucet", "203.0.113.9"))

		assert.Equal(t, domain.OutcomeGenerationRateLimited, res.Outcome)
		assert.Equal(t, MsgQuotaExceeded, res.Text)
		assert.Contains(t, res.Text, "quota")
		assert.Contains(t, res.Text, "billing")
	}
}

func TestRunGenerationOtherFailureIncludesCause(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "Social Media Post", "unused")
	h.llm.errs[qualityModel] = &llm.Error{Provider: "fake", Kind: llm.KindAuth, Err: errors.New("Incorrect API key provided")}

	res := h.svc.Run(context.Background(), domain.NewPromptRequest("new truck day", "203.0.113.10"))

	assert.Equal(t, domain.OutcomeGenerationTransportError, res.Outcome)
	assert.Equal(t, "Error: Incorrect API key provided", res.Text)
	assert.Equal(t, domain.SocialMediaPost, res.Category)

	entries := h.auditor.all()
	require.Len(t, entries, 1)
	assert.Equal(t, domain.OutcomeGenerationTransportError, entries[0].Outcome)
	assert.Error(t, entries[0].Err)
}

func TestRunAuditPreviewIsBounded(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 500)
	h := newHarness(t, "Quote", long)
	res := h.svc.Run(context.Background(), domain.NewPromptRequest("big job", "203.0.113.11"))

	assert.Equal(t, long, res.Text)
	entries := h.auditor.all()
	require.Len(t, entries, 1)
	assert.Len(t, entries[0].Preview, domain.PreviewLen)
}

func TestRunJournalFailureDoesNotStopPipeline(t *testing.T) {
	t.Parallel()

	h := newHarness(t, "Quote", "fine")
	h.journal.err = errors.New("disk full")

	res := h.svc.Run(context.Background(), domain.NewPromptRequest("quote", "203.0.113.12"))
	assert.Equal(t, domain.OutcomeGenerated, res.Outcome)
}

func TestNewServiceRequiresDeps(t *testing.T) {
	t.Parallel()

	_, err := NewService(Deps{})
	assert.ErrorIs(t, err, errMissingDependency)
}

func TestClassifierTrimsReply(t *testing.T) {
	t.Parallel()

	f := &fakeCompleter{replies: map[string]string{fastModel: "\n  Scope of Work \t"}}
	c := NewClassifier(f, fastModel)

	category, label, err := c.Classify(context.Background(), "pour a slab")
	require.NoError(t, err)
	assert.Equal(t, domain.ScopeOfWork, category)
	assert.Equal(t, "Scope of Work", label)
}

func TestClassificationInstructionEmbedsInputVerbatim(t *testing.T) {
	t.Parallel()

	got := ClassificationInstruction("  weird {input} %s text ")
	assert.Contains(t, got, "Input:   weird {input} %s text \n")
	assert.Contains(t, got, "- Scope of Work\n- Quote\n- Social Media Post\n")
	assert.Contains(t, got, "Only return the category name exactly.")
}

func TestGeneratorClassifiesQuota(t *testing.T) {
	t.Parallel()

	f := &fakeCompleter{errs: map[string]error{
		qualityModel: &llm.Error{Kind: llm.KindRateLimited, Err: errors.New("quota")},
	}}
	g := NewGenerator(f, qualityModel)

	_, err := g.Generate(context.Background(), "x")
	var genErr *GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, GenerationRateLimited, genErr.Kind)

	f.errs[qualityModel] = errors.New("boom")
	_, err = g.Generate(context.Background(), "x")
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, GenerationOther, genErr.Kind)
}
