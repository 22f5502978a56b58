package domain

// Outcome names how a pipeline run ended.
type Outcome string

const (
	// OutcomeGenerated means the generator produced text.
	OutcomeGenerated Outcome = "generated"
	// OutcomeRateLimitExceeded means the local per-address limit denied the request.
	OutcomeRateLimitExceeded Outcome = "rate_limit_exceeded"
	// OutcomeClassificationTransportError means the classify call itself failed.
	OutcomeClassificationTransportError Outcome = "classification_transport_error"
	// OutcomeUnrecognizedCategory means the classifier answered outside the known set.
	OutcomeUnrecognizedCategory Outcome = "unrecognized_category"
	// OutcomeGenerationRateLimited means the provider reported quota or billing exhaustion.
	OutcomeGenerationRateLimited Outcome = "generation_rate_limited"
	// OutcomeGenerationTransportError covers every other generation failure.
	OutcomeGenerationTransportError Outcome = "generation_transport_error"
)

// Failed reports whether the outcome is anything but a successful generation.
func (o Outcome) Failed() bool {
	return o != OutcomeGenerated
}

// Result is what the pipeline hands back to the HTTP layer. Text is always
// the single string to render, whether it came from the model or is an
// error message.
type Result struct {
	RequestID string   `json:"request_id"`
	Text      string   `json:"text"`
	Category  Category `json:"category"`
	Outcome   Outcome  `json:"outcome"`
	Err       error    `json:"-"`
}

// PreviewLen bounds the output preview written to the audit log.
const PreviewLen = 100

// Preview returns at most PreviewLen runes of the result text.
func (r Result) Preview() string {
	runes := []rune(r.Text)
	if len(runes) <= PreviewLen {
		return r.Text
	}
	return string(runes[:PreviewLen])
}
