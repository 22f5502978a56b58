package domain

// Category is the closed set of business text kinds the classifier may return.
type Category int

const (
	// Unrecognized is the outcome for any label outside the known set.
	Unrecognized Category = iota
	// ScopeOfWork asks for a construction scope of work.
	ScopeOfWork
	// Quote asks for a contractor quote.
	Quote
	// SocialMediaPost asks for a short social media post.
	SocialMediaPost
)

// Labels as the model is instructed to return them.
const (
	LabelScopeOfWork     = "Scope of Work"
	LabelQuote           = "Quote"
	LabelSocialMediaPost = "Social Media Post"
)

// Categories lists the known categories in prompt order.
var Categories = []Category{ScopeOfWork, Quote, SocialMediaPost}

// ParseCategory maps a label to its category using exact, case-sensitive
// comparison. Anything else, including whitespace variants, is Unrecognized.
func ParseCategory(label string) Category {
	switch label {
	case LabelScopeOfWork:
		return ScopeOfWork
	case LabelQuote:
		return Quote
	case LabelSocialMediaPost:
		return SocialMediaPost
	default:
		return Unrecognized
	}
}

// Label returns the wire label, or "" for Unrecognized.
func (c Category) Label() string {
	switch c {
	case ScopeOfWork:
		return LabelScopeOfWork
	case Quote:
		return LabelQuote
	case SocialMediaPost:
		return LabelSocialMediaPost
	default:
		return ""
	}
}

// Known reports whether c is one of the three real categories.
func (c Category) Known() bool {
	return c != Unrecognized && c.Label() != ""
}

func (c Category) String() string {
	if !c.Known() {
		return "Unrecognized"
	}
	return c.Label()
}
