package provider

import "strings"

// BlockClassifier decides whether free-form provider text indicates a
// safety rejection rather than a transient failure. Structured block
// signals (finish reasons, prompt feedback) take precedence in the
// adapters; a classifier only ever upgrades ambiguous text.
type BlockClassifier interface {
	Blocked(text string) bool
}

// KeywordClassifier flags text containing any of a fixed phrase list,
// case-insensitively.
type KeywordClassifier struct {
	keywords []string
}

// NewKeywordClassifier builds a classifier over the default phrase list
// plus any extra phrases. The Spanish variants match localized provider
// responses.
func NewKeywordClassifier(extra ...string) *KeywordClassifier {
	base := []string{
		"safety",
		"seguridad",
		"block",
		"bloqueado",
		"policy",
		"política",
	}
	return &KeywordClassifier{keywords: append(base, extra...)}
}

func (c *KeywordClassifier) Blocked(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range c.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// DefaultClassifier is consulted by LooksBlocked. Swap it to change how
// every adapter reads ambiguous provider text.
var DefaultClassifier BlockClassifier = NewKeywordClassifier()

// LooksBlocked runs the default classifier.
func LooksBlocked(text string) bool {
	return DefaultClassifier.Blocked(text)
}
