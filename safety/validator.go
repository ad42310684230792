package safety

import "strings"

var unsafeKeywords = []string{"kill", "hurt", "violence", "explicit", "illegal"}

type Validator struct{}

// Validate runs the post-generation checks in order; the first failure wins.
// An unsafe result carries a human-readable reason the pipeline folds into
// its fallback message.
func (v *Validator) Validate(response string) (bool, string) {
	lower := strings.ToLower(response)

	for _, kw := range unsafeKeywords {
		if strings.Contains(lower, kw) {
			return false, "Response contains potentially harmful content."
		}
	}

	if strings.Contains(lower, "personal data") || strings.Contains(lower, "location") {
		return false, "Response inadvertently shares personal data."
	}

	return true, ""
}

func NewValidator() *Validator {
	return &Validator{}
}
