package ai

import (
	"strings"

	"github.com/Deverdnd/neverdnd-call-handler/internal/business"
)

// Fallback is the deterministic keyword-matched response table used whenever
// the generation collaborator cannot answer. It must return non-empty text
// for any input.
func Fallback(utterance string, cfg business.Config) string {
	lower := strings.ToLower(utterance)
	info := strings.TrimSpace(cfg.BusinessInfo)

	switch {
	case containsAny(lower, "hours", "open"):
		if info != "" {
			return info
		}
		return "I can help you with that. Let me get someone to call you back with our hours."

	case containsAny(lower, "appointment", "schedule", "book"):
		return "I'd be happy to help you schedule an appointment. Can I get your name and phone number?"

	case containsAny(lower, "price", "cost", "how much"):
		return "For pricing information, I'll have someone call you back. What's the best number to reach you?"

	case containsAny(lower, "location", "address", "where"):
		if info != "" {
			return info
		}
		return "I'll have someone call you back with our location details."

	case containsAny(lower, "hello", "hi "):
		return "Hello! How can I help you today?"

	case strings.Contains(lower, "thank"):
		return "You're very welcome! Is there anything else I can help you with?"

	case containsAny(lower, "bye", "goodbye"):
		return "Thanks for calling! Have a great day!"

	default:
		return "I understand. How else can I help you today?"
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
