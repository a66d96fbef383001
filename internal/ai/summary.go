package ai

import (
	"context"
	"log/slog"
	"strings"
)

// SummaryPlaceholder is returned when summarization cannot run; persistence
// still gets a non-empty summary column.
const SummaryPlaceholder = "No summary available"

// Summarizer condenses a finished call transcript into one or two sentences.
type Summarizer struct {
	chat ChatClient
	log  *slog.Logger
}

func NewSummarizer(chat ChatClient, log *slog.Logger) *Summarizer {
	if log == nil {
		log = slog.Default()
	}
	return &Summarizer{chat: chat, log: log}
}

// Summarize degrades to a placeholder on any failure; the completion flow
// must never block on summarization quality.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) string {
	transcript = strings.TrimSpace(transcript)
	if s.chat == nil || len(transcript) < 10 {
		return SummaryPlaceholder
	}

	out, err := s.chat.Chat(ctx, []Message{
		{Role: "system", Content: "Summarize this phone call in 1-2 sentences. Focus on the caller's needs and any action items."},
		{Role: "user", Content: "Summarize:\n\n" + transcript},
	})
	if err != nil {
		s.log.Warn("summary generation failed", "err", err)
		return SummaryPlaceholder
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return SummaryPlaceholder
	}
	return out
}
