package ai

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Deverdnd/neverdnd-call-handler/internal/business"
	"github.com/Deverdnd/neverdnd-call-handler/internal/session"
)

// Generator produces the agent's next spoken turn.
//
// Generation failure is never surfaced to the caller: any collaborator error
// (unavailable, errored, disabled) degrades to the deterministic keyword
// fallback so the caller always hears something coherent.
type Generator struct {
	chat ChatClient
	log  *slog.Logger
}

func NewGenerator(chat ChatClient, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.Default()
	}
	return &Generator{chat: chat, log: log}
}

// Respond builds the persona prompt, supplies the running history as context,
// and asks the collaborator for the next turn.
func (g *Generator) Respond(ctx context.Context, utterance string, cfg business.Config, history []session.Turn, canSchedule bool) string {
	if g.chat == nil {
		return Fallback(utterance, cfg)
	}

	messages := make([]Message, 0, len(history)+2)
	messages = append(messages, Message{Role: "system", Content: buildSystemPrompt(cfg, canSchedule)})
	messages = append(messages, historyMessages(history)...)
	messages = append(messages, Message{Role: "user", Content: utterance})

	reply, err := g.chat.Chat(ctx, messages)
	if err != nil {
		if !errors.Is(err, ErrDisabled) {
			g.log.Warn("turn generation failed, using fallback", "err", err)
		}
		return Fallback(utterance, cfg)
	}
	reply = strings.TrimSpace(reply)
	if reply == "" {
		return Fallback(utterance, cfg)
	}
	return reply
}
