package ai

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Deverdnd/neverdnd-call-handler/internal/business"
	"github.com/Deverdnd/neverdnd-call-handler/internal/session"
)

type stubChat struct {
	reply string
	err   error
	got   []Message
}

func (s *stubChat) Chat(_ context.Context, messages []Message) (string, error) {
	s.got = messages
	return s.reply, s.err
}

func testConfig() business.Config {
	cfg := business.DefaultConfig()
	cfg.Name = "Joe's Auto Repair"
	cfg.BusinessInfo = "Joe's Auto Repair, open 9-5 weekdays at 1 Main St."
	return cfg
}

func TestRespond_UsesCollaboratorReply(t *testing.T) {
	chat := &stubChat{reply: "  We're open until five today.  "}
	g := NewGenerator(chat, nil)

	out := g.Respond(context.Background(), "what are your hours?", testConfig(), nil, false)
	if out != "We're open until five today." {
		t.Fatalf("reply = %q", out)
	}
}

func TestRespond_SendsSystemHistoryThenUser(t *testing.T) {
	chat := &stubChat{reply: "ok"}
	g := NewGenerator(chat, nil)
	history := []session.Turn{
		{Role: session.RoleCaller, Text: "hi"},
		{Role: session.RoleAgent, Text: "hello!"},
	}

	g.Respond(context.Background(), "do you do brakes?", testConfig(), history, false)

	if len(chat.got) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(chat.got))
	}
	if chat.got[0].Role != "system" {
		t.Fatalf("first message role = %q", chat.got[0].Role)
	}
	if chat.got[1].Role != "user" || chat.got[1].Content != "hi" {
		t.Fatalf("history caller turn wrong: %+v", chat.got[1])
	}
	if chat.got[2].Role != "assistant" || chat.got[2].Content != "hello!" {
		t.Fatalf("history agent turn wrong: %+v", chat.got[2])
	}
	if chat.got[3].Role != "user" || chat.got[3].Content != "do you do brakes?" {
		t.Fatalf("final message wrong: %+v", chat.got[3])
	}
}

func TestRespond_FailureFallsBack(t *testing.T) {
	chat := &stubChat{err: errors.New("upstream timeout")}
	g := NewGenerator(chat, nil)

	out := g.Respond(context.Background(), "can I book an appointment?", testConfig(), nil, true)
	if out == "" {
		t.Fatalf("fallback must never be empty")
	}
	if !strings.Contains(out, "appointment") {
		t.Fatalf("expected the appointment fallback, got %q", out)
	}
}

func TestRespond_EmptyReplyFallsBack(t *testing.T) {
	chat := &stubChat{reply: "   "}
	g := NewGenerator(chat, nil)

	if out := g.Respond(context.Background(), "hello there", testConfig(), nil, false); out == "" {
		t.Fatalf("empty collaborator reply must fall back")
	}
}

func TestRespond_NilCollaboratorFallsBack(t *testing.T) {
	g := NewGenerator(nil, nil)
	if out := g.Respond(context.Background(), "anything", testConfig(), nil, false); out == "" {
		t.Fatalf("nil collaborator must fall back")
	}
}

func TestFallbackTable(t *testing.T) {
	cfg := testConfig()
	cases := []struct {
		utterance string
		contains  string
	}{
		{"what are your hours?", "open 9-5"},
		{"I want to schedule something", "appointment"},
		{"how much is a tune up", "pricing"},
		{"where are you located", "1 Main St"},
		{"hello", "Hello!"},
		{"thank you so much", "welcome"},
		{"okay bye", "Thanks for calling"},
		{"mumble mumble", "How else can I help"},
	}
	for _, tc := range cases {
		out := Fallback(tc.utterance, cfg)
		if out == "" {
			t.Fatalf("%q: fallback returned empty", tc.utterance)
		}
		if !strings.Contains(out, tc.contains) {
			t.Fatalf("%q: got %q, want substring %q", tc.utterance, out, tc.contains)
		}
	}
}

func TestBuildSystemPrompt_SchedulingGate(t *testing.T) {
	cfg := testConfig()

	withBooking := buildSystemPrompt(cfg, true)
	if !strings.Contains(withBooking, "SCHEDULE_APPOINTMENT") || !strings.Contains(withBooking, "END_APPOINTMENT") {
		t.Fatalf("scheduling protocol missing when booking allowed")
	}
	if !strings.Contains(withBooking, cfg.Name) {
		t.Fatalf("business name missing from protocol")
	}

	withoutBooking := buildSystemPrompt(cfg, false)
	if strings.Contains(withoutBooking, "SCHEDULE_APPOINTMENT") {
		t.Fatalf("scheduling protocol leaked when booking disallowed")
	}
	if !strings.Contains(withoutBooking, "take a message") {
		t.Fatalf("take-a-message instruction missing")
	}
}

func TestBuildSystemPrompt_DefaultsForBlankPersona(t *testing.T) {
	p := buildSystemPrompt(business.Config{}, false)
	if !strings.Contains(p, "a business") || !strings.Contains(p, "professional") {
		t.Fatalf("blank persona defaults missing: %q", p)
	}
}

func TestSummarize_Degradation(t *testing.T) {
	s := NewSummarizer(nil, nil)
	if got := s.Summarize(context.Background(), "caller: hi\nagent: hello, long enough transcript"); got != SummaryPlaceholder {
		t.Fatalf("nil collaborator should yield placeholder, got %q", got)
	}

	s = NewSummarizer(&stubChat{reply: "Caller asked about hours."}, nil)
	if got := s.Summarize(context.Background(), "short"); got != SummaryPlaceholder {
		t.Fatalf("tiny transcript should yield placeholder, got %q", got)
	}
	if got := s.Summarize(context.Background(), "caller: what are your hours?\nagent: nine to five"); got != "Caller asked about hours." {
		t.Fatalf("summary = %q", got)
	}

	s = NewSummarizer(&stubChat{err: errors.New("boom")}, nil)
	if got := s.Summarize(context.Background(), "caller: what are your hours?\nagent: nine to five"); got != SummaryPlaceholder {
		t.Fatalf("failed summary should yield placeholder, got %q", got)
	}
}
