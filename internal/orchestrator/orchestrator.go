package orchestrator

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Deverdnd/neverdnd-call-handler/internal/ai"
	"github.com/Deverdnd/neverdnd-call-handler/internal/appointment"
	"github.com/Deverdnd/neverdnd-call-handler/internal/business"
	"github.com/Deverdnd/neverdnd-call-handler/internal/calls"
	"github.com/Deverdnd/neverdnd-call-handler/internal/notify"
	"github.com/Deverdnd/neverdnd-call-handler/internal/rateguard"
	"github.com/Deverdnd/neverdnd-call-handler/internal/routing"
	"github.com/Deverdnd/neverdnd-call-handler/internal/session"
	"github.com/Deverdnd/neverdnd-call-handler/internal/usage"
	"github.com/Deverdnd/neverdnd-call-handler/pkg/logger"
)

// Caller-visible fixed messages. These are the only failures a caller ever
// hears; everything else degrades silently.
const (
	RateLimitApology = "I'm sorry, we're receiving too many calls from your number right now. Please try again in a few minutes. Goodbye!"
	DifficultiesLine = "I'm sorry, we're experiencing technical difficulties right now. Please try your call again later. Goodbye!"
)

// Orchestrator drives the per-call lifecycle: new -> conversing -> completed.
//
// Collaborators are invoked as blocking calls; per-call isolation comes from
// keying all mutable state by call identifier, so one call's slow
// collaborator cannot stall another call's turn.
type Orchestrator struct {
	Guard      rateguard.Guard
	Businesses business.Store
	Sessions   *session.Store
	Generator  *ai.Generator
	Summarizer *ai.Summarizer
	Booker     appointment.Booker
	Calls      calls.Repository
	Notifier   notify.Sender
	Usage      *usage.Service

	// ForceConverse is a deployment/debug override that skips the routing
	// policy entirely. It is deliberately not part of the policy contract.
	ForceConverse bool

	Now func() time.Time
	Log *slog.Logger
}

func (o *Orchestrator) now() time.Time {
	if o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

func (o *Orchestrator) log() *slog.Logger {
	if o.Log != nil {
		return o.Log
	}
	return slog.Default()
}

// StartRequest is the inbound call event.
type StartRequest struct {
	CallID string
	From   string
	To     string
}

type Outcome string

const (
	OutcomeReject   Outcome = "reject"
	OutcomeForward  Outcome = "forward"
	OutcomeConverse Outcome = "converse"
)

// StartResult tells the telephony layer what to do with the fresh call.
type StartResult struct {
	Outcome Outcome

	// Greeting is spoken when conversing; the apology when rejecting.
	Greeting string

	// ForwardTo is the human line when Outcome == OutcomeForward.
	ForwardTo string
}

// StartCall admits the call and takes the routing decision. The policy is
// consulted exactly once per call, here; utterance turns never re-route.
// No session is created on rejection or forward.
func (o *Orchestrator) StartCall(ctx context.Context, req StartRequest) StartResult {
	log := o.log().With("call_id", req.CallID, "from", logger.MaskPhone(req.From))

	if o.Guard != nil {
		res, err := o.Guard.Admit(ctx, req.From)
		if err != nil {
			// Guard backend failure fails open: dropping legitimate calls
			// is worse than admitting a burst while redis is down.
			log.Warn("rate guard unavailable, admitting", "err", err)
		} else if !res.Allowed {
			log.Warn("call rejected by rate guard", "reset_in_ms", res.ResetIn.Milliseconds())
			return StartResult{Outcome: OutcomeReject, Greeting: RateLimitApology}
		}
	}

	cfg, found := o.lookupConfig(ctx, req.To)

	decision := routing.Decision{Action: routing.ActionConverse, Reason: "force_converse"}
	if !o.ForceConverse {
		var cfgRef *business.Config
		if found {
			cfgRef = &cfg
		}
		decision = routing.Decide(cfgRef, o.now())
	}

	if decision.Action == routing.ActionForward {
		log.Info("routing call to human line", "reason", decision.Reason)
		o.logFeature(ctx, cfg.ID, usage.FeatureCallForwarded, req.CallID)
		return StartResult{Outcome: OutcomeForward, ForwardTo: decision.ForwardTo}
	}

	o.Sessions.Start(req.CallID, req.From, req.To)
	log.Info("answering call with ai", "reason", decision.Reason)
	o.logFeature(ctx, cfg.ID, usage.FeatureCallAnswered, req.CallID)

	return StartResult{Outcome: OutcomeConverse, Greeting: greeting(cfg)}
}

// UtteranceRequest is one caller utterance while conversing.
type UtteranceRequest struct {
	CallID string
	From   string
	To     string
	Text   string
}

// HandleUtterance produces the agent's next spoken line.
//
// Whatever goes wrong inside the turn, the telephony layer always receives
// speakable text, never an error.
func (o *Orchestrator) HandleUtterance(ctx context.Context, req UtteranceRequest) (spoken string) {
	log := o.log().With("call_id", req.CallID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("utterance pipeline panicked", "panic", r)
			spoken = DifficultiesLine
		}
	}()

	cfg, _ := o.lookupConfig(ctx, req.To)

	// Snapshot history before appending so the prompt does not carry the
	// current utterance twice.
	history := o.Sessions.History(req.CallID)
	o.Sessions.Append(req.CallID, session.RoleCaller, req.Text)

	reply := o.Generator.Respond(ctx, req.Text, cfg, history, cfg.CanSchedule)
	spoken = o.processAppointment(ctx, log, reply, cfg, req)

	if strings.TrimSpace(spoken) == "" {
		spoken = "Is there anything else I can help you with?"
	}
	o.Sessions.Append(req.CallID, session.RoleAgent, spoken)
	return spoken
}

// processAppointment inspects a generated reply for a booking block. The
// block (well-formed or not) is always stripped from the spoken text; a
// confirmation sentence is appended only when booking succeeds.
func (o *Orchestrator) processAppointment(ctx context.Context, log *slog.Logger, reply string, cfg business.Config, req UtteranceRequest) string {
	apt, found := appointment.Extract(reply)
	if !found {
		return reply
	}
	spoken := appointment.Strip(reply)

	apt.CallID = req.CallID
	apt.BusinessID = cfg.ID
	if apt.CustomerPhone == "" {
		apt.CustomerPhone = req.From
	}

	if err := apt.Validate(o.now()); err != nil {
		// Malformed block: treated as no appointment.
		log.Warn("appointment block rejected", "err", err)
		return spoken
	}
	if o.Booker == nil {
		log.Warn("appointment block found but no booker configured")
		return spoken
	}

	booking, err := o.Booker.Book(ctx, apt)
	if err != nil {
		log.Error("appointment booking failed", "err", err)
		return spoken
	}
	log.Info("appointment booked", "appointment_id", booking.ID, "service", apt.Service)

	o.logFeature(ctx, cfg.ID, usage.FeatureAppointmentScheduled, req.CallID)
	if o.Notifier != nil && cfg.NotificationPhone != "" {
		msg := notify.AppointmentBooked(cfg.Name, apt.Service, apt.Date, apt.Time, apt.CustomerName)
		if err := o.Notifier.Send(ctx, cfg.NotificationPhone, msg); err != nil {
			log.Warn("appointment notification failed", "err", err)
		}
	}

	return joinSpeech(spoken, appointment.Confirmation(apt))
}

// CompletionRequest is the call-completion event from the telephony layer.
type CompletionRequest struct {
	CallID          string
	From            string
	To              string
	DurationSeconds int
	RecordingURL    string
}

// CompleteCall closes the session, summarizes the transcript, persists the
// call record, and notifies the owner. Fire-and-forget: every step is
// best-effort and the method never fails the webhook.
func (o *Orchestrator) CompleteCall(ctx context.Context, req CompletionRequest) {
	log := o.log().With("call_id", req.CallID)

	transcript, sessionDur, ok := o.Sessions.Close(req.CallID)
	if !ok {
		// Forwarded or rejected calls never had a session.
		log.Debug("completion for untracked call")
		return
	}

	summary := ai.SummaryPlaceholder
	if o.Summarizer != nil {
		summary = o.Summarizer.Summarize(ctx, transcript)
	}

	duration := req.DurationSeconds
	if duration <= 0 {
		duration = int(sessionDur.Seconds())
	}

	cfg, _ := o.lookupConfig(ctx, req.To)

	if o.Calls != nil {
		rec := calls.Call{
			CallID:          req.CallID,
			BusinessID:      cfg.ID,
			From:            req.From,
			To:              req.To,
			Status:          calls.CallStatusCompleted,
			DurationSeconds: duration,
			Transcript:      transcript,
			Summary:         summary,
			RecordingURL:    req.RecordingURL,
			CreatedAt:       o.now().UTC(),
		}
		if _, err := o.Calls.Insert(ctx, rec); err != nil {
			log.Error("call record insert failed", "err", err)
		}
	}

	if o.Notifier != nil && cfg.NotifyOnCall && cfg.NotificationPhone != "" {
		msg := notify.CallCompleted(cfg.Name, logger.MaskPhone(req.From), strconv.Itoa(duration), summary)
		if err := o.Notifier.Send(ctx, cfg.NotificationPhone, msg); err != nil {
			log.Warn("call notification failed", "err", err)
		}
	}

	log.Info("call completed", "duration_s", duration)
}

// lookupConfig resolves tenant configuration; a miss is non-fatal and falls
// back to the global default.
func (o *Orchestrator) lookupConfig(ctx context.Context, to string) (business.Config, bool) {
	if o.Businesses == nil || to == "" {
		return business.DefaultConfig(), false
	}
	cfg, err := o.Businesses.ByNumber(ctx, to)
	if err != nil {
		return business.DefaultConfig(), false
	}
	return cfg, true
}

func (o *Orchestrator) logFeature(ctx context.Context, businessID string, feature usage.Feature, callID string) {
	if o.Usage == nil || businessID == "" {
		return
	}
	if err := o.Usage.LogFeature(ctx, businessID, feature, callID, ""); err != nil {
		o.log().Warn("feature usage log failed", "feature", string(feature), "err", err)
	}
}

func greeting(cfg business.Config) string {
	name := strings.TrimSpace(cfg.Name)
	if name == "" || name == "this business" {
		return "Hi! Thanks for calling. How can I help you today?"
	}
	return "Hi! Thanks for calling " + name + ". How can I help you today?"
}

func joinSpeech(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
