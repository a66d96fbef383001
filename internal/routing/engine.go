package routing

import (
	"time"

	"github.com/Deverdnd/neverdnd-call-handler/internal/business"
)

// Decide evaluates whether an inbound call should be conversed with by the AI
// or forwarded to the tenant's human line.
//
// Rules, in order:
//  1. No config, or config without a forward number -> converse (AI is the only option).
//  2. ModeAlwaysAI -> converse.
//  3. ModeDisabled -> forward.
//  4. ModeBusinessHours -> converse inside business hours, forward outside.
//  5. ModeAfterHours (default) -> converse outside business hours, forward
//     inside; the complement of (4).
//  6. ModeCustomSchedule -> converse inside the custom AI-active interval for
//     now's weekday; with no usable schedule for that weekday, fall back to (5).
//
// Time comparison is minute resolution over half-open [open, close) intervals;
// a day marked closed is never "within hours".
//
// Return a decision only. No side effects (no DB reads, no provider calls):
// Decide must return the same Decision for a fixed (cfg, now) pair.
func Decide(cfg *business.Config, now time.Time) Decision {
	if cfg == nil {
		return Decision{Action: ActionConverse, Reason: "no_config"}
	}
	if cfg.ForwardNumber == "" {
		return Decision{Action: ActionConverse, Reason: "no_forward_number"}
	}

	switch cfg.Mode {
	case business.ModeAlwaysAI:
		return Decision{Action: ActionConverse, Reason: "always_ai"}

	case business.ModeDisabled:
		return forward(cfg, "ai_disabled")

	case business.ModeBusinessHours:
		// Tenant staffs the phone after hours and wants the AI only
		// while the shop is open.
		if cfg.Hours.Contains(now) {
			return Decision{Action: ActionConverse, Reason: "within_hours"}
		}
		return forward(cfg, "outside_hours")

	case business.ModeCustomSchedule:
		if cfg.AISchedule != nil {
			day := cfg.AISchedule[now.Weekday()]
			if !day.Closed && day.Open != "" {
				if day.Contains(now) {
					return Decision{Action: ActionConverse, Reason: "custom_schedule"}
				}
				return forward(cfg, "outside_custom_schedule")
			}
		}
		return afterHours(cfg, now)

	default:
		return afterHours(cfg, now)
	}
}

func afterHours(cfg *business.Config, now time.Time) Decision {
	if cfg.Hours.Contains(now) {
		return forward(cfg, "within_hours")
	}
	return Decision{Action: ActionConverse, Reason: "after_hours"}
}

func forward(cfg *business.Config, reason string) Decision {
	return Decision{Action: ActionForward, ForwardTo: cfg.ForwardNumber, Reason: reason}
}
