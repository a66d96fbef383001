package routing

import (
	"testing"
	"time"

	"github.com/Deverdnd/neverdnd-call-handler/internal/business"
)

// Jan 2 2024 is a Tuesday.
func tuesdayAt(hour, min int) time.Time {
	return time.Date(2024, time.January, 2, hour, min, 0, 0, time.UTC)
}

func tuesdayHours(open, close string) business.WeeklyHours {
	var w business.WeeklyHours
	for i := range w {
		w[i] = business.DayHours{Closed: true}
	}
	w[time.Tuesday] = business.DayHours{Open: open, Close: close}
	return w
}

func baseConfig(mode business.RoutingMode) *business.Config {
	return &business.Config{
		ID:            "biz-1",
		Name:          "Joe's Auto Repair",
		ForwardNumber: "+15550001111",
		Mode:          mode,
		Hours:         tuesdayHours("10:00", "18:00"),
	}
}

func TestDecide_NilConfigConverses(t *testing.T) {
	d := Decide(nil, tuesdayAt(12, 0))
	if d.Action != ActionConverse {
		t.Fatalf("expected converse, got %s (%s)", d.Action, d.Reason)
	}
}

func TestDecide_NoForwardNumberConverses(t *testing.T) {
	cfg := baseConfig(business.ModeDisabled)
	cfg.ForwardNumber = ""
	d := Decide(cfg, tuesdayAt(12, 0))
	if d.Action != ActionConverse {
		t.Fatalf("expected converse without forward number, got %s", d.Action)
	}
}

func TestDecide_AlwaysAI(t *testing.T) {
	d := Decide(baseConfig(business.ModeAlwaysAI), tuesdayAt(3, 0))
	if d.Action != ActionConverse {
		t.Fatalf("expected converse, got %s", d.Action)
	}
}

func TestDecide_DisabledForwards(t *testing.T) {
	d := Decide(baseConfig(business.ModeDisabled), tuesdayAt(12, 0))
	if d.Action != ActionForward {
		t.Fatalf("expected forward, got %s", d.Action)
	}
	if d.ForwardTo != "+15550001111" {
		t.Fatalf("expected forward target, got %q", d.ForwardTo)
	}
}

func TestDecide_AfterHoursMode(t *testing.T) {
	cfg := baseConfig(business.ModeAfterHours)

	cases := []struct {
		name string
		at   time.Time
		want Action
	}{
		{"mid morning forwards to staff", tuesdayAt(10, 30), ActionForward},
		{"evening converses", tuesdayAt(20, 0), ActionConverse},
		{"open boundary forwards", tuesdayAt(10, 0), ActionForward},
		{"close boundary converses", tuesdayAt(18, 0), ActionConverse},
		{"minute before close forwards", tuesdayAt(17, 59), ActionForward},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Decide(cfg, tc.at)
			if d.Action != tc.want {
				t.Fatalf("at %s: expected %s, got %s (%s)", tc.at, tc.want, d.Action, d.Reason)
			}
		})
	}
}

func TestDecide_BusinessHoursModeIsComplement(t *testing.T) {
	cfg := baseConfig(business.ModeBusinessHours)

	if d := Decide(cfg, tuesdayAt(10, 30)); d.Action != ActionConverse {
		t.Fatalf("inside hours: expected converse, got %s", d.Action)
	}
	if d := Decide(cfg, tuesdayAt(20, 0)); d.Action != ActionForward {
		t.Fatalf("outside hours: expected forward, got %s", d.Action)
	}
}

func TestDecide_ClosedDayCountsAsOutsideHours(t *testing.T) {
	cfg := baseConfig(business.ModeAfterHours)
	// Jan 3 2024 is a Wednesday, marked closed in the fixture.
	wed := time.Date(2024, time.January, 3, 12, 0, 0, 0, time.UTC)
	if d := Decide(cfg, wed); d.Action != ActionConverse {
		t.Fatalf("closed day: expected converse, got %s", d.Action)
	}
}

func TestDecide_CustomSchedule(t *testing.T) {
	cfg := baseConfig(business.ModeCustomSchedule)
	sched := tuesdayHours("22:00", "23:00")
	cfg.AISchedule = &sched

	if d := Decide(cfg, tuesdayAt(22, 30)); d.Action != ActionConverse {
		t.Fatalf("inside custom window: expected converse, got %s", d.Action)
	}
	if d := Decide(cfg, tuesdayAt(12, 0)); d.Action != ActionForward {
		t.Fatalf("outside custom window: expected forward, got %s", d.Action)
	}
}

func TestDecide_CustomScheduleFallsBackToAfterHours(t *testing.T) {
	cfg := baseConfig(business.ModeCustomSchedule)
	// No AISchedule configured at all.
	if d := Decide(cfg, tuesdayAt(20, 0)); d.Action != ActionConverse {
		t.Fatalf("expected after-hours fallback converse, got %s (%s)", d.Action, d.Reason)
	}
	if d := Decide(cfg, tuesdayAt(12, 0)); d.Action != ActionForward {
		t.Fatalf("expected after-hours fallback forward, got %s", d.Action)
	}

	// Schedule present but the weekday entry is unusable.
	sched := tuesdayHours("22:00", "23:00")
	sched[time.Tuesday] = business.DayHours{Closed: true}
	cfg.AISchedule = &sched
	if d := Decide(cfg, tuesdayAt(20, 0)); d.Action != ActionConverse {
		t.Fatalf("expected fallback converse for closed entry, got %s", d.Action)
	}
}

func TestDecide_UnknownModeBehavesLikeAfterHours(t *testing.T) {
	cfg := baseConfig(business.RoutingMode("weekend_only"))
	if d := Decide(cfg, tuesdayAt(20, 0)); d.Action != ActionConverse {
		t.Fatalf("expected converse, got %s", d.Action)
	}
}

func TestDecide_SameInputsSameDecision(t *testing.T) {
	cfg := baseConfig(business.ModeAfterHours)
	at := tuesdayAt(11, 15)
	first := Decide(cfg, at)
	for i := 0; i < 5; i++ {
		if got := Decide(cfg, at); got != first {
			t.Fatalf("decision changed between calls: %+v vs %+v", first, got)
		}
	}
}
