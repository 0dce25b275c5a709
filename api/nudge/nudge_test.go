package nudge

import (
	"strings"
	"testing"
	"time"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/shared/protocol"
)

func configWith(persona string, interval float64, idle time.Duration, now time.Time) *domain.AgentConfig {
	cfg := domain.DefaultAgentConfig("user_1")
	cfg.Persona = persona
	cfg.CheckInInterval = interval
	cfg.LastInteraction = now.Add(-idle)
	return cfg
}

func TestEvaluateTimerCheckIn(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	state := State{TimerActive: true, TimerTask: "write the report"}

	cfg := configWith(domain.PersonaCoach, 10, 11*time.Minute, now)
	d := Evaluate(cfg, state, now)
	if d == nil {
		t.Fatal("expected a check-in nudge")
	}
	if d.Type != protocol.NudgeTypeStrictCheck {
		t.Errorf("type = %q, want strict_check", d.Type)
	}
	if !d.ForceOpen {
		t.Error("timer check-in should force the panel open")
	}
	if !strings.Contains(d.Content, "write the report") {
		t.Errorf("content %q does not mention the task", d.Content)
	}

	// Not idle long enough: no nudge.
	cfg = configWith(domain.PersonaCoach, 10, 5*time.Minute, now)
	if d := Evaluate(cfg, state, now); d != nil {
		t.Errorf("unexpected nudge: %+v", d)
	}
}

func TestEvaluateStrictDefaultsToHalfMinute(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	state := State{TimerActive: true, TimerTask: "deep work"}

	for _, persona := range []string{domain.PersonaStrict, domain.PersonaGuru} {
		cfg := configWith(persona, 0, 40*time.Second, now)
		d := Evaluate(cfg, state, now)
		if d == nil {
			t.Fatalf("persona %s: expected a nudge after 40s with unset interval", persona)
		}
		if !strings.Contains(d.Content, "STATUS REPORT") {
			t.Errorf("persona %s: content = %q", persona, d.Content)
		}
	}

	// A relaxed persona with an unset interval waits 15 minutes.
	cfg := configWith(domain.PersonaFriend, 0, 5*time.Minute, now)
	if d := Evaluate(cfg, state, now); d != nil {
		t.Errorf("unexpected nudge for relaxed persona: %+v", d)
	}
}

// A user who never customized anything gets the persona default, so a
// fresh config must not carry a concrete interval that shadows it.
func TestEvaluateFreshConfigKeepsIntervalUnset(t *testing.T) {
	now := time.Date(2025, 6, 10, 14, 0, 0, 0, time.UTC)
	state := State{TimerActive: true, TimerTask: "deep work"}

	cfg := domain.DefaultAgentConfig("user_1")
	if cfg.CheckInInterval != 0 {
		t.Fatalf("fresh config interval = %v, want unset", cfg.CheckInInterval)
	}

	cfg.Persona = domain.PersonaStrict
	cfg.LastInteraction = now.Add(-40 * time.Second)
	if Evaluate(cfg, state, now) == nil {
		t.Error("strict persona on a fresh config should check in after 40s")
	}
}

func TestEvaluateMorningKickoff(t *testing.T) {
	morning := time.Date(2025, 6, 10, 8, 0, 0, 0, time.Local)
	cfg := configWith(domain.PersonaCoach, 10, 13*time.Hour, morning)

	d := Evaluate(cfg, State{}, morning)
	if d == nil {
		t.Fatal("expected a morning kickoff")
	}
	if d.Type != protocol.NudgeTypeProactive {
		t.Errorf("type = %q, want proactive", d.Type)
	}
	if d.Content != "Good morning! Ready to plan today?" {
		t.Errorf("content = %q", d.Content)
	}

	cfg.Persona = domain.PersonaStrict
	d = Evaluate(cfg, State{}, morning)
	if d == nil || d.Content != "Day has started. Define your objectives." {
		t.Errorf("strict morning nudge = %+v", d)
	}

	// Same idle time in the afternoon: nothing fires, not even the
	// doomscroll rule further down the chain.
	afternoon := time.Date(2025, 6, 10, 14, 0, 0, 0, time.Local)
	cfg = configWith(domain.PersonaCoach, 10, 13*time.Hour, afternoon)
	if d := Evaluate(cfg, State{IsDoomscroll: true}, afternoon); d != nil {
		t.Errorf("unexpected afternoon nudge: %+v", d)
	}
}

func TestEvaluateDoomscrollBreaker(t *testing.T) {
	now := time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC)
	cfg := configWith(domain.PersonaCoach, 10, time.Minute, now)

	d := Evaluate(cfg, State{IsDoomscroll: true}, now)
	if d == nil {
		t.Fatal("expected a doomscroll breaker")
	}
	if d.Content != "You've been scrolling. Break the loop." {
		t.Errorf("content = %q", d.Content)
	}

	// An active timer takes priority over the doomscroll rule.
	cfg = configWith(domain.PersonaCoach, 10, time.Minute, now)
	d = Evaluate(cfg, State{TimerActive: true, IsDoomscroll: true}, now)
	if d != nil {
		t.Errorf("timer branch should swallow the doomscroll rule: %+v", d)
	}
}

func TestEvaluateNilConfig(t *testing.T) {
	if d := Evaluate(nil, State{IsDoomscroll: true}, time.Now()); d != nil {
		t.Errorf("nil config should never nudge, got %+v", d)
	}
}
