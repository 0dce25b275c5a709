// Package nudge decides when the agent should proactively reach out.
package nudge

import (
	"fmt"
	"time"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/shared/protocol"
)

// State is the client-reported ambient context a decision is made on.
type State struct {
	CurrentPage  string
	TimerActive  bool
	TimerTask    string
	IsDoomscroll bool
}

// Decision is a nudge that should be delivered to the user.
type Decision struct {
	Content   string
	Type      string
	ForceOpen bool
}

const (
	defaultStrictInterval  = 0.5 // minutes
	defaultRelaxedInterval = 15
	morningIdleThreshold   = 12 * time.Hour
)

// Evaluate runs the nudge rules in priority order and returns the first
// match, or nil when the user should be left alone. Rules:
//
//  1. Timer running and the user has been quiet past the check-in
//     interval: demand a status report.
//  2. No timer, quiet for over 12 hours, and it is morning: kick off
//     the day.
//  3. Doomscrolling: break the loop.
func Evaluate(cfg *domain.AgentConfig, state State, now time.Time) *Decision {
	if cfg == nil {
		return nil
	}

	idle := now.Sub(cfg.LastInteraction)
	isStrict := cfg.Persona == domain.PersonaStrict || cfg.Persona == domain.PersonaGuru

	task := state.TimerTask
	if task == "" {
		task = "your task"
	}

	interval := cfg.CheckInInterval
	if interval == 0 {
		if isStrict {
			interval = defaultStrictInterval
		} else {
			interval = defaultRelaxedInterval
		}
	}

	switch {
	case state.TimerActive:
		if idle > time.Duration(interval*float64(time.Minute)) {
			content := fmt.Sprintf("Checking in: Still making progress on %s?", task)
			if isStrict {
				content = fmt.Sprintf("⚠️ STATUS REPORT. You are supposed to be working on: %s. Are you focused?", task)
			}
			return &Decision{Content: content, Type: protocol.NudgeTypeStrictCheck, ForceOpen: true}
		}

	case idle > morningIdleThreshold:
		hour := now.Hour()
		if hour >= 6 && hour < 12 {
			content := "Good morning! Ready to plan today?"
			if cfg.Persona == domain.PersonaStrict {
				content = "Day has started. Define your objectives."
			}
			return &Decision{Content: content, Type: protocol.NudgeTypeProactive}
		}

	case state.IsDoomscroll:
		return &Decision{Content: "You've been scrolling. Break the loop.", Type: protocol.NudgeTypeProactive}
	}

	return nil
}
