// Package id provides ID generation helpers used across services.
package id

import (
	nanoid "github.com/matoous/go-nanoid/v2"
)

const DefaultLength = 21

const (
	PrefixMessage       = "msg"
	PrefixToolUse       = "tu"
	PrefixTodo          = "todo"
	PrefixJournal       = "jrnl"
	PrefixTracker       = "trk"
	PrefixProject       = "proj"
	PrefixGoal          = "goal"
	PrefixMemory        = "mem"
	PrefixNudge         = "nudge"
	PrefixDataCard      = "data"
	PrefixVisualization = "viz"
)

func New(prefix string) string {
	id, err := nanoid.New(DefaultLength)
	if err != nil {
		panic("nanoid generation failed: " + err.Error())
	}
	return prefix + "_" + id
}

func NewMessage() string       { return New(PrefixMessage) }
func NewToolUse() string       { return New(PrefixToolUse) }
func NewTodo() string          { return New(PrefixTodo) }
func NewJournal() string       { return New(PrefixJournal) }
func NewTracker() string       { return New(PrefixTracker) }
func NewProject() string       { return New(PrefixProject) }
func NewGoal() string          { return New(PrefixGoal) }
func NewMemory() string        { return New(PrefixMemory) }
func NewNudge() string         { return New(PrefixNudge) }
func NewDataCard() string      { return New(PrefixDataCard) }
func NewVisualization() string { return New(PrefixVisualization) }
