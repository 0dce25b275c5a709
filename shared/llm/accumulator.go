package llm

import (
	"sort"
	"strings"
)

type pendingCall struct {
	id   string
	name strings.Builder
	args strings.Builder
}

// Accumulator assembles streamed deltas into a complete assistant turn.
// Tool call fragments are keyed by their delta index and concatenated in
// arrival order; the assembled calls are read back only after the stream
// has ended, so a partially delivered arguments buffer is never visible.
type Accumulator struct {
	text         strings.Builder
	calls        map[int]*pendingCall
	finishReason string
}

func NewAccumulator() *Accumulator {
	return &Accumulator{calls: make(map[int]*pendingCall)}
}

// Feed applies one stream event. Done and Err events are ignored; the
// caller decides what terminates the stream.
func (a *Accumulator) Feed(ev StreamEvent) {
	if ev.Content != "" {
		a.text.WriteString(ev.Content)
	}
	if ev.FinishReason != "" {
		a.finishReason = ev.FinishReason
	}
	if ev.ToolCallDelta == nil {
		return
	}

	d := ev.ToolCallDelta
	pc, ok := a.calls[d.Index]
	if !ok {
		pc = &pendingCall{}
		a.calls[d.Index] = pc
	}
	if d.ID != "" {
		pc.id = d.ID
	}
	pc.name.WriteString(d.Name)
	pc.args.WriteString(d.Arguments)
}

// Text returns the accumulated assistant content so far.
func (a *Accumulator) Text() string {
	return a.text.String()
}

func (a *Accumulator) FinishReason() string {
	return a.finishReason
}

// ToolCalls returns the assembled tool calls ordered by delta index.
// Arguments are returned as the raw concatenated string; parsing them is
// the executor's job.
func (a *Accumulator) ToolCalls() []ToolCall {
	if len(a.calls) == 0 {
		return nil
	}
	indexes := make([]int, 0, len(a.calls))
	for i := range a.calls {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	out := make([]ToolCall, 0, len(indexes))
	for _, i := range indexes {
		pc := a.calls[i]
		out = append(out, ToolCall{
			ID:        pc.id,
			Name:      pc.name.String(),
			Arguments: pc.args.String(),
		})
	}
	return out
}

// HasToolCalls reports whether any tool call fragment has arrived.
func (a *Accumulator) HasToolCalls() bool {
	return len(a.calls) > 0
}
