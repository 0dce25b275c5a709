package llm

import (
	"encoding/json"
	"testing"
)

func TestAccumulatorReassemblesSplitToolCall(t *testing.T) {
	// The same logical call arrives in different fragmentations; the
	// assembled result must be identical for all of them.
	full := `{"text":"buy milk","priority":"high"}`
	splits := [][]string{
		{full},
		{`{"text":"buy m`, `ilk","priori`, `ty":"high"}`},
		{`{`, `"text"`, `:"buy milk",`, `"priority":"high"`, `}`},
	}

	for i, parts := range splits {
		acc := NewAccumulator()
		acc.Feed(StreamEvent{ToolCallDelta: &ToolCallDelta{Index: 0, ID: "call_1", Name: "addTodo"}})
		for _, p := range parts {
			acc.Feed(StreamEvent{ToolCallDelta: &ToolCallDelta{Index: 0, Arguments: p}})
		}

		calls := acc.ToolCalls()
		if len(calls) != 1 {
			t.Fatalf("split %d: got %d calls, want 1", i, len(calls))
		}
		if calls[0].ID != "call_1" || calls[0].Name != "addTodo" {
			t.Errorf("split %d: call = %+v", i, calls[0])
		}
		if calls[0].Arguments != full {
			t.Errorf("split %d: arguments = %q, want %q", i, calls[0].Arguments, full)
		}
		var args map[string]any
		if err := json.Unmarshal([]byte(calls[0].Arguments), &args); err != nil {
			t.Errorf("split %d: assembled arguments not valid JSON: %v", i, err)
		}
	}
}

func TestAccumulatorMultipleCallsOrderedByIndex(t *testing.T) {
	acc := NewAccumulator()
	// Fragments for two calls interleave; index 1 starts first.
	acc.Feed(StreamEvent{ToolCallDelta: &ToolCallDelta{Index: 1, ID: "call_b", Name: "getTodos"}})
	acc.Feed(StreamEvent{ToolCallDelta: &ToolCallDelta{Index: 0, ID: "call_a", Name: "save"}})
	acc.Feed(StreamEvent{ToolCallDelta: &ToolCallDelta{Index: 0, Name: "Memory"}})
	acc.Feed(StreamEvent{ToolCallDelta: &ToolCallDelta{Index: 1, Arguments: `{"filter":"today"}`}})
	acc.Feed(StreamEvent{ToolCallDelta: &ToolCallDelta{Index: 0, Arguments: `{"content":"likes tea"}`}})

	calls := acc.ToolCalls()
	if len(calls) != 2 {
		t.Fatalf("got %d calls, want 2", len(calls))
	}
	if calls[0].ID != "call_a" || calls[0].Name != "saveMemory" {
		t.Errorf("call 0 = %+v", calls[0])
	}
	if calls[1].ID != "call_b" || calls[1].Name != "getTodos" {
		t.Errorf("call 1 = %+v", calls[1])
	}
}

func TestAccumulatorContentAndCallsIndependent(t *testing.T) {
	acc := NewAccumulator()
	acc.Feed(StreamEvent{Content: "Let me check"})
	acc.Feed(StreamEvent{ToolCallDelta: &ToolCallDelta{Index: 0, ID: "call_1", Name: "getGoals", Arguments: "{}"}})
	acc.Feed(StreamEvent{Content: " your goals."})
	acc.Feed(StreamEvent{FinishReason: "tool_calls"})

	if acc.Text() != "Let me check your goals." {
		t.Errorf("text = %q", acc.Text())
	}
	if !acc.HasToolCalls() {
		t.Fatal("expected tool calls")
	}
	if acc.FinishReason() != "tool_calls" {
		t.Errorf("finish reason = %q", acc.FinishReason())
	}
}

func TestAccumulatorEmptyStream(t *testing.T) {
	acc := NewAccumulator()
	if acc.Text() != "" {
		t.Errorf("text = %q, want empty", acc.Text())
	}
	if calls := acc.ToolCalls(); calls != nil {
		t.Errorf("calls = %v, want nil", calls)
	}
	if acc.HasToolCalls() {
		t.Error("HasToolCalls on empty accumulator")
	}
}
