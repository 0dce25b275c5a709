package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/shared/llm"
)

func TestExecuteUnknownToolIsHardError(t *testing.T) {
	e := NewExecutor(newMemStore())

	_, err := e.Execute(context.Background(), "user_1", llm.ToolCall{ID: "c1", Name: "launchMissiles", Arguments: "{}"})
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
}

func TestExecuteInvalidArgumentsReportedInBand(t *testing.T) {
	e := NewExecutor(newMemStore())

	res, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c1",
		Name:      "addTodo",
		Arguments: `{"text": "broken`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.OK {
		t.Error("result marked ok for unparseable arguments")
	}
	if res.Content != `{"error": "invalid arguments"}` {
		t.Errorf("content = %q", res.Content)
	}
}

func TestExecuteStoreFailureReportedInBand(t *testing.T) {
	store := newMemStore()
	store.failCreateMemory = true
	e := NewExecutor(store)

	res, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c1",
		Name:      "saveMemory",
		Arguments: `{"content": "likes jazz", "type": "preference", "importance": 4}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.OK {
		t.Error("result marked ok for failing store")
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		t.Fatalf("content is not JSON: %q", res.Content)
	}
	if payload["error"] == "" {
		t.Errorf("no in-band error in %v", payload)
	}
}

func TestGetTodosFilterAndSummary(t *testing.T) {
	store := newMemStore()
	store.todos = []*domain.Todo{
		{ID: "t1", Text: "ship release", Completed: false},
		{ID: "t2", Text: "old chore", Completed: true},
	}
	e := NewExecutor(store)

	res, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c1",
		Name:      "getTodos",
		Arguments: `{"filter": "pending"}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.OK {
		t.Fatalf("result not ok: %s", res.Content)
	}
	if res.Summary != "Found 1 tasks." {
		t.Errorf("summary = %q", res.Summary)
	}
	if !strings.Contains(res.Content, "ship release") || strings.Contains(res.Content, "old chore") {
		t.Errorf("content = %q", res.Content)
	}
}

func TestToggleTodoHonorsExplicitState(t *testing.T) {
	store := newMemStore()
	store.todos = []*domain.Todo{{ID: "todo_1", UserID: "user_1", Text: "ship it", Completed: true}}
	e := NewExecutor(store)

	// Repeating "mark as done" on an already completed todo must not
	// undo it.
	res, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c1",
		Name:      "toggleTodo",
		Arguments: `{"id": "todo_1", "completed": true}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.OK {
		t.Fatalf("result not ok: %s", res.Content)
	}
	if !store.todos[0].Completed {
		t.Error("repeated done request un-completed the todo")
	}
	if res.Summary != "Marked task as done." {
		t.Errorf("summary = %q", res.Summary)
	}

	res, err = e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c2",
		Name:      "toggleTodo",
		Arguments: `{"id": "todo_1", "completed": false}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if store.todos[0].Completed {
		t.Error("explicit pending request did not clear the todo")
	}
	if res.Summary != "Marked task as pending." {
		t.Errorf("summary = %q", res.Summary)
	}

	// Without the argument the state flips.
	if _, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c3",
		Name:      "toggleTodo",
		Arguments: `{"id": "todo_1"}`,
	}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !store.todos[0].Completed {
		t.Error("missing argument should fall back to a flip")
	}
}

func TestUpdateAgentSettingsMergesAndValidates(t *testing.T) {
	store := newMemStore()
	e := NewExecutor(store)

	res, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c1",
		Name:      "updateAgentSettings",
		Arguments: `{"personalityMode": "strict", "honestyLevel": 250}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !res.OK {
		t.Fatalf("result not ok: %s", res.Content)
	}

	if store.config.Persona != domain.PersonaStrict {
		t.Errorf("persona = %q", store.config.Persona)
	}
	if store.config.Honesty != 100 {
		t.Errorf("honesty = %d, want clamped to 100", store.config.Honesty)
	}
	if store.config.CoachingStyle != domain.StyleStandard {
		t.Errorf("coaching style changed to %q without being asked", store.config.CoachingStyle)
	}

	res, err = e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c2",
		Name:      "updateAgentSettings",
		Arguments: `{"personalityMode": "overlord"}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.OK {
		t.Error("unknown persona accepted")
	}
	if store.config.Persona != domain.PersonaStrict {
		t.Errorf("persona overwritten to %q", store.config.Persona)
	}
}

func TestVisualizeTrackerStreakLeaderboard(t *testing.T) {
	store := newMemStore()
	today := time.Now().Format("2006-01-02")
	store.trackers = []*domain.Tracker{
		{ID: "trk_1", Name: "Workout", Logs: []domain.TrackerLog{{Date: today, Value: 1}}},
		{ID: "trk_2", Name: "Reading", Logs: nil},
	}
	e := NewExecutor(store)

	res, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c1",
		Name:      "visualizeData",
		Arguments: `{"dataType": "trackers", "chartType": "bar", "title": "Momentum"}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Viz == nil {
		t.Fatal("no visualization produced")
	}
	if res.Viz.Subtitle != "Active Momentum (Streaks)" {
		t.Errorf("subtitle = %q", res.Viz.Subtitle)
	}
	if len(res.Viz.Data) != 2 {
		t.Fatalf("points = %d, want 2", len(res.Viz.Data))
	}
	if res.Viz.Data[0].Label != "Workout" || res.Viz.Data[0].Value != 1 {
		t.Errorf("first point = %+v", res.Viz.Data[0])
	}
	if res.Viz.Data[1].Value != 0 {
		t.Errorf("tracker with no logs has streak %v", res.Viz.Data[1].Value)
	}
}

func TestVisualizeSingleTrackerLastSevenLogs(t *testing.T) {
	store := newMemStore()
	// The store returns logs newest first: Aug 10 down to Aug 1, value
	// matching the day of the month.
	logs := make([]domain.TrackerLog, 10)
	for i := range logs {
		day := 10 - i
		logs[i] = domain.TrackerLog{Date: time.Date(2026, 8, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"), Value: float64(day)}
	}
	store.trackers = []*domain.Tracker{{ID: "trk_1", Name: "Workout", Logs: logs}}
	e := NewExecutor(store)

	res, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c1",
		Name:      "visualizeData",
		Arguments: `{"dataType": "trackers", "chartType": "line", "title": "Workout", "trackerId": "trk_1"}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Viz == nil {
		t.Fatal("no visualization produced")
	}
	if len(res.Viz.Data) != 7 {
		t.Fatalf("points = %d, want last 7", len(res.Viz.Data))
	}
	// The chart reads oldest to newest, covering the most recent seven
	// days: Aug 4 through Aug 10.
	for i, p := range res.Viz.Data {
		if want := float64(4 + i); p.Value != want {
			t.Errorf("point %d value = %v, want %v", i, p.Value, want)
		}
	}
	if res.Viz.Data[6].Label != "Mon" {
		t.Errorf("last label = %q, want Mon (Aug 10 2026)", res.Viz.Data[6].Label)
	}
	if res.Viz.Subtitle != "Performance: Workout" {
		t.Errorf("subtitle = %q", res.Viz.Subtitle)
	}
}

func TestVisualizeTodosPriorityHistogram(t *testing.T) {
	store := newMemStore()
	store.todos = []*domain.Todo{
		{ID: "t1", Priority: domain.PriorityHigh},
		{ID: "t2", Priority: domain.PriorityHigh},
		{ID: "t3", Priority: domain.PriorityLow},
	}
	e := NewExecutor(store)

	res, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c1",
		Name:      "visualizeData",
		Arguments: `{"dataType": "todos", "chartType": "pie", "title": "Focus"}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Viz == nil {
		t.Fatal("no visualization produced")
	}
	// Medium has zero todos and is dropped.
	if len(res.Viz.Data) != 2 {
		t.Fatalf("points = %+v, want HIGH and LOW only", res.Viz.Data)
	}
	if res.Viz.Data[0].Label != "HIGH" || res.Viz.Data[0].Value != 2 {
		t.Errorf("first point = %+v", res.Viz.Data[0])
	}
	if res.Viz.Data[1].Label != "LOW" || res.Viz.Data[1].Value != 1 {
		t.Errorf("second point = %+v", res.Viz.Data[1])
	}
}

func TestVisualizeGoalsProgress(t *testing.T) {
	store := newMemStore()
	store.goals = []*domain.Goal{
		{ID: "g1", Title: "Run a marathon", Progress: 40},
		{ID: "g2", Title: "Read 20 books", Progress: 75},
	}
	e := NewExecutor(store)

	res, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c1",
		Name:      "visualizeData",
		Arguments: `{"dataType": "goals", "chartType": "bar", "title": "Goals"}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if res.Viz == nil {
		t.Fatal("no visualization produced")
	}
	if len(res.Viz.Data) != 2 {
		t.Fatalf("points = %d, want 2", len(res.Viz.Data))
	}
	if res.Viz.Data[0].Label != "Run a marathon" || res.Viz.Data[0].Value != 40 {
		t.Errorf("first point = %+v", res.Viz.Data[0])
	}

	// The tool result itself only signals success; the chart travels as
	// its own message.
	var payload map[string]any
	if err := json.Unmarshal([]byte(res.Content), &payload); err != nil {
		t.Fatalf("content: %v", err)
	}
	if payload["visualized"] != true {
		t.Errorf("payload = %v", payload)
	}
}

func TestAddJournalEntryFoldsTitle(t *testing.T) {
	store := newMemStore()
	e := NewExecutor(store)

	_, err := e.Execute(context.Background(), "user_1", llm.ToolCall{
		ID:        "c1",
		Name:      "addJournalEntry",
		Arguments: `{"content": "Shipped the big feature today.", "title": "Release day", "mood": "energetic"}`,
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(store.journal) != 1 {
		t.Fatalf("journal entries = %d, want 1", len(store.journal))
	}
	entry := store.journal[0]
	if !strings.HasPrefix(entry.Content, "Release day\n\n") {
		t.Errorf("content = %q", entry.Content)
	}
	if entry.Mood != "energetic" {
		t.Errorf("mood = %q", entry.Mood)
	}
}
