package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"

	"github.com/krsna-app/krsna/api/domain"
)

// setupMockContext places the mock where conn() looks for an active
// transaction, so store methods run against it.
func setupMockContext(mock pgxmock.PgxPoolIface) context.Context {
	return context.WithValue(context.Background(), txKey{}, mock)
}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, context.Context) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(mock.Close)
	return mock, setupMockContext(mock)
}

func TestCreateTodoDefaults(t *testing.T) {
	mock, ctx := newMock(t)

	todo := &domain.Todo{
		ID:     NewTodoID(),
		UserID: "user_1",
		Text:   "water the plants",
	}

	mock.ExpectExec("INSERT INTO todos").
		WithArgs(todo.ID, todo.UserID, todo.Text, false, domain.PriorityMedium,
			(*time.Time)(nil), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := New(nil)
	if err := store.CreateTodo(ctx, todo); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if todo.Priority != domain.PriorityMedium {
		t.Errorf("priority = %q, want medium", todo.Priority)
	}
	if todo.Tags == nil || todo.Subtasks == nil {
		t.Error("tags and subtasks should default to empty, not nil")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestToggleTodoNotFound(t *testing.T) {
	mock, ctx := newMock(t)

	mock.ExpectQuery("UPDATE todos").
		WithArgs("todo_gone", "user_1", pgxmock.AnyArg()).
		WillReturnError(pgx.ErrNoRows)

	store := New(nil)
	_, err := store.ToggleTodo(ctx, "user_1", "todo_gone")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestListTodosTagSearch(t *testing.T) {
	mock, ctx := newMock(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"id", "user_id", "text", "completed", "priority",
		"due_date", "tags", "subtasks", "created_at", "updated_at",
	}).AddRow(
		"todo_1", "user_1", "review #health habits", false, "high",
		nil, []string{"health"}, []domain.Subtask{}, now, now,
	)

	mock.ExpectQuery("SELECT .+ FROM todos").
		WithArgs("user_1", "health").
		WillReturnRows(rows)

	store := New(nil)
	todos, err := store.ListTodos(ctx, "user_1", "all", "#health")
	if err != nil {
		t.Fatalf("ListTodos: %v", err)
	}
	if len(todos) != 1 {
		t.Fatalf("got %d todos, want 1", len(todos))
	}
	if todos[0].Tags[0] != "health" {
		t.Errorf("tags = %v", todos[0].Tags)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestGetAgentConfigDefaults(t *testing.T) {
	mock, ctx := newMock(t)

	mock.ExpectQuery("SELECT .+ FROM agent_configs").
		WithArgs("user_new").
		WillReturnError(pgx.ErrNoRows)

	store := New(nil)
	defaults, err := store.GetAgentConfig(ctx, "user_new")
	if err != nil {
		t.Fatalf("GetAgentConfig: %v", err)
	}
	if defaults.Persona != domain.PersonaCoach {
		t.Errorf("default persona = %q, want coach", defaults.Persona)
	}
	if defaults.CoachingStyle != domain.StyleStandard {
		t.Errorf("default style = %q, want standard", defaults.CoachingStyle)
	}
	if defaults.Honesty != 50 {
		t.Errorf("default honesty = %d, want 50", defaults.Honesty)
	}
	if defaults.CheckInInterval != 0 {
		t.Errorf("default check-in interval = %v, want 0 (persona default applies)", defaults.CheckInInterval)
	}
	if defaults.MaxToolTurns != 8 {
		t.Errorf("default max tool turns = %d, want 8", defaults.MaxToolTurns)
	}
	if defaults.FocusVideoURL != "" {
		t.Errorf("default focus video = %q, want empty", defaults.FocusVideoURL)
	}
}

func TestGetAgentConfigReadsFocusVideo(t *testing.T) {
	mock, ctx := newMock(t)

	now := time.Now().UTC()
	rows := pgxmock.NewRows([]string{
		"user_id", "persona", "coaching_style", "honesty", "check_in_interval",
		"max_tool_turns", "focus_video_url", "last_interaction", "created_at", "updated_at",
	}).AddRow("user_1", domain.PersonaStrict, domain.StyleStandard, 70, 0.5,
		8, "https://videos.example.com/focus.mp4", now, now, now)

	mock.ExpectQuery("SELECT .+ FROM agent_configs").
		WithArgs("user_1").
		WillReturnRows(rows)

	store := New(nil)
	cfg, err := store.GetAgentConfig(ctx, "user_1")
	if err != nil {
		t.Fatalf("GetAgentConfig: %v", err)
	}
	if cfg.FocusVideoURL != "https://videos.example.com/focus.mp4" {
		t.Errorf("focus video = %q", cfg.FocusVideoURL)
	}
	if cfg.CheckInInterval != 0.5 {
		t.Errorf("check-in interval = %v, want 0.5", cfg.CheckInInterval)
	}
}

func TestUpsertAgentConfigResetsLastInteraction(t *testing.T) {
	mock, ctx := newMock(t)

	cfg := &domain.AgentConfig{
		UserID:          "user_1",
		Persona:         domain.PersonaStrict,
		CoachingStyle:   domain.StyleSimulation,
		Honesty:         90,
		CheckInInterval: 0.5,
		MaxToolTurns:    8,
		FocusVideoURL:   "https://videos.example.com/focus.mp4",
		LastInteraction: time.Now().Add(-2 * time.Hour),
	}
	before := time.Now().UTC()

	mock.ExpectExec("INSERT INTO agent_configs").
		WithArgs(cfg.UserID, cfg.Persona, cfg.CoachingStyle, cfg.Honesty,
			cfg.CheckInInterval, cfg.MaxToolTurns, cfg.FocusVideoURL,
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := New(nil)
	if err := store.UpsertAgentConfig(ctx, cfg); err != nil {
		t.Fatalf("UpsertAgentConfig: %v", err)
	}

	if cfg.LastInteraction.Before(before) {
		t.Error("LastInteraction was not reset on update")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateAgentMemoryClampsImportance(t *testing.T) {
	mock, ctx := newMock(t)

	memory := &domain.AgentMemory{
		ID:         NewMemoryID(),
		UserID:     "user_1",
		Content:    "prefers morning workouts",
		Importance: 42,
	}

	mock.ExpectExec("INSERT INTO agent_memories").
		WithArgs(memory.ID, memory.UserID, memory.Content, domain.MemoryKindFact, 10, []string{}, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := New(nil)
	if err := store.CreateAgentMemory(ctx, memory); err != nil {
		t.Fatalf("CreateAgentMemory: %v", err)
	}
	if memory.Importance != 10 {
		t.Errorf("importance = %d, want clamped to 10", memory.Importance)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestCreateChatMessageDefaults(t *testing.T) {
	mock, ctx := newMock(t)

	msg := &domain.ChatMessage{
		ID:      NewMessageID(),
		UserID:  "user_1",
		Role:    domain.RoleUser,
		Content: "how are my goals?",
	}

	mock.ExpectExec("INSERT INTO chat_messages").
		WithArgs(msg.ID, msg.UserID, msg.Role, msg.Content, []domain.StoredToolCall(nil), "",
			domain.MsgTypeText, map[string]any(nil), domain.MessageStatusCompleted, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	store := New(nil)
	if err := store.CreateChatMessage(ctx, msg); err != nil {
		t.Fatalf("CreateChatMessage: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestStreak(t *testing.T) {
	today := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	logs := []domain.TrackerLog{
		{Date: "2025-06-10"},
		{Date: "2025-06-09"},
		{Date: "2025-06-08"},
		{Date: "2025-06-05"},
	}

	if got := Streak(logs, today); got != 3 {
		t.Errorf("streak = %d, want 3", got)
	}

	// No log today yet: yesterday still counts.
	logsYesterday := []domain.TrackerLog{
		{Date: "2025-06-09"},
		{Date: "2025-06-08"},
	}
	if got := Streak(logsYesterday, today); got != 2 {
		t.Errorf("streak ending yesterday = %d, want 2", got)
	}

	if got := Streak(nil, today); got != 0 {
		t.Errorf("empty streak = %d, want 0", got)
	}
}
