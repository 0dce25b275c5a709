package main

import (
	"context"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/shared/llm"
	"github.com/krsna-app/krsna/shared/protocol"
)

// Store is the slice of the persistence layer the agent needs. The api
// process's store satisfies it.
type Store interface {
	GetAgentConfig(ctx context.Context, userID string) (*domain.AgentConfig, error)
	UpsertAgentConfig(ctx context.Context, cfg *domain.AgentConfig) error
	TouchLastInteraction(ctx context.Context, userID string) error

	CreateAgentMemory(ctx context.Context, memory *domain.AgentMemory) error
	ListAgentMemories(ctx context.Context, userID string, limit int) ([]*domain.AgentMemory, error)

	CreateChatMessage(ctx context.Context, msg *domain.ChatMessage) error
	UpdateChatMessage(ctx context.Context, msg *domain.ChatMessage) error
	ListRecentMessages(ctx context.Context, userID string, limit int) ([]*domain.ChatMessage, error)

	ListTodos(ctx context.Context, userID, filter, search string) ([]*domain.Todo, error)
	CreateTodo(ctx context.Context, todo *domain.Todo) error
	ToggleTodo(ctx context.Context, userID, todoID string) (*domain.Todo, error)
	SetTodoCompleted(ctx context.Context, userID, todoID string, completed bool) (*domain.Todo, error)
	DeleteTodo(ctx context.Context, userID, todoID string) error

	ListJournalEntries(ctx context.Context, userID string, limit int) ([]*domain.JournalEntry, error)
	CreateJournalEntry(ctx context.Context, entry *domain.JournalEntry) error
	GetJournalEntry(ctx context.Context, userID, entryID string) (*domain.JournalEntry, error)
	UpdateJournalEntry(ctx context.Context, entry *domain.JournalEntry) error
	DeleteJournalEntry(ctx context.Context, userID, entryID string) error

	ListTrackers(ctx context.Context, userID string, logDays int) ([]*domain.Tracker, error)
	ListProjects(ctx context.Context, userID string) ([]*domain.Project, error)
	ListGoals(ctx context.Context, userID string) ([]*domain.Goal, error)
}

// ChatStreamer is the model client. *llm.Client satisfies it.
type ChatStreamer interface {
	ChatStream(ctx context.Context, messages []llm.Message, tools []llm.Tool) (<-chan llm.StreamEvent, error)
}

// Notifier pushes protocol messages back to the user through the api
// process. Every method is fire-and-forget; delivery failures are logged
// and never fail the turn.
type Notifier interface {
	SendStartAnswer(ctx context.Context, userID, messageID string)
	SendDelta(ctx context.Context, userID, messageID, delta string)
	SendAssistantMessage(ctx context.Context, userID, messageID, content string)
	SendToolStart(ctx context.Context, userID, requestID, messageID, toolName string, args map[string]any)
	SendToolComplete(ctx context.Context, userID, requestID, messageID string, success bool, result any, errMsg string)
	SendDataCard(ctx context.Context, userID, id, cardType string, payload any, summary string)
	SendVisualization(ctx context.Context, userID string, viz protocol.Visualization)
	SendError(ctx context.Context, userID, messageID string, err error)
	SendDone(ctx context.Context, userID, messageID string, success bool, errMsg string)
}

// ToolResult is one executed tool call. Content is what goes back to the
// model as the tool message; Card and Viz, when set, become extra
// conversation rows for the presentation layer.
type ToolResult struct {
	RequestID string
	ToolName  string
	OK        bool
	Content   string
	Summary   string
	Card      any
	Viz       *protocol.Visualization
}
