package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/shared/llm"
	"github.com/krsna-app/krsna/shared/protocol"
)

// memStore is an in-memory Store for loop and executor tests.
type memStore struct {
	mu       sync.Mutex
	config   *domain.AgentConfig
	memories []*domain.AgentMemory
	messages []*domain.ChatMessage
	todos    []*domain.Todo
	journal  []*domain.JournalEntry
	trackers []*domain.Tracker
	projects []*domain.Project
	goals    []*domain.Goal

	failCreateMemory bool
	touchCount       int
}

func newMemStore() *memStore {
	return &memStore{config: domain.DefaultAgentConfig("user_1")}
}

func (s *memStore) GetAgentConfig(ctx context.Context, userID string) (*domain.AgentConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := *s.config
	return &cfg, nil
}

func (s *memStore) UpsertAgentConfig(ctx context.Context, cfg *domain.AgentConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cfg
	s.config = &c
	return nil
}

func (s *memStore) TouchLastInteraction(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touchCount++
	return nil
}

func (s *memStore) CreateAgentMemory(ctx context.Context, memory *domain.AgentMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreateMemory {
		return fmt.Errorf("store unavailable")
	}
	m := *memory
	s.memories = append(s.memories, &m)
	return nil
}

func (s *memStore) ListAgentMemories(ctx context.Context, userID string, limit int) ([]*domain.AgentMemory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.AgentMemory, len(s.memories))
	copy(out, s.memories)
	return out, nil
}

func (s *memStore) CreateChatMessage(ctx context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := *msg
	s.messages = append(s.messages, &m)
	return nil
}

func (s *memStore) UpdateChatMessage(ctx context.Context, msg *domain.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.messages {
		if existing.ID == msg.ID {
			m := *msg
			s.messages[i] = &m
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *memStore) ListRecentMessages(ctx context.Context, userID string, limit int) ([]*domain.ChatMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]*domain.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (s *memStore) messagesByRole(role string) []*domain.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.ChatMessage
	for _, m := range s.messages {
		if m.Role == role {
			out = append(out, m)
		}
	}
	return out
}

func (s *memStore) ListTodos(ctx context.Context, userID, filter, search string) ([]*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.Todo
	for _, t := range s.todos {
		switch filter {
		case "pending":
			if t.Completed {
				continue
			}
		case "completed":
			if !t.Completed {
				continue
			}
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *memStore) CreateTodo(ctx context.Context, todo *domain.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := *todo
	s.todos = append(s.todos, &t)
	return nil
}

func (s *memStore) ToggleTodo(ctx context.Context, userID, todoID string) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.todos {
		if t.ID == todoID {
			t.Completed = !t.Completed
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) SetTodoCompleted(ctx context.Context, userID, todoID string, completed bool) (*domain.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.todos {
		if t.ID == todoID {
			t.Completed = completed
			return t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) DeleteTodo(ctx context.Context, userID, todoID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.todos {
		if t.ID == todoID {
			s.todos = append(s.todos[:i], s.todos[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *memStore) ListJournalEntries(ctx context.Context, userID string, limit int) ([]*domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.journal
	if len(entries) > limit {
		entries = entries[:limit]
	}
	out := make([]*domain.JournalEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (s *memStore) CreateJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := *entry
	s.journal = append(s.journal, &e)
	return nil
}

func (s *memStore) GetJournalEntry(ctx context.Context, userID, entryID string) (*domain.JournalEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.journal {
		if e.ID == entryID {
			copied := *e
			return &copied, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s *memStore) UpdateJournalEntry(ctx context.Context, entry *domain.JournalEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.journal {
		if e.ID == entry.ID {
			copied := *entry
			s.journal[i] = &copied
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *memStore) DeleteJournalEntry(ctx context.Context, userID, entryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.journal {
		if e.ID == entryID {
			s.journal = append(s.journal[:i], s.journal[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (s *memStore) ListTrackers(ctx context.Context, userID string, logDays int) ([]*domain.Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Tracker, len(s.trackers))
	copy(out, s.trackers)
	return out, nil
}

func (s *memStore) ListProjects(ctx context.Context, userID string) ([]*domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Project, len(s.projects))
	copy(out, s.projects)
	return out, nil
}

func (s *memStore) ListGoals(ctx context.Context, userID string) ([]*domain.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Goal, len(s.goals))
	copy(out, s.goals)
	return out, nil
}

// notifierEvent is one recorded notifier call.
type notifierEvent struct {
	kind      string
	messageID string
	requestID string
	toolName  string
	content   string
	success   bool
	errMsg    string
	viz       *protocol.Visualization
}

// recordingNotifier captures the event sequence of a turn.
type recordingNotifier struct {
	mu     sync.Mutex
	events []notifierEvent
}

func (n *recordingNotifier) record(ev notifierEvent) {
	n.mu.Lock()
	n.events = append(n.events, ev)
	n.mu.Unlock()
}

func (n *recordingNotifier) byKind(kind string) []notifierEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notifierEvent
	for _, ev := range n.events {
		if ev.kind == kind {
			out = append(out, ev)
		}
	}
	return out
}

func (n *recordingNotifier) SendStartAnswer(ctx context.Context, userID, messageID string) {
	n.record(notifierEvent{kind: "start", messageID: messageID})
}

func (n *recordingNotifier) SendDelta(ctx context.Context, userID, messageID, delta string) {
	n.record(notifierEvent{kind: "delta", messageID: messageID, content: delta})
}

func (n *recordingNotifier) SendAssistantMessage(ctx context.Context, userID, messageID, content string) {
	n.record(notifierEvent{kind: "assistant", messageID: messageID, content: content})
}

func (n *recordingNotifier) SendToolStart(ctx context.Context, userID, requestID, messageID, toolName string, args map[string]any) {
	n.record(notifierEvent{kind: "tool_start", requestID: requestID, messageID: messageID, toolName: toolName})
}

func (n *recordingNotifier) SendToolComplete(ctx context.Context, userID, requestID, messageID string, success bool, result any, errMsg string) {
	n.record(notifierEvent{kind: "tool_complete", requestID: requestID, messageID: messageID, success: success, errMsg: errMsg})
}

func (n *recordingNotifier) SendDataCard(ctx context.Context, userID, id, cardType string, payload any, summary string) {
	n.record(notifierEvent{kind: "data_card", toolName: cardType, content: summary})
}

func (n *recordingNotifier) SendVisualization(ctx context.Context, userID string, viz protocol.Visualization) {
	v := viz
	n.record(notifierEvent{kind: "visualization", viz: &v})
}

func (n *recordingNotifier) SendError(ctx context.Context, userID, messageID string, err error) {
	n.record(notifierEvent{kind: "error", messageID: messageID, errMsg: err.Error()})
}

func (n *recordingNotifier) SendDone(ctx context.Context, userID, messageID string, success bool, errMsg string) {
	n.record(notifierEvent{kind: "done", messageID: messageID, success: success, errMsg: errMsg})
}

// scriptedLLM replays one prepared event stream per ChatStream call and
// records the messages it was given.
type scriptedLLM struct {
	mu      sync.Mutex
	scripts [][]llm.StreamEvent
	calls   [][]llm.Message
	block   chan struct{}
}

func (s *scriptedLLM) ChatStream(ctx context.Context, messages []llm.Message, tools []llm.Tool) (<-chan llm.StreamEvent, error) {
	s.mu.Lock()
	s.calls = append(s.calls, messages)
	var script []llm.StreamEvent
	if len(s.scripts) > 0 {
		script = s.scripts[0]
		s.scripts = s.scripts[1:]
	} else {
		script = textStream("")
	}
	block := s.block
	s.mu.Unlock()

	if block != nil {
		<-block
	}

	ch := make(chan llm.StreamEvent, len(script))
	for _, ev := range script {
		ch <- ev
	}
	close(ch)
	return ch, nil
}

func (s *scriptedLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// textStream builds a plain content stream split into word-sized deltas.
func textStream(text string) []llm.StreamEvent {
	var events []llm.StreamEvent
	if text != "" {
		half := len(text) / 2
		events = append(events,
			llm.StreamEvent{Content: text[:half]},
			llm.StreamEvent{Content: text[half:]},
		)
	}
	return append(events, llm.StreamEvent{Done: true})
}

// toolStream builds a stream that requests the given tool calls, with
// arguments split across fragments the way real chunks arrive.
func toolStream(calls ...llm.ToolCall) []llm.StreamEvent {
	var events []llm.StreamEvent
	for i, c := range calls {
		events = append(events, llm.StreamEvent{ToolCallDelta: &llm.ToolCallDelta{
			Index: i,
			ID:    c.ID,
			Name:  c.Name,
		}})
		args := c.Arguments
		half := len(args) / 2
		events = append(events,
			llm.StreamEvent{ToolCallDelta: &llm.ToolCallDelta{Index: i, Arguments: args[:half]}},
			llm.StreamEvent{ToolCallDelta: &llm.ToolCallDelta{Index: i, Arguments: args[half:]}},
		)
	}
	events = append(events, llm.StreamEvent{FinishReason: "tool_calls"})
	return append(events, llm.StreamEvent{Done: true})
}
