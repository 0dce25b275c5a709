package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/pkg/metrics"
	"github.com/krsna-app/krsna/shared/id"
	"github.com/krsna-app/krsna/shared/jsonutil"
	"github.com/krsna-app/krsna/shared/llm"
	"github.com/krsna-app/krsna/shared/protocol"
)

const (
	llmTimeout       = 2 * time.Minute
	historyWindow    = 10
	defaultToolTurns = 8

	fallbackContent = "Max tool iterations reached."
)

var errBusy = errors.New("still working on the previous message")

type sessionState int

const (
	stateIdle sessionState = iota
	stateAwaitingModel
)

// Session serializes turns for one user. A user message that arrives
// while the model is still streaming is rejected with a busy error.
type Session struct {
	userID string

	mu    sync.Mutex
	state sessionState
}

func (s *Session) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != stateIdle {
		return false
	}
	s.state = stateAwaitingModel
	return true
}

func (s *Session) finish() {
	s.mu.Lock()
	s.state = stateIdle
	s.mu.Unlock()
}

type AgentDeps struct {
	Store    Store
	LLM      ChatStreamer
	Notifier Notifier
	Executor *Executor
}

// SessionManager routes user messages into per-user sessions and runs
// the tool loop for each turn.
type SessionManager struct {
	deps AgentDeps

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(deps AgentDeps) *SessionManager {
	return &SessionManager{
		deps:     deps,
		sessions: make(map[string]*Session),
	}
}

func (m *SessionManager) session(userID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		s = &Session{userID: userID}
		m.sessions[userID] = s
	}
	return s
}

// HandleUserMessage runs one conversation turn for the user. Nudge
// acknowledgments are already persisted by the api process and must not
// reach the model; they return immediately.
func (m *SessionManager) HandleUserMessage(ctx context.Context, userID string, msg *protocol.UserMessage) error {
	if msg.AckNudgeID != "" {
		slog.InfoContext(ctx, "nudge acknowledged", "user_id", userID, "nudge_id", msg.AckNudgeID)
		return nil
	}

	s := m.session(userID)
	if !s.begin() {
		m.deps.Notifier.SendError(ctx, userID, msg.ID, errBusy)
		return errBusy
	}
	defer s.finish()

	return m.runTurn(ctx, userID, msg)
}

func (m *SessionManager) runTurn(ctx context.Context, userID string, userMsg *protocol.UserMessage) error {
	ctx, cancel := context.WithTimeout(ctx, llmTimeout)
	defer cancel()

	deps := m.deps
	metrics.MessagesTotal.Inc()

	if err := deps.Store.TouchLastInteraction(ctx, userID); err != nil {
		slog.ErrorContext(ctx, "failed to touch last interaction", "user_id", userID, "error", err)
	}

	cfg, err := deps.Store.GetAgentConfig(ctx, userID)
	if err != nil {
		deps.Notifier.SendError(ctx, userID, "", fmt.Errorf("load agent config: %w", err))
		return err
	}

	memories, err := deps.Store.ListAgentMemories(ctx, userID, memoryLimit)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load memories", "user_id", userID, "error", err)
	}

	history, err := deps.Store.ListRecentMessages(ctx, userID, historyWindow)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load history", "user_id", userID, "error", err)
	}

	msgs := buildModelMessages(cfg, memories, history, userMsg)
	tools := AllTools()

	maxTurns := cfg.MaxToolTurns
	if maxTurns <= 0 {
		maxTurns = defaultToolTurns
	}

	for turn := 0; turn < maxTurns; turn++ {
		msgID := id.NewMessage()
		row := &domain.ChatMessage{
			ID:      msgID,
			UserID:  userID,
			Role:    domain.RoleAssistant,
			MsgType: domain.MsgTypeText,
			Status:  domain.MessageStatusStreaming,
		}
		if err := deps.Store.CreateChatMessage(ctx, row); err != nil {
			slog.ErrorContext(ctx, "failed to create assistant message", "error", err)
		}
		deps.Notifier.SendStartAnswer(ctx, userID, msgID)

		start := time.Now()
		events, err := deps.LLM.ChatStream(ctx, msgs, tools)
		if err != nil {
			metrics.LLMRequestsTotal.WithLabelValues("chat", "error").Inc()
			return m.failTurn(ctx, userID, row, "", err)
		}

		acc := llm.NewAccumulator()
		var streamErr error
		for ev := range events {
			if ev.Err != nil {
				streamErr = ev.Err
				break
			}
			if ev.Done {
				break
			}
			acc.Feed(ev)
			if ev.Content != "" {
				deps.Notifier.SendDelta(ctx, userID, msgID, ev.Content)
			}
		}
		metrics.LLMRequestDuration.WithLabelValues("chat").Observe(time.Since(start).Seconds())

		if streamErr != nil {
			metrics.LLMRequestsTotal.WithLabelValues("chat", "error").Inc()
			return m.failTurn(ctx, userID, row, acc.Text(), streamErr)
		}
		metrics.LLMRequestsTotal.WithLabelValues("chat", "ok").Inc()

		content := acc.Text()

		if !acc.HasToolCalls() {
			row.Content = content
			row.Status = domain.MessageStatusCompleted
			if err := deps.Store.UpdateChatMessage(ctx, row); err != nil {
				slog.ErrorContext(ctx, "failed to finalize assistant message", "error", err)
			}
			deps.Notifier.SendAssistantMessage(ctx, userID, msgID, content)
			deps.Notifier.SendDone(ctx, userID, msgID, true, "")
			metrics.ToolLoopIterations.Observe(float64(turn))
			slog.InfoContext(ctx, "turn complete", "user_id", userID, "message_id", msgID, "tool_turns", turn)
			return nil
		}

		calls := acc.ToolCalls()
		for i := range calls {
			if calls[i].ID == "" {
				calls[i].ID = id.NewToolUse()
			}
		}

		stored := make([]domain.StoredToolCall, len(calls))
		for i, c := range calls {
			stored[i] = domain.StoredToolCall{ID: c.ID, Name: c.Name, Arguments: c.Arguments}
		}
		row.Content = content
		row.ToolCalls = stored
		row.Status = domain.MessageStatusCompleted
		if err := deps.Store.UpdateChatMessage(ctx, row); err != nil {
			slog.ErrorContext(ctx, "failed to update assistant message", "error", err)
		}
		if content != "" {
			deps.Notifier.SendAssistantMessage(ctx, userID, msgID, content)
		}

		msgs = append(msgs, llm.Message{Role: protocol.RoleAssistant, Content: content, ToolCalls: calls})

		for _, call := range calls {
			deps.Notifier.SendToolStart(ctx, userID, call.ID, msgID, call.Name, jsonutil.ParseJSON(call.Arguments))

			toolStart := time.Now()
			res, execErr := deps.Executor.Execute(ctx, userID, call)
			metrics.ToolCallDuration.WithLabelValues(call.Name).Observe(time.Since(toolStart).Seconds())
			if execErr != nil {
				metrics.ToolCallsTotal.WithLabelValues(call.Name, "error").Inc()
				return m.failTurn(ctx, userID, row, content, execErr)
			}

			status := "ok"
			errMsg := ""
			if !res.OK {
				status = "error"
				errMsg = res.Summary
			}
			metrics.ToolCallsTotal.WithLabelValues(call.Name, status).Inc()
			deps.Notifier.SendToolComplete(ctx, userID, call.ID, msgID, res.OK, res.Card, errMsg)

			toolRow := &domain.ChatMessage{
				ID:         id.NewMessage(),
				UserID:     userID,
				Role:       domain.RoleTool,
				Content:    res.Content,
				ToolCallID: call.ID,
				MsgType:    domain.MsgTypeText,
				Status:     domain.MessageStatusCompleted,
			}
			if err := deps.Store.CreateChatMessage(ctx, toolRow); err != nil {
				slog.ErrorContext(ctx, "failed to persist tool result", "tool", call.Name, "error", err)
			}
			msgs = append(msgs, llm.Message{Role: protocol.RoleTool, Content: res.Content, ToolCallID: call.ID})

			if res.OK && res.Card != nil {
				cardID := id.NewDataCard()
				cardRow := &domain.ChatMessage{
					ID:      cardID,
					UserID:  userID,
					Role:    domain.RoleData,
					Content: res.Summary,
					MsgType: domain.MsgTypeData,
					Payload: map[string]any{"type": call.Name, "data": res.Card},
					Status:  domain.MessageStatusCompleted,
				}
				if err := deps.Store.CreateChatMessage(ctx, cardRow); err != nil {
					slog.ErrorContext(ctx, "failed to persist data card", "error", err)
				}
				deps.Notifier.SendDataCard(ctx, userID, cardID, call.Name, res.Card, res.Summary)
			}

			if res.Viz != nil {
				vizRow := &domain.ChatMessage{
					ID:      res.Viz.ID,
					UserID:  userID,
					Role:    domain.RoleVisualization,
					Content: res.Summary,
					MsgType: domain.MsgTypeVisualization,
					Payload: map[string]any{
						"chartType": res.Viz.ChartType,
						"title":     res.Viz.Title,
						"subtitle":  res.Viz.Subtitle,
						"data":      res.Viz.Data,
					},
					Status: domain.MessageStatusCompleted,
				}
				if err := deps.Store.CreateChatMessage(ctx, vizRow); err != nil {
					slog.ErrorContext(ctx, "failed to persist visualization", "error", err)
				}
				deps.Notifier.SendVisualization(ctx, userID, *res.Viz)
			}
		}
	}

	// Turn budget exhausted. Surface a terminal message instead of
	// looping forever on a model that keeps asking for tools.
	metrics.ToolLoopIterations.Observe(float64(maxTurns))
	msgID := id.NewMessage()
	row := &domain.ChatMessage{
		ID:      msgID,
		UserID:  userID,
		Role:    domain.RoleAssistant,
		Content: fallbackContent,
		MsgType: domain.MsgTypeText,
		Status:  domain.MessageStatusCompleted,
	}
	if err := deps.Store.CreateChatMessage(ctx, row); err != nil {
		slog.ErrorContext(ctx, "failed to persist fallback message", "error", err)
	}
	deps.Notifier.SendAssistantMessage(ctx, userID, msgID, fallbackContent)
	deps.Notifier.SendDone(ctx, userID, msgID, true, "")
	slog.WarnContext(ctx, "tool turn budget exhausted", "user_id", userID, "max_turns", maxTurns)
	return nil
}

// failTurn preserves whatever content streamed before the failure and
// surfaces the error to the user.
func (m *SessionManager) failTurn(ctx context.Context, userID string, row *domain.ChatMessage, partial string, cause error) error {
	row.Content = partial
	row.Status = domain.MessageStatusError
	if err := m.deps.Store.UpdateChatMessage(ctx, row); err != nil {
		slog.ErrorContext(ctx, "failed to mark message errored", "message_id", row.ID, "error", err)
	}
	m.deps.Notifier.SendError(ctx, userID, row.ID, cause)
	m.deps.Notifier.SendDone(ctx, userID, row.ID, false, cause.Error())
	slog.ErrorContext(ctx, "turn failed", "user_id", userID, "message_id", row.ID, "error", cause)
	return cause
}

// buildModelMessages normalizes the persisted history into the model's
// message format. Data and visualization rows are presentation-only;
// they re-enter the context as plain assistant text so the model knows
// what the user already saw.
func buildModelMessages(cfg *domain.AgentConfig, memories []*domain.AgentMemory, history []*domain.ChatMessage, userMsg *protocol.UserMessage) []llm.Message {
	msgs := []llm.Message{{Role: protocol.RoleSystem, Content: buildSystemPrompt(cfg, memories)}}

	var sawUserMsg bool
	var converted []llm.Message
	for _, h := range history {
		switch h.Role {
		case domain.RoleUser:
			if h.ID == userMsg.ID {
				sawUserMsg = true
			}
			converted = append(converted, llm.Message{Role: protocol.RoleUser, Content: h.Content})
		case domain.RoleAssistant:
			if h.MsgType == domain.MsgTypeNudge {
				converted = append(converted, llm.Message{Role: protocol.RoleAssistant, Content: h.Content})
				continue
			}
			am := llm.Message{Role: protocol.RoleAssistant, Content: h.Content}
			for _, tc := range h.ToolCalls {
				am.ToolCalls = append(am.ToolCalls, llm.ToolCall{ID: tc.ID, Name: tc.Name, Arguments: tc.Arguments})
			}
			converted = append(converted, am)
		case domain.RoleTool:
			converted = append(converted, llm.Message{Role: protocol.RoleTool, Content: h.Content, ToolCallID: h.ToolCallID})
		case domain.RoleData, domain.RoleVisualization:
			if h.Content != "" {
				converted = append(converted, llm.Message{Role: protocol.RoleAssistant, Content: h.Content})
			}
		}
	}

	// The window can open on an orphaned tool result; the model rejects a
	// tool message with no preceding tool call.
	for len(converted) > 0 && converted[0].Role == protocol.RoleTool {
		converted = converted[1:]
	}
	msgs = append(msgs, converted...)

	// The triggering message is normally already in the persisted window;
	// cover the race where it is not yet visible.
	if !sawUserMsg {
		msgs = append(msgs, llm.Message{Role: protocol.RoleUser, Content: userMsg.Content})
	}
	return msgs
}
