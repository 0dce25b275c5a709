package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/krsna-app/krsna/api/config"
	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/api/nudge"
	"github.com/krsna-app/krsna/api/store"
	"github.com/krsna-app/krsna/pkg/metrics"
	"github.com/krsna-app/krsna/shared/protocol"
)

const WriteTimeout = 10 * time.Second

// ambientEntry is the last client-reported state for a user, consumed
// by the nudge sweep.
type ambientEntry struct {
	state nudge.State
	seen  time.Time
}

type Hub struct {
	userSubs map[string]map[*websocket.Conn]struct{}
	userMu   sync.RWMutex

	agentConn *websocket.Conn
	agentMu   sync.RWMutex

	ambient   map[string]ambientEntry
	ambientMu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		userSubs: make(map[string]map[*websocket.Conn]struct{}),
		ambient:  make(map[string]ambientEntry),
	}
}

func (h *Hub) Subscribe(userID string, conn *websocket.Conn) {
	h.userMu.Lock()
	defer h.userMu.Unlock()

	if h.userSubs[userID] == nil {
		h.userSubs[userID] = make(map[*websocket.Conn]struct{})
	}
	h.userSubs[userID][conn] = struct{}{}
	metrics.WSConnectionsActive.Inc()
	slog.Info("ws: subscribed", "user_id", userID, "total", len(h.userSubs[userID]))
}

func (h *Hub) Unsubscribe(userID string, conn *websocket.Conn) {
	h.userMu.Lock()
	defer h.userMu.Unlock()

	if subs, ok := h.userSubs[userID]; ok {
		if _, present := subs[conn]; present {
			delete(subs, conn)
			metrics.WSConnectionsActive.Dec()
		}
		if len(subs) == 0 {
			delete(h.userSubs, userID)
		}
		slog.Info("ws: unsubscribed", "user_id", userID)
	}
}

func (h *Hub) UnsubscribeAll(conn *websocket.Conn) {
	h.userMu.Lock()
	defer h.userMu.Unlock()

	for userID, subs := range h.userSubs {
		if _, present := subs[conn]; present {
			delete(subs, conn)
			metrics.WSConnectionsActive.Dec()
		}
		if len(subs) == 0 {
			delete(h.userSubs, userID)
		}
	}
}

func (h *Hub) SubscribeAgent(conn *websocket.Conn) {
	h.agentMu.Lock()
	defer h.agentMu.Unlock()
	h.agentConn = conn
	slog.Info("ws: agent connected")
}

func (h *Hub) UnsubscribeAgent(conn *websocket.Conn) {
	h.agentMu.Lock()
	defer h.agentMu.Unlock()
	if h.agentConn == conn {
		h.agentConn = nil
		slog.Info("ws: agent disconnected")
	}
}

// RecordAmbient stores a user's latest client-reported state.
func (h *Hub) RecordAmbient(userID string, state nudge.State) {
	h.ambientMu.Lock()
	defer h.ambientMu.Unlock()
	h.ambient[userID] = ambientEntry{state: state, seen: time.Now()}
}

// AmbientStates returns a snapshot of recently reported states. Entries
// older than maxAge are dropped; their users are no longer on a page.
func (h *Hub) AmbientStates(maxAge time.Duration) map[string]nudge.State {
	h.ambientMu.Lock()
	defer h.ambientMu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	out := make(map[string]nudge.State, len(h.ambient))
	for userID, entry := range h.ambient {
		if entry.seen.Before(cutoff) {
			delete(h.ambient, userID)
			continue
		}
		out[userID] = entry.state
	}
	return out
}

func (h *Hub) BroadcastToUser(userID string, data []byte) {
	h.userMu.RLock()
	subs := make([]*websocket.Conn, 0, len(h.userSubs[userID]))
	for conn := range h.userSubs[userID] {
		subs = append(subs, conn)
	}
	h.userMu.RUnlock()

	for _, conn := range subs {
		conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			slog.Warn("ws: broadcast error (client likely disconnected)", "error", err, "user_id", userID)
			h.Unsubscribe(userID, conn)
		}
	}
}

func (h *Hub) BroadcastToAgent(data []byte) {
	h.agentMu.RLock()
	conn := h.agentConn
	h.agentMu.RUnlock()

	if conn == nil {
		slog.Warn("ws: no agent connected")
		return
	}

	conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		slog.Error("ws: agent send error", "error", err)
	}
}

func (h *Hub) BroadcastEnvelope(userID string, msgType protocol.MessageType, body any) {
	env := protocol.NewEnvelope(userID, msgType, body)
	data, err := env.Encode()
	if err != nil {
		slog.Error("ws: encode envelope error", "error", err)
		return
	}
	h.BroadcastToUser(userID, data)
}

type WSHandler struct {
	hub      *Hub
	cfg      *config.Config
	store    *store.Store
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *Hub, cfg *config.Config, s *store.Store) *WSHandler {
	h := &WSHandler{hub: hub, cfg: cfg, store: s}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *WSHandler) checkOrigin(r *http.Request) bool {
	allowedOrigins := h.cfg.Server.AllowedOrigins
	for _, o := range allowedOrigins {
		if o == "*" {
			return true
		}
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range allowedOrigins {
		if allowed == origin {
			return true
		}
	}
	return false
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("ws: upgrade error", "error", err)
		return
	}
	defer conn.Close()

	var isAgent bool

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Error("ws: read error", "error", err)
			}
			break
		}

		env, err := protocol.DecodeEnvelope(data)
		if err != nil {
			slog.Error("ws: decode error", "error", err)
			continue
		}

		// Detached from connection context: message processing must
		// complete even if the client disconnects.
		func() {
			ctx, ctxCancel := context.WithTimeout(context.Background(), 5*time.Minute)
			defer ctxCancel()

			switch env.Type {
			case protocol.TypeSubscribe:
				sub, err := protocol.DecodeBody[protocol.Subscribe](env)
				if err != nil {
					slog.Error("ws: decode subscribe error", "error", err)
					return
				}

				if sub.AgentMode {
					if !h.verifyAgentAuth(r) {
						slog.Warn("ws: agent auth failed")
						h.sendSubscribeAck(conn, "", true, false, "authentication required")
						return
					}
					isAgent = true
					h.hub.SubscribeAgent(conn)
					h.sendSubscribeAck(conn, "", true, true, "")
				} else if sub.UserID != "" {
					h.hub.Subscribe(sub.UserID, conn)
					h.sendSubscribeAck(conn, sub.UserID, false, true, "")
				}

			case protocol.TypeUnsubscribe:
				unsub, err := protocol.DecodeBody[protocol.Unsubscribe](env)
				if err != nil {
					return
				}
				h.hub.Unsubscribe(unsub.UserID, conn)

			case protocol.TypeUserMessage:
				if env.UserID != "" {
					h.handleClientUserMessage(ctx, env)
				}

			case protocol.TypeAmbientState:
				if env.UserID == "" {
					return
				}
				state, err := protocol.DecodeBody[protocol.AmbientState](env)
				if err != nil {
					slog.Error("ws: decode ambient state error", "error", err)
					return
				}
				h.hub.RecordAmbient(env.UserID, nudge.State{
					CurrentPage:  state.CurrentPage,
					TimerActive:  state.TimerActive,
					TimerTask:    state.TimerTask,
					IsDoomscroll: state.IsDoomscroll,
				})

			default:
				// Everything else flows agent -> user: deltas, final
				// messages, tool events, data cards, visualizations.
				if isAgent && env.UserID != "" {
					h.hub.BroadcastToUser(env.UserID, data)
				}
			}
		}()
	}

	if isAgent {
		h.hub.UnsubscribeAgent(conn)
	} else {
		h.hub.UnsubscribeAll(conn)
	}
}

func (h *WSHandler) verifyAgentAuth(r *http.Request) bool {
	secret := h.cfg.Server.AgentSecret
	if secret == "" {
		return true
	}
	if r.Header.Get("Authorization") == "Bearer "+secret {
		return true
	}
	return r.URL.Query().Get("agent_secret") == secret
}

func (h *WSHandler) sendSubscribeAck(conn *websocket.Conn, userID string, agentMode, success bool, errMsg string) {
	ack := protocol.SubscribeAck{
		UserID:    userID,
		AgentMode: agentMode,
		Success:   success,
		Error:     errMsg,
	}
	env := protocol.NewEnvelope(userID, protocol.TypeSubscribeAck, ack)
	data, err := env.Encode()
	if err != nil {
		slog.Error("ws: encode subscribe ack error", "error", err)
		return
	}
	conn.SetWriteDeadline(time.Now().Add(WriteTimeout))
	if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		slog.Error("ws: send subscribe ack error", "error", err)
	}
}

// handleClientUserMessage persists an inbound user message and forwards
// it to the agent. A nudge acknowledgment is persisted and echoed but
// never forwarded, so it cannot start a generation.
func (h *WSHandler) handleClientUserMessage(ctx context.Context, env *protocol.Envelope) {
	msg, err := protocol.DecodeBody[protocol.UserMessage](env)
	if err != nil {
		slog.Error("ws: decode user message error", "error", err)
		return
	}

	userID := env.UserID
	if msg.Content == "" {
		slog.Warn("ws: user message has empty content", "user_id", userID)
		return
	}

	msgID := msg.ID
	if msgID == "" {
		msgID = store.NewMessageID()
	}

	dbMsg := &domain.ChatMessage{
		ID:      msgID,
		UserID:  userID,
		Role:    domain.RoleUser,
		Content: msg.Content,
		MsgType: domain.MsgTypeText,
		Status:  domain.MessageStatusCompleted,
	}
	if msg.AckNudgeID != "" {
		dbMsg.Payload = map[string]any{"ackNudgeId": msg.AckNudgeID}
	}

	if err := h.store.CreateChatMessage(ctx, dbMsg); err != nil {
		slog.Error("ws: create user message error", "error", err, "user_id", userID)
		return
	}
	metrics.MessagesTotal.Inc()

	if err := h.store.TouchLastInteraction(ctx, userID); err != nil {
		slog.Error("ws: touch last interaction error", "error", err, "user_id", userID)
	}

	// Echo the persisted message back so all of the user's clients see
	// it with its final id.
	h.hub.BroadcastEnvelope(userID, protocol.TypeUserMessage, &protocol.UserMessage{
		ID:         msgID,
		Content:    msg.Content,
		AckNudgeID: msg.AckNudgeID,
		Timestamp:  msg.Timestamp,
	})

	if msg.AckNudgeID != "" {
		slog.Info("ws: nudge acknowledged", "user_id", userID, "nudge_id", msg.AckNudgeID)
		return
	}

	// Forward with the final message id so the agent threads history
	// correctly.
	fwd := protocol.NewEnvelope(userID, protocol.TypeUserMessage, &protocol.UserMessage{
		ID:        msgID,
		Content:   msg.Content,
		Timestamp: msg.Timestamp,
	})
	data, err := fwd.Encode()
	if err != nil {
		slog.Error("ws: encode forward error", "error", err)
		return
	}
	h.hub.BroadcastToAgent(data)
}
