package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/krsna-app/krsna/shared/id"
	"github.com/krsna-app/krsna/shared/protocol"
)

// WSNotifier sends protocol messages back through the api socket. Writes
// are serialized; gorilla connections do not allow concurrent writers.
type WSNotifier struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewWSNotifier(conn *websocket.Conn) *WSNotifier {
	return &WSNotifier{conn: conn}
}

func (n *WSNotifier) send(ctx context.Context, userID string, msgType protocol.MessageType, body any) {
	env := protocol.NewEnvelope(userID, msgType, body)
	data, err := env.Encode()
	if err != nil {
		slog.ErrorContext(ctx, "envelope encode error", "type", msgType, "error", err)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if err := n.conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
		slog.ErrorContext(ctx, "websocket write error", "type", msgType, "error", err)
	}
}

func (n *WSNotifier) SendStartAnswer(ctx context.Context, userID, messageID string) {
	n.send(ctx, userID, protocol.TypeStartAnswer, protocol.StartAnswer{MessageID: messageID})
}

func (n *WSNotifier) SendDelta(ctx context.Context, userID, messageID, delta string) {
	n.send(ctx, userID, protocol.TypeAssistantDelta, protocol.AssistantDelta{
		MessageID: messageID,
		Delta:     delta,
	})
}

func (n *WSNotifier) SendAssistantMessage(ctx context.Context, userID, messageID, content string) {
	n.send(ctx, userID, protocol.TypeAssistantMsg, protocol.AssistantMessage{
		ID:        messageID,
		Content:   content,
		Timestamp: time.Now().UnixMilli(),
	})
}

func (n *WSNotifier) SendToolStart(ctx context.Context, userID, requestID, messageID, toolName string, args map[string]any) {
	n.send(ctx, userID, protocol.TypeToolUseRequest, protocol.ToolUseRequest{
		ID:        requestID,
		MessageID: messageID,
		ToolName:  toolName,
		Arguments: args,
	})
}

func (n *WSNotifier) SendToolComplete(ctx context.Context, userID, requestID, messageID string, success bool, result any, errMsg string) {
	n.send(ctx, userID, protocol.TypeToolUseResult, protocol.ToolUseResult{
		ID:        id.NewToolUse(),
		RequestID: requestID,
		MessageID: messageID,
		Success:   success,
		Result:    result,
		Error:     errMsg,
	})
}

func (n *WSNotifier) SendDataCard(ctx context.Context, userID, cardID, cardType string, payload any, summary string) {
	n.send(ctx, userID, protocol.TypeDataCard, protocol.DataCard{
		ID:      cardID,
		Type:    cardType,
		Payload: payload,
		Summary: summary,
	})
}

func (n *WSNotifier) SendVisualization(ctx context.Context, userID string, viz protocol.Visualization) {
	n.send(ctx, userID, protocol.TypeVisualization, viz)
}

func (n *WSNotifier) SendError(ctx context.Context, userID, messageID string, err error) {
	n.send(ctx, userID, protocol.TypeError, protocol.Error{
		Code:      "agent_error",
		Message:   err.Error(),
		MessageID: messageID,
	})
}

func (n *WSNotifier) SendDone(ctx context.Context, userID, messageID string, success bool, errMsg string) {
	n.send(ctx, userID, protocol.TypeGenerationDone, protocol.GenerationDone{
		MessageID: messageID,
		Success:   success,
		Error:     errMsg,
	})
}
