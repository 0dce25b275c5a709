package protocol

type MessageType uint16

const (
	TypeError          MessageType = 1
	TypeUserMessage    MessageType = 2
	TypeAssistantMsg   MessageType = 3
	TypeAssistantDelta MessageType = 4
	TypeToolUseRequest MessageType = 6
	TypeToolUseResult  MessageType = 7
	TypeAck            MessageType = 8
	TypeStartAnswer    MessageType = 13
	TypeDataCard       MessageType = 20
	TypeVisualization  MessageType = 21
	TypeNudge          MessageType = 22
	TypeAmbientState   MessageType = 23
	TypeSubscribe      MessageType = 40
	TypeUnsubscribe    MessageType = 41
	TypeSubscribeAck   MessageType = 42
	TypeGenerationDone MessageType = 80
)

// Conversation roles shared between the store, the agent and the UI.
// Only RoleUser/RoleAssistant/RoleSystem/RoleTool are ever sent upstream
// to the model; RoleData and RoleVisualization are presentation-only.
const (
	RoleUser          = "user"
	RoleAssistant     = "assistant"
	RoleSystem        = "system"
	RoleTool          = "tool"
	RoleData          = "data"
	RoleVisualization = "visualization"
)

// Nudge type tags. A strict_check message is always intercepted by the
// presentation layer as a blocking acknowledgment prompt.
const (
	NudgeTypeProactive   = "proactive"
	NudgeTypeStrictCheck = "strict_check"
)

type Error struct {
	Code      string `msgpack:"code" json:"code"`
	Message   string `msgpack:"message" json:"message"`
	MessageID string `msgpack:"messageId,omitempty" json:"messageId,omitempty"`
}

// UserMessage is a user submission. AckNudgeID marks the message as an
// acknowledgment of a strict_check nudge: it is persisted to history but
// must not trigger a model round-trip.
type UserMessage struct {
	ID         string `msgpack:"id" json:"id"`
	Content    string `msgpack:"content" json:"content"`
	AckNudgeID string `msgpack:"ackNudgeId,omitempty" json:"ackNudgeId,omitempty"`
	Timestamp  int64  `msgpack:"timestamp,omitempty" json:"timestamp,omitempty"`
}

type StartAnswer struct {
	MessageID string `msgpack:"messageId" json:"messageId"`
}

// AssistantDelta carries one streamed content fragment for the in-flight
// assistant message identified by MessageID.
type AssistantDelta struct {
	MessageID string `msgpack:"messageId" json:"messageId"`
	Delta     string `msgpack:"delta" json:"delta"`
}

type AssistantMessage struct {
	ID        string `msgpack:"id" json:"id"`
	Content   string `msgpack:"content" json:"content"`
	Timestamp int64  `msgpack:"timestamp,omitempty" json:"timestamp,omitempty"`
}

type ToolUseRequest struct {
	ID        string         `msgpack:"id" json:"id"`
	MessageID string         `msgpack:"messageId" json:"messageId"`
	ToolName  string         `msgpack:"toolName" json:"toolName"`
	Arguments map[string]any `msgpack:"arguments" json:"arguments"`
}

type ToolUseResult struct {
	ID        string `msgpack:"id" json:"id"`
	RequestID string `msgpack:"requestId" json:"requestId"`
	MessageID string `msgpack:"messageId,omitempty" json:"messageId,omitempty"`
	Success   bool   `msgpack:"success" json:"success"`
	Result    any    `msgpack:"result,omitempty" json:"result,omitempty"`
	Error     string `msgpack:"error,omitempty" json:"error,omitempty"`
}

// DataCard is a rendered tool-result bundle. Type is the tool name that
// produced it so the presentation layer can pick a card renderer.
type DataCard struct {
	ID      string `msgpack:"id" json:"id"`
	Type    string `msgpack:"type" json:"type"`
	Payload any    `msgpack:"payload" json:"payload"`
	Summary string `msgpack:"summary" json:"summary"`
}

type ChartPoint struct {
	Label string  `msgpack:"label" json:"label"`
	Value float64 `msgpack:"value" json:"value"`
}

type Visualization struct {
	ID        string       `msgpack:"id" json:"id"`
	ChartType string       `msgpack:"chartType" json:"chartType"`
	Title     string       `msgpack:"title" json:"title"`
	Subtitle  string       `msgpack:"subtitle,omitempty" json:"subtitle,omitempty"`
	Data      []ChartPoint `msgpack:"data" json:"data"`
}

// Nudge is an unsolicited assistant message injected by the scheduler.
// ForceOpen tells the client to open the conversation surface.
type Nudge struct {
	ID        string `msgpack:"id" json:"id"`
	Content   string `msgpack:"content" json:"content"`
	Type      string `msgpack:"type" json:"type"`
	ForceOpen bool   `msgpack:"forceOpen,omitempty" json:"forceOpen,omitempty"`
}

// AmbientState is the client's periodic report of what the user is doing,
// consumed by the nudge rules evaluator.
type AmbientState struct {
	CurrentPage  string `msgpack:"currentPage,omitempty" json:"currentPage,omitempty"`
	TimerActive  bool   `msgpack:"timerActive" json:"timerActive"`
	TimerTask    string `msgpack:"timerTask,omitempty" json:"timerTask,omitempty"`
	IsDoomscroll bool   `msgpack:"isDoomscroll,omitempty" json:"isDoomscroll,omitempty"`
	Timestamp    int64  `msgpack:"timestamp,omitempty" json:"timestamp,omitempty"`
}

// Subscribe registers the connection for a user's events. AgentMode
// connections receive every user's traffic and require the agent secret.
type Subscribe struct {
	UserID    string `msgpack:"userId,omitempty" json:"userId,omitempty"`
	AgentMode bool   `msgpack:"agentMode,omitempty" json:"agentMode,omitempty"`
}

type Unsubscribe struct {
	UserID string `msgpack:"userId" json:"userId"`
}

type SubscribeAck struct {
	UserID    string `msgpack:"userId,omitempty" json:"userId,omitempty"`
	AgentMode bool   `msgpack:"agentMode,omitempty" json:"agentMode,omitempty"`
	Success   bool   `msgpack:"success" json:"success"`
	Error     string `msgpack:"error,omitempty" json:"error,omitempty"`
}

type GenerationDone struct {
	MessageID string `msgpack:"messageId" json:"messageId"`
	Success   bool   `msgpack:"success" json:"success"`
	Error     string `msgpack:"error,omitempty" json:"error,omitempty"`
}
