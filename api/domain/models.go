package domain

import "time"

type Todo struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Priority  string     `json:"priority"` // low, medium, high
	DueDate   *time.Time `json:"due_date,omitempty"`
	Tags      []string   `json:"tags"`
	Subtasks  []Subtask  `json:"subtasks"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

type Subtask struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

type JournalEntry struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	Content   string     `json:"content"`
	Mood      string     `json:"mood,omitempty"`
	Tags      []string   `json:"tags"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"-"`
}

type Tracker struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Name      string       `json:"name"`
	Unit      string       `json:"unit,omitempty"`
	Target    float64      `json:"target,omitempty"` // per-day target, 0 = none
	Color     string       `json:"color,omitempty"`
	Logs      []TrackerLog `json:"logs,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
	DeletedAt *time.Time   `json:"-"`
}

type TrackerLog struct {
	ID        string    `json:"id"`
	TrackerID string    `json:"tracker_id"`
	Date      string    `json:"date"` // YYYY-MM-DD
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`   // active, paused, done
	Progress    int        `json:"progress"` // 0-100
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	DeletedAt   *time.Time `json:"-"`
}

type Goal struct {
	ID          string      `json:"id"`
	UserID      string      `json:"user_id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	TargetDate  *time.Time  `json:"target_date,omitempty"`
	Progress    int         `json:"progress"` // 0-100
	Milestones  []Milestone `json:"milestones"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	DeletedAt   *time.Time  `json:"-"`
}

type Milestone struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// AgentConfig holds the per-user agent personality and scheduling knobs.
type AgentConfig struct {
	UserID          string    `json:"user_id"`
	Persona         string    `json:"persona"`        // coach, strict, friend, guru
	CoachingStyle   string    `json:"coaching_style"` // standard, narrative, simulation
	Honesty         int       `json:"honesty"`        // 0-100
	CheckInInterval float64   `json:"check_in_interval"` // minutes; 0 means the persona default applies
	MaxToolTurns    int       `json:"max_tool_turns"`
	FocusVideoURL   string    `json:"focus_video_url,omitempty"`
	LastInteraction time.Time `json:"last_interaction"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// DefaultAgentConfig returns the config applied before a user has
// customized anything.
func DefaultAgentConfig(userID string) *AgentConfig {
	return &AgentConfig{
		UserID:          userID,
		Persona:         PersonaCoach,
		CoachingStyle:   StyleStandard,
		Honesty:         50,
		CheckInInterval: 0,
		MaxToolTurns:    8,
		LastInteraction: time.Now(),
	}
}

type AgentMemory struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Content    string     `json:"content"`
	Kind       string     `json:"type"`       // fact, emotion, preference, context
	Importance int        `json:"importance"` // 1-10
	Tags       []string   `json:"tags,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	DeletedAt  *time.Time `json:"-"`
}

// StoredToolCall is a completed tool invocation persisted alongside an
// assistant message.
type StoredToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON
}

type ChatMessage struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	ToolCalls  []StoredToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	MsgType    string           `json:"msg_type"` // text, data, visualization, nudge
	Payload    map[string]any   `json:"payload,omitempty"`
	Status     string           `json:"status"` // pending, streaming, completed, error
	CreatedAt  time.Time        `json:"created_at"`
	DeletedAt  *time.Time       `json:"-"`
}

const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	MemoryKindFact       = "fact"
	MemoryKindEmotion    = "emotion"
	MemoryKindPreference = "preference"
	MemoryKindContext    = "context"
)

const (
	ProjectStatusActive = "active"
	ProjectStatusPaused = "paused"
	ProjectStatusDone   = "done"
)

const (
	PersonaCoach  = "coach"
	PersonaStrict = "strict"
	PersonaFriend = "friend"
	PersonaGuru   = "guru"
)

const (
	StyleStandard   = "standard"
	StyleNarrative  = "narrative"
	StyleSimulation = "simulation"
)

const (
	RoleUser          = "user"
	RoleAssistant     = "assistant"
	RoleSystem        = "system"
	RoleTool          = "tool"
	RoleData          = "data"
	RoleVisualization = "visualization"
)

const (
	MsgTypeText          = "text"
	MsgTypeData          = "data"
	MsgTypeVisualization = "visualization"
	MsgTypeNudge         = "nudge"
)

const (
	MessageStatusPending   = "pending"
	MessageStatusStreaming = "streaming"
	MessageStatusCompleted = "completed"
	MessageStatusError     = "error"
)

// ValidPersona reports whether p is a known persona name.
func ValidPersona(p string) bool {
	switch p {
	case PersonaCoach, PersonaStrict, PersonaFriend, PersonaGuru:
		return true
	}
	return false
}

// ValidCoachingStyle reports whether s is a known coaching style.
func ValidCoachingStyle(s string) bool {
	switch s {
	case StyleStandard, StyleNarrative, StyleSimulation:
		return true
	}
	return false
}
