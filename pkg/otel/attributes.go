package otel

import "go.opentelemetry.io/otel/attribute"

// Standard span attribute keys used across Krsna services.
const (
	AttrUserID              = "user.id"
	AttrMessageID           = "message.id"
	AttrRequestID           = "request.id"
	AttrLLMModel            = "llm.model"
	AttrLLMPromptTokens     = "llm.usage.prompt_tokens"
	AttrLLMCompletionTokens = "llm.usage.completion_tokens"
	AttrToolName            = "tool.name"
	AttrToolID              = "tool.id"
	AttrToolStatus          = "tool.status"
	AttrNudgeType           = "nudge.type"
	AttrWSMessageType       = "ws.message_type"
	AttrWSDirection         = "ws.direction"
)

func UserID(id string) attribute.KeyValue     { return attribute.String(AttrUserID, id) }
func MessageID(id string) attribute.KeyValue  { return attribute.String(AttrMessageID, id) }
func ToolName(name string) attribute.KeyValue { return attribute.String(AttrToolName, name) }
func ToolID(id string) attribute.KeyValue     { return attribute.String(AttrToolID, id) }
func NudgeType(t string) attribute.KeyValue   { return attribute.String(AttrNudgeType, t) }
