package main

import "github.com/krsna-app/krsna/shared/llm"

// AllTools returns the tool catalog advertised to the model. Every name
// here has a matching handler in the executor.
func AllTools() []llm.Tool {
	return []llm.Tool{
		{
			Name:        "saveMemory",
			Description: "Save a permanent memory about the user. Use this for facts, preferences, emotional states, or life events that should be recalled later.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content":    map[string]any{"type": "string", "description": "The fact or memory to store"},
					"type":       map[string]any{"type": "string", "enum": []string{"fact", "emotion", "preference", "context"}},
					"importance": map[string]any{"type": "number", "description": "1-10 scale of importance"},
					"tags":       map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{"content", "type", "importance"},
			},
		},
		{
			Name:        "updateAgentSettings",
			Description: "Update the agent's personality or configuration. Use this when the user asks to change behavior (e.g. \"be stricter\").",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"personalityMode": map[string]any{"type": "string", "enum": []string{"coach", "friend", "strict", "guru"}},
					"coachingStyle":   map[string]any{"type": "string", "enum": []string{"standard", "narrative", "simulation"}},
					"honestyLevel":    map[string]any{"type": "number", "description": "0-100"},
				},
				"required": []string{},
			},
		},
		{
			Name:        "getTodos",
			Description: "Get the user's todo list. Use this ONLY for tasks/todos. Can filter by status (today, pending, completed) AND search by keywords or tags (e.g., \"project alpha\", \"#coding\").",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"filter": map[string]any{"type": "string", "description": `Filter todos by status: "all" (default), "today", "pending", "completed"`},
					"search": map[string]any{"type": "string", "description": `Search keyword to filter by text content or tags (e.g., "#coding", "work", "meeting")`},
				},
				"required": []string{},
			},
		},
		{
			Name:        "addTodo",
			Description: "Create a new todo/task. Use when user says \"remind me to...\", \"add task\", etc.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"text":     map[string]any{"type": "string", "description": "The task description"},
					"priority": map[string]any{"type": "string", "enum": []string{"low", "medium", "high"}},
					"tags":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{"text"},
			},
		},
		{
			Name:        "toggleTodo",
			Description: "Mark a todo as completed or pending. Use when user says \"mark as done\", \"finish task\", etc.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":        map[string]any{"type": "string", "description": "The ID of the todo to toggle"},
					"completed": map[string]any{"type": "boolean", "description": "True for done, false for pending"},
				},
				"required": []string{"id", "completed"},
			},
		},
		{
			Name:        "deleteTodo",
			Description: "Delete/Remove a todo permanently.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{"type": "string", "description": "The ID of the todo to delete"},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "getJournalEntries",
			Description: "Get the user's journal entries or method/diary logs. Use this ONLY when the user asks for \"journal\", \"diary\", or \"entries\".",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"limit": map[string]any{"type": "number", "description": "Number of recent entries to retrieve (default: 5)"},
				},
				"required": []string{},
			},
		},
		{
			Name:        "addJournalEntry",
			Description: "Create a new journal entry. Use when user says \"log to journal\", \"write to journal\", or shares reflections.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"content": map[string]any{"type": "string", "description": "The journal entry text content"},
					"title":   map[string]any{"type": "string", "description": "Optional title for the entry"},
					"mood":    map[string]any{"type": "string", "enum": []string{"happy", "neutral", "sad", "stressed", "energetic"}, "description": "Detected mood"},
					"tags":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
				},
				"required": []string{"content"},
			},
		},
		{
			Name:        "updateJournalEntry",
			Description: "Update an existing journal entry content or details.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":      map[string]any{"type": "string", "description": "The ID of the journal entry"},
					"content": map[string]any{"type": "string"},
					"title":   map[string]any{"type": "string"},
					"mood":    map[string]any{"type": "string", "enum": []string{"happy", "neutral", "sad", "stressed", "energetic"}},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "deleteJournalEntry",
			Description: "Delete a journal entry permanently.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id": map[string]any{"type": "string", "description": "The ID of the journal entry to delete"},
				},
				"required": []string{"id"},
			},
		},
		{
			Name:        "getTrackers",
			Description: "Get the user's trackers/habits. Use for inquiries about \"habits\", \"streaks\", or \"trackers\".",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"search": map[string]any{"type": "string", "description": `Search trackers by name (e.g., "workout", "reading")`},
				},
				"required": []string{},
			},
		},
		{
			Name:        "getProjects",
			Description: "Get the user's projects. Use for inquiries about \"projects\", \"plans\", or \"work\".",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"filter": map[string]any{"type": "string", "description": `Filter by status: "active", "completed", "planned", "all"`},
					"search": map[string]any{"type": "string", "description": "Search projects by title"},
				},
				"required": []string{},
			},
		},
		{
			Name:        "getGoals",
			Description: "Get the user's goals. Use for inquiries about \"goals\", \"outcomes\", or \"aspirations\".",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"filter": map[string]any{"type": "string", "description": `Filter by status: "active", "completed", "all"`},
					"search": map[string]any{"type": "string", "description": "Search goals by title"},
				},
				"required": []string{},
			},
		},
		{
			Name:        "visualizeData",
			Description: "Generate a graphical visualization (chart/graph) for user data such as trackers, todos, or goals. Use when the user asks \"show me a graph\", \"visualize my habits\", or \"how is my progress\".",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"dataType":  map[string]any{"type": "string", "enum": []string{"trackers", "todos", "goals"}, "description": "The type of data to visualize"},
					"chartType": map[string]any{"type": "string", "enum": []string{"line", "bar", "pie"}, "description": "The visualization format"},
					"title":     map[string]any{"type": "string", "description": "The title of the chart"},
					"trackerId": map[string]any{"type": "string", "description": "Optional: Specific tracker ID for line charts"},
				},
				"required": []string{"dataType", "chartType", "title"},
			},
		},
	}
}
