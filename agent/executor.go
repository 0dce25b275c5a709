package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/krsna-app/krsna/api/domain"
	"github.com/krsna-app/krsna/api/store"
	"github.com/krsna-app/krsna/shared/id"
	"github.com/krsna-app/krsna/shared/jsonutil"
	"github.com/krsna-app/krsna/shared/llm"
	"github.com/krsna-app/krsna/shared/protocol"
)

const trackerLogWindowDays = 30

// toolHandler executes one tool. result becomes both the tool message
// content and the data card payload; viz is set only by visualizeData.
type toolHandler func(ctx context.Context, userID string, args map[string]any) (result any, summary string, viz *protocol.Visualization, err error)

// Executor dispatches assembled tool calls against the store. Handler
// keys match the registry names one to one.
type Executor struct {
	store    Store
	handlers map[string]toolHandler
}

func NewExecutor(s Store) *Executor {
	e := &Executor{store: s}
	e.handlers = map[string]toolHandler{
		"saveMemory":          e.saveMemory,
		"updateAgentSettings": e.updateAgentSettings,
		"getTodos":            e.getTodos,
		"addTodo":             e.addTodo,
		"toggleTodo":          e.toggleTodo,
		"deleteTodo":          e.deleteTodo,
		"getJournalEntries":   e.getJournalEntries,
		"addJournalEntry":     e.addJournalEntry,
		"updateJournalEntry":  e.updateJournalEntry,
		"deleteJournalEntry":  e.deleteJournalEntry,
		"getTrackers":         e.getTrackers,
		"getProjects":         e.getProjects,
		"getGoals":            e.getGoals,
		"visualizeData":       e.visualizeData,
	}
	return e
}

// HandlerNames returns the registered tool names.
func (e *Executor) HandlerNames() []string {
	names := make([]string, 0, len(e.handlers))
	for name := range e.handlers {
		names = append(names, name)
	}
	return names
}

// Execute runs one tool call. A name with no handler is a hard error;
// everything else (bad argument JSON, store failures) is reported
// in-band so the model can react and the rest of the batch still runs.
func (e *Executor) Execute(ctx context.Context, userID string, call llm.ToolCall) (*ToolResult, error) {
	handler, ok := e.handlers[call.Name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", call.Name)
	}

	res := &ToolResult{RequestID: call.ID, ToolName: call.Name}

	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			slog.WarnContext(ctx, "tool arguments unparseable", "tool", call.Name, "error", err)
			res.Content = `{"error": "invalid arguments"}`
			res.Summary = "Invalid arguments."
			return res, nil
		}
	}

	result, summary, viz, err := handler(ctx, userID, args)
	if err != nil {
		slog.ErrorContext(ctx, "tool execution failed", "tool", call.Name, "error", err)
		res.Content = jsonutil.MustJSON(map[string]any{"error": err.Error()})
		res.Summary = "Tool failed: " + err.Error()
		return res, nil
	}

	res.OK = true
	res.Content = jsonutil.MustJSON(result)
	res.Summary = summary
	res.Card = result
	res.Viz = viz
	return res, nil
}

func stringArg(args map[string]any, key string) string {
	s, _ := args[key].(string)
	return s
}

func numArg(args map[string]any, key string) (float64, bool) {
	n, ok := args[key].(float64)
	return n, ok
}

func boolArg(args map[string]any, key string) bool {
	b, _ := args[key].(bool)
	return b
}

func stringSliceArg(args map[string]any, key string) []string {
	raw, ok := args[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func (e *Executor) saveMemory(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	content := stringArg(args, "content")
	if content == "" {
		return nil, "", nil, fmt.Errorf("content is required")
	}

	importance := 5
	if n, ok := numArg(args, "importance"); ok {
		importance = int(n)
	}

	memory := &domain.AgentMemory{
		ID:         id.NewMemory(),
		UserID:     userID,
		Content:    content,
		Kind:       stringArg(args, "type"),
		Importance: importance,
		Tags:       stringSliceArg(args, "tags"),
	}
	if err := e.store.CreateAgentMemory(ctx, memory); err != nil {
		return nil, "", nil, err
	}
	return map[string]any{"success": true, "stored": true}, "Memory stored.", nil, nil
}

func (e *Executor) updateAgentSettings(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	cfg, err := e.store.GetAgentConfig(ctx, userID)
	if err != nil {
		return nil, "", nil, err
	}

	if p := stringArg(args, "personalityMode"); p != "" {
		if !domain.ValidPersona(p) {
			return nil, "", nil, fmt.Errorf("unknown personality mode: %s", p)
		}
		cfg.Persona = p
	}
	if s := stringArg(args, "coachingStyle"); s != "" {
		if !domain.ValidCoachingStyle(s) {
			return nil, "", nil, fmt.Errorf("unknown coaching style: %s", s)
		}
		cfg.CoachingStyle = s
	}
	if h, ok := numArg(args, "honestyLevel"); ok {
		level := int(h)
		if level < 0 {
			level = 0
		}
		if level > 100 {
			level = 100
		}
		cfg.Honesty = level
	}

	if err := e.store.UpsertAgentConfig(ctx, cfg); err != nil {
		return nil, "", nil, err
	}
	return map[string]any{"success": true, "updated": true}, "Settings updated.", nil, nil
}

func (e *Executor) getTodos(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	filter := stringArg(args, "filter")
	if filter == "" {
		filter = "all"
	}

	todos, err := e.store.ListTodos(ctx, userID, filter, stringArg(args, "search"))
	if err != nil {
		return nil, "", nil, err
	}
	if todos == nil {
		todos = []*domain.Todo{}
	}
	return map[string]any{"todos": todos}, fmt.Sprintf("Found %d tasks.", len(todos)), nil, nil
}

func (e *Executor) addTodo(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	text := stringArg(args, "text")
	if text == "" {
		return nil, "", nil, fmt.Errorf("text is required")
	}

	todo := &domain.Todo{
		ID:       id.NewTodo(),
		UserID:   userID,
		Text:     text,
		Priority: stringArg(args, "priority"),
		Tags:     stringSliceArg(args, "tags"),
	}
	if err := e.store.CreateTodo(ctx, todo); err != nil {
		return nil, "", nil, err
	}
	return map[string]any{"todo": todo}, "Added task: " + text, nil, nil
}

func (e *Executor) toggleTodo(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	todoID := stringArg(args, "id")
	if todoID == "" {
		return nil, "", nil, fmt.Errorf("id is required")
	}

	var todo *domain.Todo
	var err error
	if completed, ok := args["completed"].(bool); ok {
		todo, err = e.store.SetTodoCompleted(ctx, userID, todoID, completed)
	} else {
		todo, err = e.store.ToggleTodo(ctx, userID, todoID)
	}
	if err != nil {
		return nil, "", nil, err
	}

	state := "pending"
	if todo.Completed {
		state = "done"
	}
	return map[string]any{"success": true, "todo": todo}, fmt.Sprintf("Marked task as %s.", state), nil, nil
}

func (e *Executor) deleteTodo(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	todoID := stringArg(args, "id")
	if todoID == "" {
		return nil, "", nil, fmt.Errorf("id is required")
	}
	if err := e.store.DeleteTodo(ctx, userID, todoID); err != nil {
		return nil, "", nil, err
	}
	return map[string]any{"success": true}, "Task deleted.", nil, nil
}

func (e *Executor) getJournalEntries(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	limit := 5
	if n, ok := numArg(args, "limit"); ok && n > 0 {
		limit = int(n)
	}

	entries, err := e.store.ListJournalEntries(ctx, userID, limit)
	if err != nil {
		return nil, "", nil, err
	}
	if entries == nil {
		entries = []*domain.JournalEntry{}
	}
	return map[string]any{"entries": entries}, fmt.Sprintf("Retrieved %d journal entries.", len(entries)), nil, nil
}

func (e *Executor) addJournalEntry(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	content := stringArg(args, "content")
	if content == "" {
		return nil, "", nil, fmt.Errorf("content is required")
	}
	if title := stringArg(args, "title"); title != "" {
		content = title + "\n\n" + content
	}

	entry := &domain.JournalEntry{
		ID:      id.NewJournal(),
		UserID:  userID,
		Content: content,
		Mood:    stringArg(args, "mood"),
		Tags:    stringSliceArg(args, "tags"),
	}
	if err := e.store.CreateJournalEntry(ctx, entry); err != nil {
		return nil, "", nil, err
	}
	return map[string]any{"entry": entry}, "Journal entry added.", nil, nil
}

func (e *Executor) updateJournalEntry(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	entryID := stringArg(args, "id")
	if entryID == "" {
		return nil, "", nil, fmt.Errorf("id is required")
	}

	entry, err := e.store.GetJournalEntry(ctx, userID, entryID)
	if err != nil {
		return nil, "", nil, err
	}
	if content := stringArg(args, "content"); content != "" {
		entry.Content = content
	}
	if mood := stringArg(args, "mood"); mood != "" {
		entry.Mood = mood
	}
	if err := e.store.UpdateJournalEntry(ctx, entry); err != nil {
		return nil, "", nil, err
	}
	return map[string]any{"entry": entry}, "Journal entry updated.", nil, nil
}

func (e *Executor) deleteJournalEntry(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	entryID := stringArg(args, "id")
	if entryID == "" {
		return nil, "", nil, fmt.Errorf("id is required")
	}
	if err := e.store.DeleteJournalEntry(ctx, userID, entryID); err != nil {
		return nil, "", nil, err
	}
	return map[string]any{"success": true}, "Journal entry deleted.", nil, nil
}

// trackerView joins a tracker with its computed streak for tool output.
type trackerView struct {
	*domain.Tracker
	Streak int `json:"streak"`
}

func (e *Executor) loadTrackers(ctx context.Context, userID, search string) ([]trackerView, error) {
	trackers, err := e.store.ListTrackers(ctx, userID, trackerLogWindowDays)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]trackerView, 0, len(trackers))
	for _, t := range trackers {
		if search != "" && !strings.Contains(strings.ToLower(t.Name), strings.ToLower(search)) {
			continue
		}
		views = append(views, trackerView{Tracker: t, Streak: store.Streak(t.Logs, now)})
	}
	return views, nil
}

func (e *Executor) getTrackers(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	views, err := e.loadTrackers(ctx, userID, stringArg(args, "search"))
	if err != nil {
		return nil, "", nil, err
	}
	return map[string]any{"trackers": views}, fmt.Sprintf("Retrieved %d trackers.", len(views)), nil, nil
}

func (e *Executor) getProjects(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	projects, err := e.store.ListProjects(ctx, userID)
	if err != nil {
		return nil, "", nil, err
	}

	filter := stringArg(args, "filter")
	if filter == "completed" {
		filter = domain.ProjectStatusDone
	}
	search := strings.ToLower(stringArg(args, "search"))

	out := make([]*domain.Project, 0, len(projects))
	for _, p := range projects {
		if filter != "" && filter != "all" && p.Status != filter {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		out = append(out, p)
	}
	return map[string]any{"projects": out}, fmt.Sprintf("Retrieved %d projects.", len(out)), nil, nil
}

func (e *Executor) getGoals(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	goals, err := e.store.ListGoals(ctx, userID)
	if err != nil {
		return nil, "", nil, err
	}

	filter := stringArg(args, "filter")
	search := strings.ToLower(stringArg(args, "search"))

	out := make([]*domain.Goal, 0, len(goals))
	for _, g := range goals {
		switch filter {
		case "active":
			if g.Progress >= 100 {
				continue
			}
		case "completed":
			if g.Progress < 100 {
				continue
			}
		}
		if search != "" && !strings.Contains(strings.ToLower(g.Title), search) {
			continue
		}
		out = append(out, g)
	}
	return map[string]any{"goals": out}, fmt.Sprintf("Retrieved %d goals.", len(out)), nil, nil
}

func (e *Executor) visualizeData(ctx context.Context, userID string, args map[string]any) (any, string, *protocol.Visualization, error) {
	dataType := stringArg(args, "dataType")
	chartType := stringArg(args, "chartType")
	title := stringArg(args, "title")

	var points []protocol.ChartPoint
	var subtitle string

	switch dataType {
	case "trackers":
		views, err := e.loadTrackers(ctx, userID, "")
		if err != nil {
			return nil, "", nil, err
		}
		if trackerID := stringArg(args, "trackerId"); trackerID != "" {
			for _, v := range views {
				if v.ID != trackerID {
					continue
				}
				// Logs arrive newest first; chart the latest seven in
				// chronological order.
				logs := v.Logs
				if len(logs) > 7 {
					logs = logs[:7]
				}
				for i := len(logs) - 1; i >= 0; i-- {
					log := logs[i]
					label := log.Date
					if d, err := time.Parse("2006-01-02", log.Date); err == nil {
						label = d.Format("Mon")
					}
					points = append(points, protocol.ChartPoint{Label: label, Value: log.Value})
				}
				subtitle = "Performance: " + v.Name
				break
			}
		} else {
			for i, v := range views {
				if i >= 7 {
					break
				}
				points = append(points, protocol.ChartPoint{Label: v.Name, Value: float64(v.Streak)})
			}
			subtitle = "Active Momentum (Streaks)"
		}

	case "todos":
		todos, err := e.store.ListTodos(ctx, userID, "all", "")
		if err != nil {
			return nil, "", nil, err
		}
		counts := map[string]int{}
		for _, t := range todos {
			counts[t.Priority]++
		}
		for _, p := range []string{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow} {
			if counts[p] > 0 {
				points = append(points, protocol.ChartPoint{Label: strings.ToUpper(p), Value: float64(counts[p])})
			}
		}
		subtitle = "Focus Distribution"

	case "goals":
		goals, err := e.store.ListGoals(ctx, userID)
		if err != nil {
			return nil, "", nil, err
		}
		for i, g := range goals {
			if i >= 5 {
				break
			}
			points = append(points, protocol.ChartPoint{Label: g.Title, Value: float64(g.Progress)})
		}
		subtitle = "Goal Progress %"

	default:
		return nil, "", nil, fmt.Errorf("unknown data type: %s", dataType)
	}

	if points == nil {
		points = []protocol.ChartPoint{}
	}
	viz := &protocol.Visualization{
		ID:        id.NewVisualization(),
		ChartType: chartType,
		Title:     title,
		Subtitle:  subtitle,
		Data:      points,
	}
	result := map[string]any{"success": true, "visualized": true}
	return result, fmt.Sprintf("Generated %s chart for %s.", chartType, dataType), viz, nil
}
