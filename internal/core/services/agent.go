package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/ctxpack/internal/core/domain"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driven"
	"github.com/custodia-labs/ctxpack/internal/core/ports/driving"
	"github.com/custodia-labs/ctxpack/internal/logger"
)

const pingInterval = 5 * time.Second

var _ driving.AgentDriver = (*Agent)(nil)

// Agent implements driving.AgentDriver: the three entry points share the
// same shape, retrieving context with hybrid search, handing the model a
// bounded tool-call loop, and either buffering the result or streaming
// typed events.
type Agent struct {
	Search       *Search
	Tools        *ToolSurface
	ChatModel    driven.ChatModel
	ResearchJobs driven.ResearchJobStore

	// UpdateChecker is optional. When set, a streamed turn that reaches a
	// terminal event schedules one freshness pass over the resources it
	// touched, so updateAvailable reflects recent upstream activity
	// without the caller having to poll separately.
	UpdateChecker *UpdateChecker
}

// NewAgent wires an Agent.
func NewAgent(search *Search, tools *ToolSurface, chat driven.ChatModel, jobs driven.ResearchJobStore) *Agent {
	return &Agent{Search: search, Tools: tools, ChatModel: chat, ResearchJobs: jobs}
}

func toolSpecs() []driven.ToolSpec {
	strProp := func(desc string) map[string]any { return map[string]any{"type": "string", "description": desc} }
	return []driven.ToolSpec{
		{Name: "search", Description: "Hybrid search within one resource", InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"resourceId": strProp("the resource to search"),
				"query":      strProp("search query"),
			},
			"required": []string{"resourceId", "query"},
		}},
		{Name: "grep", Description: "Live pattern search within one resource", InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"resourceId": strProp("the resource to search"),
				"pattern":    strProp("literal or regex pattern"),
			},
			"required": []string{"resourceId", "pattern"},
		}},
		{Name: "read", Description: "Read a line range from a file", InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"resourceId": strProp("the resource the file belongs to"),
				"path":       strProp("file path, relative to the resource root"),
				"lineStart":  map[string]any{"type": "integer"},
				"lineEnd":    map[string]any{"type": "integer"},
			},
			"required": []string{"resourceId", "path"},
		}},
		{Name: "list", Description: "List directory entries within one resource", InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"resourceId": strProp("the resource to list"),
				"dir":        strProp("directory path, relative to the resource root"),
			},
			"required": []string{"resourceId"},
		}},
		{Name: "glob", Description: "Match tracked paths against a pattern within one resource", InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"resourceId": strProp("the resource to match against"),
				"pattern":    strProp("glob pattern"),
			},
			"required": []string{"resourceId", "pattern"},
		}},
	}
}

func systemPromptFor(mode domain.AgentMode) string {
	switch mode {
	case domain.ModeDeepResearch:
		return "You are a thorough research assistant. Use the available tools across as many turns as needed " +
			"to build a complete, well-sourced answer. Prefer breadth: explore multiple resources and files before concluding."
	case domain.ModeExploration:
		return "You are a code research assistant. Use the available tools to investigate the question, " +
			"then answer concisely with specific file and line references."
	default:
		return "Answer the question using only the provided context. Be concise and cite file paths."
	}
}

// Run buffers a full agent turn.
func (a *Agent) Run(ctx context.Context, query string, opts domain.ResearchOptions) (*domain.AgentResult, error) {
	opts = normalizeOptions(opts)

	sources, err := a.Search.Search(ctx, domain.SearchOptions{Query: query, ResourceIDs: opts.ResourceIDs, Alpha: opts.Alpha, TopK: opts.TopK})
	if err != nil {
		logger.Warn("agent: initial search failed", "err", err)
	}

	messages := []driven.ChatMessage{{Role: "user", Content: buildUserPrompt(query, sources)}}
	chatOpts := driven.ChatOptions{System: systemPromptFor(opts.Mode), StepBudget: opts.Mode.StepBudget()}
	if opts.Mode != domain.ModeQuickAnswer {
		chatOpts.Tools = toolSpecs()
	}

	result := &domain.AgentResult{Sources: sources}
	seen := map[string]bool{}
	for _, s := range sources {
		seen[sourceKey(s)] = true
	}

	for step := 1; step <= chatOpts.StepBudget; step++ {
		text, err := a.ChatModel.Chat(ctx, messages, chatOpts)
		if err != nil {
			if step == 1 {
				return nil, fmt.Errorf("%w: %v", domain.ErrUpstream, err)
			}
			break
		}
		result.Steps = append(result.Steps, domain.AgentStep{StepNumber: step, Text: text})
		result.Text = text

		calls := parseToolCalls(text)
		if len(calls) == 0 || opts.Mode == domain.ModeQuickAnswer {
			break
		}
		for _, call := range calls {
			output, addedSources := a.invokeTool(ctx, call, opts.ResourceIDs)
			for _, s := range addedSources {
				if !seen[sourceKey(s)] {
					seen[sourceKey(s)] = true
					result.Sources = append(result.Sources, s)
				}
			}
			messages = append(messages,
				driven.ChatMessage{Role: "assistant", Content: text},
				driven.ChatMessage{Role: "user", Content: fmt.Sprintf("Observation for %s: %s", call.Name, output)},
			)
		}
	}
	return result, nil
}

// Stream runs the same loop as Run but emits typed events as it goes,
// heartbeating every 5 seconds so idle consumers stay connected.
func (a *Agent) Stream(ctx context.Context, query string, opts domain.ResearchOptions) (<-chan domain.AgentEvent, error) {
	opts = normalizeOptions(opts)
	events := make(chan domain.AgentEvent, 8)

	go func() {
		defer close(events)
		done := make(chan struct{})
		defer close(done)
		go heartbeat(ctx, events, done)

		events <- domain.AgentEvent{Kind: domain.AgentEventStart, Model: a.ChatModel.ModelName()}

		sources, err := a.Search.Search(ctx, domain.SearchOptions{Query: query, ResourceIDs: opts.ResourceIDs, Alpha: opts.Alpha, TopK: opts.TopK})
		if err != nil {
			logger.Warn("agent: initial search failed", "err", err)
		}
		if opts.Mode == domain.ModeQuickAnswer {
			events <- domain.AgentEvent{Kind: domain.AgentEventSources, Sources: sources}
		}

		messages := []driven.ChatMessage{{Role: "user", Content: buildUserPrompt(query, sources)}}
		chatOpts := driven.ChatOptions{System: systemPromptFor(opts.Mode), StepBudget: opts.Mode.StepBudget()}
		if opts.Mode != domain.ModeQuickAnswer {
			chatOpts.Tools = toolSpecs()
		}

		for step := 1; step <= chatOpts.StepBudget; step++ {
			select {
			case <-ctx.Done():
				events <- domain.AgentEvent{Kind: domain.AgentEventError, Message: ctx.Err().Error()}
				a.scheduleUpdateCheck(sources)
				return
			default:
			}

			stream, err := a.ChatModel.ChatStream(ctx, messages, chatOpts)
			if err != nil {
				events <- domain.AgentEvent{Kind: domain.AgentEventError, Message: err.Error()}
				a.scheduleUpdateCheck(sources)
				return
			}
			var text string
			var streamErr error
			for ev := range stream {
				switch ev.Kind {
				case driven.EventTextDelta:
					text += ev.Text
					events <- domain.AgentEvent{Kind: domain.AgentEventTextDelta, Text: ev.Text}
				case driven.EventError:
					streamErr = ev.Err
				}
			}
			if streamErr != nil {
				events <- domain.AgentEvent{Kind: domain.AgentEventError, Message: streamErr.Error()}
				a.scheduleUpdateCheck(sources)
				return
			}

			calls := parseToolCalls(text)
			if len(calls) == 0 || opts.Mode == domain.ModeQuickAnswer {
				events <- domain.AgentEvent{Kind: domain.AgentEventDone, Model: a.ChatModel.ModelName(), Sources: sources, Text: text}
				a.scheduleUpdateCheck(sources)
				return
			}
			for _, call := range calls {
				events <- domain.AgentEvent{Kind: domain.AgentEventToolCall, Step: step, Name: call.Name, Input: call.Input}
				output, addedSources := a.invokeTool(ctx, call, opts.ResourceIDs)
				sources = append(sources, addedSources...)
				events <- domain.AgentEvent{Kind: domain.AgentEventToolResult, Step: step, Name: call.Name, Output: output}
				messages = append(messages,
					driven.ChatMessage{Role: "assistant", Content: text},
					driven.ChatMessage{Role: "user", Content: fmt.Sprintf("Observation for %s: %s", call.Name, output)},
				)
			}
		}
		events <- domain.AgentEvent{Kind: domain.AgentEventDone, Model: a.ChatModel.ModelName(), Sources: sources}
		a.scheduleUpdateCheck(sources)
	}()

	return events, nil
}

// scheduleUpdateCheck fires an UpdateChecker pass over the resources
// touched by sources, detached from the request's context so it keeps
// running after the stream closes.
func (a *Agent) scheduleUpdateCheck(sources []domain.SearchResult) {
	if a.UpdateChecker == nil {
		return
	}
	ids := resourceIDsOf(sources)
	if len(ids) == 0 {
		return
	}
	go a.UpdateChecker.Check(context.Background(), nil, ids)
}

func resourceIDsOf(sources []domain.SearchResult) []string {
	seen := map[string]bool{}
	var ids []string
	for _, s := range sources {
		if !seen[s.ResourceID] {
			seen[s.ResourceID] = true
			ids = append(ids, s.ResourceID)
		}
	}
	return ids
}

func heartbeat(ctx context.Context, events chan<- domain.AgentEvent, done <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case <-ticker.C:
			select {
			case events <- domain.AgentEvent{Kind: domain.AgentEventPing}:
			case <-done:
				return
			}
		}
	}
}

// StartResearchJob persists a queued ResearchJob and runs the deep research
// driver against it in the background.
func (a *Agent) StartResearchJob(ctx context.Context, ownerID *string, query string, opts domain.ResearchOptions) (*domain.ResearchJob, error) {
	opts.Mode = domain.ModeDeepResearch
	opts = normalizeOptions(opts)

	job := &domain.ResearchJob{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Query:       query,
		ResourceIDs: opts.ResourceIDs,
		Options:     opts,
		Status:      domain.JobQueued,
		CreatedAt:   time.Now(),
	}
	if err := a.ResearchJobs.Create(ctx, job); err != nil {
		return nil, err
	}

	go a.runResearchJob(job)
	return job, nil
}

func (a *Agent) runResearchJob(job *domain.ResearchJob) {
	ctx := context.Background()
	now := time.Now()
	job.Status = domain.JobRunning
	job.StartedAt = &now
	if err := a.ResearchJobs.Update(ctx, job); err != nil {
		logger.Error("agent: persist running research job failed", "job", job.ID, "err", err)
	}

	result, err := a.Run(ctx, job.Query, job.Options)
	completed := time.Now()
	job.CompletedAt = &completed
	if err != nil {
		msg := err.Error()
		job.Status = domain.JobFailed
		job.Error = &msg
	} else {
		job.Status = domain.JobCompleted
		job.Result = result
	}
	if err := a.ResearchJobs.Update(ctx, job); err != nil {
		logger.Error("agent: persist completed research job failed", "job", job.ID, "err", err)
	}
}

func normalizeOptions(opts domain.ResearchOptions) domain.ResearchOptions {
	if opts.Mode == "" {
		opts.Mode = domain.ModeQuickAnswer
	}
	if opts.TopK <= 0 {
		opts.TopK = 10
	}
	if opts.Alpha == 0 {
		opts.Alpha = 0.5
	}
	return opts
}

func buildUserPrompt(query string, sources []domain.SearchResult) string {
	prompt := "Question: " + query + "\n\nContext:\n"
	for _, s := range sources {
		prompt += fmt.Sprintf("--- %s:%d-%d ---\n%s\n\n", s.Filepath, s.LineStart, s.LineEnd, s.Text)
	}
	return prompt
}

func sourceKey(s domain.SearchResult) string { return s.Key() }

// toolCall is what parseToolCalls extracts from a model turn.
type toolCall struct {
	Name  string
	Input map[string]any
}

// parseToolCalls looks for a trailing JSON object describing tool
// invocations, the textual convention providers without native tool-call
// support fall back to. Providers with native tool_use blocks surface
// calls through ChatStream's tool-call events instead; this is the path
// for ChatModel.Chat's single buffered string return.
func parseToolCalls(text string) []toolCall {
	// Walk back over opening braces until one starts an object that runs to
	// the end of text; the last '{' alone may open a nested "input" object.
	end := len(text)
	for {
		start := lastIndexByte(text[:end], '{')
		if start < 0 {
			return nil
		}
		var envelope struct {
			Tool  string         `json:"tool"`
			Input map[string]any `json:"input"`
		}
		if err := json.Unmarshal([]byte(text[start:]), &envelope); err == nil && envelope.Tool != "" {
			return []toolCall{{Name: envelope.Tool, Input: envelope.Input}}
		}
		end = start
	}
}

func lastIndexByte(s string, b byte) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == b {
			return i
		}
	}
	return -1
}

// invokeTool runs one tool call. When the model omits resourceId, it
// defaults to the sole resource in scope; with zero or several resources in
// scope an omitted resourceId is left empty and fails downstream lookup.
func (a *Agent) invokeTool(ctx context.Context, call toolCall, scope []string) (string, []domain.SearchResult) {
	resourceID, _ := call.Input["resourceId"].(string)
	if resourceID == "" && len(scope) == 1 {
		resourceID = scope[0]
	}
	switch call.Name {
	case "search":
		query, _ := call.Input["query"].(string)
		hits, err := a.Tools.Search(ctx, resourceID, query, 10)
		if err != nil {
			return err.Error(), nil
		}
		sources := make([]domain.SearchResult, 0, len(hits))
		for _, h := range hits {
			sources = append(sources, domain.SearchResult{
				ResourceID: resourceID, Filepath: h.Filepath, LineStart: h.LineStart, LineEnd: h.LineEnd,
				Text: h.Preview, Score: h.Score, MatchType: domain.MatchHybrid,
			})
		}
		return encodeJSON(hits), sources
	case "grep":
		pattern, _ := call.Input["pattern"].(string)
		hits, err := a.Tools.Grep(ctx, resourceID, pattern, true)
		if err != nil {
			return err.Error(), nil
		}
		return encodeJSON(hits), nil
	case "read":
		path, _ := call.Input["path"].(string)
		lineStart := intFromAny(call.Input["lineStart"])
		lineEnd := intFromAny(call.Input["lineEnd"])
		text, err := a.Tools.Read(ctx, resourceID, path, lineStart, lineEnd)
		if err != nil {
			return err.Error(), nil
		}
		return text, nil
	case "list":
		dir, _ := call.Input["dir"].(string)
		entries, err := a.Tools.List(ctx, resourceID, dir)
		if err != nil {
			return err.Error(), nil
		}
		return encodeJSON(entries), nil
	case "glob":
		pattern, _ := call.Input["pattern"].(string)
		matches, err := a.Tools.Glob(ctx, resourceID, pattern)
		if err != nil {
			return err.Error(), nil
		}
		return encodeJSON(matches), nil
	default:
		return fmt.Sprintf("unknown tool %q", call.Name), nil
	}
}

func intFromAny(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func encodeJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
