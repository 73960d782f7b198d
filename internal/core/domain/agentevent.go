package domain

// AgentEventKind tags the variants of an AgentDriver.Stream event, per the
// streaming contract: start, sources (quick-answer only), text-delta,
// tool-call, tool-result, done, error, ping.
type AgentEventKind string

const (
	AgentEventStart      AgentEventKind = "start"
	AgentEventSources    AgentEventKind = "sources"
	AgentEventTextDelta  AgentEventKind = "text-delta"
	AgentEventToolCall   AgentEventKind = "tool-call"
	AgentEventToolResult AgentEventKind = "tool-result"
	AgentEventDone       AgentEventKind = "done"
	AgentEventError      AgentEventKind = "error"
	AgentEventPing       AgentEventKind = "ping"
)

// AgentEvent is one element of an AgentDriver.Stream sequence. Only the
// fields relevant to Kind are populated.
type AgentEvent struct {
	Kind  AgentEventKind
	Model string // start, done

	Sources []SearchResult // sources, done

	Text string // text-delta, done

	Step   int            // tool-call, tool-result
	Name   string         // tool-call, tool-result
	Input  map[string]any // tool-call
	Output any            // tool-result

	Message string // error
}
